package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vehicle-loan-backend/internal/domain/document"
	"vehicle-loan-backend/internal/domain/installment"
	"vehicle-loan-backend/internal/domain/loan"
	"vehicle-loan-backend/internal/domain/payment"
)

type Pool struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

var DefaultPool = Pool{MaxOpen: 30, MaxIdle: 10, MaxLifetime: 30 * time.Minute, MaxIdleTime: 10 * time.Minute}

func OpenGorm(dsn string, log *slog.Logger) (*gorm.DB, error) {
	return OpenGormWithDialector(mysql.Open(dsn), log)
}

// OpenGormWithDialector opens, tunes the pool and pings. Duplicate-key
// errors come back as gorm.ErrDuplicatedKey.
func OpenGormWithDialector(dial gorm.Dialector, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}
	cfg := &gorm.Config{
		Logger:         NewLogger(log, logger.Warn),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}
	db, err := gorm.Open(dial, cfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(DefaultPool.MaxOpen)
	sqlDB.SetMaxIdleConns(DefaultPool.MaxIdle)
	sqlDB.SetConnMaxLifetime(DefaultPool.MaxLifetime)
	sqlDB.SetConnMaxIdleTime(DefaultPool.MaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}
	log.Info("gorm: connected", "dialect", dial.Name())
	return db, nil
}

// Handle returns the pool behind db for health checks and shutdown.
func Handle(db *gorm.DB) (*sql.DB, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm: sql handle: %w", err)
	}
	return sqlDB, nil
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&loan.Application{},
		&installment.Installment{},
		&document.Document{},
		&payment.Payment{},
	)
}

// NewLogger routes gorm's SQL log through slog at the given level.
func NewLogger(log *slog.Logger, level logger.LogLevel) logger.Interface {
	return logger.New(slog.NewLogLogger(log.Handler(), slog.LevelWarn), logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
