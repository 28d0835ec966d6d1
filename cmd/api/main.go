package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpadp "vehicle-loan-backend/internal/adapter/http"
	"vehicle-loan-backend/internal/adapter/notify"
	"vehicle-loan-backend/internal/adapter/repository/mysql"
	"vehicle-loan-backend/internal/config"
	"vehicle-loan-backend/internal/domain/notification"
	"vehicle-loan-backend/internal/domain/risk"
	"vehicle-loan-backend/internal/infrastructure/auth"
	"vehicle-loan-backend/internal/infrastructure/cache"
	"vehicle-loan-backend/internal/infrastructure/db"
	"vehicle-loan-backend/internal/infrastructure/logging"
	"vehicle-loan-backend/internal/infrastructure/metrics"
	"vehicle-loan-backend/internal/usecase/document"
	"vehicle-loan-backend/internal/usecase/loan"
	"vehicle-loan-backend/internal/usecase/payment"
)

func main() {
	cfg := config.Load()
	log := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
	if err != nil {
		log.Error("mysql unavailable", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}
	sqlDB, err := db.Handle(gdb)
	if err != nil {
		log.Error("database handle unavailable", "error", err)
		os.Exit(1)
	}

	rdb, err := cache.OpenRedis(cache.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB})
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}

	tokens, err := auth.NewJWTService(auth.JWTConfig{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, Expiration: cfg.JWTExpiry()})
	if err != nil {
		log.Error("jwt setup failed", "error", err)
		os.Exit(1)
	}

	m := metrics.New()

	var notifier notification.Notifier = notify.NewLogNotifier(log)
	var kafka *notify.KafkaNotifier
	if len(cfg.KafkaBrokers) > 0 {
		kafka = notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.NotificationTopic)
		notifier = kafka
	}
	dispatcher := notify.NewDispatcher(notifier, notify.Options{Metrics: m, Logger: log})

	// repositories + unit of work
	loans := mysql.NewApplicationRepository(gdb)
	installments := mysql.NewInstallmentRepository(gdb)
	docs := mysql.NewDocumentRepository(gdb)
	tx := mysql.NewGormUoW(gdb)

	scoring := risk.DefaultConfig()
	scoring.SmallFileBytes = cfg.RiskSmallFileBytes
	scoring.VelocityThreshold = cfg.RiskVelocityThreshold

	loanUC := loan.NewUsecase(loans, installments, tx, risk.NewScorer(scoring),
		loan.WithMetrics(m), loan.WithDispatcher(dispatcher), loan.WithLogger(log))
	docUC := document.NewUsecase(loans, docs, tx,
		document.WithDispatcher(dispatcher), document.WithLogger(log))
	payUC := payment.NewUsecase(installments, tx,
		payment.WithMetrics(m), payment.WithDispatcher(dispatcher), payment.WithLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RepairSchedulesOnStart {
		rep, err := loanUC.RepairSchedules(ctx)
		if err != nil {
			log.Error("schedule repair failed", "error", err)
		} else {
			log.Info("schedule repair finished", "checked", rep.Checked, "repaired", len(rep.Repaired), "failed", len(rep.Failed))
		}
	}
	go sweepOverdue(ctx, payUC, cfg.OverdueSweepInterval, log)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover(), requestLogger(log))

	httpadp.Register(e, httpadp.Routes{
		Health: httpadp.NewHandler(map[string]httpadp.Check{
			"mysql": sqlDB.PingContext,
			"redis": cache.Pinger(rdb),
		}),
		Loans:          httpadp.NewLoanHandler(loanUC),
		Documents:      httpadp.NewDocumentHandler(docUC),
		Payments:       httpadp.NewPaymentHandler(payUC),
		Metrics:        m.Handler(),
		Tokens:         tokens,
		Redis:          rdb,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		Logger:         log,
	})

	go func() {
		addr := ":" + cfg.AppPort
		log.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	dispatcher.Close()
	if kafka != nil {
		if err := kafka.Close(); err != nil {
			log.Warn("kafka writer close", "error", err)
		}
	}
	_ = rdb.Close()
	_ = sqlDB.Close()
	log.Info("bye")
}

// sweepOverdue marks late installments on a fixed interval until ctx ends.
func sweepOverdue(ctx context.Context, uc *payment.Usecase, every time.Duration, log *slog.Logger) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := uc.MarkOverdue(ctx, now.UTC())
			if err != nil {
				log.Error("overdue sweep failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("installments marked overdue", "count", n)
			}
		}
	}
}

func requestLogger(log *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				log.ErrorContext(c.Request().Context(), "request", append(attrs, "error", v.Error)...)
				return nil
			}
			log.InfoContext(c.Request().Context(), "request", attrs...)
			return nil
		},
	})
}
