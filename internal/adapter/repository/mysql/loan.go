package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	loanDomain "vehicle-loan-backend/internal/domain/loan"
	"vehicle-loan-backend/pkg/apperr"
)

type ApplicationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *loanDomain.Application) error {
	err := r.db.WithContext(ctx).Create(a).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("duplicate_application", "application %s or number %s already exists", a.ApplicationID, a.ApplicationNumber).Wrap(err)
	}
	return err
}

func (r *ApplicationRepository) Save(ctx context.Context, a *loanDomain.Application) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *ApplicationRepository) GetByApplicationID(ctx context.Context, applicationID string) (*loanDomain.Application, error) {
	var out loanDomain.Application
	res := r.db.WithContext(ctx).Where("application_id = ?", applicationID).First(&out)
	return &out, res.Error
}

func (r *ApplicationRepository) GetByApplicationIDForUpdate(ctx context.Context, applicationID string) (*loanDomain.Application, error) {
	var out loanDomain.Application
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("application_id = ?", applicationID).
		First(&out)
	return &out, res.Error
}

func (r *ApplicationRepository) List(ctx context.Context, f loanDomain.ListFilter) ([]loanDomain.Application, error) {
	q := r.db.WithContext(ctx).Model(&loanDomain.Application{})
	if f.ApplicantID != "" {
		q = q.Where("applicant_id = ?", f.ApplicantID)
	}
	if f.State != "" {
		q = q.Where("state = ?", f.State)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var out []loanDomain.Application
	res := q.Order("created_at DESC, id DESC").Find(&out)
	return out, res.Error
}

func (r *ApplicationRepository) ListApplicationIDs(ctx context.Context) ([]string, error) {
	var ids []string
	res := r.db.WithContext(ctx).Model(&loanDomain.Application{}).Order("id").Pluck("application_id", &ids)
	return ids, res.Error
}

// CountRecentApplications counts applications created by the applicant in the last windowDays.
func (r *ApplicationRepository) CountRecentApplications(ctx context.Context, applicantID string, windowDays int) (int64, error) {
	since := r.now().AddDate(0, 0, -windowDays)
	var n int64
	res := r.db.WithContext(ctx).Model(&loanDomain.Application{}).
		Where("applicant_id = ? AND created_at >= ?", applicantID, since).
		Count(&n)
	return n, res.Error
}

func (r *ApplicationRepository) CountRejectedApplications(ctx context.Context, applicantID string) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).Model(&loanDomain.Application{}).
		Where("applicant_id = ? AND state = ?", applicantID, loanDomain.StateRejected).
		Count(&n)
	return n, res.Error
}
