package installmentmock

import (
	"context"
	"time"

	domain "vehicle-loan-backend/internal/domain/installment"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	ReplaceScheduleFn             func(ctx context.Context, applicationRef uint64, rows []domain.Installment) error
	ListByApplicationFn           func(ctx context.Context, applicationRef uint64) ([]domain.Installment, error)
	GetByInstallmentIDFn          func(ctx context.Context, installmentID string) (*domain.Installment, error)
	GetByInstallmentIDForUpdateFn func(ctx context.Context, installmentID string) (*domain.Installment, error)
	SaveFn                        func(ctx context.Context, i *domain.Installment) error
	ListOverdueCandidatesFn       func(ctx context.Context, asOf time.Time) ([]domain.Installment, error)
}

func (m *Repo) ReplaceSchedule(ctx context.Context, applicationRef uint64, rows []domain.Installment) error {
	if m.ReplaceScheduleFn != nil {
		return m.ReplaceScheduleFn(ctx, applicationRef, rows)
	}
	return nil
}

func (m *Repo) ListByApplication(ctx context.Context, applicationRef uint64) ([]domain.Installment, error) {
	if m.ListByApplicationFn != nil {
		return m.ListByApplicationFn(ctx, applicationRef)
	}
	return nil, nil
}

func (m *Repo) GetByInstallmentID(ctx context.Context, installmentID string) (*domain.Installment, error) {
	if m.GetByInstallmentIDFn != nil {
		return m.GetByInstallmentIDFn(ctx, installmentID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByInstallmentIDForUpdate(ctx context.Context, installmentID string) (*domain.Installment, error) {
	if m.GetByInstallmentIDForUpdateFn != nil {
		return m.GetByInstallmentIDForUpdateFn(ctx, installmentID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, i *domain.Installment) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, i)
	}
	return nil
}

func (m *Repo) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.Installment, error) {
	if m.ListOverdueCandidatesFn != nil {
		return m.ListOverdueCandidatesFn(ctx, asOf)
	}
	return nil, nil
}
