package loanmock

import (
	"context"

	domain "vehicle-loan-backend/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset finders return context.Canceled; unset writers succeed.
type Repo struct {
	CreateFn                      func(ctx context.Context, a *domain.Application) error
	SaveFn                        func(ctx context.Context, a *domain.Application) error
	GetByApplicationIDFn          func(ctx context.Context, applicationID string) (*domain.Application, error)
	GetByApplicationIDForUpdateFn func(ctx context.Context, applicationID string) (*domain.Application, error)
	ListFn                        func(ctx context.Context, f domain.ListFilter) ([]domain.Application, error)
	ListApplicationIDsFn          func(ctx context.Context) ([]string, error)
	CountRecentApplicationsFn     func(ctx context.Context, applicantID string, windowDays int) (int64, error)
	CountRejectedApplicationsFn   func(ctx context.Context, applicantID string) (int64, error)
}

func (m *Repo) Create(ctx context.Context, a *domain.Application) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, a *domain.Application) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByApplicationID(ctx context.Context, applicationID string) (*domain.Application, error) {
	if m.GetByApplicationIDFn != nil {
		return m.GetByApplicationIDFn(ctx, applicationID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByApplicationIDForUpdate(ctx context.Context, applicationID string) (*domain.Application, error) {
	if m.GetByApplicationIDForUpdateFn != nil {
		return m.GetByApplicationIDForUpdateFn(ctx, applicationID)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.Application, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, nil
}

func (m *Repo) ListApplicationIDs(ctx context.Context) ([]string, error) {
	if m.ListApplicationIDsFn != nil {
		return m.ListApplicationIDsFn(ctx)
	}
	return nil, nil
}

func (m *Repo) CountRecentApplications(ctx context.Context, applicantID string, windowDays int) (int64, error) {
	if m.CountRecentApplicationsFn != nil {
		return m.CountRecentApplicationsFn(ctx, applicantID, windowDays)
	}
	return 0, nil
}

func (m *Repo) CountRejectedApplications(ctx context.Context, applicantID string) (int64, error) {
	if m.CountRejectedApplicationsFn != nil {
		return m.CountRejectedApplicationsFn(ctx, applicantID)
	}
	return 0, nil
}
