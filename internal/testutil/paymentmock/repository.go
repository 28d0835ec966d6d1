package paymentmock

import (
	"context"

	domain "vehicle-loan-backend/internal/domain/payment"
)

var _ domain.Repository = (*Repo)(nil)

type Repo struct {
	CreateFn            func(ctx context.Context, p *domain.Payment) error
	ListByInstallmentFn func(ctx context.Context, installmentID string) ([]domain.Payment, error)
}

func (m *Repo) Create(ctx context.Context, p *domain.Payment) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Repo) ListByInstallment(ctx context.Context, installmentID string) ([]domain.Payment, error) {
	if m.ListByInstallmentFn != nil {
		return m.ListByInstallmentFn(ctx, installmentID)
	}
	return nil, nil
}
