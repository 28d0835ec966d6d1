package uow

import (
	"context"

	"vehicle-loan-backend/internal/domain/document"
	"vehicle-loan-backend/internal/domain/installment"
	"vehicle-loan-backend/internal/domain/loan"
	"vehicle-loan-backend/internal/domain/payment"
)

// Repos are bound to the same transaction.
type Repos struct {
	Loans        loan.Repository
	Installments installment.Repository
	Documents    document.Repository
	Payments     payment.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the application row first, then pass it in
	WithinApplicationTx(ctx context.Context, applicationID string, fn func(r Repos, a *loan.Application) error) error
}
