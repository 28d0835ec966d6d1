package installment

import (
	"context"
	"time"
)

type Repository interface {
	// ReplaceSchedule deletes every installment of the application and inserts rows.
	ReplaceSchedule(ctx context.Context, applicationRef uint64, rows []Installment) error
	ListByApplication(ctx context.Context, applicationRef uint64) ([]Installment, error)
	GetByInstallmentID(ctx context.Context, installmentID string) (*Installment, error)
	GetByInstallmentIDForUpdate(ctx context.Context, installmentID string) (*Installment, error)
	Save(ctx context.Context, i *Installment) error
	// ListOverdueCandidates returns unpaid rows due before asOf on disbursed applications.
	ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]Installment, error)
}
