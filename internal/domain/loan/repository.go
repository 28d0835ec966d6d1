package loan

import "context"

type ListFilter struct {
	ApplicantID string
	State       State
	Limit       int
	Offset      int
}

// HistoryStore answers the applicant-history questions asked by the risk scorer.
type HistoryStore interface {
	CountRecentApplications(ctx context.Context, applicantID string, windowDays int) (int64, error)
	CountRejectedApplications(ctx context.Context, applicantID string) (int64, error)
}

type Repository interface {
	Create(ctx context.Context, a *Application) error
	Save(ctx context.Context, a *Application) error
	GetByApplicationID(ctx context.Context, applicationID string) (*Application, error)
	// ForUpdate variants lock the row for the rest of the surrounding transaction.
	GetByApplicationIDForUpdate(ctx context.Context, applicationID string) (*Application, error)
	List(ctx context.Context, f ListFilter) ([]Application, error)
	ListApplicationIDs(ctx context.Context) ([]string, error)

	HistoryStore
}
