package documentmock

import (
	"context"

	domain "vehicle-loan-backend/internal/domain/document"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn                  func(ctx context.Context, d *domain.Document) error
	SaveFn                    func(ctx context.Context, d *domain.Document) error
	GetByDocumentIDFn         func(ctx context.Context, documentID string) (*domain.Document, error)
	GetByApplicationAndTypeFn func(ctx context.Context, applicationRef uint64, t domain.Type) (*domain.Document, error)
	ListByApplicationFn       func(ctx context.Context, applicationRef uint64) ([]domain.Document, error)
}

func (m *Repo) Create(ctx context.Context, d *domain.Document) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	return nil
}

func (m *Repo) Save(ctx context.Context, d *domain.Document) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, d)
	}
	return nil
}

func (m *Repo) GetByDocumentID(ctx context.Context, documentID string) (*domain.Document, error) {
	if m.GetByDocumentIDFn != nil {
		return m.GetByDocumentIDFn(ctx, documentID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByApplicationAndType(ctx context.Context, applicationRef uint64, t domain.Type) (*domain.Document, error) {
	if m.GetByApplicationAndTypeFn != nil {
		return m.GetByApplicationAndTypeFn(ctx, applicationRef, t)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByApplication(ctx context.Context, applicationRef uint64) ([]domain.Document, error) {
	if m.ListByApplicationFn != nil {
		return m.ListByApplicationFn(ctx, applicationRef)
	}
	return nil, nil
}
