package document

import "context"

type Repository interface {
	Create(ctx context.Context, d *Document) error
	Save(ctx context.Context, d *Document) error
	GetByDocumentID(ctx context.Context, documentID string) (*Document, error)
	GetByApplicationAndType(ctx context.Context, applicationRef uint64, t Type) (*Document, error)
	ListByApplication(ctx context.Context, applicationRef uint64) ([]Document, error)
}
