package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"vehicle-loan-backend/internal/domain/document"
	"vehicle-loan-backend/pkg/apperr"
)

type DocumentRepository struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) *DocumentRepository { return &DocumentRepository{db: db} }

func (r *DocumentRepository) Create(ctx context.Context, d *document.Document) error {
	err := r.db.WithContext(ctx).Create(d).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("duplicate_document", "%s already uploaded for application %s", d.Type.Label(), d.ApplicationID).Wrap(err)
	}
	return err
}

func (r *DocumentRepository) Save(ctx context.Context, d *document.Document) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *DocumentRepository) GetByDocumentID(ctx context.Context, documentID string) (*document.Document, error) {
	var out document.Document
	res := r.db.WithContext(ctx).Where("document_id = ?", documentID).First(&out)
	return &out, res.Error
}

func (r *DocumentRepository) GetByApplicationAndType(ctx context.Context, applicationRef uint64, t document.Type) (*document.Document, error) {
	var out document.Document
	res := r.db.WithContext(ctx).
		Where("application_ref = ? AND document_type = ?", applicationRef, t).
		First(&out)
	return &out, res.Error
}

func (r *DocumentRepository) ListByApplication(ctx context.Context, applicationRef uint64) ([]document.Document, error) {
	var out []document.Document
	res := r.db.WithContext(ctx).
		Where("application_ref = ?", applicationRef).
		Order("id ASC").
		Find(&out)
	return out, res.Error
}
