package document

import (
	"path/filepath"
	"strings"
	"time"

	"vehicle-loan-backend/pkg/apperr"
)

type VerificationState string

const (
	VerificationPending  VerificationState = "pending"
	VerificationVerified VerificationState = "verified"
	VerificationRejected VerificationState = "rejected"
)

var ErrNotFound = apperr.NotFound("document")

// Document is the metadata of an uploaded file; the bytes live in the external store.
type Document struct {
	ID                uint64            `gorm:"primaryKey;column:id" json:"-"`
	DocumentID        string            `gorm:"size:32;uniqueIndex:ux_documents_document_id" json:"document_id"`
	ApplicationRef    uint64            `gorm:"column:application_ref;uniqueIndex:ux_documents_app_type,priority:1" json:"-"`
	ApplicationID     string            `gorm:"size:32;index:idx_documents_application" json:"application_id"`
	Type              Type              `gorm:"column:document_type;size:32;uniqueIndex:ux_documents_app_type,priority:2" json:"document_type"`
	FileName          string            `gorm:"size:255" json:"file_name"`
	FileSize          int64             `json:"file_size"`
	StorageURL        string            `gorm:"size:512" json:"storage_url"`
	VerificationState VerificationState `gorm:"type:enum('pending','verified','rejected');default:'pending'" json:"verification_state"`
	VerifiedBy        string            `gorm:"size:64" json:"verified_by,omitempty"`
	VerifiedAt        *time.Time        `json:"verified_at,omitempty"`
	Notes             string            `gorm:"type:text" json:"notes,omitempty"`
	UploadedBy        string            `gorm:"size:64" json:"uploaded_by"`
	UploadedAt        time.Time         `json:"uploaded_at"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"-"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"-"`
}

func (Document) TableName() string { return "documents" }

// Extension is the lower-cased file extension including the dot.
func (d Document) Extension() string {
	return strings.ToLower(filepath.Ext(d.FileName))
}

// Counts reports whether the record satisfies its checklist slot.
func (d Document) Counts() bool { return d.VerificationState != VerificationRejected }
