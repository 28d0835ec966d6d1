package document

import (
	domain "vehicle-loan-backend/internal/domain/document"
)

type UploadInput struct {
	Type       domain.Type
	FileName   string
	FileSize   int64
	StorageURL string
}

type VerifyInput struct {
	Decision domain.VerificationState // verified or rejected
	Notes    string
}

type MissingDTO struct {
	Type  domain.Type `json:"document_type"`
	Label string      `json:"label"`
}

type StatusDTO struct {
	ApplicationID string            `json:"application_id"`
	Complete      bool              `json:"complete"`
	Missing       []MissingDTO      `json:"missing"`
	Uploaded      []domain.Document `json:"uploaded"`
}
