package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"vehicle-loan-backend/internal/domain/actor"
	domain "vehicle-loan-backend/internal/domain/document"
	"vehicle-loan-backend/internal/domain/loan"
	"vehicle-loan-backend/internal/domain/notification"
	"vehicle-loan-backend/internal/domain/uow"
	"vehicle-loan-backend/pkg/apperr"
	"vehicle-loan-backend/pkg/id"
)

type Usecase struct {
	loans  loan.Repository
	docs   domain.Repository
	uow    uow.UnitOfWork
	notify notification.Dispatcher
	log    *slog.Logger
	now    func() time.Time
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func WithDispatcher(d notification.Dispatcher) Option { return func(u *Usecase) { u.notify = d } }

func WithLogger(l *slog.Logger) Option { return func(u *Usecase) { u.log = l } }

// NewUsecase: pass both repos and a UoW for tx flows.
func NewUsecase(loans loan.Repository, docs domain.Repository, tx uow.UnitOfWork, opts ...Option) *Usecase {
	u := &Usecase{
		loans:  loans,
		docs:   docs,
		uow:    tx,
		notify: notification.Discard{},
		log:    slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Upload records document metadata. A rejected record of the same type is
// replaced; any other existing record is a conflict.
func (u *Usecase) Upload(ctx context.Context, who actor.Actor, applicationID string, in UploadInput) (*domain.Document, error) {
	if err := validateUpload(in); err != nil {
		return nil, err
	}
	var out *domain.Document
	err := u.uow.WithinApplicationTx(ctx, applicationID, func(r uow.Repos, a *loan.Application) error {
		if err := requireUploader(who, a); err != nil {
			return err
		}
		if err := ensureDocumentsOpen(a); err != nil {
			return err
		}

		now := u.now()
		existing, err := r.Documents.GetByApplicationAndType(ctx, a.ID, in.Type)
		switch {
		case err == nil:
			if existing.VerificationState != domain.VerificationRejected {
				return apperr.Conflict("duplicate_document", "%s already uploaded for application %s",
					in.Type.Label(), a.ApplicationID).WithDetail("document_id", existing.DocumentID)
			}
			existing.FileName = strings.TrimSpace(in.FileName)
			existing.FileSize = in.FileSize
			existing.StorageURL = strings.TrimSpace(in.StorageURL)
			existing.VerificationState = domain.VerificationPending
			existing.VerifiedBy, existing.VerifiedAt, existing.Notes = "", nil, ""
			existing.UploadedBy, existing.UploadedAt = who.ID, now
			if err := r.Documents.Save(ctx, existing); err != nil {
				return err
			}
			out = existing
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		d := &domain.Document{
			DocumentID:        id.NewID32(),
			ApplicationRef:    a.ID,
			ApplicationID:     a.ApplicationID,
			Type:              in.Type,
			FileName:          strings.TrimSpace(in.FileName),
			FileSize:          in.FileSize,
			StorageURL:        strings.TrimSpace(in.StorageURL),
			VerificationState: domain.VerificationPending,
			UploadedBy:        who.ID,
			UploadedAt:        now,
		}
		if err := r.Documents.Create(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, notFound(err, loan.ErrNotFound)
	}
	u.log.InfoContext(ctx, "document uploaded",
		"application_id", applicationID, "document_id", out.DocumentID, "type", string(out.Type))
	return out, nil
}

// Verify records a staff decision on one document.
func (u *Usecase) Verify(ctx context.Context, who actor.Actor, documentID string, in VerifyInput) (*domain.Document, error) {
	if err := who.Require(actor.CapVerifyDocuments); err != nil {
		return nil, err
	}
	if in.Decision != domain.VerificationVerified && in.Decision != domain.VerificationRejected {
		return nil, apperr.Validation("invalid_decision", "decision must be verified or rejected").WithDetail("field", "decision")
	}
	if in.Decision == domain.VerificationRejected && strings.TrimSpace(in.Notes) == "" {
		return nil, apperr.Validation("notes_required", "notes are required when rejecting a document").WithDetail("field", "notes")
	}
	d, err := u.docs.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}

	var owner *loan.Application
	err = u.uow.WithinApplicationTx(ctx, d.ApplicationID, func(r uow.Repos, a *loan.Application) error {
		if err := ensureDocumentsOpen(a); err != nil {
			return err
		}
		cur, err := r.Documents.GetByDocumentID(ctx, documentID)
		if err != nil {
			return notFound(err, domain.ErrNotFound)
		}
		now := u.now()
		cur.VerificationState = in.Decision
		cur.VerifiedBy = who.ID
		cur.VerifiedAt = &now
		cur.Notes = strings.TrimSpace(in.Notes)
		if err := r.Documents.Save(ctx, cur); err != nil {
			return err
		}
		d, owner = cur, a
		return nil
	})
	if err != nil {
		return nil, notFound(err, loan.ErrNotFound)
	}

	msg := notification.Message{UserID: owner.ApplicantID, ApplicationID: owner.ApplicationID, Event: "document_" + string(d.VerificationState)}
	if d.VerificationState == domain.VerificationRejected {
		msg.Title = "Document Rejected"
		msg.Body = fmt.Sprintf("Your %s for application %s was rejected: %s. Please upload it again.",
			d.Type.Label(), owner.ApplicationNumber, d.Notes)
	} else {
		msg.Title = "Document Verified"
		msg.Body = fmt.Sprintf("Your %s for application %s has been verified.", d.Type.Label(), owner.ApplicationNumber)
	}
	u.notify.Dispatch(msg)
	u.log.InfoContext(ctx, "document reviewed",
		"document_id", d.DocumentID, "decision", string(d.VerificationState), "actor_id", who.ID)
	return d, nil
}

// Status reports the mandatory-document gate for an application.
func (u *Usecase) Status(ctx context.Context, who actor.Actor, applicationID string) (*StatusDTO, error) {
	a, err := u.loans.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, notFound(err, loan.ErrNotFound)
	}
	if !who.CanAccess(a.ApplicantID) {
		return nil, apperr.PermissionDenied("actor %s cannot access application %s", who.ID, applicationID)
	}
	docs, err := u.docs.ListByApplication(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	gate := domain.CheckMandatory(docs, domain.Mandatory())
	out := &StatusDTO{
		ApplicationID: a.ApplicationID,
		Complete:      gate.Complete,
		Missing:       make([]MissingDTO, 0, len(gate.Missing)),
		Uploaded:      docs,
	}
	if out.Uploaded == nil {
		out.Uploaded = []domain.Document{}
	}
	for _, t := range gate.Missing {
		out.Missing = append(out.Missing, MissingDTO{Type: t, Label: t.Label()})
	}
	return out, nil
}

func (u *Usecase) RequiredDocuments() []domain.CatalogEntry { return domain.Catalog() }

func validateUpload(in UploadInput) error {
	switch {
	case !in.Type.Valid():
		return apperr.Validation("invalid_document_type", "unknown document type").WithDetail("field", "document_type")
	case strings.TrimSpace(in.FileName) == "":
		return apperr.Validation("file_name_required", "file_name is required").WithDetail("field", "file_name")
	case in.FileSize <= 0:
		return apperr.Validation("invalid_file_size", "file_size must be greater than zero").WithDetail("field", "file_size")
	case strings.TrimSpace(in.StorageURL) == "":
		return apperr.Validation("storage_url_required", "storage_url is required").WithDetail("field", "storage_url")
	}
	return nil
}

// requireUploader lets applicants upload their own documents and staff upload on their behalf.
func requireUploader(who actor.Actor, a *loan.Application) error {
	if who.ID != "" && who.ID == a.ApplicantID {
		return who.Require(actor.CapApply)
	}
	return who.Require(actor.CapViewAll)
}

func ensureDocumentsOpen(a *loan.Application) error {
	switch a.State {
	case loan.StateDisbursed:
		return apperr.New(apperr.KindImmutableAfterDisbursement, "immutable_after_disbursement",
			"documents of a disbursed application are final")
	case loan.StateApproved:
		return apperr.InvalidTransition("documents of an approved application can no longer change")
	}
	return nil
}

func notFound(err, nf error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return err
}
