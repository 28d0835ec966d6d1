package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"vehicle-loan-backend/internal/domain/document"
	"vehicle-loan-backend/internal/domain/installment"
	loanDomain "vehicle-loan-backend/internal/domain/loan"
	"vehicle-loan-backend/internal/domain/payment"
	"vehicle-loan-backend/pkg/apperr"
	"vehicle-loan-backend/pkg/id"
)

func TestApplicationRepository_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	appID := id.NewID32()
	a := makeApplication(appID, "cust-1")
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.ID == 0 {
		t.Fatalf("Create did not set auto-increment ID")
	}

	got, err := repo.GetByApplicationID(ctx, appID)
	if err != nil {
		t.Fatalf("GetByApplicationID: %v", err)
	}
	if got.ApplicantID != "cust-1" || got.State != loanDomain.StateDraft || got.TermMonths != 36 {
		t.Errorf("unexpected application: %+v", got)
	}
	if !got.Principal.Equal(dec("800000")) || !got.MonthlyInstallment.Valid || !got.MonthlyInstallment.Decimal.Equal(dec("26571.45")) {
		t.Errorf("decimals not round-tripped: principal=%s installment=%v", got.Principal, got.MonthlyInstallment)
	}

	locked, err := repo.GetByApplicationIDForUpdate(ctx, appID)
	if err != nil || locked.ID != a.ID {
		t.Fatalf("GetByApplicationIDForUpdate: %v %+v", err, locked)
	}
}

func TestApplicationRepository_DuplicateNumberIsConflict(t *testing.T) {
	db := openTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	first := makeApplication(id.NewID32(), "cust-1")
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}
	second := makeApplication(id.NewID32(), "cust-2")
	second.ApplicationNumber = first.ApplicationNumber
	err := repo.Create(ctx, second)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
	if e, ok := apperr.As(err); !ok || e.Code != "duplicate_application" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplicationRepository_NotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	if _, err := repo.GetByApplicationID(ctx, "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
	if _, err := repo.GetByApplicationIDForUpdate(ctx, "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestApplicationRepository_SaveRiskFields(t *testing.T) {
	db := openTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	appID := id.NewID32()
	a := makeApplication(appID, "cust-1")
	a.ClearInstallment()
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}

	score := 720
	now := time.Now().UTC()
	a.CreditScore = &score
	a.FraudScore = 25
	a.RiskTier = "low"
	a.RiskFindings = []string{"Document pan has unusual file format (.gif)"}
	a.ScoredAt = &now
	a.SetInstallment(dec("26571.45"))
	if err := repo.Save(ctx, a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByApplicationID(ctx, appID)
	if err != nil {
		t.Fatalf("GetByApplicationID: %v", err)
	}
	if got.CreditScore == nil || *got.CreditScore != 720 || got.FraudScore != 25 || got.RiskTier != "low" {
		t.Errorf("risk fields not saved: %+v", got)
	}
	if len(got.RiskFindings) != 1 || got.RiskFindings[0] != a.RiskFindings[0] {
		t.Errorf("findings=%v", got.RiskFindings)
	}
	if !got.MonthlyInstallment.Valid {
		t.Errorf("installment should be set after save")
	}
}

func TestApplicationRepository_List(t *testing.T) {
	db := openTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	seed := []struct {
		applicant string
		state     loanDomain.State
	}{
		{"cust-1", loanDomain.StateDraft},
		{"cust-1", loanDomain.StateSubmitted},
		{"cust-2", loanDomain.StateSubmitted},
		{"cust-1", loanDomain.StateSubmitted},
	}
	var ids []string
	for i, s := range seed {
		a := makeApplication(id.NewID32(), s.applicant)
		a.State = s.state
		a.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
		ids = append(ids, a.ApplicationID)
	}

	mine, err := repo.List(ctx, loanDomain.ListFilter{ApplicantID: "cust-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(mine) != 3 || mine[0].ApplicationID != ids[3] {
		t.Fatalf("expected newest first for cust-1, got %d rows", len(mine))
	}

	submitted, err := repo.List(ctx, loanDomain.ListFilter{State: loanDomain.StateSubmitted, Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(submitted) != 2 || submitted[0].ApplicationID != ids[3] || submitted[1].ApplicationID != ids[2] {
		t.Fatalf("unexpected page: %+v", submitted)
	}

	page2, err := repo.List(ctx, loanDomain.ListFilter{State: loanDomain.StateSubmitted, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(page2) != 1 || page2[0].ApplicationID != ids[1] {
		t.Fatalf("unexpected second page: %+v", page2)
	}

	all, err := repo.ListApplicationIDs(ctx)
	if err != nil {
		t.Fatalf("ListApplicationIDs: %v", err)
	}
	if len(all) != 4 || all[0] != ids[0] || all[3] != ids[3] {
		t.Fatalf("ids=%v", all)
	}
}

func TestApplicationRepository_HistoryCounts(t *testing.T) {
	db := openTestDB(t)
	repo := NewApplicationRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	seed := []struct {
		age   time.Duration
		state loanDomain.State
	}{
		{40 * 24 * time.Hour, loanDomain.StateRejected},
		{10 * 24 * time.Hour, loanDomain.StateRejected},
		{2 * 24 * time.Hour, loanDomain.StateSubmitted},
		{time.Hour, loanDomain.StateDraft},
	}
	for _, s := range seed {
		a := makeApplication(id.NewID32(), "cust-9")
		a.State = s.state
		a.CreatedAt = now.Add(-s.age)
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	other := makeApplication(id.NewID32(), "cust-8")
	other.State = loanDomain.StateRejected
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("Create: %v", err)
	}

	recent, err := repo.CountRecentApplications(ctx, "cust-9", 30)
	if err != nil {
		t.Fatalf("CountRecentApplications: %v", err)
	}
	if recent != 3 {
		t.Errorf("recent=%d want 3", recent)
	}
	rejected, err := repo.CountRejectedApplications(ctx, "cust-9")
	if err != nil {
		t.Fatalf("CountRejectedApplications: %v", err)
	}
	if rejected != 2 {
		t.Errorf("rejected=%d want 2", rejected)
	}
}

func TestInstallmentRepository_ReplaceSchedule(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	apps := NewApplicationRepository(db)
	repo := NewInstallmentRepository(db)

	a := makeApplication(id.NewID32(), "cust-1")
	if err := apps.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.ReplaceSchedule(ctx, a.ID, makeInstallments(a, 6)); err != nil {
		t.Fatalf("ReplaceSchedule: %v", err)
	}
	// same sequence numbers again: the old rows must be gone first
	if err := repo.ReplaceSchedule(ctx, a.ID, makeInstallments(a, 4)); err != nil {
		t.Fatalf("ReplaceSchedule again: %v", err)
	}

	rows, err := repo.ListByApplication(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListByApplication: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows=%d want 4", len(rows))
	}
	for i, r := range rows {
		if r.SequenceNumber != i+1 {
			t.Fatalf("row %d has sequence %d", i, r.SequenceNumber)
		}
	}
	if !rows[0].RemainingBalance.Equal(dec("910")) {
		t.Errorf("remaining=%s", rows[0].RemainingBalance)
	}

	var count int64
	db.Model(&installmentSQLite{}).Count(&count)
	if count != 4 {
		t.Errorf("table has %d rows, want 4", count)
	}
}

func TestInstallmentRepository_GetAndSave(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	apps := NewApplicationRepository(db)
	repo := NewInstallmentRepository(db)

	a := makeApplication(id.NewID32(), "cust-1")
	if err := apps.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	rows := makeInstallments(a, 2)
	if err := repo.ReplaceSchedule(ctx, a.ID, rows); err != nil {
		t.Fatalf("ReplaceSchedule: %v", err)
	}

	inst, err := repo.GetByInstallmentIDForUpdate(ctx, rows[0].InstallmentID)
	if err != nil {
		t.Fatalf("GetByInstallmentIDForUpdate: %v", err)
	}
	inst.ApplyPayment(dec("100"), time.Now())
	if err := repo.Save(ctx, inst); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.GetByInstallmentID(ctx, rows[0].InstallmentID)
	if err != nil {
		t.Fatalf("GetByInstallmentID: %v", err)
	}
	if got.PaymentState != installment.PaymentPaid || got.PaidAt == nil || !got.PaidAmount.Equal(dec("100")) {
		t.Errorf("payment not persisted: %+v", got)
	}
	if _, err := repo.GetByInstallmentID(ctx, "nope"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestInstallmentRepository_ListOverdueCandidates(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	apps := NewApplicationRepository(db)
	repo := NewInstallmentRepository(db)

	disbursed := makeApplication(id.NewID32(), "cust-1")
	disbursed.State = loanDomain.StateDisbursed
	approved := makeApplication(id.NewID32(), "cust-2")
	approved.State = loanDomain.StateApproved
	for _, a := range []*loanDomain.Application{disbursed, approved} {
		if err := apps.Create(ctx, a); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := repo.ReplaceSchedule(ctx, a.ID, makeInstallments(a, 3)); err != nil {
			t.Fatalf("ReplaceSchedule: %v", err)
		}
	}
	paid, err := repo.GetByInstallmentID(ctx, disbursed.ApplicationID+"-001")
	if err != nil {
		t.Fatalf("GetByInstallmentID: %v", err)
	}
	paid.PaymentState = installment.PaymentPaid
	if err := repo.Save(ctx, paid); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// due dates are Feb 4, Mar 6, Apr 5
	asOf := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	got, err := repo.ListOverdueCandidates(ctx, asOf)
	if err != nil {
		t.Fatalf("ListOverdueCandidates: %v", err)
	}
	if len(got) != 1 || got[0].InstallmentID != disbursed.ApplicationID+"-002" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
}

func TestDocumentRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	apps := NewApplicationRepository(db)
	repo := NewDocumentRepository(db)

	a := makeApplication(id.NewID32(), "cust-1")
	if err := apps.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, typ := range []document.Type{document.TypeLicense, document.TypeCitizenship} {
		if err := repo.Create(ctx, makeDocument(a, id.NewID32(), typ)); err != nil {
			t.Fatalf("Create %s: %v", typ, err)
		}
	}

	err := repo.Create(ctx, makeDocument(a, id.NewID32(), document.TypeLicense))
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict on duplicate type, got %v", err)
	}

	got, err := repo.GetByApplicationAndType(ctx, a.ID, document.TypeCitizenship)
	if err != nil {
		t.Fatalf("GetByApplicationAndType: %v", err)
	}
	got.VerificationState = document.VerificationRejected
	got.Notes = "expired"
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reread, err := repo.GetByDocumentID(ctx, got.DocumentID)
	if err != nil {
		t.Fatalf("GetByDocumentID: %v", err)
	}
	if reread.VerificationState != document.VerificationRejected || reread.Notes != "expired" {
		t.Errorf("unexpected document: %+v", reread)
	}

	list, err := repo.ListByApplication(ctx, a.ID)
	if err != nil {
		t.Fatalf("ListByApplication: %v", err)
	}
	if len(list) != 2 || list[0].Type != document.TypeLicense {
		t.Fatalf("expected upload order, got %+v", list)
	}
	if _, err := repo.GetByApplicationAndType(ctx, a.ID, document.TypePAN); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestPaymentRepository(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	repo := NewPaymentRepository(db)

	base := time.Now().UTC()
	for i, amt := range []string{"5000.50", "2500"} {
		p := &payment.Payment{
			TransactionID: id.NewTransactionID(),
			InstallmentID: "app-001",
			ApplicationID: "app",
			Amount:        dec(amt),
			Method:        payment.MethodKhalti,
			RecordedBy:    "cust-1",
			PaidAt:        base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	got, err := repo.ListByInstallment(ctx, "app-001")
	if err != nil {
		t.Fatalf("ListByInstallment: %v", err)
	}
	if len(got) != 2 || !got[0].Amount.Equal(dec("5000.5")) || got[1].Method != payment.MethodKhalti {
		t.Fatalf("unexpected payments: %+v", got)
	}
	if none, _ := repo.ListByInstallment(ctx, "other-001"); len(none) != 0 {
		t.Fatalf("expected no payments, got %d", len(none))
	}
}
