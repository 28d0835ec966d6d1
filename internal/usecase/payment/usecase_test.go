package payment

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vehicle-loan-backend/internal/domain/actor"
	"vehicle-loan-backend/internal/domain/installment"
	"vehicle-loan-backend/internal/domain/loan"
	domain "vehicle-loan-backend/internal/domain/payment"
	"vehicle-loan-backend/internal/domain/uow"
	"vehicle-loan-backend/internal/testutil/installmentmock"
	"vehicle-loan-backend/internal/testutil/loanmock"
	"vehicle-loan-backend/internal/testutil/notifymock"
	"vehicle-loan-backend/internal/testutil/paymentmock"
	"vehicle-loan-backend/internal/testutil/uowmock"
	"vehicle-loan-backend/pkg/apperr"
)

const (
	appID  = "0123456789abcdef0123456789abcdef"
	instID = appID + "-001"
)

var (
	fixedNow = time.Date(2026, 3, 10, 8, 30, 0, 0, time.UTC)
	customer = actor.ForRole("cust-1", actor.RoleCustomer)
	stranger = actor.ForRole("cust-2", actor.RoleCustomer)
	salesRep = actor.ForRole("sales-1", actor.RoleSalesRep)
	finance  = actor.ForRole("fin-1", actor.RoleFinanceManager)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type countingMetrics struct{ methods []string }

func (m *countingMetrics) PaymentRecorded(method string) { m.methods = append(m.methods, method) }

type fixture struct {
	app      *loan.Application
	inst     *installment.Installment
	payments []domain.Payment
	saves    []installment.Installment
	metrics  *countingMetrics
	notes    *notifymock.Recorder
	uc       *Usecase
}

func newFixture(state loan.State) *fixture {
	f := &fixture{
		app: &loan.Application{ID: 42, ApplicationID: appID, ApplicationNumber: "LA00001234", ApplicantID: "cust-1", State: state},
		inst: &installment.Installment{
			InstallmentID: instID, ApplicationRef: 42, ApplicationID: appID, SequenceNumber: 1,
			DueDate:           time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC),
			InstallmentAmount: dec("26571.45"), PaymentState: installment.PaymentPending,
		},
		metrics: &countingMetrics{},
		notes:   &notifymock.Recorder{},
	}
	get := func(ctx context.Context, id string) (*loan.Application, error) {
		if id != f.app.ApplicationID {
			return nil, gorm.ErrRecordNotFound
		}
		return f.app, nil
	}
	getInst := func(ctx context.Context, id string) (*installment.Installment, error) {
		if id != f.inst.InstallmentID {
			return nil, gorm.ErrRecordNotFound
		}
		return f.inst, nil
	}
	loans := &loanmock.Repo{GetByApplicationIDFn: get, GetByApplicationIDForUpdateFn: get}
	insts := &installmentmock.Repo{
		GetByInstallmentIDFn:          getInst,
		GetByInstallmentIDForUpdateFn: getInst,
		SaveFn: func(ctx context.Context, i *installment.Installment) error {
			f.saves = append(f.saves, *i)
			return nil
		},
	}
	pays := &paymentmock.Repo{
		CreateFn: func(ctx context.Context, p *domain.Payment) error {
			f.payments = append(f.payments, *p)
			return nil
		},
		ListByInstallmentFn: func(ctx context.Context, id string) ([]domain.Payment, error) {
			var out []domain.Payment
			for _, p := range f.payments {
				if p.InstallmentID == id {
					out = append(out, p)
				}
			}
			return out, nil
		},
	}
	tx := uowmock.Passthrough(uow.Repos{Loans: loans, Installments: insts, Payments: pays})
	f.uc = NewUsecase(insts, tx,
		WithClock(func() time.Time { return fixedNow }),
		WithMetrics(f.metrics),
		WithDispatcher(f.notes))
	return f
}

func TestRecord_PartialThenFull(t *testing.T) {
	f := newFixture(loan.StateDisbursed)

	r, err := f.uc.Record(context.Background(), customer, instID, RecordInput{Amount: dec("10000"), Method: domain.MethodEsewa})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if r.Installment.PaymentState != installment.PaymentPartial {
		t.Fatalf("state=%s want partial", r.Installment.PaymentState)
	}
	if !strings.HasPrefix(r.Payment.TransactionID, "TXN-") || len(r.Payment.TransactionID) != 24 || r.Payment.RecordedBy != "cust-1" {
		t.Fatalf("unexpected payment: %+v", r.Payment)
	}

	r, err = f.uc.Record(context.Background(), finance, instID, RecordInput{Amount: dec("16571.45"), Method: domain.MethodCash})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if r.Installment.PaymentState != installment.PaymentPaid || r.Installment.PaidAt == nil {
		t.Fatalf("installment should be paid: %+v", r.Installment)
	}
	if !r.Installment.PaidAmount.Equal(dec("26571.45")) {
		t.Fatalf("paid=%s", r.Installment.PaidAmount)
	}
	if len(f.payments) != 2 || f.payments[0].TransactionID == f.payments[1].TransactionID {
		t.Fatalf("payments=%+v", f.payments)
	}
	if len(f.metrics.methods) != 2 || f.metrics.methods[1] != "cash" {
		t.Fatalf("metrics=%v", f.metrics.methods)
	}
	if ev := f.notes.Events(); len(ev) != 2 || ev[0] != "payment_received" {
		t.Fatalf("events=%v", ev)
	}

	_, err = f.uc.Record(context.Background(), customer, instID, RecordInput{Amount: dec("1"), Method: domain.MethodCash})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("want conflict on settled installment, got %v", err)
	}
}

func TestRecord_Validation(t *testing.T) {
	f := newFixture(loan.StateDisbursed)
	cases := map[string]struct {
		in   RecordInput
		code string
	}{
		"zero":      {RecordInput{Amount: decimal.Zero, Method: domain.MethodCash}, "invalid_amount"},
		"negative":  {RecordInput{Amount: dec("-5"), Method: domain.MethodCash}, "invalid_amount"},
		"precision": {RecordInput{Amount: dec("10.005"), Method: domain.MethodCash}, "invalid_amount"},
		"method":    {RecordInput{Amount: dec("10"), Method: "cheque"}, "invalid_method"},
		"excess":    {RecordInput{Amount: dec("26571.46"), Method: domain.MethodKhalti}, "amount_exceeds_outstanding"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.Record(context.Background(), customer, instID, tc.in)
			e, ok := apperr.As(err)
			if !ok || e.Kind != apperr.KindValidation || e.Code != tc.code {
				t.Fatalf("want %s, got %v", tc.code, err)
			}
		})
	}
	if len(f.payments) != 0 || len(f.saves) != 0 {
		t.Fatalf("no writes expected")
	}
}

func TestRecord_Guards(t *testing.T) {
	t.Run("not disbursed", func(t *testing.T) {
		f := newFixture(loan.StateApproved)
		_, err := f.uc.Record(context.Background(), customer, instID, RecordInput{Amount: dec("10"), Method: domain.MethodCash})
		if !errors.Is(err, apperr.ErrInvalidTransition) {
			t.Fatalf("want invalid transition, got %v", err)
		}
	})
	t.Run("other customer", func(t *testing.T) {
		f := newFixture(loan.StateDisbursed)
		_, err := f.uc.Record(context.Background(), stranger, instID, RecordInput{Amount: dec("10"), Method: domain.MethodCash})
		if !errors.Is(err, apperr.ErrPermissionDenied) {
			t.Fatalf("want permission denied, got %v", err)
		}
	})
	t.Run("missing capability", func(t *testing.T) {
		f := newFixture(loan.StateDisbursed)
		_, err := f.uc.Record(context.Background(), salesRep, instID, RecordInput{Amount: dec("10"), Method: domain.MethodCash})
		if !errors.Is(err, apperr.ErrPermissionDenied) {
			t.Fatalf("want permission denied, got %v", err)
		}
	})
	t.Run("unknown installment", func(t *testing.T) {
		f := newFixture(loan.StateDisbursed)
		_, err := f.uc.Record(context.Background(), customer, appID+"-999", RecordInput{Amount: dec("10"), Method: domain.MethodCash})
		if !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("want not found, got %v", err)
		}
	})
}

func TestHistory(t *testing.T) {
	f := newFixture(loan.StateDisbursed)

	got, err := f.uc.History(context.Background(), customer, instID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil history, got %#v", got)
	}

	for _, amt := range []string{"10000", "5000"} {
		if _, err := f.uc.Record(context.Background(), customer, instID, RecordInput{Amount: dec(amt), Method: domain.MethodBankTransfer}); err != nil {
			t.Fatalf("record %s: %v", amt, err)
		}
	}

	got, err = f.uc.History(context.Background(), finance, instID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || !got[0].Amount.Equal(dec("10000")) || !got[1].Amount.Equal(dec("5000")) {
		t.Fatalf("history=%+v", got)
	}
}

func TestHistory_Guards(t *testing.T) {
	f := newFixture(loan.StateDisbursed)
	if _, err := f.uc.History(context.Background(), stranger, instID); !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Fatalf("want permission denied, got %v", err)
	}
	if _, err := f.uc.History(context.Background(), customer, appID+"-999"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestMarkOverdue(t *testing.T) {
	asOf := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rows := []installment.Installment{
		{InstallmentID: appID + "-001", DueDate: time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC), PaymentState: installment.PaymentPending},
		{InstallmentID: appID + "-002", DueDate: time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC), PaymentState: installment.PaymentPartial},
		{InstallmentID: appID + "-003", DueDate: time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), PaymentState: installment.PaymentPending},
		{InstallmentID: "other-001", DueDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), PaymentState: installment.PaymentOverdue},
	}
	var saved []string
	insts := &installmentmock.Repo{
		ListOverdueCandidatesFn: func(ctx context.Context, at time.Time) ([]installment.Installment, error) {
			if !at.Equal(asOf) {
				t.Fatalf("asOf=%v", at)
			}
			return rows, nil
		},
		SaveFn: func(ctx context.Context, i *installment.Installment) error {
			if i.PaymentState != installment.PaymentOverdue {
				t.Fatalf("saved state=%s", i.PaymentState)
			}
			saved = append(saved, i.InstallmentID)
			return nil
		},
	}
	uc := NewUsecase(insts, uowmock.Passthrough(uow.Repos{Installments: insts}))

	n, err := uc.MarkOverdue(context.Background(), asOf)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 2 || len(saved) != 2 || saved[0] != appID+"-001" || saved[1] != appID+"-002" {
		t.Fatalf("n=%d saved=%v", n, saved)
	}
}

func TestMarkOverdue_PropagatesErrors(t *testing.T) {
	boom := errors.New("db down")
	insts := &installmentmock.Repo{
		ListOverdueCandidatesFn: func(ctx context.Context, at time.Time) ([]installment.Installment, error) {
			return nil, boom
		},
	}
	uc := NewUsecase(insts, uowmock.Passthrough(uow.Repos{Installments: insts}))
	if _, err := uc.MarkOverdue(context.Background(), fixedNow); !errors.Is(err, boom) {
		t.Fatalf("want %v, got %v", boom, err)
	}
}
