package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vehicle-loan-backend/internal/domain/actor"
	"vehicle-loan-backend/internal/domain/installment"
	"vehicle-loan-backend/internal/domain/loan"
	"vehicle-loan-backend/internal/domain/notification"
	domain "vehicle-loan-backend/internal/domain/payment"
	"vehicle-loan-backend/internal/domain/uow"
	"vehicle-loan-backend/pkg/apperr"
	"vehicle-loan-backend/pkg/id"
)

type RecordInput struct {
	Amount decimal.Decimal
	Method domain.Method
}

type ReceiptDTO struct {
	Payment     domain.Payment          `json:"payment"`
	Installment installment.Installment `json:"installment"`
}

type Metrics interface {
	PaymentRecorded(method string)
}

type noopMetrics struct{}

func (noopMetrics) PaymentRecorded(string) {}

type Usecase struct {
	installments installment.Repository
	uow          uow.UnitOfWork
	notify       notification.Dispatcher
	metrics      Metrics
	log          *slog.Logger
	now          func() time.Time
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func WithMetrics(m Metrics) Option { return func(u *Usecase) { u.metrics = m } }

func WithDispatcher(d notification.Dispatcher) Option { return func(u *Usecase) { u.notify = d } }

func WithLogger(l *slog.Logger) Option { return func(u *Usecase) { u.log = l } }

func NewUsecase(installments installment.Repository, tx uow.UnitOfWork, opts ...Option) *Usecase {
	u := &Usecase{
		installments: installments,
		uow:          tx,
		notify:       notification.Discard{},
		metrics:      noopMetrics{},
		log:          slog.Default(),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// Record books a payment against one installment of a disbursed loan.
func (u *Usecase) Record(ctx context.Context, who actor.Actor, installmentID string, in RecordInput) (*ReceiptDTO, error) {
	if err := who.Require(actor.CapRecordPayment); err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, apperr.Validation("invalid_amount", "amount must be greater than zero").WithDetail("field", "amount")
	}
	if !in.Amount.Equal(in.Amount.Round(2)) {
		return nil, apperr.Validation("invalid_amount", "amount must have at most 2 decimal places").WithDetail("field", "amount")
	}
	if !in.Method.Valid() {
		return nil, apperr.Validation("invalid_method", "method must be one of esewa, khalti, bank_transfer, cash").WithDetail("field", "method")
	}

	ref, err := u.installments.GetByInstallmentID(ctx, installmentID)
	if err != nil {
		return nil, notFound(err, installment.ErrNotFound)
	}

	var (
		out   ReceiptDTO
		owner *loan.Application
	)
	err = u.uow.WithinApplicationTx(ctx, ref.ApplicationID, func(r uow.Repos, a *loan.Application) error {
		if !who.CanAccess(a.ApplicantID) {
			return apperr.PermissionDenied("actor %s cannot pay installments of application %s", who.ID, a.ApplicationID)
		}
		if a.State != loan.StateDisbursed {
			return apperr.InvalidTransition("payments need a disbursed application, state is %s", a.State).
				WithDetail("state", string(a.State))
		}
		inst, err := r.Installments.GetByInstallmentIDForUpdate(ctx, installmentID)
		if err != nil {
			return notFound(err, installment.ErrNotFound)
		}
		if inst.PaymentState == installment.PaymentPaid {
			return apperr.Conflict("installment_settled", "installment %s is already paid", inst.InstallmentID)
		}
		outstanding := inst.Outstanding()
		if in.Amount.GreaterThan(outstanding) {
			return apperr.Validation("amount_exceeds_outstanding",
				fmt.Sprintf("amount %s exceeds outstanding %s", in.Amount.StringFixed(2), outstanding.StringFixed(2))).
				WithDetail("outstanding", outstanding.StringFixed(2))
		}

		now := u.now()
		inst.ApplyPayment(in.Amount, now)
		if err := r.Installments.Save(ctx, inst); err != nil {
			return err
		}
		p := domain.Payment{
			TransactionID: id.NewTransactionID(),
			InstallmentID: inst.InstallmentID,
			ApplicationID: a.ApplicationID,
			Amount:        in.Amount,
			Method:        in.Method,
			RecordedBy:    who.ID,
			PaidAt:        now,
		}
		if err := r.Payments.Create(ctx, &p); err != nil {
			return err
		}
		out = ReceiptDTO{Payment: p, Installment: *inst}
		owner = a
		return nil
	})
	if err != nil {
		return nil, notFound(err, loan.ErrNotFound)
	}

	u.metrics.PaymentRecorded(string(in.Method))
	u.log.InfoContext(ctx, "payment recorded",
		"transaction_id", out.Payment.TransactionID, "installment_id", installmentID,
		"amount", in.Amount.StringFixed(2), "method", string(in.Method), "state", string(out.Installment.PaymentState))
	u.notify.Dispatch(notification.Message{
		UserID:        owner.ApplicantID,
		Title:         "Payment Received",
		Body:          fmt.Sprintf("We received NPR %s for installment %d of application %s.", in.Amount.StringFixed(2), out.Installment.SequenceNumber, owner.ApplicationNumber),
		ApplicationID: owner.ApplicationID,
		Event:         "payment_received",
	})
	return &out, nil
}

// History lists the payments booked against one installment, oldest first.
func (u *Usecase) History(ctx context.Context, who actor.Actor, installmentID string) ([]domain.Payment, error) {
	ref, err := u.installments.GetByInstallmentID(ctx, installmentID)
	if err != nil {
		return nil, notFound(err, installment.ErrNotFound)
	}

	var out []domain.Payment
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Loans.GetByApplicationID(ctx, ref.ApplicationID)
		if err != nil {
			return notFound(err, loan.ErrNotFound)
		}
		if !who.CanAccess(a.ApplicantID) {
			return apperr.PermissionDenied("actor %s cannot view payments of application %s", who.ID, a.ApplicationID)
		}
		out, err = r.Payments.ListByInstallment(ctx, installmentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Payment{}
	}
	return out, nil
}

// MarkOverdue flags unsettled installments of disbursed loans whose due date
// has passed. It returns how many rows changed.
func (u *Usecase) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	var marked int
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		rows, err := r.Installments.ListOverdueCandidates(ctx, asOf)
		if err != nil {
			return err
		}
		for i := range rows {
			row := &rows[i]
			if !row.Overdue(asOf) || row.PaymentState == installment.PaymentOverdue {
				continue
			}
			row.PaymentState = installment.PaymentOverdue
			if err := r.Installments.Save(ctx, row); err != nil {
				return fmt.Errorf("mark %s overdue: %w", row.InstallmentID, err)
			}
			marked++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if marked > 0 {
		u.log.InfoContext(ctx, "installments marked overdue", "count", marked, "as_of", asOf.Format(time.DateOnly))
	}
	return marked, nil
}

func notFound(err, nf error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return err
}
