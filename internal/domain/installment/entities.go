package installment

import (
	"time"

	"github.com/shopspring/decimal"

	"vehicle-loan-backend/pkg/apperr"
)

type PaymentState string

const (
	PaymentPending PaymentState = "pending"
	PaymentPartial PaymentState = "partial"
	PaymentPaid    PaymentState = "paid"
	PaymentOverdue PaymentState = "overdue"
)

var ErrNotFound = apperr.NotFound("installment")

// Installment is one row of an application's repayment schedule.
// Rows are only ever replaced as a whole set, never edited term-wise.
type Installment struct {
	ID                 uint64          `gorm:"primaryKey;column:id" json:"-"`
	InstallmentID      string          `gorm:"size:40;uniqueIndex:ux_installments_installment_id" json:"installment_id"`
	ApplicationRef     uint64          `gorm:"column:application_ref;uniqueIndex:ux_installments_app_seq,priority:1" json:"-"`
	ApplicationID      string          `gorm:"size:32;index:idx_installments_application" json:"application_id"`
	SequenceNumber     int             `gorm:"uniqueIndex:ux_installments_app_seq,priority:2" json:"sequence_number"`
	DueDate            time.Time       `gorm:"type:date" json:"due_date"`
	InstallmentAmount  decimal.Decimal `gorm:"type:decimal(14,2)" json:"installment_amount"`
	PrincipalComponent decimal.Decimal `gorm:"type:decimal(14,2)" json:"principal_component"`
	InterestComponent  decimal.Decimal `gorm:"type:decimal(14,2)" json:"interest_component"`
	RemainingBalance   decimal.Decimal `gorm:"type:decimal(14,2)" json:"remaining_balance"`
	PaymentState       PaymentState    `gorm:"type:enum('pending','partial','paid','overdue');default:'pending'" json:"payment_state"`
	PaidAmount         decimal.Decimal `gorm:"type:decimal(14,2)" json:"paid_amount"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Installment) TableName() string { return "installments" }

func (i *Installment) Outstanding() decimal.Decimal {
	out := i.InstallmentAmount.Sub(i.PaidAmount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// ApplyPayment adds amount to what has been paid and moves the payment state.
// An overdue installment stays overdue until it is settled.
func (i *Installment) ApplyPayment(amount decimal.Decimal, at time.Time) {
	i.PaidAmount = i.PaidAmount.Add(amount)
	if i.Outstanding().IsZero() {
		i.PaymentState = PaymentPaid
		at = at.UTC()
		i.PaidAt = &at
		return
	}
	if i.PaymentState == PaymentOverdue && i.DueDate.Before(at) {
		return
	}
	i.PaymentState = PaymentPartial
}

// Overdue reports whether the installment is unsettled past its due date.
func (i *Installment) Overdue(asOf time.Time) bool {
	if i.PaymentState == PaymentPaid {
		return false
	}
	return i.DueDate.Before(asOf)
}
