package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodEsewa        Method = "esewa"
	MethodKhalti       Method = "khalti"
	MethodBankTransfer Method = "bank_transfer"
	MethodCash         Method = "cash"
)

func (m Method) Valid() bool {
	switch m {
	case MethodEsewa, MethodKhalti, MethodBankTransfer, MethodCash:
		return true
	}
	return false
}

// Payment is an immutable receipt against one installment.
type Payment struct {
	ID            uint64          `gorm:"primaryKey;column:id" json:"-"`
	TransactionID string          `gorm:"size:32;uniqueIndex:ux_payments_transaction_id" json:"transaction_id"`
	InstallmentID string          `gorm:"size:40;index:idx_payments_installment" json:"installment_id"`
	ApplicationID string          `gorm:"size:32;index:idx_payments_application" json:"application_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(14,2)" json:"amount"`
	Method        Method          `gorm:"size:16" json:"method"`
	RecordedBy    string          `gorm:"size:64" json:"recorded_by"`
	PaidAt        time.Time       `json:"paid_at"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	ListByInstallment(ctx context.Context, installmentID string) ([]Payment, error)
}
