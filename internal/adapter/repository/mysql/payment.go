package mysql

import (
	"context"

	"gorm.io/gorm"

	"vehicle-loan-backend/internal/domain/payment"
)

type PaymentRepository struct{ db *gorm.DB }

func NewPaymentRepository(db *gorm.DB) *PaymentRepository { return &PaymentRepository{db: db} }

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) ListByInstallment(ctx context.Context, installmentID string) ([]payment.Payment, error) {
	var out []payment.Payment
	res := r.db.WithContext(ctx).
		Where("installment_id = ?", installmentID).
		Order("paid_at ASC, id ASC").
		Find(&out)
	return out, res.Error
}
