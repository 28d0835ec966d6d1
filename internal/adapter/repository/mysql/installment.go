package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"vehicle-loan-backend/internal/domain/installment"
	"vehicle-loan-backend/internal/domain/loan"
)

const insertBatchSize = 100

type InstallmentRepository struct{ db *gorm.DB }

func NewInstallmentRepository(db *gorm.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

// ReplaceSchedule hard-deletes the current rows before inserting the new set.
// Call it inside a transaction.
func (r *InstallmentRepository) ReplaceSchedule(ctx context.Context, applicationRef uint64, rows []installment.Installment) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("application_ref = ?", applicationRef).Delete(&installment.Installment{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return db.CreateInBatches(&rows, insertBatchSize).Error
}

func (r *InstallmentRepository) ListByApplication(ctx context.Context, applicationRef uint64) ([]installment.Installment, error) {
	var out []installment.Installment
	res := r.db.WithContext(ctx).
		Where("application_ref = ?", applicationRef).
		Order("sequence_number ASC").
		Find(&out)
	return out, res.Error
}

func (r *InstallmentRepository) GetByInstallmentID(ctx context.Context, installmentID string) (*installment.Installment, error) {
	var out installment.Installment
	res := r.db.WithContext(ctx).Where("installment_id = ?", installmentID).First(&out)
	return &out, res.Error
}

func (r *InstallmentRepository) GetByInstallmentIDForUpdate(ctx context.Context, installmentID string) (*installment.Installment, error) {
	var out installment.Installment
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("installment_id = ?", installmentID).
		First(&out)
	return &out, res.Error
}

func (r *InstallmentRepository) Save(ctx context.Context, i *installment.Installment) error {
	return r.db.WithContext(ctx).Save(i).Error
}

func (r *InstallmentRepository) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]installment.Installment, error) {
	var out []installment.Installment
	res := r.db.WithContext(ctx).
		Select("installments.*").
		Joins("JOIN loan_applications ON loan_applications.id = installments.application_ref").
		Where("loan_applications.state = ? AND loan_applications.deleted_at IS NULL", loan.StateDisbursed).
		Where("installments.payment_state IN ?", []installment.PaymentState{installment.PaymentPending, installment.PaymentPartial}).
		Where("installments.due_date < ?", asOf).
		Order("installments.application_ref, installments.sequence_number").
		Find(&out)
	return out, res.Error
}
