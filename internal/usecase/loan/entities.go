package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"vehicle-loan-backend/internal/domain/installment"
	domain "vehicle-loan-backend/internal/domain/loan"
)

type CreateInput struct {
	// ApplicantID defaults to the calling actor; staff may apply on a customer's behalf.
	ApplicantID       string
	AssetID           string
	Principal         decimal.Decimal
	DownPayment       decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TermMonths        int
	MonthlyIncome     decimal.Decimal
	EmploymentType    domain.EmploymentType
	EmployerName      string
	CustomerRemarks   string
}

// UpdateTermsInput changes any subset of the financial terms; nil fields stay as they are.
type UpdateTermsInput struct {
	Principal         *decimal.Decimal
	AnnualRatePercent *decimal.Decimal
	TermMonths        *int
}

type ListInput struct {
	State  domain.State
	Limit  int
	Offset int
}

type ApplicationDTO struct {
	ApplicationID      string                `json:"application_id"`
	ApplicationNumber  string                `json:"application_number"`
	ApplicantID        string                `json:"applicant_id"`
	AssetID            string                `json:"asset_id"`
	Principal          decimal.Decimal       `json:"principal"`
	DownPayment        decimal.Decimal       `json:"down_payment"`
	AnnualRatePercent  decimal.Decimal       `json:"annual_rate_percent"`
	TermMonths         int                   `json:"term_months"`
	MonthlyInstallment decimal.NullDecimal   `json:"monthly_installment"`
	MonthlyIncome      decimal.Decimal       `json:"monthly_income"`
	EmploymentType     domain.EmploymentType `json:"employment_type"`
	EmployerName       string                `json:"employer_name,omitempty"`
	CustomerRemarks    string                `json:"customer_remarks,omitempty"`
	State              string                `json:"state"`
	StateUpdatedAt     time.Time             `json:"state_updated_at"`
	OriginatedOn       time.Time             `json:"originated_on"`
	SubmittedAt        *time.Time            `json:"submitted_at,omitempty"`
	VerifiedAt         *time.Time            `json:"verified_at,omitempty"`
	VerifiedBy         string                `json:"verified_by,omitempty"`
	ApprovedAt         *time.Time            `json:"approved_at,omitempty"`
	ApprovedBy         string                `json:"approved_by,omitempty"`
	RejectedAt         *time.Time            `json:"rejected_at,omitempty"`
	RejectedBy         string                `json:"rejected_by,omitempty"`
	RejectionReason    string                `json:"rejection_reason,omitempty"`
	DisbursedAt        *time.Time            `json:"disbursed_at,omitempty"`
	DisbursedBy        string                `json:"disbursed_by,omitempty"`
	Risk               *RiskDTO              `json:"risk,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
}

type RiskDTO struct {
	CreditScore    *int       `json:"credit_score,omitempty"`
	FraudScore     int        `json:"fraud_score"`
	Tier           string     `json:"tier"`
	Findings       []string   `json:"findings"`
	Recommendation string     `json:"recommendation"`
	ScoredAt       *time.Time `json:"scored_at,omitempty"`
}

type ScheduleDTO struct {
	ApplicationID      string                    `json:"application_id"`
	MonthlyInstallment decimal.NullDecimal       `json:"monthly_installment"`
	TotalInterest      decimal.Decimal           `json:"total_interest"`
	Installments       []installment.Installment `json:"installments"`
}

// IntegrityReport describes whether a stored schedule matches its recomputation.
type IntegrityReport struct {
	ApplicationID string   `json:"application_id"`
	Healthy       bool     `json:"healthy"`
	Problems      []string `json:"problems,omitempty"`
}

type RepairReport struct {
	Checked  int      `json:"checked"`
	Repaired []string `json:"repaired"`
	Failed   []string `json:"failed"`
}

func toDTO(a *domain.Application) *ApplicationDTO {
	dto := &ApplicationDTO{
		ApplicationID:      a.ApplicationID,
		ApplicationNumber:  a.ApplicationNumber,
		ApplicantID:        a.ApplicantID,
		AssetID:            a.AssetID,
		Principal:          a.Principal,
		DownPayment:        a.DownPayment,
		AnnualRatePercent:  a.AnnualRatePercent,
		TermMonths:         a.TermMonths,
		MonthlyInstallment: a.MonthlyInstallment,
		MonthlyIncome:      a.MonthlyIncome,
		EmploymentType:     a.EmploymentType,
		EmployerName:       a.EmployerName,
		CustomerRemarks:    a.CustomerRemarks,
		State:              string(a.State),
		StateUpdatedAt:     a.StateUpdatedAt,
		OriginatedOn:       a.OriginatedOn,
		SubmittedAt:        a.SubmittedAt,
		VerifiedAt:         a.VerifiedAt,
		VerifiedBy:         a.VerifiedBy,
		ApprovedAt:         a.ApprovedAt,
		ApprovedBy:         a.ApprovedBy,
		RejectedAt:         a.RejectedAt,
		RejectedBy:         a.RejectedBy,
		RejectionReason:    a.RejectionReason,
		DisbursedAt:        a.DisbursedAt,
		DisbursedBy:        a.DisbursedBy,
		CreatedAt:          a.CreatedAt,
	}
	if a.ScoredAt != nil {
		dto.Risk = &RiskDTO{
			CreditScore:    a.CreditScore,
			FraudScore:     a.FraudScore,
			Tier:           a.RiskTier,
			Findings:       a.RiskFindings,
			Recommendation: a.RiskRecommendation,
			ScoredAt:       a.ScoredAt,
		}
	}
	return dto
}
