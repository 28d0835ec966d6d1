package loan

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vehicle-loan-backend/pkg/apperr"
)

type State string

const (
	StateDraft             State = "draft"
	StateSubmitted         State = "submitted"
	StateDocumentsVerified State = "documents_verified"
	StateApproved          State = "approved"
	StateRejected          State = "rejected"
	StateDisbursed         State = "disbursed"
)

type EmploymentType string

const (
	EmploymentSalaried     EmploymentType = "salaried"
	EmploymentGovernment   EmploymentType = "government"
	EmploymentSelfEmployed EmploymentType = "self_employed"
	EmploymentBusiness     EmploymentType = "business"
	EmploymentContract     EmploymentType = "contract"
	EmploymentOther        EmploymentType = "other"
)

func (e EmploymentType) Valid() bool {
	switch e {
	case EmploymentSalaried, EmploymentGovernment, EmploymentSelfEmployed,
		EmploymentBusiness, EmploymentContract, EmploymentOther:
		return true
	}
	return false
}

const (
	MinTermMonths = 6
	MaxTermMonths = 120
)

var ErrNotFound = apperr.NotFound("application")

// Application is a vehicle loan application and the aggregate root of the lifecycle.
type Application struct {
	ID                uint64          `gorm:"primaryKey;column:id" json:"-"`
	ApplicationID     string          `gorm:"size:32;uniqueIndex:ux_loan_applications_application_id" json:"application_id"`
	ApplicationNumber string          `gorm:"size:16;uniqueIndex:ux_loan_applications_number" json:"application_number"`
	ApplicantID       string          `gorm:"size:64;index:idx_loan_applications_applicant" json:"applicant_id"`
	AssetID           string          `gorm:"size:64" json:"asset_id"`
	Principal         decimal.Decimal `gorm:"type:decimal(14,2)" json:"principal"`
	DownPayment       decimal.Decimal `gorm:"type:decimal(14,2)" json:"down_payment"`
	AnnualRatePercent decimal.Decimal `gorm:"type:decimal(6,3)" json:"annual_rate_percent"`
	TermMonths        int             `json:"term_months"`
	// MonthlyInstallment stays null until a schedule has been generated.
	MonthlyInstallment decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"monthly_installment"`
	MonthlyIncome      decimal.Decimal     `gorm:"type:decimal(14,2)" json:"monthly_income"`
	EmploymentType     EmploymentType      `gorm:"size:32" json:"employment_type"`
	EmployerName       string              `gorm:"size:200" json:"employer_name"`
	CustomerRemarks    string              `gorm:"type:text" json:"customer_remarks"`

	State          State     `gorm:"type:enum('draft','submitted','documents_verified','approved','rejected','disbursed');default:'draft';index:idx_loan_applications_state" json:"state"`
	StateUpdatedAt time.Time `json:"state_updated_at"`
	// OriginatedOn anchors installment due dates.
	OriginatedOn time.Time `gorm:"type:date" json:"originated_on"`

	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	VerifiedBy      string     `gorm:"size:64" json:"verified_by,omitempty"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	ApprovedBy      string     `gorm:"size:64" json:"approved_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectedBy      string     `gorm:"size:64" json:"rejected_by,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	DisbursedAt     *time.Time `json:"disbursed_at,omitempty"`
	DisbursedBy     string     `gorm:"size:64" json:"disbursed_by,omitempty"`

	CreditScore        *int       `json:"credit_score,omitempty"`
	FraudScore         int        `json:"fraud_score"`
	RiskTier           string     `gorm:"size:8" json:"risk_tier,omitempty"`
	RiskFindings       []string   `gorm:"serializer:json;type:text" json:"risk_findings,omitempty"`
	RiskRecommendation string     `gorm:"type:text" json:"risk_recommendation,omitempty"`
	ScoredAt           *time.Time `json:"scored_at,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Application) TableName() string { return "loan_applications" }

// SetInstallment records the per-period amount of a freshly generated schedule.
func (a *Application) SetInstallment(amount decimal.Decimal) {
	a.MonthlyInstallment = decimal.NewNullDecimal(amount)
}

// ClearInstallment is used right before a schedule is rebuilt.
func (a *Application) ClearInstallment() {
	a.MonthlyInstallment = decimal.NullDecimal{}
}
