package mysql

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vehicle-loan-backend/internal/domain/document"
	"vehicle-loan-backend/internal/domain/installment"
	loanDomain "vehicle-loan-backend/internal/domain/loan"
	"vehicle-loan-backend/internal/domain/payment"
)

// --- SQLite-friendly schema only for tests (no ENUM, decimals as text) ---

type applicationSQLite struct {
	ID                 uint64     `gorm:"primaryKey;column:id"`
	ApplicationID      string     `gorm:"size:32;column:application_id;uniqueIndex"`
	ApplicationNumber  string     `gorm:"size:16;column:application_number;uniqueIndex"`
	ApplicantID        string     `gorm:"size:64;column:applicant_id"`
	AssetID            string     `gorm:"column:asset_id"`
	Principal          string     `gorm:"type:text;column:principal"`
	DownPayment        string     `gorm:"type:text;column:down_payment"`
	AnnualRatePercent  string     `gorm:"type:text;column:annual_rate_percent"`
	TermMonths         int        `gorm:"column:term_months"`
	MonthlyInstallment *string    `gorm:"type:text;column:monthly_installment"`
	MonthlyIncome      string     `gorm:"type:text;column:monthly_income"`
	EmploymentType     string     `gorm:"column:employment_type"`
	EmployerName       string     `gorm:"column:employer_name"`
	CustomerRemarks    string     `gorm:"column:customer_remarks"`
	State              string     `gorm:"type:text;column:state"` // ← no enum
	StateUpdatedAt     time.Time  `gorm:"column:state_updated_at"`
	OriginatedOn       time.Time  `gorm:"column:originated_on"`
	SubmittedAt        *time.Time `gorm:"column:submitted_at"`
	VerifiedAt         *time.Time `gorm:"column:verified_at"`
	VerifiedBy         string     `gorm:"column:verified_by"`
	ApprovedAt         *time.Time `gorm:"column:approved_at"`
	ApprovedBy         string     `gorm:"column:approved_by"`
	RejectedAt         *time.Time `gorm:"column:rejected_at"`
	RejectedBy         string     `gorm:"column:rejected_by"`
	RejectionReason    string     `gorm:"column:rejection_reason"`
	DisbursedAt        *time.Time `gorm:"column:disbursed_at"`
	DisbursedBy        string     `gorm:"column:disbursed_by"`
	CreditScore        *int       `gorm:"column:credit_score"`
	FraudScore         int        `gorm:"column:fraud_score"`
	RiskTier           string     `gorm:"column:risk_tier"`
	RiskFindings       string     `gorm:"type:text;column:risk_findings"`
	RiskRecommendation string     `gorm:"column:risk_recommendation"`
	ScoredAt           *time.Time `gorm:"column:scored_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
	DeletedAt          gorm.DeletedAt
}

func (applicationSQLite) TableName() string { return "loan_applications" }

type installmentSQLite struct {
	ID                 uint64     `gorm:"primaryKey;column:id"`
	InstallmentID      string     `gorm:"size:40;column:installment_id;uniqueIndex"`
	ApplicationRef     uint64     `gorm:"column:application_ref;uniqueIndex:ux_installments_app_seq,priority:1"`
	ApplicationID      string     `gorm:"column:application_id"`
	SequenceNumber     int        `gorm:"column:sequence_number;uniqueIndex:ux_installments_app_seq,priority:2"`
	DueDate            time.Time  `gorm:"column:due_date"`
	InstallmentAmount  string     `gorm:"type:text;column:installment_amount"`
	PrincipalComponent string     `gorm:"type:text;column:principal_component"`
	InterestComponent  string     `gorm:"type:text;column:interest_component"`
	RemainingBalance   string     `gorm:"type:text;column:remaining_balance"`
	PaymentState       string     `gorm:"type:text;column:payment_state"`
	PaidAmount         string     `gorm:"type:text;column:paid_amount"`
	PaidAt             *time.Time `gorm:"column:paid_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (installmentSQLite) TableName() string { return "installments" }

type documentSQLite struct {
	ID                uint64     `gorm:"primaryKey;column:id"`
	DocumentID        string     `gorm:"size:32;column:document_id;uniqueIndex"`
	ApplicationRef    uint64     `gorm:"column:application_ref;uniqueIndex:ux_documents_app_type,priority:1"`
	ApplicationID     string     `gorm:"column:application_id"`
	DocumentType      string     `gorm:"column:document_type;uniqueIndex:ux_documents_app_type,priority:2"`
	FileName          string     `gorm:"column:file_name"`
	FileSize          int64      `gorm:"column:file_size"`
	StorageURL        string     `gorm:"column:storage_url"`
	VerificationState string     `gorm:"type:text;column:verification_state"`
	VerifiedBy        string     `gorm:"column:verified_by"`
	VerifiedAt        *time.Time `gorm:"column:verified_at"`
	Notes             string     `gorm:"column:notes"`
	UploadedBy        string     `gorm:"column:uploaded_by"`
	UploadedAt        time.Time  `gorm:"column:uploaded_at"`
	CreatedAt         time.Time  `gorm:"column:created_at"`
	UpdatedAt         time.Time  `gorm:"column:updated_at"`
}

func (documentSQLite) TableName() string { return "documents" }

// openTestDB creates an in-memory sqlite DB and migrates ONLY the sqlite-safe schema.
// A single connection keeps every goroutine on the same in-memory database.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// payments has no enum column, so the domain model migrates as-is.
	if err := db.AutoMigrate(&applicationSQLite{}, &installmentSQLite{}, &documentSQLite{}, &payment.Payment{}); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func makeApplication(applicationID, applicantID string) *loanDomain.Application {
	now := time.Now().UTC()
	a := &loanDomain.Application{
		ApplicationID:     applicationID,
		ApplicationNumber: "LA" + applicationID[:8],
		ApplicantID:       applicantID,
		AssetID:           "veh-1",
		Principal:         dec("800000"),
		DownPayment:       dec("200000"),
		AnnualRatePercent: dec("12"),
		TermMonths:        36,
		MonthlyIncome:     dec("150000"),
		EmploymentType:    loanDomain.EmploymentSalaried,
		State:             loanDomain.StateDraft,
		StateUpdatedAt:    now,
		OriginatedOn:      time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	a.SetInstallment(dec("26571.45"))
	return a
}

func makeInstallments(a *loanDomain.Application, n int) []installment.Installment {
	rows := make([]installment.Installment, 0, n)
	for seq := 1; seq <= n; seq++ {
		rows = append(rows, installment.Installment{
			InstallmentID:      a.ApplicationID + "-00" + string(rune('0'+seq)),
			ApplicationRef:     a.ID,
			ApplicationID:      a.ApplicationID,
			SequenceNumber:     seq,
			DueDate:            a.OriginatedOn.AddDate(0, 0, 30*seq),
			InstallmentAmount:  dec("100.00"),
			PrincipalComponent: dec("90.00"),
			InterestComponent:  dec("10.00"),
			RemainingBalance:   dec("1000").Sub(dec("90").Mul(decimal.NewFromInt(int64(seq)))),
			PaymentState:       installment.PaymentPending,
			PaidAmount:         decimal.Zero,
		})
	}
	return rows
}

func makeDocument(a *loanDomain.Application, docID string, t document.Type) *document.Document {
	return &document.Document{
		DocumentID:        docID,
		ApplicationRef:    a.ID,
		ApplicationID:     a.ApplicationID,
		Type:              t,
		FileName:          string(t) + ".pdf",
		FileSize:          64_000,
		StorageURL:        "s3://docs/" + docID,
		VerificationState: document.VerificationPending,
		UploadedBy:        a.ApplicantID,
		UploadedAt:        time.Now().UTC(),
	}
}
