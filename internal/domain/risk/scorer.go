// Package risk evaluates loan applications with rule-based credit and fraud checks.
// It holds no state and is safe for concurrent use.
package risk

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"vehicle-loan-backend/internal/domain/document"
	"vehicle-loan-backend/internal/domain/loan"
)

type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

const (
	baseCreditScore = 350
	maxCreditScore  = 850
	maxFraudScore   = 100
)

type Config struct {
	SmallFileBytes      int64
	AllowedExtensions   []string
	VelocityWindowDays  int
	VelocityThreshold   int64 // flag when recent applications exceed this
	RejectionThreshold  int64 // flag when prior rejections reach this
	PointsPerFlag       int
	SuspiciousAbove     int
	LowTierMinCredit    int
	MediumTierMinCredit int
}

func DefaultConfig() Config {
	return Config{
		SmallFileBytes:      5000,
		AllowedExtensions:   []string{".pdf", ".jpg", ".jpeg", ".png"},
		VelocityWindowDays:  30,
		VelocityThreshold:   3,
		RejectionThreshold:  2,
		PointsPerFlag:       25,
		SuspiciousAbove:     50,
		LowTierMinCredit:    700,
		MediumTierMinCredit: 550,
	}
}

// History is what the applicant's past tells the scorer.
type History struct {
	RecentApplications   int64
	RejectedApplications int64
}

type Input struct {
	MonthlyIncome      decimal.Decimal
	MonthlyInstallment decimal.Decimal
	EmploymentType     loan.EmploymentType
	Documents          []document.Document
	History            History
}

type Assessment struct {
	FraudScore     int      `json:"fraud_score"`
	CreditScore    int      `json:"credit_score"`
	CreditTier     Tier     `json:"credit_tier"`
	Tier           Tier     `json:"risk_tier"`
	Suspicious     bool     `json:"suspicious"`
	Findings       []string `json:"findings"`
	Recommendation string   `json:"recommendation"`
}

type Scorer struct{ cfg Config }

// NewScorer fills zero-valued settings from DefaultConfig.
func NewScorer(cfg Config) *Scorer {
	def := DefaultConfig()
	if cfg.SmallFileBytes <= 0 {
		cfg.SmallFileBytes = def.SmallFileBytes
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = def.AllowedExtensions
	}
	if cfg.VelocityWindowDays <= 0 {
		cfg.VelocityWindowDays = def.VelocityWindowDays
	}
	if cfg.VelocityThreshold <= 0 {
		cfg.VelocityThreshold = def.VelocityThreshold
	}
	if cfg.RejectionThreshold <= 0 {
		cfg.RejectionThreshold = def.RejectionThreshold
	}
	if cfg.PointsPerFlag <= 0 {
		cfg.PointsPerFlag = def.PointsPerFlag
	}
	if cfg.SuspiciousAbove <= 0 {
		cfg.SuspiciousAbove = def.SuspiciousAbove
	}
	if cfg.LowTierMinCredit <= 0 {
		cfg.LowTierMinCredit = def.LowTierMinCredit
	}
	if cfg.MediumTierMinCredit <= 0 {
		cfg.MediumTierMinCredit = def.MediumTierMinCredit
	}
	return &Scorer{cfg: cfg}
}

func (s *Scorer) VelocityWindowDays() int { return s.cfg.VelocityWindowDays }

func (s *Scorer) Assess(in Input) Assessment {
	flags := make([]string, 0, 4)
	flags = append(flags, s.documentFlags(in.Documents)...)
	flags = append(flags, s.historyFlags(in.History)...)

	fraud := len(flags) * s.cfg.PointsPerFlag
	if fraud > maxFraudScore {
		fraud = maxFraudScore
	}
	credit := s.creditScore(in)
	creditTier := s.creditTier(credit)

	out := Assessment{
		FraudScore:  fraud,
		CreditScore: credit,
		CreditTier:  creditTier,
		Tier:        creditTier,
		Suspicious:  fraud > s.cfg.SuspiciousAbove,
		Findings:    flags,
	}
	if out.Suspicious {
		out.Tier = TierHigh
	}
	out.Recommendation = recommendation(out)
	return out
}

func (s *Scorer) documentFlags(docs []document.Document) []string {
	var flags []string
	for _, d := range docs {
		if d.FileSize < s.cfg.SmallFileBytes {
			flags = append(flags, fmt.Sprintf("Document %s file size is suspiciously small", d.Type.Label()))
		}
		if ext := d.Extension(); !s.allowedExtension(ext) {
			flags = append(flags, fmt.Sprintf("Document %s has unusual file format (%s)", d.Type.Label(), ext))
		}
	}
	return flags
}

func (s *Scorer) allowedExtension(ext string) bool {
	for _, a := range s.cfg.AllowedExtensions {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

func (s *Scorer) historyFlags(h History) []string {
	var flags []string
	if h.RecentApplications > s.cfg.VelocityThreshold {
		flags = append(flags, fmt.Sprintf("High velocity: %d loan applications in last %d days",
			h.RecentApplications, s.cfg.VelocityWindowDays))
	}
	if h.RejectedApplications >= s.cfg.RejectionThreshold {
		flags = append(flags, "Multiple rejected applications in history")
	}
	return flags
}

var ratioBands = []struct {
	min    decimal.Decimal
	points int
}{
	{decimal.NewFromInt(5), 250},
	{decimal.NewFromInt(3), 180},
	{decimal.NewFromInt(2), 100},
	{decimal.RequireFromString("1.5"), 40},
}

var employmentPoints = map[loan.EmploymentType]int{
	loan.EmploymentGovernment:   150,
	loan.EmploymentSalaried:     150,
	loan.EmploymentBusiness:     100,
	loan.EmploymentSelfEmployed: 100,
	loan.EmploymentContract:     60,
}

// creditScore is monotonic in income ratio and employment stability and
// decreasing in prior rejections; range 350..850.
func (s *Scorer) creditScore(in Input) int {
	score := baseCreditScore

	if in.MonthlyInstallment.IsPositive() {
		ratio := in.MonthlyIncome.Div(in.MonthlyInstallment)
		for _, b := range ratioBands {
			if ratio.GreaterThanOrEqual(b.min) {
				score += b.points
				break
			}
		}
	} else if in.MonthlyIncome.IsPositive() {
		score += ratioBands[0].points
	}

	score += employmentPoints[in.EmploymentType]

	rejections := in.History.RejectedApplications
	if rejections > 2 {
		rejections = 2
	}
	score += 100 - 50*int(rejections)
	return min(score, maxCreditScore)
}

func (s *Scorer) creditTier(score int) Tier {
	switch {
	case score >= s.cfg.LowTierMinCredit:
		return TierLow
	case score >= s.cfg.MediumTierMinCredit:
		return TierMedium
	default:
		return TierHigh
	}
}

func recommendation(a Assessment) string {
	var base string
	switch a.Tier {
	case TierLow:
		base = "Low risk: applicant is eligible for approval."
	case TierMedium:
		base = "Medium risk: approve only after additional verification of income and employment."
	default:
		base = "High risk: manual review required before any approval."
	}
	if len(a.Findings) == 0 {
		return base
	}

	var b strings.Builder
	if a.Suspicious {
		b.WriteString("SUSPECTED FRAUD DETECTED:\n")
	} else {
		b.WriteString("Fraud signals found:\n")
	}
	for _, f := range a.Findings {
		b.WriteString("- ")
		b.WriteString(f)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(base)
	return b.String()
}
