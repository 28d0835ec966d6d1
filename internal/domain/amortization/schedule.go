// Package amortization builds equal-monthly-installment repayment schedules.
//
// Periods are a fixed 30 days apart starting from the origination date, not
// calendar months. Every monetary value is rounded half-up to 2 places at the
// step it is produced, and the final period absorbs the accumulated rounding
// so the balance closes at exactly zero.
package amortization

import (
	"time"

	"github.com/shopspring/decimal"

	"vehicle-loan-backend/pkg/apperr"
)

const (
	MinTermMonths = 6
	MaxTermMonths = 120
	PeriodDays    = 30

	rateScale   = 16
	factorScale = 20
)

var (
	ErrInvalidTerm      = apperr.Validation("invalid_term", "term must be between 6 and 120 months")
	ErrInvalidPrincipal = apperr.Validation("invalid_principal", "principal must be greater than zero")
	ErrInvalidRate      = apperr.Validation("invalid_rate", "annual rate must not be negative")
)

var (
	one       = decimal.NewFromInt(1)
	monthsPct = decimal.NewFromInt(1200)
)

// Entry is one period of a schedule.
type Entry struct {
	Sequence  int             `json:"sequence_number"`
	DueDate   time.Time       `json:"due_date"`
	Amount    decimal.Decimal `json:"installment_amount"`
	Principal decimal.Decimal `json:"principal_component"`
	Interest  decimal.Decimal `json:"interest_component"`
	Remaining decimal.Decimal `json:"remaining_balance"`
}

type Schedule struct {
	// MonthlyInstallment is the amount of every period except possibly the last.
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	Entries            []Entry         `json:"entries"`
}

func (s Schedule) TotalInterest() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range s.Entries {
		sum = sum.Add(e.Interest)
	}
	return sum
}

func (s Schedule) TotalPrincipal() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range s.Entries {
		sum = sum.Add(e.Principal)
	}
	return sum
}

// MonthlyRate converts an annual percentage into the per-period rate.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.DivRound(monthsPct, rateScale)
}

// Installment returns the fixed per-period amount for the given terms.
func Installment(principal, annualRatePercent decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if err := validate(principal, annualRatePercent, termMonths); err != nil {
		return decimal.Zero, err
	}
	return installment(principal, MonthlyRate(annualRatePercent), termMonths), nil
}

func installment(principal, r decimal.Decimal, n int) decimal.Decimal {
	if r.IsZero() {
		return principal.Div(decimal.NewFromInt(int64(n))).Round(2)
	}
	onePlusR := one.Add(r)
	f := one
	for i := 0; i < n; i++ {
		f = f.Mul(onePlusR).Round(factorScale)
	}
	return principal.Mul(r).Mul(f).Div(f.Sub(one)).Round(2)
}

func validate(principal, annualRatePercent decimal.Decimal, termMonths int) error {
	if termMonths < MinTermMonths || termMonths > MaxTermMonths {
		return ErrInvalidTerm.WithDetail("term_months", termMonths)
	}
	if !principal.IsPositive() {
		return ErrInvalidPrincipal
	}
	if annualRatePercent.IsNegative() {
		return ErrInvalidRate
	}
	return nil
}

// Generate computes the full schedule. It is pure: equal inputs give equal output.
func Generate(principal, annualRatePercent decimal.Decimal, termMonths int, originatedOn time.Time) (Schedule, error) {
	if err := validate(principal, annualRatePercent, termMonths); err != nil {
		return Schedule{}, err
	}
	principal = principal.Round(2)
	r := MonthlyRate(annualRatePercent)
	inst := installment(principal, r, termMonths)
	anchor := DateOnly(originatedOn)

	entries := make([]Entry, 0, termMonths)
	balance := principal
	for seq := 1; seq <= termMonths; seq++ {
		interest := balance.Mul(r).Round(2)
		pc := inst.Sub(interest)
		amount := inst
		if seq == termMonths {
			pc = balance
			amount = pc.Add(interest)
		} else if !pc.IsPositive() || !pc.LessThan(balance) {
			return Schedule{}, ErrInvalidPrincipal.WithDetail("reason", "principal too small to amortize over the term")
		}
		balance = balance.Sub(pc)
		entries = append(entries, Entry{
			Sequence:  seq,
			DueDate:   anchor.AddDate(0, 0, PeriodDays*seq),
			Amount:    amount,
			Principal: pc,
			Interest:  interest,
			Remaining: balance,
		})
	}
	return Schedule{MonthlyInstallment: inst, Entries: entries}, nil
}

// DateOnly truncates t to midnight UTC of its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
