package installment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestApplyPayment(t *testing.T) {
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	i := &Installment{InstallmentAmount: decimal.RequireFromString("26571.45"), PaymentState: PaymentPending}

	i.ApplyPayment(decimal.RequireFromString("10000"), at)
	if i.PaymentState != PaymentPartial {
		t.Fatalf("state=%s, want partial", i.PaymentState)
	}
	if got := i.Outstanding().StringFixed(2); got != "16571.45" {
		t.Fatalf("outstanding=%s", got)
	}
	if i.PaidAt != nil {
		t.Fatalf("PaidAt should stay nil on partial payment")
	}

	i.ApplyPayment(decimal.RequireFromString("16571.45"), at)
	if i.PaymentState != PaymentPaid || i.PaidAt == nil {
		t.Fatalf("expected paid with timestamp, got %+v", i)
	}
	if !i.Outstanding().IsZero() {
		t.Fatalf("outstanding should be zero, got %s", i.Outstanding())
	}
}

func TestApplyPayment_OverdueStaysOverdueUntilSettled(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	at := due.AddDate(0, 0, 10)
	i := &Installment{
		DueDate:           due,
		InstallmentAmount: decimal.RequireFromString("26571.45"),
		PaymentState:      PaymentOverdue,
	}

	i.ApplyPayment(decimal.RequireFromString("5000"), at)
	if i.PaymentState != PaymentOverdue {
		t.Fatalf("state=%s, want overdue", i.PaymentState)
	}
	if got := i.Outstanding().StringFixed(2); got != "21571.45" {
		t.Fatalf("outstanding=%s", got)
	}

	i.ApplyPayment(decimal.RequireFromString("21571.45"), at)
	if i.PaymentState != PaymentPaid || i.PaidAt == nil {
		t.Fatalf("expected paid with timestamp, got %+v", i)
	}
}

func TestOverdue(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		state PaymentState
		asOf  time.Time
		want  bool
	}{
		{"pending before due", PaymentPending, due.Add(-time.Hour), false},
		{"pending after due", PaymentPending, due.AddDate(0, 0, 1), true},
		{"partial after due", PaymentPartial, due.AddDate(0, 0, 1), true},
		{"paid after due", PaymentPaid, due.AddDate(0, 0, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := &Installment{DueDate: due, PaymentState: tt.state}
			if got := i.Overdue(tt.asOf); got != tt.want {
				t.Fatalf("Overdue=%v want %v", got, tt.want)
			}
		})
	}
}
