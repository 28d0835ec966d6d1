package loan

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"vehicle-loan-backend/internal/domain/actor"
	"vehicle-loan-backend/internal/domain/amortization"
	"vehicle-loan-backend/internal/domain/installment"
	domain "vehicle-loan-backend/internal/domain/loan"
	"vehicle-loan-backend/internal/domain/notification"
	"vehicle-loan-backend/internal/domain/uow"
	"vehicle-loan-backend/pkg/apperr"
	"vehicle-loan-backend/pkg/id"
)

// UpdateTerms edits principal, rate or term and rebuilds the schedule in the same transaction.
func (u *Usecase) UpdateTerms(ctx context.Context, who actor.Actor, applicationID string, in UpdateTermsInput) (*ApplicationDTO, error) {
	const cmd = "update_terms"
	var out *domain.Application
	err := u.uow.WithinApplicationTx(ctx, applicationID, func(r uow.Repos, a *domain.Application) error {
		if err := requireEditor(who, a); err != nil {
			return err
		}
		if err := a.EnsureTermsMutable(); err != nil {
			return err
		}
		if in.Principal == nil && in.AnnualRatePercent == nil && in.TermMonths == nil {
			return apperr.Validation("no_changes", "at least one of principal, annual_rate_percent or term_months is required")
		}
		principal, rate, term := a.Principal, a.AnnualRatePercent, a.TermMonths
		if in.Principal != nil {
			principal = in.Principal.Round(2)
		}
		if in.AnnualRatePercent != nil {
			rate = *in.AnnualRatePercent
		}
		if in.TermMonths != nil {
			term = *in.TermMonths
		}
		if err := validateTerms(principal, rate, term); err != nil {
			return err
		}
		a.Principal, a.AnnualRatePercent, a.TermMonths = principal, rate, term
		if err := u.rebuild(ctx, r, a, nil); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, u.fail(cmd, translate(err, domain.ErrNotFound))
	}

	u.metrics.ScheduleGenerated(cmd)
	u.log.InfoContext(ctx, "terms updated",
		"application_id", out.ApplicationID, "principal", out.Principal.String(),
		"rate", out.AnnualRatePercent.String(), "term_months", out.TermMonths)
	u.notify.Dispatch(notification.Message{
		UserID:        out.ApplicantID,
		ApplicationID: out.ApplicationID,
		Event:         cmd,
		Title:         "Loan Terms Updated",
		Body: fmt.Sprintf("The terms of loan application %s changed. New monthly installment: %s.",
			out.ApplicationNumber, out.MonthlyInstallment.Decimal.StringFixed(2)),
	})
	return toDTO(out), nil
}

// RegenerateSchedule rebuilds the schedule from the current terms.
func (u *Usecase) RegenerateSchedule(ctx context.Context, who actor.Actor, applicationID string) (*ScheduleDTO, error) {
	const cmd = "regenerate_schedule"
	err := u.uow.WithinApplicationTx(ctx, applicationID, func(r uow.Repos, a *domain.Application) error {
		if err := requireEditor(who, a); err != nil {
			return err
		}
		if err := a.EnsureTermsMutable(); err != nil {
			return err
		}
		return u.rebuild(ctx, r, a, nil)
	})
	if err != nil {
		return nil, u.fail(cmd, translate(err, domain.ErrNotFound))
	}
	u.metrics.ScheduleGenerated(cmd)
	return u.Schedule(ctx, who, applicationID)
}

// CheckScheduleIntegrity compares the stored schedule with a fresh recomputation.
func (u *Usecase) CheckScheduleIntegrity(ctx context.Context, applicationID string) (*IntegrityReport, error) {
	a, err := u.loans.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, translate(err, domain.ErrNotFound)
	}
	rows, err := u.installments.ListByApplication(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	rep := inspect(a, rows)
	return &rep, nil
}

// RepairSchedules recomputes every schedule that fails the integrity check.
// Payment progress recorded on surviving sequence numbers is kept.
func (u *Usecase) RepairSchedules(ctx context.Context) (*RepairReport, error) {
	ids, err := u.loans.ListApplicationIDs(ctx)
	if err != nil {
		return nil, err
	}
	out := &RepairReport{Repaired: []string{}, Failed: []string{}}
	for _, appID := range ids {
		out.Checked++
		repaired := false
		err := u.uow.WithinApplicationTx(ctx, appID, func(r uow.Repos, a *domain.Application) error {
			rows, err := r.Installments.ListByApplication(ctx, a.ID)
			if err != nil {
				return err
			}
			rep := inspect(a, rows)
			if rep.Healthy {
				return nil
			}
			u.log.WarnContext(ctx, "schedule integrity violation", "application_id", appID, "problems", rep.Problems)
			repaired = true
			return u.rebuild(ctx, r, a, rows)
		})
		switch {
		case err != nil:
			u.log.ErrorContext(ctx, "schedule repair failed", "application_id", appID, "err", err)
			out.Failed = append(out.Failed, appID)
		case repaired:
			u.metrics.ScheduleGenerated("repair")
			out.Repaired = append(out.Repaired, appID)
		}
	}
	u.log.InfoContext(ctx, "schedule integrity sweep finished",
		"checked", out.Checked, "repaired", len(out.Repaired), "failed", len(out.Failed))
	return out, nil
}

// rebuild deletes and recreates the schedule and saves the reconciled installment.
func (u *Usecase) rebuild(ctx context.Context, r uow.Repos, a *domain.Application, prev []installment.Installment) error {
	sched, err := amortization.Generate(a.Principal, a.AnnualRatePercent, a.TermMonths, a.OriginatedOn)
	if err != nil {
		return err
	}
	a.SetInstallment(sched.MonthlyInstallment)
	if err := r.Installments.ReplaceSchedule(ctx, a.ID, buildInstallments(a, sched, prev)); err != nil {
		return err
	}
	return r.Loans.Save(ctx, a)
}

func requireEditor(who actor.Actor, a *domain.Application) error {
	if who.ID != "" && who.ID == a.ApplicantID {
		return who.Require(actor.CapApply)
	}
	return who.Require(actor.CapApprove)
}

func buildInstallments(a *domain.Application, s amortization.Schedule, prev []installment.Installment) []installment.Installment {
	bySeq := make(map[int]installment.Installment, len(prev))
	for _, p := range prev {
		bySeq[p.SequenceNumber] = p
	}
	rows := make([]installment.Installment, 0, len(s.Entries))
	for _, e := range s.Entries {
		row := installment.Installment{
			InstallmentID:      id.InstallmentID(a.ApplicationID, e.Sequence),
			ApplicationRef:     a.ID,
			ApplicationID:      a.ApplicationID,
			SequenceNumber:     e.Sequence,
			DueDate:            e.DueDate,
			InstallmentAmount:  e.Amount,
			PrincipalComponent: e.Principal,
			InterestComponent:  e.Interest,
			RemainingBalance:   e.Remaining,
			PaymentState:       installment.PaymentPending,
			PaidAmount:         decimal.Zero,
		}
		if p, ok := bySeq[e.Sequence]; ok {
			row.PaidAmount = p.PaidAmount
			row.PaidAt = p.PaidAt
			switch {
			case row.PaidAmount.GreaterThanOrEqual(row.InstallmentAmount):
				row.PaymentState = installment.PaymentPaid
			case row.PaidAmount.IsPositive():
				row.PaymentState = installment.PaymentPartial
			case p.PaymentState == installment.PaymentOverdue:
				row.PaymentState = installment.PaymentOverdue
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// inspect lists every way rows differ from the schedule the terms produce.
func inspect(a *domain.Application, rows []installment.Installment) IntegrityReport {
	rep := IntegrityReport{ApplicationID: a.ApplicationID}
	want, err := amortization.Generate(a.Principal, a.AnnualRatePercent, a.TermMonths, a.OriginatedOn)
	if err != nil {
		rep.Problems = append(rep.Problems, "terms cannot be amortized: "+err.Error())
		return rep
	}

	switch {
	case !a.MonthlyInstallment.Valid:
		rep.Problems = append(rep.Problems, "monthly installment is not set")
	case !a.MonthlyInstallment.Decimal.Equal(want.MonthlyInstallment):
		rep.Problems = append(rep.Problems, fmt.Sprintf("monthly installment %s does not reconcile with schedule amount %s",
			a.MonthlyInstallment.Decimal.StringFixed(2), want.MonthlyInstallment.StringFixed(2)))
	}

	if len(rows) != len(want.Entries) {
		rep.Problems = append(rep.Problems, fmt.Sprintf("expected %d installments, found %d", len(want.Entries), len(rows)))
	} else {
		for i, row := range rows {
			e := want.Entries[i]
			if row.SequenceNumber != e.Sequence {
				rep.Problems = append(rep.Problems, fmt.Sprintf("sequence is not contiguous at position %d (found %d)", i+1, row.SequenceNumber))
				break
			}
			if !sameEntry(row, e) {
				rep.Problems = append(rep.Problems, fmt.Sprintf("installment %d does not match the recomputed schedule", e.Sequence))
				break
			}
		}
	}
	rep.Healthy = len(rep.Problems) == 0
	return rep
}

func sameEntry(row installment.Installment, e amortization.Entry) bool {
	return amortization.DateOnly(row.DueDate).Equal(e.DueDate) &&
		row.InstallmentAmount.Equal(e.Amount) &&
		row.PrincipalComponent.Equal(e.Principal) &&
		row.InterestComponent.Equal(e.Interest) &&
		row.RemainingBalance.Equal(e.Remaining)
}

func installmentFor(a *domain.Application) decimal.Decimal {
	inst, err := amortization.Installment(a.Principal, a.AnnualRatePercent, a.TermMonths)
	if err != nil {
		return decimal.Zero
	}
	return inst
}
