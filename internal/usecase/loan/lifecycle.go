package loan

import (
	"context"
	"fmt"
	"strings"

	"vehicle-loan-backend/internal/domain/actor"
	"vehicle-loan-backend/internal/domain/document"
	domain "vehicle-loan-backend/internal/domain/loan"
	"vehicle-loan-backend/internal/domain/notification"
	"vehicle-loan-backend/internal/domain/risk"
	"vehicle-loan-backend/internal/domain/uow"
	"vehicle-loan-backend/pkg/apperr"
)

func (u *Usecase) Submit(ctx context.Context, who actor.Actor, applicationID string) (*ApplicationDTO, error) {
	return u.transition(ctx, domain.CmdSubmit, who, applicationID, "", func(r uow.Repos, a *domain.Application) error {
		return checkDocuments(ctx, r, a)
	})
}

// VerifyDocuments re-runs the gate: a mandatory document rejected after
// submission blocks verification.
func (u *Usecase) VerifyDocuments(ctx context.Context, who actor.Actor, applicationID string) (*ApplicationDTO, error) {
	return u.transition(ctx, domain.CmdVerifyDocuments, who, applicationID, "", func(r uow.Repos, a *domain.Application) error {
		return checkDocuments(ctx, r, a)
	})
}

func (u *Usecase) Approve(ctx context.Context, who actor.Actor, applicationID string) (*ApplicationDTO, error) {
	return u.transition(ctx, domain.CmdApprove, who, applicationID, "", nil)
}

func (u *Usecase) Reject(ctx context.Context, who actor.Actor, applicationID, reason string) (*ApplicationDTO, error) {
	return u.transition(ctx, domain.CmdReject, who, applicationID, reason, func(uow.Repos, *domain.Application) error {
		if strings.TrimSpace(reason) == "" {
			return apperr.Validation("reason_required", "a rejection reason is required").WithDetail("field", "reason")
		}
		return nil
	})
}

// Disburse is terminal. A missing or damaged schedule is rebuilt first so the
// frozen schedule is always complete.
func (u *Usecase) Disburse(ctx context.Context, who actor.Actor, applicationID string) (*ApplicationDTO, error) {
	return u.transition(ctx, domain.CmdDisburse, who, applicationID, "", func(r uow.Repos, a *domain.Application) error {
		rows, err := r.Installments.ListByApplication(ctx, a.ID)
		if err != nil {
			return err
		}
		if rep := inspect(a, rows); !rep.Healthy {
			u.log.WarnContext(ctx, "rebuilding schedule before disbursement",
				"application_id", a.ApplicationID, "problems", rep.Problems)
			return u.rebuild(ctx, r, a, rows)
		}
		return nil
	})
}

// transition runs one state-machine command under the application's row lock.
// check runs after the guard and before the state change.
func (u *Usecase) transition(ctx context.Context, cmd domain.Command, who actor.Actor, applicationID, reason string,
	check func(r uow.Repos, a *domain.Application) error) (*ApplicationDTO, error) {
	var out *domain.Application
	err := u.uow.WithinApplicationTx(ctx, applicationID, func(r uow.Repos, a *domain.Application) error {
		if _, err := a.Guard(cmd, who); err != nil {
			return err
		}
		if check != nil {
			if err := check(r, a); err != nil {
				return err
			}
		}
		a.Apply(cmd, who, u.now(), reason)
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, u.fail(string(cmd), translate(err, domain.ErrNotFound))
	}

	u.metrics.Transition(string(cmd), string(out.State))
	u.log.InfoContext(ctx, "application transitioned",
		"application_id", out.ApplicationID, "command", string(cmd), "state", string(out.State), "actor_id", who.ID)
	u.notify.Dispatch(transitionMessage(cmd, out))
	return toDTO(out), nil
}

func checkDocuments(ctx context.Context, r uow.Repos, a *domain.Application) error {
	docs, err := r.Documents.ListByApplication(ctx, a.ID)
	if err != nil {
		return err
	}
	gate := document.CheckMandatory(docs, document.Mandatory())
	if gate.Complete {
		return nil
	}
	return apperr.New(apperr.KindIncompleteDocuments, "incomplete_documents",
		"missing mandatory documents: "+strings.Join(gate.MissingLabels(), ", ")).
		WithDetail("missing_documents", gate.Missing)
}

// ScoreRisk writes an advisory assessment onto the application without changing its state.
func (u *Usecase) ScoreRisk(ctx context.Context, who actor.Actor, applicationID string) (*ApplicationDTO, error) {
	const cmd = "score_risk"
	if err := who.Require(actor.CapScoreRisk); err != nil {
		return nil, u.fail(cmd, err)
	}
	var (
		out *domain.Application
		res risk.Assessment
	)
	err := u.uow.WithinApplicationTx(ctx, applicationID, func(r uow.Repos, a *domain.Application) error {
		if err := a.EnsureScorable(); err != nil {
			return err
		}
		docs, err := r.Documents.ListByApplication(ctx, a.ID)
		if err != nil {
			return err
		}
		recent, err := r.Loans.CountRecentApplications(ctx, a.ApplicantID, u.scorer.VelocityWindowDays())
		if err != nil {
			return err
		}
		rejected, err := r.Loans.CountRejectedApplications(ctx, a.ApplicantID)
		if err != nil {
			return err
		}
		inst := a.MonthlyInstallment.Decimal
		if !a.MonthlyInstallment.Valid {
			inst = installmentFor(a)
		}
		res = u.scorer.Assess(risk.Input{
			MonthlyIncome:      a.MonthlyIncome,
			MonthlyInstallment: inst,
			EmploymentType:     a.EmploymentType,
			Documents:          docs,
			History:            risk.History{RecentApplications: recent, RejectedApplications: rejected},
		})

		now := u.now()
		credit := res.CreditScore
		a.CreditScore = &credit
		a.FraudScore = res.FraudScore
		a.RiskTier = string(res.Tier)
		a.RiskFindings = res.Findings
		a.RiskRecommendation = res.Recommendation
		a.ScoredAt = &now
		if err := r.Loans.Save(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return nil, u.fail(cmd, translate(err, domain.ErrNotFound))
	}

	u.metrics.RiskAssessed(string(res.Tier))
	u.log.InfoContext(ctx, "risk scored",
		"application_id", out.ApplicationID, "tier", string(res.Tier),
		"fraud_score", res.FraudScore, "credit_score", res.CreditScore, "suspicious", res.Suspicious)
	return toDTO(out), nil
}

func transitionMessage(cmd domain.Command, a *domain.Application) notification.Message {
	m := notification.Message{UserID: a.ApplicantID, ApplicationID: a.ApplicationID, Event: string(cmd)}
	switch cmd {
	case domain.CmdSubmit:
		m.Title = "Application Submitted"
		m.Body = fmt.Sprintf("Your loan application %s has been submitted for review.", a.ApplicationNumber)
	case domain.CmdVerifyDocuments:
		m.Title = "Documents Verified"
		m.Body = fmt.Sprintf("Documents for your loan application %s have been verified.", a.ApplicationNumber)
	case domain.CmdApprove:
		m.Title = "Loan Approved"
		m.Body = fmt.Sprintf("Congratulations! Your loan application %s has been approved.", a.ApplicationNumber)
	case domain.CmdReject:
		m.Title = "Loan Application Rejected"
		m.Body = fmt.Sprintf("Your loan application %s has been rejected. Reason: %s", a.ApplicationNumber, a.RejectionReason)
	case domain.CmdDisburse:
		m.Title = "Loan Disbursed"
		m.Body = fmt.Sprintf("The loan amount for application %s has been disbursed.", a.ApplicationNumber)
	}
	return m
}
