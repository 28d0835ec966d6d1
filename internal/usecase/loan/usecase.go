package loan

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"vehicle-loan-backend/internal/domain/actor"
	"vehicle-loan-backend/internal/domain/amortization"
	"vehicle-loan-backend/internal/domain/installment"
	domain "vehicle-loan-backend/internal/domain/loan"
	"vehicle-loan-backend/internal/domain/notification"
	"vehicle-loan-backend/internal/domain/risk"
	"vehicle-loan-backend/internal/domain/uow"
	"vehicle-loan-backend/pkg/apperr"
	"vehicle-loan-backend/pkg/id"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

var maxRatePercent = decimal.NewFromInt(100)

const ratePlaces = 3

// Metrics is the subset of counters the lifecycle reports to.
type Metrics interface {
	Transition(command, state string)
	Failure(command, kind string)
	ScheduleGenerated(reason string)
	RiskAssessed(tier string)
}

type noopMetrics struct{}

func (noopMetrics) Transition(string, string) {}
func (noopMetrics) Failure(string, string)    {}
func (noopMetrics) ScheduleGenerated(string)  {}
func (noopMetrics) RiskAssessed(string)       {}

// Usecase is the loan lifecycle orchestrator. It is the only component that
// read-modify-writes applications and their schedules.
type Usecase struct {
	loans        domain.Repository
	installments installment.Repository
	uow          uow.UnitOfWork
	scorer       *risk.Scorer
	notify       notification.Dispatcher
	metrics      Metrics
	log          *slog.Logger
	now          func() time.Time
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func WithMetrics(m Metrics) Option { return func(u *Usecase) { u.metrics = m } }

func WithDispatcher(d notification.Dispatcher) Option { return func(u *Usecase) { u.notify = d } }

func WithLogger(l *slog.Logger) Option { return func(u *Usecase) { u.log = l } }

func NewUsecase(loans domain.Repository, installments installment.Repository, tx uow.UnitOfWork,
	scorer *risk.Scorer, opts ...Option) *Usecase {
	u := &Usecase{
		loans:        loans,
		installments: installments,
		uow:          tx,
		scorer:       scorer,
		notify:       notification.Discard{},
		metrics:      noopMetrics{},
		log:          slog.Default(),
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(u)
	}
	if u.scorer == nil {
		u.scorer = risk.NewScorer(risk.DefaultConfig())
	}
	return u
}

func (u *Usecase) Create(ctx context.Context, who actor.Actor, in CreateInput) (*ApplicationDTO, error) {
	if err := who.Require(actor.CapApply); err != nil {
		return nil, u.fail("create", err)
	}
	applicant := strings.TrimSpace(in.ApplicantID)
	if applicant == "" {
		applicant = who.ID
	}
	if applicant != who.ID && !who.Has(actor.CapViewAll) {
		return nil, u.fail("create", apperr.PermissionDenied("actor %s cannot apply on behalf of %s", who.ID, applicant))
	}
	if err := validateCreate(in); err != nil {
		return nil, u.fail("create", err)
	}

	now := u.now()
	a := &domain.Application{
		ApplicationID:     id.NewID32(),
		ApplicationNumber: id.ApplicationNumber(),
		ApplicantID:       applicant,
		AssetID:           strings.TrimSpace(in.AssetID),
		Principal:         in.Principal.Round(2),
		DownPayment:       in.DownPayment.Round(2),
		AnnualRatePercent: in.AnnualRatePercent,
		TermMonths:        in.TermMonths,
		MonthlyIncome:     in.MonthlyIncome.Round(2),
		EmploymentType:    in.EmploymentType,
		EmployerName:      strings.TrimSpace(in.EmployerName),
		CustomerRemarks:   strings.TrimSpace(in.CustomerRemarks),
		State:             domain.StateDraft,
		StateUpdatedAt:    now,
		OriginatedOn:      amortization.DateOnly(now),
	}
	sched, err := amortization.Generate(a.Principal, a.AnnualRatePercent, a.TermMonths, a.OriginatedOn)
	if err != nil {
		return nil, u.fail("create", err)
	}
	a.SetInstallment(sched.MonthlyInstallment)

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, a); err != nil {
			return err
		}
		return r.Installments.ReplaceSchedule(ctx, a.ID, buildInstallments(a, sched, nil))
	})
	if err != nil {
		return nil, u.fail("create", err)
	}

	u.metrics.Transition("create", string(a.State))
	u.metrics.ScheduleGenerated("create")
	u.log.InfoContext(ctx, "application created",
		"application_id", a.ApplicationID, "applicant_id", a.ApplicantID, "installment", sched.MonthlyInstallment.String())
	u.notify.Dispatch(notification.Message{
		UserID:        a.ApplicantID,
		ApplicationID: a.ApplicationID,
		Event:         "application_created",
		Title:         "Loan Application Created",
		Body:          "Your loan application " + a.ApplicationNumber + " has been created.",
	})
	return toDTO(a), nil
}

func (u *Usecase) Get(ctx context.Context, who actor.Actor, applicationID string) (*ApplicationDTO, error) {
	a, err := u.load(ctx, who, applicationID)
	if err != nil {
		return nil, err
	}
	return toDTO(a), nil
}

// List returns the caller's own applications, or all of them for view_all holders.
func (u *Usecase) List(ctx context.Context, who actor.Actor, in ListInput) ([]ApplicationDTO, error) {
	if who.ID == "" {
		return nil, apperr.PermissionDenied("anonymous actor cannot list applications")
	}
	f := domain.ListFilter{State: in.State, Limit: in.Limit, Offset: in.Offset}
	if !who.Has(actor.CapViewAll) {
		f.ApplicantID = who.ID
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	rows, err := u.loans.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]ApplicationDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *toDTO(&rows[i]))
	}
	return out, nil
}

func (u *Usecase) Schedule(ctx context.Context, who actor.Actor, applicationID string) (*ScheduleDTO, error) {
	a, err := u.load(ctx, who, applicationID)
	if err != nil {
		return nil, err
	}
	rows, err := u.installments.ListByApplication(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, r := range rows {
		total = total.Add(r.InterestComponent)
	}
	return &ScheduleDTO{
		ApplicationID:      a.ApplicationID,
		MonthlyInstallment: a.MonthlyInstallment,
		TotalInterest:      total,
		Installments:       rows,
	}, nil
}

func (u *Usecase) load(ctx context.Context, who actor.Actor, applicationID string) (*domain.Application, error) {
	a, err := u.loans.GetByApplicationID(ctx, applicationID)
	if err != nil {
		return nil, translate(err, domain.ErrNotFound)
	}
	if !who.CanAccess(a.ApplicantID) {
		return nil, apperr.PermissionDenied("actor %s cannot access application %s", who.ID, applicationID)
	}
	return a, nil
}

func validateCreate(in CreateInput) error {
	switch {
	case strings.TrimSpace(in.AssetID) == "":
		return apperr.Validation("asset_required", "asset_id is required").WithDetail("field", "asset_id")
	case !in.Principal.IsPositive():
		return amortization.ErrInvalidPrincipal.WithDetail("field", "principal")
	case in.DownPayment.IsNegative():
		return apperr.Validation("invalid_down_payment", "down payment must not be negative").WithDetail("field", "down_payment")
	case !in.MonthlyIncome.IsPositive():
		return apperr.Validation("invalid_income", "monthly income must be greater than zero").WithDetail("field", "monthly_income")
	case !in.EmploymentType.Valid():
		return apperr.Validation("invalid_employment_type", "unknown employment type").WithDetail("field", "employment_type")
	}
	return validateTerms(in.Principal, in.AnnualRatePercent, in.TermMonths)
}

func validateTerms(principal, rate decimal.Decimal, term int) error {
	if term < domain.MinTermMonths || term > domain.MaxTermMonths {
		return amortization.ErrInvalidTerm.WithDetail("field", "term_months")
	}
	if !principal.IsPositive() {
		return amortization.ErrInvalidPrincipal.WithDetail("field", "principal")
	}
	if rate.IsNegative() {
		return amortization.ErrInvalidRate.WithDetail("field", "annual_rate_percent")
	}
	if rate.GreaterThan(maxRatePercent) {
		return apperr.Validation("invalid_rate", "annual rate must not exceed 100 percent").WithDetail("field", "annual_rate_percent")
	}
	// stored as decimal(6,3)
	if !rate.Equal(rate.Round(ratePlaces)) {
		return apperr.Validation("invalid_rate", "annual rate must have at most 3 decimal places").WithDetail("field", "annual_rate_percent")
	}
	return nil
}

// translate maps a missing row onto the domain's not-found error.
func translate(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

func (u *Usecase) fail(command string, err error) error {
	u.metrics.Failure(command, string(apperr.KindOf(err)))
	return err
}
