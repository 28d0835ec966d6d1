package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"vehicle-loan-backend/internal/adapter/middleware"
	"vehicle-loan-backend/internal/domain/actor"
	domainLoan "vehicle-loan-backend/internal/domain/loan"
	"vehicle-loan-backend/internal/usecase/loan"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	ApplicantID       string          `json:"applicant_id"        validate:"omitempty,max=64"`
	AssetID           string          `json:"asset_id"            validate:"required,max=64"`
	Principal         decimal.Decimal `json:"principal"           validate:"required,gt=0,dec2"`
	DownPayment       decimal.Decimal `json:"down_payment"        validate:"gte=0,dec2"`
	AnnualRatePercent decimal.Decimal `json:"annual_rate_percent" validate:"gte=0,lte=100,dec3"`
	TermMonths        int             `json:"term_months"         validate:"required,gte=6,lte=120"`
	MonthlyIncome     decimal.Decimal `json:"monthly_income"      validate:"required,gt=0,dec2"`
	EmploymentType    string          `json:"employment_type"     validate:"required,employment"`
	EmployerName      string          `json:"employer_name"       validate:"max=200"`
	CustomerRemarks   string          `json:"customer_remarks"    validate:"max=2000"`
}

type updateTermsReq struct {
	Principal         *decimal.Decimal `json:"principal"           validate:"omitempty,gt=0,dec2"`
	AnnualRatePercent *decimal.Decimal `json:"annual_rate_percent" validate:"omitempty,gte=0,lte=100,dec3"`
	TermMonths        *int             `json:"term_months"         validate:"omitempty,gte=6,lte=120"`
}

type rejectReq struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Create(c.Request().Context(), middleware.ActorFrom(c), loan.CreateInput{
		ApplicantID:       req.ApplicantID,
		AssetID:           req.AssetID,
		Principal:         req.Principal,
		DownPayment:       req.DownPayment,
		AnnualRatePercent: req.AnnualRatePercent,
		TermMonths:        req.TermMonths,
		MonthlyIncome:     req.MonthlyIncome,
		EmploymentType:    domainLoan.EmploymentType(req.EmploymentType),
		EmployerName:      req.EmployerName,
		CustomerRemarks:   req.CustomerRemarks,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) ListLoans(c echo.Context) error {
	in := loan.ListInput{State: domainLoan.State(strings.TrimSpace(c.QueryParam("state")))}
	var err error
	if in.Limit, err = queryInt(c, "limit"); err != nil {
		return badRequest(c, "limit must be an integer")
	}
	if in.Offset, err = queryInt(c, "offset"); err != nil {
		return badRequest(c, "offset must be an integer")
	}
	out, err := h.uc.List(c.Request().Context(), middleware.ActorFrom(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": out})
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, ok, err := applicationParam(c)
	if !ok {
		return err
	}
	dto, err := h.uc.Get(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) GetSchedule(c echo.Context) error {
	id, ok, err := applicationParam(c)
	if !ok {
		return err
	}
	dto, err := h.uc.Schedule(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) UpdateTerms(c echo.Context) error {
	id, ok, err := applicationParam(c)
	if !ok {
		return err
	}
	var req updateTermsReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.UpdateTerms(c.Request().Context(), middleware.ActorFrom(c), id, loan.UpdateTermsInput{
		Principal:         req.Principal,
		AnnualRatePercent: req.AnnualRatePercent,
		TermMonths:        req.TermMonths,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) RegenerateSchedule(c echo.Context) error {
	id, ok, err := applicationParam(c)
	if !ok {
		return err
	}
	dto, err := h.uc.RegenerateSchedule(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Submit(c echo.Context) error { return h.command(c, h.uc.Submit) }

func (h *LoanHandler) VerifyDocuments(c echo.Context) error { return h.command(c, h.uc.VerifyDocuments) }

func (h *LoanHandler) ScoreRisk(c echo.Context) error { return h.command(c, h.uc.ScoreRisk) }

func (h *LoanHandler) Approve(c echo.Context) error { return h.command(c, h.uc.Approve) }

func (h *LoanHandler) Disburse(c echo.Context) error { return h.command(c, h.uc.Disburse) }

func (h *LoanHandler) Reject(c echo.Context) error {
	id, ok, err := applicationParam(c)
	if !ok {
		return err
	}
	var req rejectReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Reject(c.Request().Context(), middleware.ActorFrom(c), id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

type commandFn func(ctx context.Context, who actor.Actor, applicationID string) (*loan.ApplicationDTO, error)

func (h *LoanHandler) command(c echo.Context, fn commandFn) error {
	id, ok, err := applicationParam(c)
	if !ok {
		return err
	}
	dto, err := fn(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// applicationParam validates the :application_id path param.
func applicationParam(c echo.Context) (string, bool, error) {
	id := strings.TrimSpace(c.Param("application_id"))
	if id == "" {
		return "", false, badRequest(c, "missing application_id path param")
	}
	if !reHex32.MatchString(id) {
		return "", false, badRequest(c, "application_id must be 32-char lowercase hex")
	}
	return id, true, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
