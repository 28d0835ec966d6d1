package http

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"vehicle-loan-backend/internal/adapter/middleware"
	domainPayment "vehicle-loan-backend/internal/domain/payment"
	"vehicle-loan-backend/internal/usecase/payment"
)

// installment ids are <application id>-<seq:03d>
var reInstallmentID = regexp.MustCompile(`^[a-f0-9]{32}-[0-9]{3}$`)

type PaymentHandler struct{ uc *payment.Usecase }

func NewPaymentHandler(uc *payment.Usecase) *PaymentHandler { return &PaymentHandler{uc: uc} }

type recordPaymentReq struct {
	Amount decimal.Decimal `json:"amount" validate:"required,gt=0,dec2"`
	Method string          `json:"method" validate:"required,paymethod"`
}

func installmentParam(c echo.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("installment_id"))
	return id, reInstallmentID.MatchString(id)
}

func (h *PaymentHandler) Record(c echo.Context) error {
	id, ok := installmentParam(c)
	if !ok {
		return badRequest(c, "installment_id must look like <application_id>-<nnn>")
	}
	var req recordPaymentReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	receipt, err := h.uc.Record(c.Request().Context(), middleware.ActorFrom(c), id, payment.RecordInput{
		Amount: req.Amount,
		Method: domainPayment.Method(req.Method),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, receipt)
}

func (h *PaymentHandler) List(c echo.Context) error {
	id, ok := installmentParam(c)
	if !ok {
		return badRequest(c, "installment_id must look like <application_id>-<nnn>")
	}
	out, err := h.uc.History(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": out})
}
