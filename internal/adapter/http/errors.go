package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"vehicle-loan-backend/pkg/apperr"
)

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindIncompleteDocuments:
		return http.StatusUnprocessableEntity
	case apperr.KindInvalidTransition, apperr.KindImmutableAfterDisbursement, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindPermissionDenied:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// respondError maps use case errors to the JSON error body. Anything that is
// not an *apperr.Error is logged and hidden behind a 500.
func respondError(c echo.Context, err error) error {
	e, ok := apperr.As(err)
	if !ok {
		slog.Default().ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Kind: "internal"})
	}
	resp := ErrorResponse{Error: e.Message, Kind: string(e.Kind), Meta: e.Detail}
	if f, ok := e.Detail["field"].(string); ok {
		resp.Details = []FieldError{{Field: f, Message: e.Message}}
	}
	return c.JSON(statusFor(e.Kind), resp)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// bindAndValidate writes the 400/422 response itself and reports whether the handler may go on.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, badRequest(c, "invalid body")
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Kind:    string(apperr.KindValidation),
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
