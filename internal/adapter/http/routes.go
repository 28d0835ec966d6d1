package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"vehicle-loan-backend/internal/adapter/middleware"
)

type Routes struct {
	Health    *Handler
	Loans     *LoanHandler
	Documents *DocumentHandler
	Payments  *PaymentHandler
	Metrics   http.Handler

	Tokens         middleware.TokenValidator
	Redis          redis.Cmdable
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

// Register mounts every route. /api/v1 requires a bearer token, and its
// mutating requests go through the idempotency store.
func Register(e *echo.Echo, r Routes) {
	e.Validator = NewValidator()

	e.GET("/health", r.Health.Health)
	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.Metrics))
	}

	api := e.Group("/api/v1", middleware.Auth(r.Tokens), middleware.Idempotency(r.Redis, r.IdempotencyTTL, r.Logger))

	api.POST("/loans", r.Loans.CreateLoan)
	api.GET("/loans", r.Loans.ListLoans)
	api.GET("/loans/:application_id", r.Loans.GetLoan)
	api.PATCH("/loans/:application_id/terms", r.Loans.UpdateTerms)
	api.GET("/loans/:application_id/schedule", r.Loans.GetSchedule)
	api.POST("/loans/:application_id/schedule/regenerate", r.Loans.RegenerateSchedule)
	api.POST("/loans/:application_id/submit", r.Loans.Submit)
	api.POST("/loans/:application_id/verify-documents", r.Loans.VerifyDocuments)
	api.POST("/loans/:application_id/risk-score", r.Loans.ScoreRisk)
	api.POST("/loans/:application_id/approve", r.Loans.Approve)
	api.POST("/loans/:application_id/reject", r.Loans.Reject)
	api.POST("/loans/:application_id/disburse", r.Loans.Disburse)

	api.POST("/loans/:application_id/documents", r.Documents.Upload)
	api.GET("/loans/:application_id/documents/status", r.Documents.Status)
	api.GET("/documents/required", r.Documents.Required)
	api.POST("/documents/:document_id/verify", r.Documents.Verify)

	api.GET("/installments/:installment_id/payments", r.Payments.List)
	api.POST("/installments/:installment_id/payments", r.Payments.Record)
}
