package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"vehicle-loan-backend/internal/adapter/middleware"
	domainDocument "vehicle-loan-backend/internal/domain/document"
	"vehicle-loan-backend/internal/usecase/document"
)

type DocumentHandler struct{ uc *document.Usecase }

func NewDocumentHandler(uc *document.Usecase) *DocumentHandler { return &DocumentHandler{uc: uc} }

type uploadDocumentReq struct {
	DocumentType string `json:"document_type" validate:"required,doctype"`
	FileName     string `json:"file_name"     validate:"required,max=255"`
	FileSize     int64  `json:"file_size"     validate:"required,gt=0"`
	StorageURL   string `json:"storage_url"   validate:"required,url,max=512"`
}

type verifyDocumentReq struct {
	Decision string `json:"decision" validate:"required,oneof=verified rejected"`
	Notes    string `json:"notes"    validate:"max=1000"`
}

func (h *DocumentHandler) Upload(c echo.Context) error {
	id, ok, err := applicationParam(c)
	if !ok {
		return err
	}
	var req uploadDocumentReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	doc, err := h.uc.Upload(c.Request().Context(), middleware.ActorFrom(c), id, document.UploadInput{
		Type:       domainDocument.Type(req.DocumentType),
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		StorageURL: req.StorageURL,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandler) Status(c echo.Context) error {
	id, ok, err := applicationParam(c)
	if !ok {
		return err
	}
	st, err := h.uc.Status(c.Request().Context(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *DocumentHandler) Required(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"documents": h.uc.RequiredDocuments()})
}

func (h *DocumentHandler) Verify(c echo.Context) error {
	id := strings.TrimSpace(c.Param("document_id"))
	if !reHex32.MatchString(id) {
		return badRequest(c, "document_id must be 32-char lowercase hex")
	}
	var req verifyDocumentReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	doc, err := h.uc.Verify(c.Request().Context(), middleware.ActorFrom(c), id, document.VerifyInput{
		Decision: domainDocument.VerificationState(req.Decision),
		Notes:    req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, doc)
}
