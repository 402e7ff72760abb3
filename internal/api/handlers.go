package api

import (
	"context"
	"net/http"
	"time"

	apperrors "field-validation/internal/common/errors"
	"field-validation/internal/common/validation"
	"field-validation/internal/engine/catalog"
	"field-validation/internal/engine/evaluator"
	"field-validation/internal/engine/health"
	"field-validation/internal/engine/rule"
	"field-validation/internal/models"

	"github.com/gin-gonic/gin"
)

// ValidationService is the behaviour the HTTP layer needs.
type ValidationService interface {
	ValidateField(ctx context.Context, formID, fieldID string, value rule.Value, formCtx rule.FormContext) (evaluator.Result, error)
	ValidateDependents(ctx context.Context, formID, fieldID string, formCtx rule.FormContext) (map[string]evaluator.Result, error)
	ConfigHealth(ctx context.Context, formID string) ([]health.Issue, error)
	ValidationTypes() []catalog.Definition
	Invalidate(ctx context.Context, formID string) error
	Ready(ctx context.Context) error
}

type Handler struct {
	svc  ValidationService
	errs *apperrors.ErrorHandler
}

func toResponse(res evaluator.Result, debug bool) models.ValidateFieldResponse {
	out := models.ValidateFieldResponse{
		IsValid:      res.IsValid,
		Message:      res.Message,
		Placeholders: res.Placeholders,
		IsBlocking:   res.IsBlocking,
	}
	if out.Placeholders == nil {
		out.Placeholders = map[string]string{}
	}
	if debug {
		out.RuleID = res.RuleID
		out.Outcomes = res.Outcomes
	}
	return out
}

func checkIDs(formID, fieldID string) error {
	if formID != "" {
		if err := validation.ValidateIdentifier(formID); err != nil {
			return apperrors.NewInvalidRequestError(err.Error())
		}
	}
	if err := validation.ValidateIdentifier(fieldID); err != nil {
		return apperrors.NewInvalidRequestError(err.Error())
	}
	return nil
}

func (h *Handler) validateField(c *gin.Context) {
	var req models.ValidateFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.Respond(c, apperrors.NewInvalidRequestError(err.Error()))
		return
	}
	if err := checkIDs(req.FormID, req.FieldID); err != nil {
		h.errs.Respond(c, err)
		return
	}

	res, err := h.svc.ValidateField(c.Request.Context(), req.FormID, req.FieldID, req.FieldValue, req.FormContextData)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(res, c.Query("debug") == "true"))
}

func (h *Handler) validateDependents(c *gin.Context) {
	var req models.ValidateDependentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.Respond(c, apperrors.NewInvalidRequestError(err.Error()))
		return
	}
	if err := checkIDs(req.FormID, req.FieldID); err != nil {
		h.errs.Respond(c, err)
		return
	}

	results, err := h.svc.ValidateDependents(c.Request.Context(), req.FormID, req.FieldID, req.FormContextData)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	debug := c.Query("debug") == "true"
	out := models.ValidateDependentsResponse{Results: make(map[string]models.ValidateFieldResponse, len(results))}
	for fieldID, res := range results {
		out.Results[fieldID] = toResponse(res, debug)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) configHealth(c *gin.Context) {
	formID := c.Param("formId")
	if err := validation.ValidateIdentifier(formID); err != nil {
		h.errs.Respond(c, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	issues, err := h.svc.ConfigHealth(c.Request.Context(), formID)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (h *Handler) invalidate(c *gin.Context) {
	formID := c.Param("formId")
	if err := validation.ValidateIdentifier(formID); err != nil {
		h.errs.Respond(c, apperrors.NewInvalidRequestError(err.Error()))
		return
	}

	if err := h.svc.Invalidate(c.Request.Context(), formID); err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) validationTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": h.svc.ValidationTypes()})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Ready(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
