// Package api exposes the validation service over HTTP.
package api

import (
	apperrors "field-validation/internal/common/errors"
	"field-validation/internal/common/logger"
	"field-validation/internal/common/observability"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(svc ValidationService, log logger.Logger, obs *observability.Observability) *gin.Engine {
	log = log.WithFields(map[string]interface{}{"component": "api"})
	errs := apperrors.NewErrorHandler(log)
	h := &Handler{svc: svc, errs: errs}

	r := gin.New()
	r.Use(Recovery(errs), RequestID(), AccessLog(log), Metrics(obs))

	r.POST("/validate-field", h.validateField)
	r.POST("/validate-field/dependents", h.validateDependents)
	r.GET("/forms/:formId/config-health", h.configHealth)
	r.POST("/forms/:formId/invalidate", h.invalidate)
	r.GET("/validation-types", h.validationTypes)

	r.GET("/health", h.health)
	r.GET("/ready", h.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
