// internal/common/errors/handler.go
package errors

import (
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders errors as JSON responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Respond normalizes err, logs it and writes the StandardError body.
func (h *ErrorHandler) Respond(c *gin.Context, err error) {
	stdErr := AsStandard(err)
	status := StatusFor(stdErr.Code)

	h.logError(c, stdErr, status)
	c.AbortWithStatusJSON(status, gin.H{"error": stdErr})
}

func (h *ErrorHandler) logError(c *gin.Context, stdErr *StandardError, status int) {
	fields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"retries":       GetRetryCount(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"status":        status,
		"path":          c.FullPath(),
	}
	if id, ok := c.Get("requestId"); ok {
		fields["requestId"] = id
	}
	if status >= 500 {
		h.logger.Error("Request failed", fields)
		return
	}
	h.logger.Warn("Request rejected", fields)
}
