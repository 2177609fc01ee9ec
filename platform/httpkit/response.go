package httpkit

import (
	"errors"
	"net/http"

	"lead_intel_backend/platform/apperr"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Created sends a 201 Created response with the given payload.
func Created(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// Accepted sends a 202 Accepted response with the given payload.
func Accepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, payload)
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, ErrorResponse{Error: message, Details: details, RequestID: c.GetString(ContextRequestIDKey)})
}

// HandleError maps domain errors to HTTP responses and reports whether err was non-nil.
// Untyped errors are treated as internal and their text is not exposed.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		Error(c, domainErr.HTTPStatus(), domainErr.Message, domainErr.Details)
		return true
	}

	Error(c, http.StatusInternalServerError, "internal error", nil)
	return true
}
