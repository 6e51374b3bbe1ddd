package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error codes shared by every route.
const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeTenantNotFound     = "TENANT_NOT_FOUND"
	CodeTenantAccessDenied = "TENANT_ACCESS_DENIED"
	CodeTenantInactive     = "TENANT_INACTIVE"
	CodeQuotaExceeded      = "QUOTA_EXCEEDED"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeServerError        = "SERVER_ERROR"
	CodeInternalError      = "INTERNAL_ERROR"
)

// APIError is the error half of the response envelope.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// APIResponse is the standard envelope returned by all routes.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// SendSuccess writes a success envelope with the given payload.
func SendSuccess(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{Success: true, Data: data})
}

// SendError writes a failure envelope.
func SendError(c echo.Context, status int, code, message string, details interface{}) error {
	return c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message, Details: details},
	})
}

func SendUnauthorized(c echo.Context, message string) error {
	if message == "" {
		message = "Authentication required"
	}
	return SendError(c, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func SendForbidden(c echo.Context, message string) error {
	if message == "" {
		message = "Insufficient permissions"
	}
	return SendError(c, http.StatusForbidden, CodeForbidden, message, nil)
}

func SendValidationError(c echo.Context, details interface{}) error {
	return SendError(c, http.StatusBadRequest, CodeValidationError, "Request validation failed", details)
}

func SendNotFound(c echo.Context, resource string) error {
	return SendError(c, http.StatusNotFound, CodeNotFound, resource+" not found", nil)
}

// SendServerError reports a configuration failure. Distinguished from
// SendInternalError so operators can tell misconfiguration from bugs.
func SendServerError(c echo.Context, message string) error {
	return SendError(c, http.StatusInternalServerError, CodeServerError, message, nil)
}

// SendInternalError hides the underlying error from the client; callers log it.
func SendInternalError(c echo.Context) error {
	return SendError(c, http.StatusInternalServerError, CodeInternalError, "Internal server error", nil)
}
