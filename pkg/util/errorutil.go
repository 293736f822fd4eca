package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes. They are logged and counted but never sent to clients.
const (
	CodeMissingCredentials   = "MISSING_CREDENTIALS"
	CodeMalformedCredentials = "MALFORMED_CREDENTIALS"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeExpiredCredentials   = "EXPIRED_CREDENTIALS"
	CodeRevokedCredentials   = "REVOKED_CREDENTIALS"
	CodeInsufficientRole     = "INSUFFICIENT_ROLE"
	CodeBadRequest           = "BAD_REQUEST"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeNotFound             = "NOT_FOUND"
	CodeRouteNotFound        = "ROUTE_NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeRequestTimeout       = "REQUEST_TIMEOUT"
	CodeInternal             = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	// Details replaces Message in the response body when set.
	Details any
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Body returns the response envelope: {"message": Message} or {"message": Details}.
func (e *DomainError) Body() map[string]any {
	if e.Details != nil {
		return map[string]any{"message": e.Details}
	}
	return map[string]any{"message": e.Message}
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, cause error) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Err: cause}
}

func NewUnauthorized(code, message string, cause error) error {
	return NewDomainError(code, message, http.StatusUnauthorized, cause)
}

func NewForbidden(code, message string, cause error) error {
	return NewDomainError(code, message, http.StatusForbidden, cause)
}

func NewBadRequest(message string, cause error) error {
	return NewDomainError(CodeBadRequest, message, http.StatusBadRequest, cause)
}

// NewValidationError reports schema violations; issues become the message body.
func NewValidationError(issues any) error {
	return &DomainError{
		Code:       CodeValidationFailed,
		Message:    "validation failed",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    issues,
	}
}

func NewNotFound(resource string) error {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

func NewRouteNotFound(method, path string) error {
	return NewDomainError(CodeRouteNotFound, "Route not found", http.StatusNotFound,
		fmt.Errorf("no route for %s %s", method, path))
}

func NewConflict(message string) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, nil)
}

func NewRequestTimeout(cause error) error {
	return NewDomainError(CodeRequestTimeout, "request timed out", http.StatusRequestTimeout, cause)
}

func NewInternalError(err error) error {
	return NewDomainError(CodeInternal, "internal server error", http.StatusInternalServerError, err)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return NewInternalError(err).(*DomainError)
}
