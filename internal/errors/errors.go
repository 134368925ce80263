package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents an intentdesk error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrTransport         ErrorCode = "TRANSPORT"          // 502
	ErrUpstreamStatus    ErrorCode = "UPSTREAM_STATUS"    // 502
	ErrMalformedResponse ErrorCode = "MALFORMED_RESPONSE" // 502
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// maxExcerpt bounds the upstream body kept in error details.
const maxExcerpt = 256

// ConsoleError represents a structured error with code, status, and details.
type ConsoleError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *ConsoleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *ConsoleError {
	return &ConsoleError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when an intent cannot be found.
func NewNotFound(identifier string) *ConsoleError {
	return &ConsoleError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("intent not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewTransport creates a 502 error for a request that never produced a response.
func NewTransport(op string, err error) *ConsoleError {
	msg := "backend unreachable"
	details := map[string]any{"op": op}
	if err != nil {
		details["cause"] = err.Error()
	}
	return &ConsoleError{
		Code:    ErrTransport,
		Status:  502,
		Message: fmt.Sprintf("%s: %s", op, msg),
		Details: details,
	}
}

// NewUpstreamStatus creates a 502 error for a non-2xx backend response.
// The upstream status and a bounded body excerpt are kept in Details.
func NewUpstreamStatus(op string, status int, body []byte) *ConsoleError {
	excerpt := string(body)
	if len(excerpt) > maxExcerpt {
		excerpt = excerpt[:maxExcerpt] + "..."
	}
	return &ConsoleError{
		Code:    ErrUpstreamStatus,
		Status:  502,
		Message: fmt.Sprintf("%s: backend returned HTTP %d", op, status),
		Details: map[string]any{"op": op, "upstream_status": status, "body": excerpt},
	}
}

// NewMalformedResponse creates a 502 error for a response body that could not be decoded.
func NewMalformedResponse(op string, err error) *ConsoleError {
	details := map[string]any{"op": op}
	if err != nil {
		details["cause"] = err.Error()
	}
	return &ConsoleError{
		Code:    ErrMalformedResponse,
		Status:  502,
		Message: fmt.Sprintf("%s: malformed backend response", op),
		Details: details,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the cause goes to Details for logging.
func NewInternal(err error) *ConsoleError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &ConsoleError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// UpstreamStatus returns the backend HTTP status carried by an
// UPSTREAM_STATUS error, or 0.
func UpstreamStatus(err error) int {
	var cErr *ConsoleError
	if !stderrors.As(err, &cErr) || cErr.Code != ErrUpstreamStatus {
		return 0
	}
	status, _ := cErr.Details["upstream_status"].(int)
	return status
}

// Is checks if an error (or any error it wraps) is a ConsoleError with the given code.
func Is(err error, code ErrorCode) bool {
	var cErr *ConsoleError
	if stderrors.As(err, &cErr) {
		return cErr.Code == code
	}
	return false
}
