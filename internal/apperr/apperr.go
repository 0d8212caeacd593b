// Package apperr defines the error taxonomy shared by the upstream client,
// the ranking pipeline and the HTTP layer. Every failure that reaches a
// caller is an *Error carrying a stable machine-readable Code.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error kind exposed to callers.
type Code string

const (
	CodeValidation  Code = "VALIDATION_ERROR"
	CodeNotFound    Code = "NOT_FOUND"
	CodeRateLimit   Code = "RATE_LIMIT_ERROR"
	CodeTimeout     Code = "TIMEOUT_ERROR"
	CodeNetwork     Code = "NETWORK_ERROR"
	CodeExternalAPI Code = "EXTERNAL_API_ERROR"
	CodeServer      Code = "SERVER_ERROR"
)

// GenericMessage is the only text a caller sees for unclassified failures.
const GenericMessage = "An unexpected error occurred"

// Error is a classified failure. Message is safe to show to callers; the
// wrapped cause is kept for logging only.
type Error struct {
	Code           Code
	Message        string
	UpstreamStatus int
	cause          error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches another *Error by code, so errors.Is(err, apperr.RateLimit(""))
// style checks work regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New builds an *Error with no cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap builds an *Error that keeps cause for logging.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

func Validation(message string) *Error { return New(CodeValidation, message) }

func Timeout(cause error) *Error { return Wrap(CodeTimeout, "Request timeout", cause) }

func Network(cause error) *Error { return Wrap(CodeNetwork, "Network connection failed", cause) }

// Server wraps an unclassified failure behind the generic message.
func Server(cause error) *Error { return Wrap(CodeServer, GenericMessage, cause) }

// FromStatus maps a non-2xx upstream status to the taxonomy.
func FromStatus(status int) *Error {
	var e *Error
	switch {
	case status == http.StatusUnauthorized:
		e = New(CodeExternalAPI, "Invalid API key")
	case status == http.StatusNotFound:
		e = New(CodeNotFound, "Resource not found")
	case status == http.StatusTooManyRequests:
		e = New(CodeRateLimit, "Rate limit exceeded")
	case status >= 500 && status <= 599:
		e = New(CodeExternalAPI, "External API server error")
	default:
		e = New(CodeNetwork, "Network error occurred")
	}
	e.UpstreamStatus = status
	return e
}

// From classifies any error. Typed errors pass through unchanged, context
// deadlines become timeouts and everything else is a server error.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(err)
	}
	return Server(err)
}

// HTTPStatus returns the transport status for a code.
func HTTPStatus(code Code) int {
	switch code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeTimeout, CodeNetwork:
		return http.StatusServiceUnavailable
	case CodeExternalAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the code and message that may be shown to a caller.
// Unknown codes collapse to SERVER_ERROR with the generic message.
func Public(err error) (Code, string) {
	e := From(err)
	switch e.Code {
	case CodeValidation, CodeNotFound, CodeRateLimit, CodeTimeout, CodeNetwork, CodeExternalAPI:
		return e.Code, e.Message
	default:
		return CodeServer, GenericMessage
	}
}
