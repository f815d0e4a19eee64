// Package errors provides structured errors that map onto HTTP responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is the category of an error, used for the response body and metrics.
type ErrorType string

const (
	TypeValidation      ErrorType = "validation"       // 400
	TypeUnauthorized    ErrorType = "unauthorized"     // 401
	TypePaymentRequired ErrorType = "payment_required" // 402, balance too low
	TypeForbidden       ErrorType = "forbidden"        // 403
	TypeNotFound        ErrorType = "not_found"        // 404
	TypeConflict        ErrorType = "conflict"         // 409
	TypeRateLimited     ErrorType = "rate_limited"     // 429
	TypeInternal        ErrorType = "internal"         // 500
	TypeExternal        ErrorType = "external"         // 502
)

type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

var statusByType = map[ErrorType]int{
	TypeValidation:      http.StatusBadRequest,
	TypeUnauthorized:    http.StatusUnauthorized,
	TypePaymentRequired: http.StatusPaymentRequired,
	TypeForbidden:       http.StatusForbidden,
	TypeNotFound:        http.StatusNotFound,
	TypeConflict:        http.StatusConflict,
	TypeRateLimited:     http.StatusTooManyRequests,
	TypeInternal:        http.StatusInternalServerError,
	TypeExternal:        http.StatusBadGateway,
}

func (e *Error) HTTPStatus() int {
	if status, ok := statusByType[e.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// TypeForStatus maps an HTTP status code back onto an ErrorType.
func TypeForStatus(status int) ErrorType {
	switch status {
	case http.StatusBadRequest:
		return TypeValidation
	case http.StatusUnauthorized:
		return TypeUnauthorized
	case http.StatusPaymentRequired:
		return TypePaymentRequired
	case http.StatusForbidden:
		return TypeForbidden
	case http.StatusNotFound:
		return TypeNotFound
	case http.StatusConflict:
		return TypeConflict
	case http.StatusTooManyRequests:
		return TypeRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return TypeExternal
	default:
		return TypeInternal
	}
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause, Context: make(map[string]any)}
}

func ValidationError(message string) *Error   { return newError(TypeValidation, message, nil) }
func UnauthorizedError(message string) *Error { return newError(TypeUnauthorized, message, nil) }
func ForbiddenError(message string) *Error    { return newError(TypeForbidden, message, nil) }
func NotFoundError(message string) *Error     { return newError(TypeNotFound, message, nil) }
func ConflictError(message string) *Error     { return newError(TypeConflict, message, nil) }
func RateLimitedError(message string) *Error  { return newError(TypeRateLimited, message, nil) }

func PaymentRequiredError(message string) *Error {
	return newError(TypePaymentRequired, message, nil)
}

func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

func ExternalError(message string, cause error) *Error {
	return newError(TypeExternal, message, cause)
}

// WithField adds a context field (chainable).
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// ErrorResponse is the JSON body sent to clients.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// AsStructuredError returns err's *Error, or wraps err as an internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return InternalError("internal server error", err)
}
