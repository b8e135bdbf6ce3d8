package integration

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error Taxonomy
// ---------------------------------------------------------------------------

// ErrorKind classifies a sync error for retry decisions.
type ErrorKind string

const (
	// ErrorKindConnection covers network, timeout and TLS failures.
	// Always transient; retried with backoff.
	ErrorKindConnection ErrorKind = "CONNECTION"
	// ErrorKindAuth covers credential and session failures. Retryability
	// depends on the reason (see AuthReason).
	ErrorKindAuth ErrorKind = "AUTHENTICATION"
	// ErrorKindAPI covers ERP-side 4xx/5xx domain rejections. Never retried
	// by the client layer.
	ErrorKindAPI ErrorKind = "API"
	// ErrorKindValidation covers pre-flight data problems. Never sent over
	// the network; always fatal for the attempt.
	ErrorKindValidation ErrorKind = "VALIDATION"
)

// AuthReason subdivides authentication errors.
type AuthReason string

const (
	AuthReasonSessionExpired     AuthReason = "SESSION_EXPIRED"
	AuthReasonNoSession          AuthReason = "NO_SESSION"
	AuthReasonInvalidCredentials AuthReason = "INVALID_CREDENTIALS"
	AuthReasonForbidden          AuthReason = "FORBIDDEN"
	AuthReasonLicenseExhausted   AuthReason = "LICENSE_EXHAUSTED"
)

// Error is the tagged error variant shared by the client and queue layers.
// Retryability is an explicit field rather than being encoded in a type
// hierarchy, so callers match on Kind/Retryable instead of concrete types.
type Error struct {
	Kind       ErrorKind
	AuthReason AuthReason // set when Kind == ErrorKindAuth
	StatusCode int        // HTTP status, when the error came off the wire
	Code       string     // ERP error code, when present in the body
	Message    string
	Retryable  bool
	Err        error // wrapped cause
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewConnectionError creates a transient connection error.
func NewConnectionError(message string, cause error) *Error {
	return &Error{
		Kind:      ErrorKindConnection,
		Message:   message,
		Retryable: true,
		Err:       cause,
	}
}

// NewAuthError creates an authentication error. Session-expired and
// no-session reasons are retryable (after a session refresh); credential,
// forbidden and license errors are fatal.
func NewAuthError(reason AuthReason, message string) *Error {
	retryable := reason == AuthReasonSessionExpired || reason == AuthReasonNoSession
	return &Error{
		Kind:       ErrorKindAuth,
		AuthReason: reason,
		Message:    message,
		Retryable:  retryable,
	}
}

// NewAPIError creates an ERP-side domain rejection error.
func NewAPIError(statusCode int, code, message string) *Error {
	return &Error{
		Kind:       ErrorKindAPI,
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// NewValidationError creates a pre-flight validation error.
func NewValidationError(message string) *Error {
	return &Error{
		Kind:    ErrorKindValidation,
		Message: message,
	}
}

// AsError extracts an *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	e, ok := AsError(err)
	return ok && e.Kind == kind
}

// IsRetryable reports whether err should be retried by the queue.
// Errors outside the taxonomy are treated as retryable so unexpected
// failures still get the backoff path rather than being dropped.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return true
}

// Sentinel errors surfaced by repositories and services.
var (
	ErrMappingNotFound    = errors.New("integration: mapping not found")
	ErrJobNotFound        = errors.New("integration: job not found")
	ErrDeadLetterNotFound = errors.New("integration: dead letter entry not found")
	ErrDeadLetterResolved = errors.New("integration: dead letter entry already resolved")
	ErrDuplicateJob       = errors.New("integration: job already scheduled")
	ErrOrderNotFound      = errors.New("integration: store order not found")
	ErrCustomerNotFound   = errors.New("integration: store customer not found")
	ErrProductNotFound    = errors.New("integration: store product not found")
)
