package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrAuth covers rejected credentials and missing, expired or malformed tokens.
	ErrAuth = errors.New("authentication failed")
	// ErrRegistration covers rejected registrations such as a duplicate username.
	ErrRegistration = errors.New("registration failed")
	// ErrSlotCreation covers rejected slot creation such as a duplicate slot number.
	ErrSlotCreation = errors.New("slot creation failed")
	// ErrBookingConflict means the slot could not be booked or released in its
	// current server state, usually because the local cache was stale.
	ErrBookingConflict = errors.New("booking conflict")
	// ErrValidation means required input was missing. No request was sent.
	ErrValidation = errors.New("validation failed")
	// ErrNetwork means the request did not produce a response.
	ErrNetwork = errors.New("network error")
	// ErrStaleView means the operation succeeded but the refresh after it did
	// not; the returned view predates the change.
	ErrStaleView = errors.New("slot view not refreshed")

	ErrNotFound             = errors.New("slot not found")
	ErrRejected             = errors.New("request rejected")
	ErrServer               = errors.New("server error")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrRequestInFlight      = errors.New("request already in flight")
)

// APIError is a failure reported by the parking API.
type APIError struct {
	Op      string
	Status  int
	Message string
	Kind    error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, msg, e.Status)
}

func (e *APIError) Unwrap() error { return e.Kind }

// ValidationError lists the required fields that were missing or invalid.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError from field/message pairs.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, e.Fields[name])
	}
	return ErrValidation.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ErrorKind names the taxonomy bucket of err, for logs and metric labels.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrStaleView):
		return "stale_view"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrAuth):
		return "auth"
	case errors.Is(err, ErrRegistration):
		return "registration"
	case errors.Is(err, ErrSlotCreation):
		return "slot_creation"
	case errors.Is(err, ErrBookingConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConfirmationRequired):
		return "confirmation_required"
	case errors.Is(err, ErrRequestInFlight):
		return "in_flight"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrServer):
		return "server"
	default:
		return "error"
	}
}
