package engine

import (
	"errors"
	"fmt"
)

// ErrNoCandidate is returned by Pick when a probabilistic selection draws
// past the last cumulative weight. TriggerRandomEvent treats the same outcome
// as "no event fired" rather than a failure.
var ErrNoCandidate = errors.New("no candidate selected")

// ConfigurationError reports malformed selection input: mismatched choice and
// weight lengths, an empty choice list, invalid weights, or a non-positive
// weight sum. It is surfaced immediately and never retried.
type ConfigurationError struct {
	// Message is a human-readable description.
	Message string

	// Details contains additional context (lengths, offending weight, total).
	Details map[string]string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// ValidationError is the typed failure a domain event returns when its
// preconditions do not hold (unknown item, non-positive quantity,
// insufficient funds). Dispatch propagates it unchanged and commits nothing.
type ValidationError struct {
	// Event is the name of the event that rejected its input.
	Event string

	// Reason is a short human-readable description, e.g. "insufficient inventory".
	Reason string

	// Details contains additional context.
	Details map[string]string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("%s: %s", e.Event, e.Reason)
	}
	return e.Reason
}

// NewValidationError creates a ValidationError for the named event.
func NewValidationError(event, reason string) *ValidationError {
	return &ValidationError{Event: event, Reason: reason}
}

// WithDetail returns e with an additional detail attached.
func (e *ValidationError) WithDetail(key, value string) *ValidationError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// RuntimeError represents a failure detected by the engine itself rather
// than by an event.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Event is the name of the event being dispatched, if any.
	Event string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeDepthExceeded indicates nested dispatch went deeper than the
	// configured maximum (an event chain that keeps triggering itself).
	ErrCodeDepthExceeded RuntimeErrorCode = "DEPTH_EXCEEDED"

	// ErrCodeNilEvent indicates Dispatch was called with a nil event or a
	// pool factory returned nil.
	ErrCodeNilEvent RuntimeErrorCode = "NIL_EVENT"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, e.Message, e.Event)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsConfigurationError returns true if the error is a ConfigurationError.
// Uses errors.As to handle wrapped errors.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsValidationError returns true if the error is a ValidationError.
// Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDepthError returns true if the error is a depth-exceeded RuntimeError.
func IsDepthError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeDepthExceeded
	}
	return false
}

// newConfigurationError creates a ConfigurationError with optional key/value details.
func newConfigurationError(message string, kv ...string) *ConfigurationError {
	e := &ConfigurationError{Message: message}
	if len(kv) > 0 {
		e.Details = make(map[string]string, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			e.Details[kv[i]] = kv[i+1]
		}
	}
	return e
}
