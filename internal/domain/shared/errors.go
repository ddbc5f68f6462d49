// Package shared contains common domain types and errors that are used across
// all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation    = errors.New("validation error")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNegativeValue = errors.New("value cannot be negative")
	ErrEmptyValue    = errors.New("value cannot be empty")
	ErrInvalidFormat = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Configuration errors (caught at startup, never at evaluation time)
	ErrConfiguration = errors.New("configuration error")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "stats", "achievement", "sync"
	Op      string // Operation that failed, e.g., "Flush", "Evaluate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Stats domain errors
var (
	ErrStatsNotFound    = NewDomainError("stats", "Get", ErrNotFound, "user stats not found")
	ErrNegativeCounter  = NewDomainError("stats", "Validate", ErrNegativeValue, "counter cannot be negative")
	ErrInvalidDailyGoal = NewDomainError("stats", "SetDailyGoal", ErrInvalidInput, "daily goal must be positive")
)

// Achievement domain errors
var (
	ErrDuplicateAchievementID = NewDomainError("achievement", "ValidateCatalog", ErrConfiguration, "duplicate achievement id")
	ErrInvalidThreshold       = NewDomainError("achievement", "ValidateCatalog", ErrConfiguration, "threshold must be positive")
	ErrInvalidCondition       = NewDomainError("achievement", "ValidateCatalog", ErrConfiguration, "condition references unknown stat type")
)

// Session domain errors
var (
	ErrNoActiveSession = NewDomainError("session", "Close", ErrInvalidState, "no active session")
)

// Sync and remote store errors
var (
	ErrRemoteUnavailable = NewDomainError("remote", "Request", ErrServiceUnavailable, "record store is unavailable")
	ErrRemoteTimeout     = NewDomainError("remote", "Request", ErrTimeout, "record store request timeout")
	ErrRemoteBadResponse = NewDomainError("remote", "Parse", ErrInvalidFormat, "invalid response from record store")
	ErrCoordinatorClosed = NewDomainError("sync", "Flush", ErrInvalidState, "sync coordinator is closed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue)
}

// IsTransient checks if the error is a transient remote failure. Transient
// failures are logged and swallowed by the sync layer; the local buffer is
// the durability mechanism until the next successful flush.
func IsTransient(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrExternalService)
}
