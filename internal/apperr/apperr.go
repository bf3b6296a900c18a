// Package apperr defines the error taxonomy shared by the financial core.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before any persistence.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing VAT code, category, account, invoice, expense or voucher.
	ErrNotFound = errors.New("not found")

	// ErrConsistency marks a programming defect such as an unbalanced voucher.
	// It must never be corrected silently.
	ErrConsistency = errors.New("consistency violation")

	// ErrConcurrency is returned when the invoice sequence could not be advanced atomically.
	ErrConcurrency = errors.New("concurrent update conflict")
)

// ValidationError describes one rejected field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validation returns a *ValidationError for field.
func Validation(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the entity kind and the key that was looked up.
type NotFoundError struct {
	Entity string
	Key    string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.Key)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound returns a *NotFoundError.
func NotFound(entity string, key any) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: fmt.Sprint(key)}
}

// ConsistencyError reports a broken accounting invariant.
type ConsistencyError struct {
	Op      string
	Details string
	Err     error
}

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("consistency: %s: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("consistency: %s: %s", e.Op, e.Details)
}

// Unwrap returns the underlying error.
func (e *ConsistencyError) Unwrap() error { return e.Err }

// Is matches ErrConsistency.
func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistency }

// Consistency returns a *ConsistencyError.
func Consistency(op, details string, err error) *ConsistencyError {
	return &ConsistencyError{Op: op, Details: details, Err: err}
}

// Messages flattens a list of errors for single-line reporting.
func Messages(errs []error) []string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return msgs
}
