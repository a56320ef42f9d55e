package models

import "fmt"

// ValidationError rejects a single malformed operation: bad dates, missing or
// non-positive amounts, unknown frequencies. Prior state is untouched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s", e.Reason)
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// StateError rejects an operation the loan's lifecycle does not permit:
// appending to a closed loan, duplicate closure, unmet overdue or extension
// preconditions.
type StateError struct {
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("loan state: %s", e.Reason)
}

// Statef builds a StateError from a format string.
func Statef(format string, args ...any) *StateError {
	return &StateError{Reason: fmt.Sprintf(format, args...)}
}

// RecalculationError reports an aborted replay. The pre-recalculation ledger
// is left untouched; Cause carries the underlying failure.
type RecalculationError struct {
	Reason string
	Cause  error
}

func (e *RecalculationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("recalculation: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("recalculation: %s", e.Reason)
}

func (e *RecalculationError) Unwrap() error { return e.Cause }
