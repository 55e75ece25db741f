package ledger

import (
	"fmt"

	"github.com/robinvdvleuten/mininab/month"
)

// Error types for rejected budgeting operations. Month and category path
// errors are defined by the month and category packages.

// DuplicateAccountError is returned when adding an account whose name is taken
type DuplicateAccountError struct {
	Account string
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("account '%s' already exists", e.Account)
}

// InvalidAccountNameError is returned when adding an account with an empty or
// blank name
type InvalidAccountNameError struct {
	Name string
}

func (e *InvalidAccountNameError) Error() string {
	return fmt.Sprintf("invalid account name %q: must not be empty", e.Name)
}

// InvalidAccountKindError is returned for kinds other than bank or credit
type InvalidAccountKindError struct {
	Kind string
}

func (e *InvalidAccountKindError) Error() string {
	return fmt.Sprintf("invalid account kind %q: must be 'bank' or 'credit'", e.Kind)
}

// UnknownAccountError is returned when an operation references an account
// that has not been added
type UnknownAccountError struct {
	Account string
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("account '%s' not found", e.Account)
}

// UnknownCategoryError is returned when an operation references a category
// that has not been added
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("category '%s' not found", e.Category)
}

// RolloverAppliedError is returned by guarded roll-forwards when the month
// pair has already been rolled.
type RolloverAppliedError struct {
	From  month.Key
	To    month.Key
	Count int
}

func (e *RolloverAppliedError) Error() string {
	return fmt.Sprintf("rollover %s -> %s already applied %d time(s)", e.From, e.To, e.Count)
}

// CorruptStateError is returned when persisted state violates a ledger invariant
type CorruptStateError struct {
	Reason string
}

func (e *CorruptStateError) Error() string {
	return "corrupt ledger state: " + e.Reason
}

func newCorruptStateError(format string, args ...any) *CorruptStateError {
	return &CorruptStateError{Reason: fmt.Sprintf(format, args...)}
}

// ValidationErrors wraps multiple validation errors
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors occurred", len(e.Errors))
}

// Unwrap returns the underlying errors for error unwrapping
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}

// joinErrors returns nil, the single error, or a ValidationErrors.
func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	default:
		return &ValidationErrors{Errors: errs}
	}
}
