// Package errors provides error handling for patql.
//
// This package re-exports github.com/cockroachdb/errors so every package
// wraps, annotates and inspects errors the same way:
//
//	// Wrap with context
//	if err := load(path); err != nil {
//	    return errors.Wrapf(err, "failed to load corpus %s", path)
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "close the parenthesis opened at 1:7")
//
//	// Classify parse failures
//	if errors.Is(err, errors.ErrStructural) {
//	    // the query itself is malformed
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors for use across patql.
// Use these with errors.Is() for type-safe error checking.
var (
	// ErrStructural indicates the query violates the grammar: unbalanced
	// parentheses, an operator missing an operand, an orphan marker.
	ErrStructural = New("structural error")

	// ErrResourceLimit indicates the query exceeds a configured input size
	// or nesting depth limit. The query may be well formed.
	ErrResourceLimit = New("resource limit exceeded")

	// ErrInvalidRequest indicates a request to one of the services was malformed
	ErrInvalidRequest = New("invalid request")

	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")
)

// IsStructuralError checks if an error is or wraps ErrStructural
func IsStructuralError(err error) bool {
	return err != nil && Is(err, ErrStructural)
}

// IsResourceLimitError checks if an error is or wraps ErrResourceLimit
func IsResourceLimitError(err error) bool {
	return err != nil && Is(err, ErrResourceLimit)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsNotFoundError checks if an error is or wraps ErrNotFound
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}
