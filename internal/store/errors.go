package store

import "errors"

// Sentinel errors for caller-distinguishable failures. Anything else
// returned from this package is an underlying storage failure. Errors are
// wrapped with context, so match with errors.Is.
var (
	// ErrValidation marks malformed input rejected before any mutation.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced record that does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock marks a debit exceeding the available quantity.
	// The failing operation performs no mutation.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrIllegalTransition marks a transfer transition whose state or role
	// precondition does not hold.
	ErrIllegalTransition = errors.New("illegal transition")
)
