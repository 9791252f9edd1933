// Package domain holds the error kinds shared by the order and product
// aggregates. Aggregate-specific errors live next to their entities and wrap
// or match these kinds so callers can branch with errors.Is / errors.As.
package domain

import (
	"fmt"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is matched by every lookup failure, regardless of entity.
	ErrNotFound = errors.New("not found")
	// ErrConflict is matched by mutations rejected because of the state of
	// another entity (e.g. deleting a product an order still references).
	ErrConflict = errors.New("conflict")
)

// NotFoundError reports a failed lookup by identifier.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold for any NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports a field that failed a precondition. It is always
// produced before any store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsNotFound reports whether err is (or wraps) a lookup failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConflict reports whether err is (or wraps) a cross-entity conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
