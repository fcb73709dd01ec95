// internal/domain/apperr/apperr.go

// Package apperr defines the failure taxonomy shared by every engine
// operation. Callers classify failures with errors.Is against the
// sentinels below; transport layers map them to whatever wire codes they
// use. Domain-rule violations are ordinary values, never panics.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound: a referenced entity (profile, opportunity,
	// application, portfolio, impact analysis) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated: no verified principal was supplied. Produced
	// upstream; surfaced here as a precondition failure.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden: the principal resolved to a profile, but that profile
	// does not own the target entity.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict: a uniqueness or dependency rule blocks the write.
	ErrConflict = errors.New("conflict")

	// ErrCapacityExceeded: admission refused because the opportunity is
	// at capacity.
	ErrCapacityExceeded = errors.New("opportunity has reached its capacity")

	// ErrExpired: the opportunity's end date has passed.
	ErrExpired = errors.New("opportunity has already ended")

	// ErrInvalidState: the operation is not valid for the entity's
	// current lifecycle state.
	ErrInvalidState = errors.New("invalid state for operation")

	// ErrInvalidTransition: the requested status is not reachable from
	// the current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Specific conflicts wrap ErrConflict so errors.Is(err, ErrConflict)
// holds while callers that care can still match the narrow sentinel.
var (
	ErrDuplicateApplication = fmt.Errorf("%w: already applied to this opportunity", ErrConflict)
	ErrDuplicatePortfolio   = fmt.Errorf("%w: portfolio already exists for this activity", ErrConflict)
	ErrDuplicateImpact      = fmt.Errorf("%w: impact analysis already exists for this opportunity", ErrConflict)
	ErrHasDependents        = fmt.Errorf("%w: opportunity has dependent applications", ErrConflict)
)

// Transient wraps an unexpected persistence-layer fault. The engine never
// retries; the caller decides. Domain sentinels are never wrapped as
// transient.
func Transient(op string, err error) error {
	return fmt.Errorf("%s: transient persistence failure: %w", op, err)
}
