package apperr_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/volunthub/internal/domain/apperr"
)

func TestSpecificConflictsWrapConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"duplicate application", apperr.ErrDuplicateApplication},
		{"duplicate portfolio", apperr.ErrDuplicatePortfolio},
		{"duplicate impact", apperr.ErrDuplicateImpact},
		{"has dependents", apperr.ErrHasDependents},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, apperr.ErrConflict) {
				t.Errorf("%v should match ErrConflict", tt.err)
			}
		})
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		apperr.ErrNotFound,
		apperr.ErrUnauthenticated,
		apperr.ErrForbidden,
		apperr.ErrConflict,
		apperr.ErrCapacityExceeded,
		apperr.ErrExpired,
		apperr.ErrInvalidState,
		apperr.ErrInvalidTransition,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %v unexpectedly matches %v", a, b)
			}
		}
	}
}

func TestTransientPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperr.Transient("applications.Create", cause)
	if !errors.Is(err, cause) {
		t.Error("Transient should wrap the cause")
	}
	if errors.Is(err, apperr.ErrConflict) {
		t.Error("Transient must not match a domain sentinel")
	}
}
