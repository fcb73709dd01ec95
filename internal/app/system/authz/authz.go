// internal/app/system/authz/authz.go
//
// Package authz resolves a verified principal to its domain profile.
// Authentication itself (sessions, tokens) happens upstream; callers of
// the engine hand in a models.Principal they have already verified, and
// this package answers "which volunteer/organization profile does that
// principal own".
package authz

import (
	"context"
	"errors"

	organizationstore "github.com/dalemusser/volunthub/internal/app/store/organizations"
	volunteerstore "github.com/dalemusser/volunthub/internal/app/store/volunteers"
	"github.com/dalemusser/volunthub/internal/domain/apperr"
	"github.com/dalemusser/volunthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type Resolver struct {
	volunteers    *volunteerstore.Store
	organizations *organizationstore.Store
}

func NewResolver(volunteers *volunteerstore.Store, organizations *organizationstore.Store) *Resolver {
	return &Resolver{volunteers: volunteers, organizations: organizations}
}

// ResolveVolunteer returns the volunteer profile owned by the principal.
// A zero principal is unauthenticated; a principal with another role is
// forbidden; a principal whose profile does not exist is not found.
func (r *Resolver) ResolveVolunteer(ctx context.Context, p models.Principal) (models.VolunteerProfile, error) {
	if p.IsZero() {
		return models.VolunteerProfile{}, apperr.ErrUnauthenticated
	}
	if p.Role != models.RoleVolunteer {
		return models.VolunteerProfile{}, apperr.ErrForbidden
	}
	prof, err := r.volunteers.GetByUserID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.VolunteerProfile{}, apperr.ErrNotFound
		}
		return models.VolunteerProfile{}, err
	}
	return prof, nil
}

// ResolveOrganization returns the organization profile owned by the
// principal, with the same zero/role/missing handling as ResolveVolunteer.
func (r *Resolver) ResolveOrganization(ctx context.Context, p models.Principal) (models.OrganizationProfile, error) {
	if p.IsZero() {
		return models.OrganizationProfile{}, apperr.ErrUnauthenticated
	}
	if p.Role != models.RoleOrganization {
		return models.OrganizationProfile{}, apperr.ErrForbidden
	}
	prof, err := r.organizations.GetByUserID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.OrganizationProfile{}, apperr.ErrNotFound
		}
		return models.OrganizationProfile{}, err
	}
	return prof, nil
}
