package authz_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/volunthub/internal/app/store/organizations"
	"github.com/dalemusser/volunthub/internal/app/store/volunteers"
	"github.com/dalemusser/volunthub/internal/app/system/authz"
	"github.com/dalemusser/volunthub/internal/domain/apperr"
	"github.com/dalemusser/volunthub/internal/domain/models"
	"github.com/dalemusser/volunthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestResolveVolunteer(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := authz.NewResolver(volunteerstore.New(db), organizationstore.New(db))
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	prof, principal := fx.CreateVolunteer(ctx, "Ada Volunteer")

	got, err := resolver.ResolveVolunteer(ctx, principal)
	if err != nil {
		t.Fatalf("ResolveVolunteer failed: %v", err)
	}
	if got.ID != prof.ID {
		t.Errorf("resolved wrong profile")
	}

	if _, err := resolver.ResolveVolunteer(ctx, models.Principal{}); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Errorf("zero principal: expected Unauthenticated, got %v", err)
	}

	orgPrincipal := models.Principal{UserID: principal.UserID, Role: models.RoleOrganization}
	if _, err := resolver.ResolveVolunteer(ctx, orgPrincipal); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("wrong role: expected Forbidden, got %v", err)
	}

	unknown := models.Principal{UserID: primitive.NewObjectID(), Role: models.RoleVolunteer}
	if _, err := resolver.ResolveVolunteer(ctx, unknown); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing profile: expected NotFound, got %v", err)
	}
}

func TestResolveOrganization(t *testing.T) {
	db := testutil.SetupTestDB(t)
	resolver := authz.NewResolver(volunteerstore.New(db), organizationstore.New(db))
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	prof, principal := fx.CreateOrganization(ctx, "Helpers Inc")

	got, err := resolver.ResolveOrganization(ctx, principal)
	if err != nil {
		t.Fatalf("ResolveOrganization failed: %v", err)
	}
	if got.ID != prof.ID {
		t.Errorf("resolved wrong profile")
	}

	volPrincipal := models.Principal{UserID: principal.UserID, Role: models.RoleVolunteer}
	if _, err := resolver.ResolveOrganization(ctx, volPrincipal); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("wrong role: expected Forbidden, got %v", err)
	}

	unknown := models.Principal{UserID: primitive.NewObjectID(), Role: models.RoleOrganization}
	if _, err := resolver.ResolveOrganization(ctx, unknown); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing profile: expected NotFound, got %v", err)
	}
}
