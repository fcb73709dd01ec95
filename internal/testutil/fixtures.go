package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/volunthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateVolunteer creates a volunteer profile with a fresh user id and
// returns it together with the matching principal.
func (f *Fixtures) CreateVolunteer(ctx context.Context, fullName string) (models.VolunteerProfile, models.Principal) {
	f.t.Helper()

	now := time.Now().UTC()
	prof := models.VolunteerProfile{
		ID:         primitive.NewObjectID(),
		UserID:     primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		Skills:     []string{"first aid"},
		Location:   "Test City",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := f.db.Collection("volunteer_profiles").InsertOne(ctx, prof); err != nil {
		f.t.Fatalf("failed to create test volunteer: %v", err)
	}
	return prof, models.Principal{UserID: prof.UserID, Role: models.RoleVolunteer}
}

// CreateOrganization creates an organization profile with a fresh user id
// and returns it together with the matching principal.
func (f *Fixtures) CreateOrganization(ctx context.Context, name string) (models.OrganizationProfile, models.Principal) {
	f.t.Helper()

	now := time.Now().UTC()
	prof := models.OrganizationProfile{
		ID:          primitive.NewObjectID(),
		UserID:      primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "test organization",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("organization_profiles").InsertOne(ctx, prof); err != nil {
		f.t.Fatalf("failed to create test organization: %v", err)
	}
	return prof, models.Principal{UserID: prof.UserID, Role: models.RoleOrganization}
}

// CreateOpportunity creates an opportunity owned by orgID with the given
// window and capacity.
func (f *Fixtures) CreateOpportunity(ctx context.Context, orgID primitive.ObjectID, title string, start, end time.Time, capacity int) models.Opportunity {
	f.t.Helper()

	now := time.Now().UTC()
	opp := models.Opportunity{
		ID:             primitive.NewObjectID(),
		OrganizationID: orgID,
		Title:          title,
		TitleCI:        text.Fold(title),
		Description:    "test opportunity",
		Location:       "Test City",
		Category:       "community",
		StartDate:      start,
		EndDate:        end,
		Capacity:       capacity,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("opportunities").InsertOne(ctx, opp); err != nil {
		f.t.Fatalf("failed to create test opportunity: %v", err)
	}
	return opp
}

// CreateApplication inserts an application directly in the given status,
// bypassing the engine, for tests that need pre-existing state.
func (f *Fixtures) CreateApplication(ctx context.Context, volunteerID, opportunityID primitive.ObjectID, status models.ApplicationStatus) models.Application {
	f.t.Helper()

	app := models.Application{
		ID:            primitive.NewObjectID(),
		VolunteerID:   volunteerID,
		OpportunityID: opportunityID,
		Status:        status,
		ApplyDate:     time.Now().UTC(),
	}
	if _, err := f.db.Collection("applications").InsertOne(ctx, app); err != nil {
		f.t.Fatalf("failed to create test application: %v", err)
	}
	return app
}
