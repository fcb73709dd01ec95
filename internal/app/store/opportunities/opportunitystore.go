// internal/app/store/opportunities/opportunitystore.go
package opportunitystore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/volunthub/internal/domain/apperr"
	"github.com/dalemusser/volunthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

// Validation failures wrap apperr.ErrInvalidState so callers can classify
// them without depending on this package's sentinels.
var (
	ErrBadWindow   = fmt.Errorf("%w: end date must be after start date", apperr.ErrInvalidState)
	ErrBadCapacity = fmt.Errorf("%w: capacity must be a positive integer", apperr.ErrInvalidState)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("opportunities")}
}

// Create inserts a new opportunity after enforcing the window and
// capacity invariants.
func (s *Store) Create(ctx context.Context, o models.Opportunity) (models.Opportunity, error) {
	if !o.StartDate.Before(o.EndDate) {
		return models.Opportunity{}, ErrBadWindow
	}
	if o.Capacity <= 0 {
		return models.Opportunity{}, ErrBadCapacity
	}

	now := time.Now().UTC()
	o.ID = primitive.NewObjectID()
	o.TitleCI = text.Fold(o.Title)
	o.CreatedAt = now
	o.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, o); err != nil {
		return models.Opportunity{}, err
	}
	return o, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Opportunity, error) {
	var o models.Opportunity
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		return models.Opportunity{}, err
	}
	return o, nil
}

// Patch holds the mutable fields for Update. Nil/zero fields are left
// unchanged, matching partial-update semantics.
type Patch struct {
	Title          string
	Description    string
	Location       string
	Category       string
	StartDate      *time.Time
	EndDate        *time.Time
	Capacity       int
	RequiredSkills []string
}

// Update applies non-zero patch fields and refreshes UpdatedAt. The
// caller is responsible for having verified ownership and that the
// resulting window still satisfies start < end.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if p.Title != "" {
		set["title"] = p.Title
		set["title_ci"] = text.Fold(p.Title)
	}
	if p.Description != "" {
		set["description"] = p.Description
	}
	if p.Location != "" {
		set["location"] = p.Location
	}
	if p.Category != "" {
		set["category"] = p.Category
	}
	if p.StartDate != nil {
		set["start_date"] = *p.StartDate
	}
	if p.EndDate != nil {
		set["end_date"] = *p.EndDate
	}
	if p.Capacity > 0 {
		set["capacity"] = p.Capacity
	}
	if p.RequiredSkills != nil {
		set["required_skills"] = p.RequiredSkills
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}

// Delete removes an opportunity by ID. Returns the number of documents
// deleted (0 or 1). The engine refuses deletion while dependents exist;
// this method only performs the removal.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByOrganization returns an organization's opportunities, newest first.
func (s *Store) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.Opportunity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Opportunity
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
