// internal/app/store/volunteers/volunteerstore.go
package volunteerstore

// Terminology: identifiers
//   - UserID / user_id: the identity service's user id carried by a verified principal
//   - VolunteerID / volunteer_id: the _id of the VolunteerProfile record

import (
	"context"
	"time"

	"github.com/dalemusser/volunthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("volunteer_profiles")}
}

func (s *Store) Create(ctx context.Context, p models.VolunteerProfile) (models.VolunteerProfile, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.FullNameCI = text.Fold(p.FullName)
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.VolunteerProfile{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.VolunteerProfile, error) {
	var p models.VolunteerProfile
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		return models.VolunteerProfile{}, err
	}
	return p, nil
}

// GetByUserID resolves the profile owned by a verified principal's user id.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.VolunteerProfile, error) {
	var p models.VolunteerProfile
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&p)
	if err != nil {
		return models.VolunteerProfile{}, err
	}
	return p, nil
}
