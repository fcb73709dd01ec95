// internal/app/store/impact/impactstore.go
package impactstore

import (
	"context"
	"time"

	"github.com/dalemusser/volunthub/internal/domain/apperr"
	"github.com/dalemusser/volunthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("impact_analyses")}
}

// Create inserts an impact analysis. The unique index on
// (organization_id, opportunity_id) rejects a second analysis for the
// same opportunity with apperr.ErrDuplicateImpact.
func (s *Store) Create(ctx context.Context, ia models.ImpactAnalysis) (models.ImpactAnalysis, error) {
	ia.ID = primitive.NewObjectID()
	ia.LastUpdated = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, ia); err != nil {
		if wafflemongo.IsDup(err) {
			return models.ImpactAnalysis{}, apperr.ErrDuplicateImpact
		}
		return models.ImpactAnalysis{}, err
	}
	return ia, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ImpactAnalysis, error) {
	var ia models.ImpactAnalysis
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ia)
	if err != nil {
		return models.ImpactAnalysis{}, err
	}
	return ia, nil
}

// Patch holds the editable fields of an analysis. Metric fields use
// pointers so a legitimate zero can be written.
type Patch struct {
	TotalHours      *int
	TotalVolunteers *int
	Beneficiaries   *int
	RegionCovered   string
}

// Update applies the patch and refreshes LastUpdated, returning the
// updated document.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.ImpactAnalysis, error) {
	set := bson.M{"last_updated": time.Now().UTC()}
	if p.TotalHours != nil {
		set["total_hours"] = *p.TotalHours
	}
	if p.TotalVolunteers != nil {
		set["total_volunteers"] = *p.TotalVolunteers
	}
	if p.Beneficiaries != nil {
		set["beneficiaries"] = *p.Beneficiaries
	}
	if p.RegionCovered != "" {
		set["region_covered"] = p.RegionCovered
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var ia models.ImpactAnalysis
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&ia)
	if err != nil {
		return models.ImpactAnalysis{}, err
	}
	return ia, nil
}

// Delete removes an analysis by ID. Returns the number of documents
// deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ListByOrganization returns an organization's analyses, most recently
// updated first.
func (s *Store) ListByOrganization(ctx context.Context, orgID primitive.ObjectID) ([]models.ImpactAnalysis, error) {
	opts := options.Find().SetSort(bson.D{{Key: "last_updated", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"organization_id": orgID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ImpactAnalysis
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
