// internal/app/store/applications/applicationstore.go
package applicationstore

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
	return &Store{c: db.Collection("applications")}
}

// Create inserts a PENDING application. The unique index on
// (volunteer_id, opportunity_id) makes the existence check and the insert
// one atomic unit: a concurrent double-submission loses with
// apperr.ErrDuplicateApplication instead of creating a second row.
func (s *Store) Create(ctx context.Context, volunteerID, opportunityID primitive.ObjectID) (models.Application, error) {
	app := models.Application{
		ID:            primitive.NewObjectID(),
		VolunteerID:   volunteerID,
		OpportunityID: opportunityID,
		Status:        models.StatusPending,
		ApplyDate:     time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, app); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Application{}, apperr.ErrDuplicateApplication
		}
		return models.Application{}, err
	}
	return app, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Application, error) {
	var app models.Application
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&app)
	if err != nil {
		return models.Application{}, err
	}
	return app, nil
}

// Extra carries the free-text payload persisted only alongside an accept
// or complete transition.
type Extra struct {
	Position    string
	Description string
}

// UpdateStatus writes the new status (and optional extra payload) and
// returns the updated document. The filter matches on the expected
// source status, so a transition racing against another that already
// moved the document loses with mongo.ErrNoDocuments instead of writing
// a forbidden edge. Run inside a transaction or under the
// per-opportunity lock when the transition is to ACCEPTED.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.ApplicationStatus, extra *Extra) (models.Application, error) {
	set := bson.M{"status": to}
	if extra != nil {
		if extra.Position != "" {
			set["position"] = extra.Position
		}
		if extra.Description != "" {
			set["description"] = extra.Description
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var app models.Application
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set}, opts).Decode(&app)
	if err != nil {
		return models.Application{}, err
	}
	return app, nil
}

// Delete removes the application document (withdrawal path).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// AcceptedCount is the capacity ledger: the number of applications
// currently holding ACCEPTED for the opportunity, always computed from
// live rows at the instant of the admission check. There is no separately
// maintained counter to drift.
func (s *Store) AcceptedCount(ctx context.Context, opportunityID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"opportunity_id": opportunityID,
		"status":         models.StatusAccepted,
	})
}

// CountBlockingDeletion counts applications that forbid deleting the
// opportunity: PENDING and ACCEPTED rows are non-terminal, COMPLETED rows
// are already-engaged history. Only REJECTED dependents (or none) permit
// deletion.
func (s *Store) CountBlockingDeletion(ctx context.Context, opportunityID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"opportunity_id": opportunityID,
		"status": bson.M{"$in": []models.ApplicationStatus{
			models.StatusPending, models.StatusAccepted, models.StatusCompleted,
		}},
	})
}

// ListByVolunteer returns a volunteer's applications, newest first.
func (s *Store) ListByVolunteer(ctx context.Context, volunteerID primitive.ObjectID) ([]models.Application, error) {
	return s.find(ctx, bson.M{"volunteer_id": volunteerID})
}

// ListByOpportunity returns an opportunity's applications, newest first.
func (s *Store) ListByOpportunity(ctx context.Context, opportunityID primitive.ObjectID) ([]models.Application, error) {
	return s.find(ctx, bson.M{"opportunity_id": opportunityID})
}

// ListByStatus returns all applications in the given status, newest first.
func (s *Store) ListByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.Application, error) {
	return s.find(ctx, bson.M{"status": status})
}

func (s *Store) ListByVolunteerAndStatus(ctx context.Context, volunteerID primitive.ObjectID, status models.ApplicationStatus) ([]models.Application, error) {
	return s.find(ctx, bson.M{"volunteer_id": volunteerID, "status": status})
}

// ListCompletedByOpportunity returns the COMPLETED applications for one
// opportunity (metrics input).
func (s *Store) ListCompletedByOpportunity(ctx context.Context, opportunityID primitive.ObjectID) ([]models.Application, error) {
	return s.find(ctx, bson.M{
		"opportunity_id": opportunityID,
		"status":         models.StatusCompleted,
	})
}

// ListCompletedByOpportunities returns COMPLETED applications across a set
// of opportunities (organization-wide metrics input).
func (s *Store) ListCompletedByOpportunities(ctx context.Context, opportunityIDs []primitive.ObjectID) ([]models.Application, error) {
	if len(opportunityIDs) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{
		"opportunity_id": bson.M{"$in": opportunityIDs},
		"status":         models.StatusCompleted,
	})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Application, error) {
	opts := options.Find().SetSort(bson.D{{Key: "apply_date", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var apps []models.Application
	if err := cur.All(ctx, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// Statistics summarizes application counts per status.
type Statistics struct {
	Total     int64
	Pending   int64
	Accepted  int64
	Rejected  int64
	Completed int64
}

// StatisticsFor aggregates per-status counts, optionally scoped to one
// volunteer. A nil volunteerID aggregates over all applications.
func (s *Store) StatisticsFor(ctx context.Context, volunteerID *primitive.ObjectID) (Statistics, error) {
	match := bson.M{}
	if volunteerID != nil {
		match["volunteer_id"] = *volunteerID
	}

	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return Statistics{}, err
	}
	defer cur.Close(ctx)

	var stats Statistics
	for cur.Next(ctx) {
		var row struct {
			Status models.ApplicationStatus `bson:"_id"`
			N      int64                    `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return Statistics{}, err
		}
		stats.Total += row.N
		switch row.Status {
		case models.StatusPending:
			stats.Pending = row.N
		case models.StatusAccepted:
			stats.Accepted = row.N
		case models.StatusRejected:
			stats.Rejected = row.N
		case models.StatusCompleted:
			stats.Completed = row.N
		}
	}
	return stats, cur.Err()
}
