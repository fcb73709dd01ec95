// internal/app/store/portfolios/portfoliostore.go
package portfoliostore

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
	return &Store{c: db.Collection("portfolios")}
}

// Create inserts a derived portfolio. The unique index on
// (volunteer_id, application_id) rejects a second derivation for the same
// completed activity with apperr.ErrDuplicatePortfolio.
func (s *Store) Create(ctx context.Context, p models.Portfolio) (models.Portfolio, error) {
	p.ID = primitive.NewObjectID()
	p.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Portfolio{}, apperr.ErrDuplicatePortfolio
		}
		return models.Portfolio{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Portfolio, error) {
	var p models.Portfolio
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		return models.Portfolio{}, err
	}
	return p, nil
}

// GetByApplication returns the portfolio derived from one application,
// if any.
func (s *Store) GetByApplication(ctx context.Context, applicationID primitive.ObjectID) (models.Portfolio, error) {
	var p models.Portfolio
	err := s.c.FindOne(ctx, bson.M{"application_id": applicationID}).Decode(&p)
	if err != nil {
		return models.Portfolio{}, err
	}
	return p, nil
}

// ListByVolunteer returns a volunteer's portfolio entries, newest first.
func (s *Store) ListByVolunteer(ctx context.Context, volunteerID primitive.ObjectID) ([]models.Portfolio, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"volunteer_id": volunteerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Portfolio
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByApplications returns the portfolios derived from the given
// applications (impact aggregation input).
func (s *Store) ListByApplications(ctx context.Context, applicationIDs []primitive.ObjectID) ([]models.Portfolio, error) {
	if len(applicationIDs) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"application_id": bson.M{"$in": applicationIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Portfolio
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VolunteerTotals summarizes one volunteer's portfolio.
type VolunteerTotals struct {
	Activities   int64
	TotalHours   int64
	Certificates int64
	Badges       int64
}

// TotalsForVolunteer aggregates activity count, contributed hours, and
// the number of entries carrying a certificate or badge for one
// volunteer.
func (s *Store) TotalsForVolunteer(ctx context.Context, volunteerID primitive.ObjectID) (VolunteerTotals, error) {
	hasField := func(field string) bson.M {
		return bson.M{"$sum": bson.M{"$cond": []interface{}{
			bson.M{"$gt": []interface{}{bson.M{"$strLenCP": bson.M{"$ifNull": []interface{}{"$" + field, ""}}}, 0}},
			1, 0,
		}}}
	}

	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"volunteer_id": volunteerID}},
		{"$group": bson.M{
			"_id":          nil,
			"n":            bson.M{"$sum": 1},
			"hours":        bson.M{"$sum": "$contribution_hours"},
			"certificates": hasField("certificate"),
			"badges":       hasField("badge"),
		}},
	})
	if err != nil {
		return VolunteerTotals{}, err
	}
	defer cur.Close(ctx)

	var totals VolunteerTotals
	if cur.Next(ctx) {
		var row struct {
			N            int64 `bson:"n"`
			Hours        int64 `bson:"hours"`
			Certificates int64 `bson:"certificates"`
			Badges       int64 `bson:"badges"`
		}
		if err := cur.Decode(&row); err != nil {
			return VolunteerTotals{}, err
		}
		totals.Activities = row.N
		totals.TotalHours = row.Hours
		totals.Certificates = row.Certificates
		totals.Badges = row.Badges
	}
	return totals, cur.Err()
}
