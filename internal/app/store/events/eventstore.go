// internal/app/store/events/eventstore.go
package eventstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Event kinds recorded in the lifecycle audit trail.
const (
	KindApplicationCreated   = "application_created"
	KindApplicationAccepted  = "application_accepted"
	KindApplicationRejected  = "application_rejected"
	KindApplicationCompleted = "application_completed"
	KindApplicationWithdrawn = "application_withdrawn"
	KindOpportunityCreated   = "opportunity_created"
	KindOpportunityUpdated   = "opportunity_updated"
	KindOpportunityDeleted   = "opportunity_deleted"
	KindPortfolioCreated     = "portfolio_created"
	KindImpactCreated        = "impact_created"
	KindImpactUpdated        = "impact_updated"
	KindImpactDeleted        = "impact_deleted"
)

// Event is one audit record. CorrelationID groups the events emitted by a
// single engine call so a multi-write operation can be traced end to end.
type Event struct {
	ID            primitive.ObjectID `bson:"_id"`
	Kind          string             `bson:"kind"`
	CorrelationID string             `bson:"correlation_id"`
	ActorUserID   primitive.ObjectID `bson:"actor_user_id,omitempty"`
	ApplicationID primitive.ObjectID `bson:"application_id,omitempty"`
	OpportunityID primitive.ObjectID `bson:"opportunity_id,omitempty"`
	SubjectID     primitive.ObjectID `bson:"subject_id,omitempty"`
	Detail        string             `bson:"detail,omitempty"`
	Timestamp     time.Time          `bson:"timestamp"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("lifecycle_events")}
}

// NewCorrelationID returns a fresh id for grouping the events of one
// engine call.
func NewCorrelationID() string {
	return uuid.NewString()
}

// Record writes one audit event. Auditing is best effort: failures are
// logged and swallowed so they never fail the operation being audited.
func (s *Store) Record(ctx context.Context, ev Event) {
	ev.ID = primitive.NewObjectID()
	if ev.CorrelationID == "" {
		ev.CorrelationID = NewCorrelationID()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, ev); err != nil {
		zap.L().Warn("failed to record lifecycle event",
			zap.String("kind", ev.Kind),
			zap.String("correlation_id", ev.CorrelationID),
			zap.Error(err))
	}
}

// ListByApplication returns the audit trail of one application, newest
// first.
func (s *Store) ListByApplication(ctx context.Context, applicationID primitive.ObjectID) ([]Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"application_id": applicationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
