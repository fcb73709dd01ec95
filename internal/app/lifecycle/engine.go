// internal/app/lifecycle/engine.go
//
// Package lifecycle implements the application admission and lifecycle
// engine: applying to opportunities, driving applications through the
// PENDING -> ACCEPTED|REJECTED -> COMPLETED state machine, withdrawal,
// and opportunity management. Every operation takes a verified principal,
// resolves it to an owning profile, makes a single authorization decision,
// then validates and commits the state change.
package lifecycle

import (
	"context"
	"errors"

	"github.com/dalemusser/volunthub/internal/app/metrics"
	"github.com/dalemusser/volunthub/internal/app/store/applications"
	"github.com/dalemusser/volunthub/internal/app/store/events"
	"github.com/dalemusser/volunthub/internal/app/store/opportunities"
	"github.com/dalemusser/volunthub/internal/app/system/authz"
	"github.com/dalemusser/volunthub/internal/app/system/keylock"
	"github.com/dalemusser/volunthub/internal/domain/apperr"
	"github.com/dalemusser/volunthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// PortfolioDeriver is the piece of the metrics pipeline the engine
// triggers when an application completes.
type PortfolioDeriver interface {
	DerivePortfolio(ctx context.Context, applicationID primitive.ObjectID, ann *metrics.Annotations) (models.Portfolio, error)
}

type Engine struct {
	client        *mongo.Client
	resolver      *authz.Resolver
	opportunities *opportunitystore.Store
	applications  *applicationstore.Store
	events        *eventstore.Store
	deriver       PortfolioDeriver
	acceptLocks   *keylock.KeyedMutex
	log           *zap.Logger
}

func NewEngine(
	client *mongo.Client,
	resolver *authz.Resolver,
	opportunities *opportunitystore.Store,
	applications *applicationstore.Store,
	events *eventstore.Store,
	deriver PortfolioDeriver,
	log *zap.Logger,
) *Engine {
	return &Engine{
		client:        client,
		resolver:      resolver,
		opportunities: opportunities,
		applications:  applications,
		events:        events,
		deriver:       deriver,
		acceptLocks:   keylock.New(),
		log:           log,
	}
}

// mapNotFound translates a missing-document read into the domain's
// NotFound; other persistence faults pass through as transient.
func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.ErrNotFound
	}
	return err
}

// mapLostRace translates a failed compare-and-set status write into
// InvalidTransition: the document was already moved off the status this
// transition read.
func mapLostRace(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.ErrInvalidTransition
	}
	return err
}
