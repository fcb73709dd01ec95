// internal/app/bootstrap/services.go
package bootstrap

import (
	"github.com/dalemusser/volunthub/internal/app/lifecycle"
	"github.com/dalemusser/volunthub/internal/app/metrics"
	"github.com/dalemusser/volunthub/internal/app/store/applications"
	"github.com/dalemusser/volunthub/internal/app/store/events"
	"github.com/dalemusser/volunthub/internal/app/store/impact"
	"github.com/dalemusser/volunthub/internal/app/store/opportunities"
	"github.com/dalemusser/volunthub/internal/app/store/organizations"
	"github.com/dalemusser/volunthub/internal/app/store/portfolios"
	"github.com/dalemusser/volunthub/internal/app/store/volunteers"
	"github.com/dalemusser/volunthub/internal/app/system/authz"
	"go.uber.org/zap"
)

// Services bundles the engine and pipeline plus the stores they run on.
// This is the operation surface a transport layer consumes; handlers take
// a verified principal and call these, never the stores directly.
type Services struct {
	Resolver *authz.Resolver
	Engine   *lifecycle.Engine
	Pipeline *metrics.Pipeline

	Volunteers    *volunteerstore.Store
	Organizations *organizationstore.Store
	Opportunities *opportunitystore.Store
	Applications  *applicationstore.Store
	Portfolios    *portfoliostore.Store
	Impact        *impactstore.Store
	Events        *eventstore.Store
}

// OnServices, when set before app.Run, receives the wired dependency
// graph from BuildHandler. An embedding transport layer registers a
// callback here and mounts its own routes on the services it receives.
var OnServices func(*Services)

// NewServices wires the full dependency graph from the connected
// database.
func NewServices(deps DBDeps, logger *zap.Logger) *Services {
	db := deps.MongoDatabase

	volunteers := volunteerstore.New(db)
	organizations := organizationstore.New(db)
	opportunities := opportunitystore.New(db)
	applications := applicationstore.New(db)
	portfolios := portfoliostore.New(db)
	impact := impactstore.New(db)
	events := eventstore.New(db)

	resolver := authz.NewResolver(volunteers, organizations)
	pipeline := metrics.NewPipeline(resolver, opportunities, applications, portfolios, impact, events, logger)
	engine := lifecycle.NewEngine(deps.MongoClient, resolver, opportunities, applications, events, pipeline, logger)

	return &Services{
		Resolver: resolver,
		Engine:   engine,
		Pipeline: pipeline,

		Volunteers:    volunteers,
		Organizations: organizations,
		Opportunities: opportunities,
		Applications:  applications,
		Portfolios:    portfolios,
		Impact:        impact,
		Events:        events,
	}
}
