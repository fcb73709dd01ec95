// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	healthfeature "github.com/dalemusser/volunthub/internal/app/features/health"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// VoluntHub's lifecycle and metrics operations are a library surface
// consumed by a separate transport layer; the process itself serves only
// the health endpoint for load balancers and orchestrators. The full
// dependency graph is still wired here so startup fails fast if it
// cannot be built.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	svcs := NewServices(deps, logger)
	if OnServices != nil {
		OnServices(svcs)
	}

	r := chi.NewRouter()

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	return r, nil
}
