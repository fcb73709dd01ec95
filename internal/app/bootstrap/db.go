// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/volunthub/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// EnsureSchema reconciles the index sets for every collection. The unique
// indexes carry domain invariants (one application per pair, one
// portfolio per completed activity, one impact analysis per opportunity),
// so startup fails fast if they cannot be ensured.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return indexes.EnsureAll(ctx, deps.MongoDatabase)
}
