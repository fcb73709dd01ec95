// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/volunthub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections
// and schema setup are complete, but before the HTTP handler is built.
// VoluntHub applies any configured timeout overrides here.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   parseDuration(appCfg.TimeoutPing, logger, "timeout_ping"),
		Short:  parseDuration(appCfg.TimeoutShort, logger, "timeout_short"),
		Medium: parseDuration(appCfg.TimeoutMedium, logger, "timeout_medium"),
		Long:   parseDuration(appCfg.TimeoutLong, logger, "timeout_long"),
	})
	return nil
}

// parseDuration returns 0 (keep default) for empty or malformed values,
// logging the latter rather than failing startup over a tuning knob.
func parseDuration(s string, logger *zap.Logger, key string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		logger.Warn("ignoring malformed timeout override",
			zap.String("key", key),
			zap.String("value", s))
		return 0
	}
	return d
}
