// internal/app/bootstrap/appconfig.go
package bootstrap

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (HTTP ports, TLS,
// logging level and format, request limits). AppConfig is everything
// specific to VoluntHub: the MongoDB connection, pool sizing, and the
// operation timeout tiers.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Operation timeout overrides (zero keeps the package defaults)
	TimeoutPing   string // Health-check ping timeout (e.g., "2s")
	TimeoutShort  string // Single-document read timeout
	TimeoutMedium string // List/write and admission check-and-commit timeout
	TimeoutLong   string // Multi-collection aggregation timeout
}
