package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitMB caps the accepted request body size in megabytes.
	// Full account snapshots for mature accounts run to several megabytes.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"32"`
}
