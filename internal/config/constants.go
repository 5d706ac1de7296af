package config

import "time"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout = 60 * time.Second
	HealthCheckTimeout = 5 * time.Second
	ShutdownTimeout    = 30 * time.Second
	TestTimeout        = 100 * time.Millisecond

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute

	// Session timeouts
	SessionMaxAge = 7 * 24 * time.Hour // 7 days
)

// Session configuration constants
const (
	// Session settings
	SessionPath     = "/"
	SessionHTTPOnly = true
	SessionSecure   = false // Set to true in production with HTTPS

	// Session name
	SessionName = "civic-session"

	// SessionUserIDKey is the session value holding the logged-in user's id
	SessionUserIDKey = "user_id"
)

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:; media-src 'self' blob: data:;"
)

// Store backends
const (
	StoreBackendMemory   = "memory"
	StoreBackendFile     = "file"
	StoreBackendPostgres = "postgres"
	StoreBackendSQLite   = "sqlite"
	StoreBackendRedis    = "redis"
)

// Id strategies
const (
	IDStrategySequence = "sequence"
	IDStrategyUUID     = "uuid"
)

// Defaults applied when the configuration leaves a value unset
const (
	DefaultPort          = "8080"
	DefaultStoreDir      = "data"
	DefaultSQLitePath    = "civic.db"
	DefaultRedisPrefix   = "civic:"
	DefaultBcryptCost    = 10
	DefaultMaxOpenConns  = 25
	DefaultMaxIdleConns  = 5
	DefaultOTelEndpoint  = "localhost:4317"
	DefaultOTelProtocol  = "grpc"
	DefaultServiceName   = "civic-feedback"
	DefaultSMTPPort      = 587
	DefaultConfigFile    = "config.yaml"
	ConfigFileEnvVar     = "CIVIC_CONFIG_FILE"
	DefaultDotEnvFile    = ".env"
	DefaultSamplingRatio = 1.0
)
