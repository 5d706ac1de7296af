// Package database provides database connection and migration functionality
// for the SQL-backed durable slots.
package database

import (
	"context"
	"database/sql"
	"net/url"
	"strings"
	"sync"

	"civicfeedback/internal/config"
	"civicfeedback/internal/observability"
	contextutils "civicfeedback/internal/utils"

	// Import PostgreSQL driver for database/sql
	_ "github.com/lib/pq"
	// Import pure Go SQLite driver for database/sql
	_ "modernc.org/sqlite"

	// OpenTelemetry SQL instrumentation
	"go.nhat.io/otelsql"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// Dialect names a supported SQL database
type Dialect string

const (
	// DialectPostgres is PostgreSQL through lib/pq
	DialectPostgres Dialect = "postgres"
	// DialectSQLite is SQLite through modernc.org/sqlite
	DialectSQLite Dialect = "sqlite"
)

// Manager handles database operations with proper logging
type Manager struct {
	logger *observability.Logger
}

type otelDriver struct {
	once sync.Once
	name string
	err  error
}

var otelDrivers = map[Dialect]*otelDriver{
	DialectPostgres: {},
	DialectSQLite:   {},
}

// NewManager creates a new database manager with the provided logger
func NewManager(logger *observability.Logger) *Manager {
	return &Manager{
		logger: logger,
	}
}

// DefaultDatabaseConfig returns the default database configuration
func DefaultDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		MaxOpenConns:    config.DefaultMaxOpenConns,
		MaxIdleConns:    config.DefaultMaxIdleConns,
		ConnMaxLifetime: config.DatabaseConnMaxLifetime,
	}
}

// registerDriver registers the OpenTelemetry wrapped driver once per process and reuses the name
func registerDriver(dialect Dialect, dbName string) (string, error) {
	d := otelDrivers[dialect]
	d.once.Do(func() {
		system := semconv.DBSystemPostgreSQL
		if dialect == DialectSQLite {
			system = semconv.DBSystemSqlite
		}
		d.name, d.err = otelsql.Register(string(dialect),
			otelsql.WithDatabaseName(dbName),
			otelsql.TraceQueryWithArgs(),
			otelsql.WithSystem(system),
			otelsql.TraceRowsAffected(),
		)
	})
	return d.name, d.err
}

// OpenPostgres opens a pooled PostgreSQL connection and applies migrations
func (dm *Manager) OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (result0 *sql.DB, err error) {
	dbName := extractDatabaseName(cfg.URL)
	ctx, span := observability.TraceDatabaseFunction(ctx, "OpenPostgres",
		attribute.String("db.name", dbName),
		attribute.String("db.system", "postgresql"),
		attribute.Int("db.max_open_conns", cfg.MaxOpenConns),
		attribute.Int("db.max_idle_conns", cfg.MaxIdleConns),
		attribute.String("db.conn_max_lifetime", cfg.ConnMaxLifetime.String()),
	)
	defer observability.FinishSpan(span, &err)

	driverName, err := registerDriver(DialectPostgres, dbName)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to register otelsql driver")
	}

	db, err := sql.Open(driverName, cfg.URL)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open database connection")
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := dm.pingAndMigrate(ctx, db, DialectPostgres, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	dm.logger.Info(ctx, "Database connection established", map[string]interface{}{
		"db_name":           dbName,
		"max_open_conns":    cfg.MaxOpenConns,
		"max_idle_conns":    cfg.MaxIdleConns,
		"conn_max_lifetime": cfg.ConnMaxLifetime.String(),
	})

	return db, nil
}

// OpenSQLite opens a SQLite database file (or ":memory:") and applies migrations.
// SQLite allows one writer, so the pool is limited to a single connection.
func (dm *Manager) OpenSQLite(ctx context.Context, path string) (result0 *sql.DB, err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "OpenSQLite",
		attribute.String("db.system", "sqlite"),
		attribute.String("db.path", path),
	)
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(path) == "" {
		return nil, contextutils.ErrorWithContextf("sqlite path is required")
	}

	driverName, err := registerDriver(DialectSQLite, "main")
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to register otelsql driver")
	}

	db, err := sql.Open(driverName, sqliteDSN(path))
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to open sqlite database")
	}
	db.SetMaxOpenConns(1)

	if err := dm.pingAndMigrate(ctx, db, DialectSQLite, ""); err != nil {
		return nil, err
	}

	dm.logger.Info(ctx, "SQLite database opened", map[string]interface{}{"path": path})
	return db, nil
}

func (dm *Manager) pingAndMigrate(ctx context.Context, db *sql.DB, dialect Dialect, migrationsPath string) error {
	if err := db.PingContext(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database connection after ping failure", closeErr)
		}
		return contextutils.WithDetails(contextutils.ErrDatabaseConnection, "ping %s: %v", dialect, err)
	}

	if err := dm.RunMigrations(ctx, db, dialect, migrationsPath); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			dm.logger.Error(ctx, "Failed to close database connection after migration failure", closeErr)
		}
		return err
	}
	return nil
}

// sqliteDSN adds the busy timeout and WAL pragmas to file databases
func sqliteDSN(path string) string {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// extractDatabaseName extracts the database name from a PostgreSQL connection string
func extractDatabaseName(databaseURL string) string {
	if u, err := url.Parse(databaseURL); err == nil && u.Scheme != "" {
		if dbName := strings.TrimPrefix(u.Path, "/"); dbName != "" {
			return dbName
		}
	}

	// Fallback for key=value connection strings: "host=localhost dbname=civic"
	for _, part := range strings.Fields(databaseURL) {
		if strings.HasPrefix(part, "dbname=") {
			return strings.TrimPrefix(part, "dbname=")
		}
	}

	return "civicfeedback"
}
