package database

import (
	"context"
	"database/sql"
	"embed"
	"path/filepath"

	"civicfeedback/internal/observability"
	contextutils "civicfeedback/internal/utils"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	_ "github.com/golang-migrate/migrate/v4/source/file" // required for golang-migrate file source
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies pending schema migrations to db.
// Migrations are read from migrationsPath when set, otherwise from the embedded set.
func (dm *Manager) RunMigrations(ctx context.Context, db *sql.DB, dialect Dialect, migrationsPath string) (err error) {
	ctx, span := observability.TraceDatabaseFunction(ctx, "RunMigrations",
		attribute.String("db.system", string(dialect)),
		attribute.String("migration.path", migrationsPath),
	)
	defer observability.FinishSpan(span, &err)

	dm.logger.Info(ctx, "Starting database migrations...", map[string]interface{}{"dialect": string(dialect)})

	var driver migratedb.Driver
	switch dialect {
	case DialectPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case DialectSQLite:
		driver, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		return contextutils.ErrorWithContextf("unsupported database dialect: %s", dialect)
	}
	if err != nil {
		return contextutils.WrapError(err, "failed to initialize migration driver")
	}

	var m *migrate.Migrate
	if migrationsPath != "" {
		sourceURL := "file://" + filepath.ToSlash(migrationsPath)
		m, err = migrate.NewWithDatabaseInstance(sourceURL, string(dialect), driver)
	} else {
		var src source.Driver
		src, err = iofs.New(embeddedMigrations, "migrations")
		if err != nil {
			return contextutils.WrapError(err, "failed to open embedded migrations")
		}
		m, err = migrate.NewWithInstance("iofs", src, string(dialect), driver)
	}
	if err != nil {
		return contextutils.WrapError(err, "failed to initialize golang-migrate")
	}
	// Closing m would also close db, which the caller still owns

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return contextutils.WrapError(err, "golang-migrate up failed")
	}
	if err == migrate.ErrNoChange {
		dm.logger.Info(ctx, "No new golang-migrate migrations to apply.")
	} else {
		dm.logger.Info(ctx, "golang-migrate migrations applied successfully.")
	}
	return nil
}
