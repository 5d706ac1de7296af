package slot

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"civicfeedback/internal/database"
	"civicfeedback/internal/observability"
	contextutils "civicfeedback/internal/utils"

	"go.opentelemetry.io/otel/attribute"
)

// SQLSlot stores values in the durable_slots table
type SQLSlot struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewSQLSlot wraps an open database whose schema has been migrated
func NewSQLSlot(db *sql.DB, dialect database.Dialect) *SQLSlot {
	return &SQLSlot{db: db, dialect: dialect}
}

func (s *SQLSlot) queries() (get, upsert string) {
	if s.dialect == database.DialectPostgres {
		return `SELECT value FROM durable_slots WHERE key = $1`,
			`INSERT INTO durable_slots (key, value, updated_at) VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	}
	return `SELECT value FROM durable_slots WHERE key = ?`,
		`INSERT INTO durable_slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
}

// Get selects the row for key
func (s *SQLSlot) Get(ctx context.Context, key string) (result0 []byte, result1 bool, err error) {
	ctx, span := observability.TraceSlotFunction(ctx, "Get",
		observability.AttributeSlotKey(key),
		observability.AttributeBackend(string(s.dialect)),
	)
	defer observability.FinishSpan(span, &err)

	query, _ := s.queries()
	var value string
	err = s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, contextutils.WithDetails(contextutils.ErrDatabaseQuery, "read slot %s: %v", key, err)
	}
	span.SetAttributes(attribute.Int("slot.size", len(value)))
	return []byte(value), true, nil
}

// Set upserts the row for key
func (s *SQLSlot) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, span := observability.TraceSlotFunction(ctx, "Set",
		observability.AttributeSlotKey(key),
		observability.AttributeBackend(string(s.dialect)),
		attribute.Int("slot.size", len(value)),
	)
	defer observability.FinishSpan(span, &err)

	_, query := s.queries()
	if _, err = s.db.ExecContext(ctx, query, key, string(value), time.Now().UTC()); err != nil {
		return contextutils.WithDetails(contextutils.ErrDatabaseQuery, "write slot %s: %v", key, err)
	}
	return nil
}

// Backend returns the dialect name
func (s *SQLSlot) Backend() string { return string(s.dialect) }

// Close closes the underlying database
func (s *SQLSlot) Close() error { return s.db.Close() }
