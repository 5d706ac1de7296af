// Package slot provides durable named key/value locations used to persist the record collections.
package slot

import (
	"context"
	"strings"

	"civicfeedback/internal/config"
	"civicfeedback/internal/database"
	"civicfeedback/internal/observability"
	contextutils "civicfeedback/internal/utils"
)

// Slot is a durable key/value location. Get reports found=false for a key that was never set.
type Slot interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Backend() string
	Close() error
}

// New opens the slot backend selected by cfg.Store.Backend
func New(ctx context.Context, cfg *config.Config, logger *observability.Logger) (result0 Slot, err error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Store.Backend))
	if backend == "" {
		backend = config.StoreBackendFile
	}

	ctx, span := observability.TraceSlotFunction(ctx, "New", observability.AttributeBackend(backend))
	defer observability.FinishSpan(span, &err)

	switch backend {
	case config.StoreBackendMemory:
		return NewMemorySlot(), nil
	case config.StoreBackendFile:
		dir := cfg.Store.Dir
		if dir == "" {
			dir = config.DefaultStoreDir
		}
		fs, err := NewFileSlot(dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case config.StoreBackendPostgres:
		dm := database.NewManager(logger)
		db, err := dm.OpenPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		return NewSQLSlot(db, database.DialectPostgres), nil
	case config.StoreBackendSQLite:
		path := cfg.Store.SQLitePath
		if path == "" {
			path = config.DefaultSQLitePath
		}
		dm := database.NewManager(logger)
		db, err := dm.OpenSQLite(ctx, path)
		if err != nil {
			return nil, err
		}
		return NewSQLSlot(db, database.DialectSQLite), nil
	case config.StoreBackendRedis:
		rs, err := NewRedisSlot(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		return rs, nil
	default:
		return nil, contextutils.WithDetails(contextutils.ErrInvalidInput, "unknown store backend %q", backend)
	}
}
