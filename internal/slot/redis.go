package slot

import (
	"context"
	"errors"
	"strings"
	"time"

	"civicfeedback/internal/config"
	"civicfeedback/internal/observability"
	contextutils "civicfeedback/internal/utils"

	"github.com/redis/go-redis/v9"
)

// RedisSlot stores values as plain redis strings under <prefix><key>, without expiry
type RedisSlot struct {
	client *redis.Client
	prefix string
}

// NewRedisSlot connects to redis and verifies the connection with a ping.
// Addr may be host:port or a redis:// URL.
func NewRedisSlot(ctx context.Context, cfg config.RedisConfig, logger *observability.Logger) (*RedisSlot, error) {
	var opts *redis.Options
	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		parsed, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, contextutils.WrapError(err, "failed to parse redis url")
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.ConnMaxIdleTime = 5 * time.Minute
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, contextutils.NewAppErrorWithCause(contextutils.ErrorCodeDatabaseConnection, contextutils.SeverityError,
			"failed to connect to redis", err.Error(), err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = config.DefaultRedisPrefix
	}

	logger.Info(ctx, "Redis connection established", map[string]interface{}{
		"addr":   opts.Addr,
		"db":     opts.DB,
		"prefix": prefix,
	})

	return &RedisSlot{client: client, prefix: prefix}, nil
}

// Get fetches <prefix><key>
func (s *RedisSlot) Get(ctx context.Context, key string) (result0 []byte, result1 bool, err error) {
	ctx, span := observability.TraceSlotFunction(ctx, "Get",
		observability.AttributeSlotKey(key),
		observability.AttributeBackend(config.StoreBackendRedis),
	)
	defer observability.FinishSpan(span, &err)

	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, contextutils.WrapErrorf(err, "failed to read slot %s", key)
	}
	return value, true, nil
}

// Set stores value at <prefix><key> with no TTL
func (s *RedisSlot) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, span := observability.TraceSlotFunction(ctx, "Set",
		observability.AttributeSlotKey(key),
		observability.AttributeBackend(config.StoreBackendRedis),
	)
	defer observability.FinishSpan(span, &err)

	if err = s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return contextutils.WrapErrorf(err, "failed to write slot %s", key)
	}
	return nil
}

// Backend returns the backend name
func (s *RedisSlot) Backend() string { return config.StoreBackendRedis }

// Close closes the redis client
func (s *RedisSlot) Close() error { return s.client.Close() }
