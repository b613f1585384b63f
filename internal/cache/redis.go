package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/goodtune/tokenmon/internal/config"
	"github.com/goodtune/tokenmon/internal/metrics"
)

// RedisBytes is a Redis-backed ByteStore. Several monitors pointed at the
// same Redis share one upstream fetch and one failure cooldown. Values
// carry their own write timestamp so read-time TTL semantics match the
// memory backend.
type RedisBytes struct {
	client *redis.Client
	prefix string
	clock  Clock
	logger zerolog.Logger

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

type redisEnvelope struct {
	StoredAt int64  `json:"at"` // unix nanoseconds
	Value    []byte `json:"v"`
}

// OpenRedis connects to Redis and verifies the connection.
func OpenRedis(cfg config.RedisConfig, logger zerolog.Logger) (*RedisBytes, error) {
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}
	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}
	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBytes{
		client: client,
		prefix: cfg.KeyPrefix,
		clock:  RealClock{},
		logger: logger.With().Str("component", "redis-cache").Logger(),
	}, nil
}

// SetClock overrides the clock used for TTL checks (tests only).
func (r *RedisBytes) SetClock(c Clock) {
	r.clock = c
}

// Get returns the stored payload unless it is older than ttl, in which case
// the key is deleted. Redis errors are treated as misses so the caller
// falls through to a fresh fetch.
func (r *RedisBytes) Get(ctx context.Context, key string, ttl time.Duration) ([]byte, bool) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Debug().Err(err).Str("key", key).Msg("Redis read failed")
		}
		r.recordMiss()
		return nil, false
	}

	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("Corrupt cache envelope, dropping")
		r.client.Del(ctx, r.prefix+key)
		r.recordMiss()
		return nil, false
	}

	if ttl > 0 && r.clock.Now().Sub(time.Unix(0, env.StoredAt)) > ttl {
		r.client.Del(ctx, r.prefix+key)
		r.recordMiss()
		return nil, false
	}

	r.recordHit()
	return env.Value, true
}

// Set stores the payload with the current timestamp. Write failures are
// logged and otherwise ignored; the cache is best-effort.
func (r *RedisBytes) Set(ctx context.Context, key string, value []byte) {
	raw, err := json.Marshal(redisEnvelope{StoredAt: r.clock.Now().UnixNano(), Value: value})
	if err != nil {
		r.logger.Error().Err(err).Str("key", key).Msg("Failed to encode cache envelope")
		return
	}
	if err := r.client.Set(ctx, r.prefix+key, raw, 0).Err(); err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("Redis write failed")
	}
}

// Delete removes a single key.
func (r *RedisBytes) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.logger.Debug().Err(err).Str("key", key).Msg("Redis delete failed")
	}
}

// Stats returns hit/miss statistics observed by this client.
func (r *RedisBytes) Stats() Stats {
	r.mu.Lock()
	hits, misses := r.hits, r.misses
	r.mu.Unlock()

	s := Stats{Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total) * 100
	}
	return s
}

// Close closes the Redis connection.
func (r *RedisBytes) Close() error {
	return r.client.Close()
}

func (r *RedisBytes) recordHit() {
	r.mu.Lock()
	r.hits++
	r.mu.Unlock()
	metrics.CacheHits.WithLabelValues("redis").Inc()
}

func (r *RedisBytes) recordMiss() {
	r.mu.Lock()
	r.misses++
	r.mu.Unlock()
	metrics.CacheMisses.WithLabelValues("redis").Inc()
}
