package cache

import (
	"context"
	"time"

	"codeberg.org/mutker/faultwatch/internal/history"
	"github.com/go-redis/redis/v8"
)

// Cache keeps a bounded list of recent cycles.
type Cache interface {
	Store(ctx context.Context, e history.Entry) error
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	Close() error
}

// Client is the subset of *redis.Client the cache uses.
type Client interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Close() error
}
