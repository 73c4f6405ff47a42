package cache

import (
	"context"
	"encoding/json"
	"time"

	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/history"
	"codeberg.org/mutker/faultwatch/internal/logger"
	"github.com/go-redis/redis/v8"
)

const (
	keyPrefix   = "faultwatch:"
	recentKey   = keyPrefix + "cycles:recent"
	cyclePrefix = keyPrefix + "cycle:"
)

type redisCache struct {
	client Client
	cfg    Config
	logger logger.Logger
}

type noopCache struct{}

// New connects to Redis, or returns a no-op cache when disabled.
func New(ctx context.Context, cfg Config, log logger.Logger) (Cache, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Enabled {
		log.Debug().Msg("Cache disabled, using no-op cache")
		return noopCache{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 1,
		MaxRetries:   3,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errFactory.WithData(ErrConnect, struct {
			Addr  string
			Error string
		}{
			Addr:  cfg.Addr,
			Error: err.Error(),
		})
	}

	log.Info().Str("addr", cfg.Addr).Msg("Connected to Redis")

	return NewWithClient(client, cfg, log), nil
}

// NewWithClient builds a cache on an existing client.
func NewWithClient(client Client, cfg Config, log logger.Logger) Cache {
	return &redisCache{client: client, cfg: cfg, logger: log}
}

func (c *redisCache) ttl() time.Duration {
	return time.Duration(c.cfg.TTL) * time.Second
}

func (c *redisCache) Store(ctx context.Context, e history.Entry) error {
	errFactory := errors.New()

	data, err := json.Marshal(e)
	if err != nil {
		return errFactory.Wrap(ErrEncode, err)
	}

	key := cyclePrefix + e.ID
	if err := c.client.Set(ctx, key, data, c.ttl()).Err(); err != nil {
		return errFactory.WithData(ErrStore, struct {
			Phase string
			Key   string
			Error string
		}{
			Phase: "set_cycle",
			Key:   key,
			Error: err.Error(),
		})
	}
	if err := c.client.LPush(ctx, recentKey, key).Err(); err != nil {
		return errFactory.WithData(ErrStore, struct {
			Phase string
			Key   string
			Error string
		}{
			Phase: "push_recent",
			Key:   recentKey,
			Error: err.Error(),
		})
	}
	if err := c.client.LTrim(ctx, recentKey, 0, int64(c.cfg.RecentSize-1)).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to trim recent cycles list")
	}

	return nil
}

// Recent returns up to limit cycles, newest first. Entries whose key has
// expired are skipped.
func (c *redisCache) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	errFactory := errors.New()

	if limit <= 0 {
		return nil, nil
	}

	keys, err := c.client.LRange(ctx, recentKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, errFactory.Wrap(ErrRead, err)
	}

	entries := make([]history.Entry, 0, len(keys))
	for _, key := range keys {
		data, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, errFactory.Wrap(ErrRead, err)
		}

		var e history.Entry
		if err := json.Unmarshal(data, &e); err != nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("Skipping undecodable cached cycle")
			continue
		}
		entries = append(entries, e)
	}

	return entries, nil
}

func (c *redisCache) Close() error {
	return c.client.Close()
}

func (noopCache) Store(_ context.Context, _ history.Entry) error {
	return nil
}

func (noopCache) Recent(_ context.Context, _ int) ([]history.Entry, error) {
	return nil, nil
}

func (noopCache) Close() error {
	return nil
}
