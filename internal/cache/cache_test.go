package cache_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"codeberg.org/mutker/faultwatch/internal/cache"
	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/history"
	"codeberg.org/mutker/faultwatch/internal/logger"
	"codeberg.org/mutker/faultwatch/internal/telemetry"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is an in-memory stand-in for the handful of Redis commands
// the cache issues.
type fakeClient struct {
	values map[string]string
	ttls   map[string]time.Duration
	lists  map[string][]string
	setErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		values: make(map[string]string),
		ttls:   make(map[string]time.Duration),
		lists:  make(map[string][]string),
	}
}

func (f *fakeClient) Ping(_ context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value interface{}, exp time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.values[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeClient) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		f.lists[key] = append([]string{v.(string)}, f.lists[key]...)
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeClient) LTrim(_ context.Context, key string, start, stop int64) *redis.StatusCmd {
	list := f.lists[key]
	if stop+1 < int64(len(list)) {
		f.lists[key] = list[start : stop+1]
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeClient) LRange(_ context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	list := f.lists[key]
	end := stop + 1
	if end > int64(len(list)) {
		end = int64(len(list))
	}
	if start >= end {
		return redis.NewStringSliceResult(nil, nil)
	}
	return redis.NewStringSliceResult(list[start:end], nil)
}

func (f *fakeClient) Close() error {
	return nil
}

func testConfig() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Enabled = true
	cfg.RecentSize = 3
	cfg.TTL = 60
	return cfg
}

func entry(id, label string) history.Entry {
	return history.Entry{
		ID:        id,
		Timestamp: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
		Reading:   telemetry.Defaults(),
		SourceOK:  true,
		Label:     label,
		Cause:     "cause of " + label,
	}
}

func TestStore(t *testing.T) {
	client := newFakeClient()
	c := cache.NewWithClient(client, testConfig(), logger.Nop())
	ctx := context.Background()

	entries, err := c.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, c.Store(ctx, entry("a", "Normal")))
	require.NoError(t, c.Store(ctx, entry("b", "Overload")))

	assert.Equal(t, 60*time.Second, client.ttls["faultwatch:cycle:b"])
	assert.Len(t, client.values, 2, "one key per cycle")

	entries, err = c.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].ID)
	assert.Equal(t, "cause of Overload", entries[0].Cause)
}

func TestRecentIsBoundedAndNewestFirst(t *testing.T) {
	client := newFakeClient()
	c := cache.NewWithClient(client, testConfig(), logger.Nop())
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, c.Store(ctx, entry(id, "Normal")))
	}

	entries, err := c.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "d", entries[0].ID)
	assert.Equal(t, "b", entries[2].ID)

	entries, err = c.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "d", entries[0].ID)
}

func TestRecentSkipsExpired(t *testing.T) {
	client := newFakeClient()
	c := cache.NewWithClient(client, testConfig(), logger.Nop())
	ctx := context.Background()

	require.NoError(t, c.Store(ctx, entry("a", "Normal")))
	require.NoError(t, c.Store(ctx, entry("b", "Normal")))
	delete(client.values, "faultwatch:cycle:a")

	entries, err := c.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b", entries[0].ID)
}

func TestStoreError(t *testing.T) {
	client := newFakeClient()
	client.setErr = stderrors.New("connection refused")
	c := cache.NewWithClient(client, testConfig(), logger.Nop())

	err := c.Store(context.Background(), entry("a", "Normal"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, cache.ErrStore))
}

func TestDisabledUsesNoop(t *testing.T) {
	c, err := cache.New(context.Background(), cache.DefaultConfig(), logger.Nop())
	require.NoError(t, err)

	require.NoError(t, c.Store(context.Background(), entry("a", "Normal")))
	entries, err := c.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, c.Close())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*cache.Config)
		wantErr bool
	}{
		{"disabled", func(*cache.Config) {}, false},
		{"enabled defaults", func(c *cache.Config) { c.Enabled = true }, false},
		{"empty addr", func(c *cache.Config) { c.Enabled = true; c.Addr = "" }, true},
		{"zero ttl", func(c *cache.Config) { c.Enabled = true; c.TTL = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := cache.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.True(t, errors.HasCode(err, cache.ErrInvalidConfig))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
