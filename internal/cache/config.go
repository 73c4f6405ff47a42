package cache

import "codeberg.org/mutker/faultwatch/internal/errors"

const (
	defaultAddr       = "localhost:6379"
	defaultTTL        = 3600
	defaultRecentSize = 1000
)

type Config struct {
	Enabled    bool
	Addr       string
	Password   string
	DB         int
	TTL        int // seconds
	RecentSize int
}

func DefaultConfig() Config {
	return Config{
		Enabled:    false,
		Addr:       defaultAddr,
		TTL:        defaultTTL,
		RecentSize: defaultRecentSize,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if !c.Enabled {
		return nil
	}
	if c.Addr == "" {
		return errFactory.WithMessage(ErrInvalidConfig, "redis address is empty")
	}
	if c.TTL <= 0 || c.RecentSize <= 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			TTL        int
			RecentSize int
		}{
			TTL:        c.TTL,
			RecentSize: c.RecentSize,
		})
	}
	return nil
}
