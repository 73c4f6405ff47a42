package cache

import "codeberg.org/mutker/faultwatch/internal/errors"

const (
	ErrInvalidConfig = errors.ErrorCode("cache_invalid_config")
	ErrConnect       = errors.ErrorCode("cache_connect_failed")
	ErrStore         = errors.ErrorCode("cache_store_failed")
	ErrRead          = errors.ErrorCode("cache_read_failed")
	ErrEncode        = errors.ErrorCode("cache_encode_failed")
)

func init() {
	errors.Register(map[errors.ErrorCode]string{
		ErrInvalidConfig: "Invalid cache configuration",
		ErrConnect:       "Failed to connect to Redis",
		ErrStore:         "Failed to store cycle in cache",
		ErrRead:          "Failed to read cycles from cache",
		ErrEncode:        "Failed to encode cycle",
	})
}
