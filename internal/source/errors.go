package source

import "codeberg.org/mutker/faultwatch/internal/errors"

const (
	// ErrUnavailable covers every way a fetch can come back without
	// usable data. Callers fall back to normalization defaults.
	ErrUnavailable = errors.ErrorCode("source_unavailable")

	ErrInvalidConfig = errors.ErrorCode("source_invalid_config")
)

func init() {
	errors.Register(map[errors.ErrorCode]string{
		ErrUnavailable:   "Telemetry unavailable",
		ErrInvalidConfig: "Invalid telemetry source configuration",
	})
}

// IsUnavailable reports whether err means no data was fetched this cycle.
func IsUnavailable(err error) bool {
	return errors.HasCode(err, ErrUnavailable)
}
