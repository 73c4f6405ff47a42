package history

import (
	"context"
	"time"

	"codeberg.org/mutker/faultwatch/internal/telemetry"
)

// Recorder defines the core domain interface
type Recorder interface {
	Record(ctx context.Context, entry *Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Repository defines the interface for cycle storage
type Repository interface {
	Record(entry *Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Entry is the persisted outcome of one poll cycle.
type Entry struct {
	ID             string            `json:"cycle_id"`
	Timestamp      time.Time         `json:"timestamp"`
	Reading        telemetry.Reading `json:"reading"`
	Defaulted      []string          `json:"defaulted"`
	SourceOK       bool              `json:"source_ok"`
	Label          string            `json:"predicted_label,omitempty"`
	Cause          string            `json:"cause,omitempty"`
	Stale          bool              `json:"stale"`
	InferenceError string            `json:"inference_error,omitempty"`
}
