package monitor

import (
	"context"
	"time"

	"codeberg.org/mutker/faultwatch/internal/history"
	"codeberg.org/mutker/faultwatch/internal/inference"
	"codeberg.org/mutker/faultwatch/internal/telemetry"
)

// Predictor is satisfied by *inference.Service.
type Predictor interface {
	Predict(ctx context.Context, reading telemetry.Reading) (inference.Prediction, error)
}

// Cache receives every completed cycle.
type Cache interface {
	Store(ctx context.Context, e history.Entry) error
}

// Observer is satisfied by *metrics.Collector.
type Observer interface {
	ObserveCycle(e history.Entry)
}

// Cycle is the outcome of one poll.
type Cycle struct {
	ID         string
	StartedAt  time.Time
	Reading    telemetry.Reading
	Defaulted  []telemetry.Field
	SourceErr  error
	Prediction inference.Prediction
	// HasPrediction is false until some cycle has produced a prediction.
	HasPrediction bool
	Stale         bool
	InferenceErr  error
}
