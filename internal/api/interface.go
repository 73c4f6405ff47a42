package api

import (
	"context"
	"time"

	"codeberg.org/mutker/faultwatch/internal/history"
	"codeberg.org/mutker/faultwatch/internal/inference"
	"codeberg.org/mutker/faultwatch/internal/monitor"
	"codeberg.org/mutker/faultwatch/internal/telemetry"
)

// StatusProvider is satisfied by *monitor.Monitor.
type StatusProvider interface {
	Latest() (monitor.Cycle, bool)
}

// HistoryProvider returns recent cycles, newest first.
type HistoryProvider interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Status is the body of GET /api/v1/status.
type Status struct {
	CycleID        string                `json:"cycle_id"`
	Timestamp      time.Time             `json:"timestamp"`
	Reading        telemetry.Reading     `json:"reading"`
	Defaulted      []string              `json:"defaulted"`
	Prediction     *inference.Prediction `json:"prediction"`
	Stale          bool                  `json:"stale"`
	InferenceError string                `json:"inference_error,omitempty"`
	Warnings       []string              `json:"warnings"`
}

func newStatus(c monitor.Cycle) Status {
	s := Status{
		CycleID:   c.ID,
		Timestamp: c.StartedAt,
		Reading:   c.Reading,
		Defaulted: telemetry.Names(c.Defaulted),
		Stale:     c.Stale,
		Warnings:  c.Warnings(),
	}
	if c.InferenceErr != nil {
		s.InferenceError = c.InferenceErr.Error()
	}
	if c.HasPrediction {
		p := c.Prediction
		s.Prediction = &p
	}
	if s.Warnings == nil {
		s.Warnings = []string{}
	}
	return s
}
