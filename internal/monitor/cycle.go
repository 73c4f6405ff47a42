package monitor

import (
	"codeberg.org/mutker/faultwatch/internal/history"
	"codeberg.org/mutker/faultwatch/internal/telemetry"
)

const (
	warnSourceUnavailable = "Using default values due to an error fetching data"
	warnDefaulted         = "Some fields were missing or invalid and use default values"
	warnStale             = "Prediction is from an earlier cycle because inference failed"
	warnNoPrediction      = "Inference failed and no earlier prediction is available"
)

// Warnings lists the conditions a reader of this cycle should know about.
func (c Cycle) Warnings() []string {
	var warnings []string
	if c.SourceErr != nil {
		warnings = append(warnings, warnSourceUnavailable)
	} else if len(c.Defaulted) > 0 {
		warnings = append(warnings, warnDefaulted)
	}
	if c.Stale {
		warnings = append(warnings, warnStale)
	} else if c.InferenceErr != nil {
		warnings = append(warnings, warnNoPrediction)
	}
	return warnings
}

// Entry converts the cycle into its persisted form.
func (c Cycle) Entry() history.Entry {
	e := history.Entry{
		ID:        c.ID,
		Timestamp: c.StartedAt,
		Reading:   c.Reading,
		Defaulted: telemetry.Names(c.Defaulted),
		SourceOK:  c.SourceErr == nil,
		Stale:     c.Stale,
	}
	if c.HasPrediction {
		e.Label = c.Prediction.Label
		e.Cause = c.Prediction.Cause
	}
	if c.InferenceErr != nil {
		e.InferenceError = c.InferenceErr.Error()
	}
	return e
}
