package monitor

import (
	"context"
	"sync"
	"time"

	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/history"
	"codeberg.org/mutker/faultwatch/internal/logger"
	"codeberg.org/mutker/faultwatch/internal/source"
	"codeberg.org/mutker/faultwatch/internal/telemetry"
	"github.com/google/uuid"
)

// Monitor runs poll cycles: fetch, normalize, predict, publish.
type Monitor struct {
	source    source.Source
	predictor Predictor
	recorder  history.Recorder
	cache     Cache
	observer  Observer
	logger    logger.Logger
	now       func() time.Time
	newID     func() string

	mu     sync.RWMutex
	latest Cycle
	ready  bool
}

type Option func(*Monitor)

func WithRecorder(r history.Recorder) Option {
	return func(m *Monitor) { m.recorder = r }
}

func WithCache(c Cache) Option {
	return func(m *Monitor) { m.cache = c }
}

func WithObserver(o Observer) Option {
	return func(m *Monitor) { m.observer = o }
}

func WithLogger(log logger.Logger) Option {
	return func(m *Monitor) { m.logger = log }
}

// WithClock overrides the time source used to stamp cycles.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func New(src source.Source, predictor Predictor, opts ...Option) *Monitor {
	m := &Monitor{
		source:    src,
		predictor: predictor,
		logger:    logger.New().With("monitor"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// PollOnce runs a single cycle. A source failure is absorbed and the
// cycle continues on default values. An inference failure keeps the
// previous prediction, marks it stale, and is returned after the cycle
// has been published.
func (m *Monitor) PollOnce(ctx context.Context) (Cycle, error) {
	errFactory := errors.New()

	cycle := Cycle{
		ID:        m.newID(),
		StartedAt: m.now().UTC(),
	}

	raw, err := m.source.Fetch(ctx)
	if err != nil {
		cycle.SourceErr = err
		raw = map[string]*string{}
		m.logger.Warn().
			Err(err).
			Str("cycle_id", cycle.ID).
			Msg("Using default values due to an error fetching data")
	}

	normalized := telemetry.Normalize(raw)
	cycle.Reading = normalized.Reading
	cycle.Defaulted = normalized.Defaulted
	if normalized.Degraded() {
		event := m.logger.Warn
		if cycle.SourceErr != nil {
			event = m.logger.Debug
		}
		event().
			Str("cycle_id", cycle.ID).
			Strs("fields", telemetry.Names(normalized.Defaulted)).
			Msg("Reading fields defaulted")
	}

	prediction, predictErr := m.predictor.Predict(ctx, cycle.Reading)
	if predictErr != nil {
		cycle.InferenceErr = predictErr

		m.mu.RLock()
		prev, ready := m.latest, m.ready
		m.mu.RUnlock()
		if ready && prev.HasPrediction {
			cycle.Prediction = prev.Prediction
			cycle.HasPrediction = true
			cycle.Stale = true
		}
	} else {
		cycle.Prediction = prediction
		cycle.HasPrediction = true
	}

	m.publish(ctx, cycle)

	if predictErr != nil {
		return cycle, errFactory.Wrap(ErrPollCycle, predictErr)
	}

	m.logger.Info().
		Str("cycle_id", cycle.ID).
		Str("label", cycle.Prediction.Label).
		Str("cause", cycle.Prediction.Cause).
		Bool("source_ok", cycle.SourceErr == nil).
		Msg("Cycle complete")

	return cycle, nil
}

// Latest returns the most recent cycle, or false before the first one.
func (m *Monitor) Latest() (Cycle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c := m.latest
	c.Defaulted = append([]telemetry.Field(nil), c.Defaulted...)
	return c, m.ready
}

func (m *Monitor) publish(ctx context.Context, cycle Cycle) {
	m.mu.Lock()
	m.latest = cycle
	m.ready = true
	m.mu.Unlock()

	entry := cycle.Entry()

	if m.observer != nil {
		m.observer.ObserveCycle(entry)
	}
	if m.cache != nil {
		if err := m.cache.Store(ctx, entry); err != nil {
			m.logger.Warn().Err(err).Str("cycle_id", cycle.ID).Msg("Failed to cache cycle")
		}
	}
	if m.recorder != nil {
		if err := m.recorder.Record(ctx, &entry); err != nil {
			m.logger.Warn().Err(err).Str("cycle_id", cycle.ID).Msg("Failed to record cycle")
		}
	}
}

// Run polls immediately and then once per interval until ctx is done.
// Cycle errors are logged and do not stop the loop.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) error {
	errFactory := errors.New()

	if interval <= 0 {
		return errFactory.WithData(ErrInvalidRate, struct {
			Interval string
		}{
			Interval: interval.String(),
		})
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.poll(ctx)
		}
	}
}

func (m *Monitor) poll(ctx context.Context) {
	if _, err := m.PollOnce(ctx); err != nil {
		m.logger.Error().Err(err).Msg("Poll cycle failed")
	}
}
