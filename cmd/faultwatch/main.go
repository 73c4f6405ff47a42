package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/faultwatch/internal/api"
	"codeberg.org/mutker/faultwatch/internal/cache"
	"codeberg.org/mutker/faultwatch/internal/config"
	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/history"
	"codeberg.org/mutker/faultwatch/internal/inference"
	"codeberg.org/mutker/faultwatch/internal/logger"
	"codeberg.org/mutker/faultwatch/internal/metrics"
	"codeberg.org/mutker/faultwatch/internal/model"
	"codeberg.org/mutker/faultwatch/internal/monitor"
	"codeberg.org/mutker/faultwatch/internal/pid"
	"codeberg.org/mutker/faultwatch/internal/source"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type app struct {
	cfg      *config.Config
	monitor  *monitor.Monitor
	server   *api.Server
	recorder history.Recorder
	cache    cache.Cache
	out      io.Writer
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code. Every deferred cleanup has run by the
// time it returns.
func run(args []string) int {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		return 1
	}

	logger.Init(logger.ParseLevel(cfg.LogLevel.String()), logger.IsService())
	logger.Debug().Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(ctx, cancel)

	if !cfg.Once {
		if err := pid.Write(cfg.PIDFile); err != nil {
			logError(err, "Failed to write PID file")
			return 1
		}
		defer func() {
			if err := pid.Remove(cfg.PIDFile); err != nil {
				logger.Error().Err(err).Msg("Failed to remove PID file")
			}
		}()
	}

	a, err := initApp(ctx, cfg)
	if err != nil {
		logError(err, "Failed to initialize")
		return 1
	}
	defer a.cleanup()

	if err := a.run(ctx, cancel); err != nil {
		logError(err, "Error in main loop")
		return 1
	}
	return 0
}

func initApp(ctx context.Context, cfg *config.Config) (*app, error) {
	errFactory := errors.New()

	loader := model.NewLoader(cfg.Model, model.WithLogger(logger.New().With("model")))
	m, err := loader.Load(ctx)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrLoadModel, err)
	}

	svc, err := inference.New(m)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrBuildEngine, err)
	}

	feed, err := source.NewFeed(cfg.Source)
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	recorder, err := history.NewService(cfg.History, logger.New().With("history"))
	if err != nil {
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	store, err := cache.New(ctx, cfg.Cache, logger.New().With("cache"))
	if err != nil {
		recorder.Close()
		return nil, errFactory.Wrap(errors.ErrInitApp, err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(reg)

	a := &app{
		cfg: cfg,
		out: os.Stdout,
		monitor: monitor.New(feed, svc,
			monitor.WithRecorder(recorder),
			monitor.WithCache(store),
			monitor.WithObserver(collector),
		),
		recorder: recorder,
		cache:    store,
	}

	if cfg.Listen != "" && !cfg.Once {
		opts := []api.Option{api.WithMetrics(collector)}
		switch {
		case cfg.Cache.Enabled:
			opts = append(opts, api.WithHistory(store))
		case cfg.History.Enabled:
			opts = append(opts, api.WithHistory(recorder))
		}
		a.server = api.New(cfg.Listen, a.monitor, opts...)
	}

	logger.Info().
		Str("model", m.Name).
		Str("model_version", m.Version).
		Str("source", cfg.Source.URL).
		Int("interval", cfg.Interval).
		Bool("history", cfg.History.Enabled).
		Bool("cache", cfg.Cache.Enabled).
		Str("listen", cfg.Listen).
		Msg("faultwatch started")

	return a, nil
}

func (a *app) run(ctx context.Context, cancel context.CancelFunc) error {
	errFactory := errors.New()

	if a.cfg.Once {
		cycle, err := a.monitor.PollOnce(ctx)
		for _, w := range cycle.Warnings() {
			fmt.Fprintf(a.out, "warning: %s\n", w)
		}
		if err != nil {
			return errFactory.Wrap(errors.ErrMainLoop, err)
		}
		fmt.Fprintf(a.out, "%s: %s\n", cycle.Prediction.Label, cycle.Prediction.Cause)
		return nil
	}

	serverDone := make(chan struct{})
	if a.server != nil {
		go func() {
			defer close(serverDone)
			if err := a.server.Run(ctx); err != nil {
				logError(err, "Status API failed")
				cancel()
			}
		}()
	} else {
		close(serverDone)
	}

	interval := time.Duration(a.cfg.Interval) * time.Second
	if err := a.monitor.Run(ctx, interval); err != nil {
		cancel()
		<-serverDone
		return errFactory.Wrap(errors.ErrMainLoop, err)
	}

	<-serverDone
	return nil
}

func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		logger.Info().Msg("Received termination signal.")
		cancel()
	case <-ctx.Done():
	}
}

func (a *app) cleanup() {
	if err := a.recorder.Close(); err != nil {
		logError(err, "Failed to close history")
	}
	if err := a.cache.Close(); err != nil {
		logError(err, "Failed to close cache")
	}
	logger.Info().Msg("Exiting...")
}

func logError(err error, msg string) {
	var appErr errors.Error
	if errors.As(err, &appErr) {
		logger.ErrorWithCode(appErr).Msg(msg)
		return
	}
	logger.Error().Err(err).Msg(msg)
}
