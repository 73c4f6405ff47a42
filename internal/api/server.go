package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"codeberg.org/mutker/faultwatch/internal/errors"
	"codeberg.org/mutker/faultwatch/internal/history"
	"codeberg.org/mutker/faultwatch/internal/logger"
	"codeberg.org/mutker/faultwatch/internal/metrics"
	"github.com/gorilla/mux"
)

const (
	unmatchedRoute      = "unmatched"
	defaultHistoryLimit = 20
	maxHistoryLimit     = 1000
	shutdownTimeout     = 10 * time.Second
)

type Server struct {
	router  *mux.Router
	status  StatusProvider
	history HistoryProvider
	metrics *metrics.Collector
	logger  logger.Logger
	srv     *http.Server
}

type Option func(*Server)

// WithHistory enables GET /api/v1/history.
func WithHistory(h HistoryProvider) Option {
	return func(s *Server) { s.history = h }
}

// WithMetrics enables GET /metrics and request instrumentation.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

func WithLogger(log logger.Logger) Option {
	return func(s *Server) { s.logger = log }
}

func New(addr string, status StatusProvider, opts ...Option) *Server {
	s := &Server{
		router: mux.NewRouter(),
		status: status,
		logger: logger.New().With("api"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.instrument)
	s.router.NotFoundHandler = s.instrument(http.HandlerFunc(s.notFoundHandler))
	s.router.MethodNotAllowedHandler = s.instrument(http.HandlerFunc(s.methodNotAllowedHandler))
	s.router.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/status", s.statusHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/history", s.historyHandler).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errFactory := errors.New()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("API listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errFactory.Wrap(ErrServe, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.srv.SetKeepAlivesEnabled(false)
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errFactory.Wrap(ErrShutdown, err)
	}
	s.logger.Info().Msg("API stopped")
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) statusHandler(w http.ResponseWriter, _ *http.Request) {
	cycle, ok := s.status.Latest()
	if !ok {
		s.writeError(w, http.StatusServiceUnavailable, "no cycle completed yet")
		return
	}
	s.writeJSON(w, http.StatusOK, newStatus(cycle))
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read history")
		s.writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) notFoundHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeError(w, http.StatusNotFound, "not found")
}

func (s *Server) methodNotAllowedHandler(w http.ResponseWriter, _ *http.Request) {
	s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := unmatchedRoute
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, rec.status, time.Since(start))
		}
		s.logger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("Request served")
	})
}
