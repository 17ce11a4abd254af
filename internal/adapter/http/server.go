package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/epw-weather-service/internal/adapter/catalog"
	"github.com/couchcryptid/epw-weather-service/internal/cache"
	"github.com/couchcryptid/epw-weather-service/internal/observability"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker = sharedobs.ReadinessChecker

// ReadinessFunc adapts a function to ReadinessChecker.
type ReadinessFunc func(ctx context.Context) error

func (f ReadinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }

// AllReady is ready when every checker is.
func AllReady(checkers ...ReadinessChecker) ReadinessChecker {
	return ReadinessFunc(func(ctx context.Context) error {
		for _, c := range checkers {
			if err := c.CheckReadiness(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}

// StationStore is the catalog view served under /v1/stations.
type StationStore interface {
	List(ctx context.Context) ([]catalog.Station, error)
	Get(ctx context.Context, name string) (catalog.Station, error)
}

// Options configures the routes beyond health and metrics.
type Options struct {
	Ready          ReadinessChecker
	Stations       StationStore // nil leaves /v1/stations unrouted
	Metrics        *observability.Metrics
	CacheSize      int
	MaxUploadBytes int64
	Clock          clockwork.Clock
}

// Server exposes health, readiness, metrics, and the conversion API.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	opts       Options
	converted  *cache.LRU[string, rendered]
}

// rendered is a cached conversion response.
type rendered struct {
	contentType string
	body        []byte
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and the
// /v1 conversion routes.
func NewServer(addr string, opts Options, logger *slog.Logger) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Ready == nil {
		opts.Ready = ReadinessFunc(func(context.Context) error { return nil })
	}
	router := mux.NewRouter()

	s := &Server{
		logger:    logger,
		opts:      opts,
		converted: cache.New[string, rendered](opts.CacheSize),
	}

	router.HandleFunc("/healthz", sharedobs.LivenessHandler()).Methods(http.MethodGet)
	router.HandleFunc("/readyz", sharedobs.ReadinessHandler(opts.Ready)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Routes stay on the root router so a method mismatch answers 405.
	router.HandleFunc("/v1/convert/{format}", s.handleConvert).Methods(http.MethodPost)
	router.HandleFunc("/v1/summary", s.handleSummary).Methods(http.MethodPost)
	if opts.Stations != nil {
		router.HandleFunc("/v1/stations", s.handleListStations).Methods(http.MethodGet)
		router.HandleFunc("/v1/stations/{name}", s.handleGetStation).Methods(http.MethodGet)
	}

	handler := handlers.CustomLoggingHandler(io.Discard, router, s.logRequest)
	handler = handlers.CompressHandler(handler)
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(false))(handler)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	level := slog.LevelInfo
	switch p.URL.Path {
	case "/healthz", "/readyz", "/metrics":
		level = slog.LevelDebug
	}
	s.logger.Log(p.Request.Context(), level, "http request",
		"method", p.Request.Method,
		"path", p.URL.Path,
		"status", p.StatusCode,
		"bytes", p.Size,
		"duration", time.Since(p.TimeStamp),
	)
}

func (s *Server) handleListStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.opts.Stations.List(r.Context())
	if err != nil {
		s.logger.Error("list stations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stations": stations, "count": len(stations)})
}

func (s *Server) handleGetStation(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	station, err := s.opts.Stations.Get(r.Context(), name)
	if errors.Is(err, catalog.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("get station failed", "error", err, "name", name)
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}
	writeJSON(w, http.StatusOK, station)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
