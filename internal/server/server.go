// Package server exposes the risk analysis engine over HTTP: POST /analyze
// for the dashboard and browser extension, GET /healthz for probes.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/policyxray/policyxray/internal/analyzer"
	"github.com/policyxray/policyxray/internal/cache"
	"github.com/policyxray/policyxray/internal/config"
	"github.com/policyxray/policyxray/internal/enrich"
	"github.com/policyxray/policyxray/internal/events"
	"github.com/policyxray/policyxray/internal/telemetry"
)

// Server wraps the HTTP components of the engine. All referenced state is
// immutable or internally synchronized; one Server serves all requests.
type Server struct {
	mux       *http.ServeMux
	cfg       *config.Config
	analyzer  *analyzer.Analyzer
	enricher  enrich.Enricher
	cache     cache.Cache
	emitter   *events.Emitter
	telemetry *telemetry.Provider
	logger    *slog.Logger
	inFlight  chan struct{}
}

// New wires the engine behind the HTTP routes.
func New(cfg *config.Config, az *analyzer.Analyzer, enricher enrich.Enricher, c cache.Cache, emitter *events.Emitter, tel *telemetry.Provider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mux:       http.NewServeMux(),
		cfg:       cfg,
		analyzer:  az,
		enricher:  enricher,
		cache:     c,
		emitter:   emitter,
		telemetry: tel,
		logger:    logger,
		inFlight:  make(chan struct{}, cfg.Server.MaxInFlightRequests),
	}

	s.mux.HandleFunc("/healthz", s.withCORS(s.handleHealth))
	s.mux.HandleFunc("/analyze", s.withCORS(s.handleAnalyze))
	return s
}

// Handler exposes the routed mux (used by httptest).
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start runs the HTTP server on the given address until it fails or ctx is
// canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: time.Duration(s.cfg.Server.ReadHeaderTimeoutSeconds) * time.Second,
		ReadTimeout:       time.Duration(s.cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("policyxray listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// withCORS sets the headers the dashboard and extension need and answers
// preflight requests.
func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	allowed := strings.Join(s.cfg.Server.AllowedOrigins, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowed)
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError emits the {"error": ...} shape the frontend surfaces verbatim.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

// acquire reserves an in-flight slot, reporting false when the server is at
// its concurrency limit.
func (s *Server) acquire() (func(), bool) {
	select {
	case s.inFlight <- struct{}{}:
		return func() { <-s.inFlight }, true
	default:
		return nil, false
	}
}
