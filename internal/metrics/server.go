package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/srt-tools/srt-rx-console/internal/stats"
)

// StatusProvider is the session surface the HTTP API reads. The supervisor
// satisfies it.
type StatusProvider interface {
	StateName() string
	SessionID() string
	Running() bool
	ConnectionStatus() bool
	ConnectedEndpoint() string
}

// SummaryFunc produces the current session's stats summary.
type SummaryFunc func() (*stats.Summary, error)

// SessionStatus is the JSON body served by the status endpoint.
type SessionStatus struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Running   bool   `json:"running"`
	Connected bool   `json:"connected"`
	Endpoint  string `json:"endpoint,omitempty"`
}

// Server provides Prometheus metrics, health checks, and the JSON status API.
type Server struct {
	addr   string
	server *http.Server
	logger *slog.Logger
}

// ServerConfig assembles a Server.
type ServerConfig struct {
	Addr    string
	Status  StatusProvider
	Summary SummaryFunc
	Logger  *slog.Logger
}

// NewServer creates the HTTP server. It does not listen until Start.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{addr: cfg.Addr, logger: cfg.Logger}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	router.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/status", s.statusHandler(cfg.Status)).Methods(http.MethodGet)
	api.HandleFunc("/summary", s.summaryHandler(cfg.Summary)).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
	return s
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// statusHandler serves the live session status. The endpoint field is only
// populated once a connection has been observed, so clients never see the
// unresolvable-host sentinel.
func (s *Server) statusHandler(provider StatusProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := SessionStatus{
			SessionID: provider.SessionID(),
			State:     provider.StateName(),
			Running:   provider.Running(),
			Connected: provider.ConnectionStatus(),
		}
		if status.Connected {
			status.Endpoint = provider.ConnectedEndpoint()
		}
		s.writeJSON(w, http.StatusOK, status)
	}
}

// summaryHandler serves the current session's stats summary, 404 when no
// stats rows exist yet.
func (s *Server) summaryHandler(summarize SummaryFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := summarize()
		if err != nil {
			s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no session statistics available"})
			return
		}
		s.writeJSON(w, http.StatusOK, summary)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("status_api_encode_failed", "error", err)
	}
}

// Start begins serving in a goroutine. Returns immediately; use Shutdown to
// stop.
func (s *Server) Start() {
	s.logger.Info("metrics_server_starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("metrics_server_error", "error", err)
		}
	}()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Debug("metrics_server_shutting_down")
	return s.server.Shutdown(ctx)
}

// Addr returns the server address.
func (s *Server) Addr() string {
	return s.addr
}
