package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/coastal-threat-bridge/internal/domain"
)

const defaultAlertListLimit = 50

// AlertLister reads back recent alerts for the dashboard.
type AlertLister interface {
	ListAlerts(ctx context.Context, limit int) ([]domain.Alert, error)
}

// Server exposes the ingestion API: reading ingestion, alert listing, health,
// and metrics.
type Server struct {
	httpServer   *http.Server
	orchestrator *Orchestrator
	alerts       AlertLister
	logger       *slog.Logger
}

// NewServer creates the API HTTP server on the given address.
func NewServer(addr string, orchestrator *Orchestrator, alerts AlertLister, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		orchestrator: orchestrator,
		alerts:       alerts,
		logger:       logger,
	}

	mux.HandleFunc("POST /ingest/reading", s.handleIngestReading)
	mux.HandleFunc("GET /alerts", s.handleListAlerts)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("api server starting", "addr", s.httpServer.Addr)
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

// readingIn is the ingest request body. Timestamp is optional; the store
// assigns one when absent.
type readingIn struct {
	SensorType string             `json:"sensor_type"`
	Source     string             `json:"source"`
	Values     map[string]float64 `json:"values"`
	Timestamp  *time.Time         `json:"timestamp"`
}

func (in readingIn) validate() error {
	if in.SensorType == "" {
		return errors.New("sensor_type is required")
	}
	if in.Source == "" {
		return errors.New("source is required")
	}
	if len(in.Values) == 0 {
		return errors.New("values must be a non-empty numeric map")
	}
	return nil
}

func (s *Server) handleIngestReading(w http.ResponseWriter, r *http.Request) {
	var in readingIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid input data: " + err.Error()})
		return
	}
	if err := in.validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid input data: " + err.Error()})
		return
	}

	reading := domain.Reading{
		SensorType: in.SensorType,
		Source:     in.Source,
		Values:     in.Values,
	}
	if in.Timestamp != nil {
		reading.Timestamp = *in.Timestamp
	}

	prob, err := s.orchestrator.Ingest(r.Context(), reading)
	if err != nil {
		s.logger.Error("ingest failed", "error", err, "sensor_type", in.SensorType)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to store reading"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "probability": prob})
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	limit := defaultAlertListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	alerts, err := s.alerts.ListAlerts(r.Context(), limit)
	if err != nil {
		s.logger.Error("list alerts failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list alerts"})
		return
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "coastal-threat-backend", "status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
