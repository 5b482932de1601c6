package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/coastal-threat-bridge/internal/config"
	"github.com/couchcryptid/coastal-threat-bridge/internal/domain"
)

// SubscriberServer accepts long-lived websocket subscriber connections and
// registers each with the hub. Every connection is handled independently; one
// slow or broken subscriber never blocks another's registration or teardown.
type SubscriberServer struct {
	httpServer *http.Server
	hub        *Hub
	upgrader   websocket.Upgrader
	bufferSize int
	writeWait  time.Duration
	logger     *slog.Logger
}

// NewSubscriberServer creates the websocket listener on cfg.BridgeWSAddr.
func NewSubscriberServer(cfg *config.Config, hub *Hub, logger *slog.Logger) *SubscriberServer {
	mux := http.NewServeMux()

	s := &SubscriberServer{
		httpServer: &http.Server{
			Addr:        cfg.BridgeWSAddr,
			Handler:     mux,
			ReadTimeout: 0, // websocket connections are long-lived
			IdleTimeout: 0,
		},
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboards connect from arbitrary origins; subscriber
			// authentication is out of scope.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		bufferSize: cfg.SendBufferSize,
		writeWait:  cfg.WriteTimeout,
		logger:     logger,
	}

	mux.HandleFunc("GET /ws", s.handleSubscribe)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *SubscriberServer) Start() error {
	s.logger.Info("subscriber server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting new subscribers. Existing connections are torn
// down by the hub when its context is cancelled.
func (s *SubscriberServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *SubscriberServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *SubscriberServer) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	sub := newSubscriber(s.hub, conn, s.bufferSize, s.writeWait, s.logger)
	s.hub.Register(sub)

	go sub.writePump()
	go sub.readPump()
}

// Broadcaster accepts a tagged frame for fan-out.
type Broadcaster interface {
	Publish(ctx context.Context, msg domain.BroadcastMessage) error
}

// PublishServer exposes the out-of-band publish endpoint the ingestion side
// POSTs broadcast requests to, plus health and metrics routes.
type PublishServer struct {
	httpServer *http.Server
	hub        Broadcaster
	logger     *slog.Logger
}

// NewPublishServer creates the publish HTTP server on the given address.
func NewPublishServer(addr string, hub Broadcaster, logger *slog.Logger) *PublishServer {
	mux := http.NewServeMux()

	s := &PublishServer{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		hub:    hub,
		logger: logger,
	}

	mux.HandleFunc("POST /broadcast", s.handleBroadcast)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *PublishServer) Start() error {
	s.logger.Info("publish server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *PublishServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *PublishServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *PublishServer) handleBroadcast(w http.ResponseWriter, r *http.Request) {
	var msg domain.BroadcastMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "invalid JSON"})
		return
	}
	if !msg.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "missing or unknown message type"})
		return
	}

	if err := s.hub.Publish(r.Context(), msg); err != nil {
		s.logger.Error("broadcast publish failed", "error", err, "type", msg.Type())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": "broadcast unavailable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "broadcast scheduled"})
}

func (s *PublishServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response body
}
