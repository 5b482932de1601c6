// Package bridge implements the real-time broadcast bridge: an in-memory
// registry of websocket subscribers fed by an out-of-band publish endpoint.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/coastal-threat-bridge/internal/domain"
	"github.com/couchcryptid/coastal-threat-bridge/internal/observability"
)

// archiveTimeout bounds a single archive write so a slow Kafka broker cannot
// stall the fan-out loop.
const archiveTimeout = 5 * time.Second

// ErrHubStopped is returned by Publish after the hub's event loop has exited.
var ErrHubStopped = errors.New("hub stopped")

// Archiver receives a copy of every frame that passes through the hub.
type Archiver interface {
	Archive(ctx context.Context, msgType string, frame []byte) error
}

// frame is a serialized broadcast message queued for delivery.
type frame struct {
	msgType string
	data    []byte
}

// Hub owns the set of registered subscribers. All mutation happens on the
// single goroutine running Run; other goroutines hand work over through the
// register, unregister, and broadcast channels, so the subscriber set needs
// no locking.
type Hub struct {
	register    chan *Subscriber
	unregister  chan *Subscriber
	broadcast   chan frame
	done        chan struct{}
	subscribers map[*Subscriber]struct{}

	archiver Archiver // nil when archiving is disabled
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewHub creates a hub. Pass a nil archiver to disable frame archiving.
func NewHub(archiver Archiver, logger *slog.Logger, metrics *observability.Metrics) *Hub {
	return &Hub{
		register:    make(chan *Subscriber),
		unregister:  make(chan *Subscriber),
		broadcast:   make(chan frame, 64),
		done:        make(chan struct{}),
		subscribers: make(map[*Subscriber]struct{}),
		archiver:    archiver,
		logger:      logger,
		metrics:     metrics,
	}
}

// Register hands a subscriber to the owning goroutine. Callers must not
// register the same subscriber twice. No-op once the hub has stopped.
func (h *Hub) Register(s *Subscriber) {
	select {
	case h.register <- s:
	case <-h.done:
	}
}

// Unregister removes a subscriber. Safe to call for a subscriber the hub has
// already dropped, and after the hub has stopped.
func (h *Hub) Unregister(s *Subscriber) {
	select {
	case h.unregister <- s:
	case <-h.done:
	}
}

// Publish serializes msg once and queues it for delivery to every currently
// registered subscriber. Frames queue in call order, which fixes the single
// global delivery order seen by all subscribers.
func (h *Hub) Publish(ctx context.Context, msg domain.BroadcastMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("serialize broadcast message: %w", err)
	}
	select {
	case h.broadcast <- frame{msgType: msg.Type(), data: data}:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes the hub's event loop until the context is cancelled, at which
// point every registered subscriber is closed.
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("broadcast hub started")
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("broadcast hub stopping", "subscribers", len(h.subscribers))
			close(h.done)
			for s := range h.subscribers {
				h.drop(s)
			}
			return

		case s := <-h.register:
			h.subscribers[s] = struct{}{}
			h.metrics.SubscribersConnected.Set(float64(len(h.subscribers)))
			h.logger.Info("subscriber registered", "id", s.ID, "remote", s.RemoteAddr, "total", len(h.subscribers))

		case s := <-h.unregister:
			if _, ok := h.subscribers[s]; ok {
				h.drop(s)
				h.logger.Info("subscriber unregistered", "id", s.ID, "remote", s.RemoteAddr, "total", len(h.subscribers))
			}

		case f := <-h.broadcast:
			h.deliver(ctx, f)
		}
	}
}

// deliver fans one frame out to every subscriber. A subscriber whose send
// buffer is full cannot keep up and is dropped in the same pass; it never
// aborts delivery to the rest.
func (h *Hub) deliver(ctx context.Context, f frame) {
	h.metrics.BroadcastsPublished.WithLabelValues(f.msgType).Inc()

	if len(h.subscribers) == 0 {
		h.logger.Debug("no subscribers connected, dropping frame", "type", f.msgType)
	}

	for s := range h.subscribers {
		select {
		case s.send <- f.data:
			h.metrics.DeliveriesSucceeded.Inc()
		default:
			h.logger.Warn("subscriber send buffer full, dropping subscriber", "id", s.ID, "remote", s.RemoteAddr)
			h.metrics.DeliveriesFailed.Inc()
			h.drop(s)
		}
	}

	if h.archiver != nil {
		actx, cancel := context.WithTimeout(ctx, archiveTimeout)
		if err := h.archiver.Archive(actx, f.msgType, f.data); err != nil {
			h.logger.Warn("archive write failed", "error", err, "type", f.msgType)
			h.metrics.ArchiveFailures.Inc()
		} else {
			h.metrics.ArchiveMessages.Inc()
		}
		cancel()
	}
}

// drop removes a subscriber from the set and closes its send channel, which
// terminates its write pump. Only called from the Run goroutine.
func (h *Hub) drop(s *Subscriber) {
	delete(h.subscribers, s)
	close(s.send)
	h.metrics.SubscribersConnected.Set(float64(len(h.subscribers)))
}
