package bridge

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// pongWait is how long a subscriber may stay silent before its
	// connection is considered dead. Pings go out at pingPeriod, which must
	// be shorter than pongWait.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxInboundBytes caps inbound frames. Subscribers are read-silent;
	// anything they send is logged and discarded.
	maxInboundBytes = 512
)

// Subscriber wraps one websocket connection registered with the hub. The hub
// owns the subscriber from registration to disconnect; frames reach the
// connection through the buffered send channel drained by writePump.
type Subscriber struct {
	ID         string
	RemoteAddr string

	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	writeTimeout time.Duration
	logger       *slog.Logger
}

func newSubscriber(hub *Hub, conn *websocket.Conn, bufferSize int, writeTimeout time.Duration, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		ID:           uuid.NewString(),
		RemoteAddr:   conn.RemoteAddr().String(),
		hub:          hub,
		conn:         conn,
		send:         make(chan []byte, bufferSize),
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// readPump consumes the connection until it closes or errors, then
// unregisters. Inbound data is logged, never acted upon.
func (s *Subscriber) readPump() {
	defer func() {
		s.hub.Unregister(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxInboundBytes)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("subscriber read error", "id", s.ID, "remote", s.RemoteAddr, "error", err)
			}
			return
		}
		s.logger.Debug("ignoring inbound message from subscriber", "id", s.ID, "bytes", len(message))
	}
}

// writePump streams frames from the send channel to the connection, with a
// bounded write deadline per frame, and keeps the connection alive with
// pings. Exits when the hub closes the send channel or a write fails.
func (s *Subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if !ok {
				// The hub dropped us.
				s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				s.logger.Warn("subscriber write failed", "id", s.ID, "remote", s.RemoteAddr, "error", err)
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
