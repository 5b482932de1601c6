// Package archive mirrors broadcast frames to a Kafka topic for replay and
// offline analysis. The sink is strictly best-effort; a failed write never
// affects live delivery.
package archive

import (
	"context"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/coastal-threat-bridge/internal/domain"
)

// KafkaArchiver produces every broadcast frame to the archive topic.
// It implements bridge.Archiver.
type KafkaArchiver struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewKafkaArchiver creates a Kafka producer for the archive topic.
func NewKafkaArchiver(brokers []string, topic string, logger *slog.Logger) *KafkaArchiver {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &KafkaArchiver{writer: w, logger: logger}
}

// Archive publishes one frame, keyed by message type so readings and alerts
// for a type land on the same partition in order.
func (a *KafkaArchiver) Archive(ctx context.Context, msgType string, frame []byte) error {
	return a.writer.WriteMessages(ctx, buildMessage(msgType, frame, domain.Now()))
}

func (a *KafkaArchiver) Close() error {
	return a.writer.Close()
}

// buildMessage wraps a frame into a Kafka message with provenance headers.
func buildMessage(msgType string, frame []byte, archivedAt time.Time) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(msgType),
		Value: frame,
		Headers: []kafkago.Header{
			{Key: "message_type", Value: []byte(msgType)},
			{Key: "archived_at", Value: []byte(archivedAt.Format(time.RFC3339))},
		},
	}
}
