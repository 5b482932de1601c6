package domain

import "time"

// Broadcast frame discriminator values carried in the "type" field.
const (
	MessageTypeReading = "reading"
	MessageTypeAlert   = "alert"
)

// BroadcastMessage is one frame on the subscriber stream: the entity fields
// flattened into a JSON object plus a "type" tag. Build frames through
// NewReadingMessage and NewAlertMessage so the tag always comes from the
// publishing step, never from a caller.
type BroadcastMessage map[string]any

// Type returns the frame's discriminator, or "" if the tag is missing.
func (m BroadcastMessage) Type() string {
	t, _ := m["type"].(string)
	return t
}

// Valid reports whether the frame carries a known discriminator tag.
func (m BroadcastMessage) Valid() bool {
	t := m.Type()
	return t == MessageTypeReading || t == MessageTypeAlert
}

// NewReadingMessage builds the wire frame for a raw sensor reading.
func NewReadingMessage(r Reading) BroadcastMessage {
	return BroadcastMessage{
		"type":        MessageTypeReading,
		"sensor_type": r.SensorType,
		"source":      r.Source,
		"values":      r.CloneValues(),
		"timestamp":   r.Timestamp.UTC().Format(time.RFC3339),
	}
}

// NewAlertMessage builds the wire frame for a persisted alert.
func NewAlertMessage(a Alert) BroadcastMessage {
	payload := make(map[string]float64, len(a.Payload))
	for k, v := range a.Payload {
		payload[k] = v
	}
	return BroadcastMessage{
		"type":       MessageTypeAlert,
		"id":         a.ID,
		"alert_type": a.AlertType,
		"severity":   string(a.Severity),
		"message":    a.Message,
		"payload":    payload,
		"created_at": a.CreatedAt.UTC().Format(time.RFC3339),
	}
}
