package domain

import "time"

// Severity is the discrete threat tier derived from a probability.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

// AlertTypeCoastalThreat is the only alert type this pipeline produces.
const AlertTypeCoastalThreat = "coastal_threat"

// Alert records a threat score crossing a severity threshold. The ID and the
// authoritative CreatedAt are assigned by persistence; an unsaved draft has a
// zero ID. Alerts are never mutated after creation.
type Alert struct {
	ID        int64              `json:"id"`
	AlertType string             `json:"alert_type"`
	Severity  Severity           `json:"severity"`
	Message   string             `json:"message"`
	Payload   map[string]float64 `json:"payload"`
	CreatedAt time.Time          `json:"created_at"`
}
