// Package alerting maps threat probabilities onto severity-tiered alerts.
package alerting

import (
	"fmt"

	"github.com/couchcryptid/coastal-threat-bridge/internal/domain"
)

// Tier thresholds. Both comparisons are strictly greater-than: a score of
// exactly 0.7 is medium, exactly 0.4 raises no alert.
const (
	highThreshold   = 0.7
	mediumThreshold = 0.4
)

// Policy converts a score and the triggering payload into an alert draft.
// Evaluation is deterministic; one reading produces at most one alert.
type Policy struct{}

// NewPolicy creates the threshold policy.
func NewPolicy() Policy {
	return Policy{}
}

// Evaluate returns the alert draft for the score, or false when the score
// does not cross the medium threshold. The draft's ID is zero until
// persistence assigns one; CreatedAt is a provisional timestamp that the
// store replaces with the committed value.
func (Policy) Evaluate(score float64, payload map[string]float64) (domain.Alert, bool) {
	var (
		severity domain.Severity
		message  string
	)
	switch {
	case score > highThreshold:
		severity = domain.SeverityHigh
		message = fmt.Sprintf("High coastal threat detected (%.2f)", score)
	case score > mediumThreshold:
		severity = domain.SeverityMedium
		message = fmt.Sprintf("Medium coastal threat detected (%.2f)", score)
	default:
		return domain.Alert{}, false
	}

	return domain.Alert{
		AlertType: domain.AlertTypeCoastalThreat,
		Severity:  severity,
		Message:   message,
		Payload:   payload,
		CreatedAt: domain.Now(),
	}, true
}
