// Package ingest drives a sensor reading through scoring, persistence, and
// the best-effort fan-out tail.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/coastal-threat-bridge/internal/domain"
	"github.com/couchcryptid/coastal-threat-bridge/internal/observability"
)

// Scorer turns a feature vector into a threat probability. Never fails.
type Scorer interface {
	Predict(fv domain.FeatureVector) float64
}

// AlertPolicy maps a probability to an alert draft, or false for no alert.
type AlertPolicy interface {
	Evaluate(score float64, payload map[string]float64) (domain.Alert, bool)
}

// Store persists readings and alerts. Both writes either commit or return a
// hard error.
type Store interface {
	SaveReading(ctx context.Context, r domain.Reading) (domain.Reading, error)
	SaveAlert(ctx context.Context, a domain.Alert) (domain.Alert, error)
}

// Publisher submits frames to the broadcast bridge.
type Publisher interface {
	PublishReading(ctx context.Context, r domain.Reading) error
	PublishAlert(ctx context.Context, a domain.Alert) error
}

// Notifier sends one SMS. Pass a nil Notifier to disable the side-channel.
type Notifier interface {
	Send(ctx context.Context, body, to string) (string, error)
}

// Orchestrator runs the ingestion state machine per reading, strictly in
// order: score, persist the reading, broadcast it, evaluate the alert policy,
// persist and broadcast any alert, and notify for high severity. Only the
// primary reading write can fail the call; every step after it is best-effort.
type Orchestrator struct {
	scorer     Scorer
	policy     AlertPolicy
	store      Store
	publisher  Publisher
	notifier   Notifier
	recipients []string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(
	scorer Scorer,
	policy AlertPolicy,
	store Store,
	publisher Publisher,
	notifier Notifier,
	recipients []string,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Orchestrator {
	return &Orchestrator{
		scorer:     scorer,
		policy:     policy,
		store:      store,
		publisher:  publisher,
		notifier:   notifier,
		recipients: recipients,
		logger:     logger,
		metrics:    metrics,
	}
}

// Ingest processes one reading and returns its threat probability. The
// returned error is non-nil only when the reading itself could not be
// persisted; fan-out and notification failures are logged and swallowed.
func (o *Orchestrator) Ingest(ctx context.Context, reading domain.Reading) (float64, error) {
	start := time.Now()
	defer func() {
		o.metrics.IngestDuration.Observe(time.Since(start).Seconds())
	}()

	prob := o.scorer.Predict(reading.Features())

	saved, err := o.store.SaveReading(ctx, reading)
	if err != nil {
		o.metrics.IngestFailures.Inc()
		return 0, fmt.Errorf("persist reading: %w", err)
	}
	o.metrics.ReadingsIngested.Inc()

	if err := o.publisher.PublishReading(ctx, saved); err != nil {
		o.logger.Warn("reading broadcast failed", "error", err, "sensor_type", saved.SensorType)
		o.metrics.GatewayFailures.Inc()
	}

	if draft, ok := o.policy.Evaluate(prob, saved.CloneValues()); ok {
		o.handleAlert(ctx, draft, prob)
	}

	return prob, nil
}

// handleAlert persists the draft and runs the alert's fan-out tail. The alert
// broadcast fires only after the insert commits; a failed insert suppresses
// it without affecting the reading's response.
func (o *Orchestrator) handleAlert(ctx context.Context, draft domain.Alert, prob float64) {
	alert, err := o.store.SaveAlert(ctx, draft)
	if err != nil {
		o.logger.Error("persist alert failed", "error", err, "severity", draft.Severity)
		return
	}
	o.metrics.AlertsCreated.WithLabelValues(string(alert.Severity)).Inc()
	o.logger.Info("alert created", "id", alert.ID, "severity", alert.Severity, "probability", prob)

	if err := o.publisher.PublishAlert(ctx, alert); err != nil {
		o.logger.Warn("alert broadcast failed", "error", err, "alert_id", alert.ID)
		o.metrics.GatewayFailures.Inc()
	}

	if alert.Severity == domain.SeverityHigh {
		o.notifyRecipients(ctx, alert, prob)
	}
}

func (o *Orchestrator) notifyRecipients(ctx context.Context, alert domain.Alert, prob float64) {
	if o.notifier == nil || len(o.recipients) == 0 {
		o.logger.Debug("sms notification skipped, not configured", "alert_id", alert.ID)
		return
	}

	body := fmt.Sprintf("ALERT %d: Coastal threat probability %.2f", alert.ID, prob)
	for _, to := range o.recipients {
		sid, err := o.notifier.Send(ctx, body, to)
		if err != nil {
			o.logger.Warn("sms send failed", "error", err, "to", to, "alert_id", alert.ID)
			o.metrics.SMSFailures.Inc()
			continue
		}
		o.metrics.SMSSent.Inc()
		o.logger.Debug("sms delivered", "to", to, "sid", sid)
	}
}
