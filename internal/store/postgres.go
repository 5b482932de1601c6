// Package store persists sensor readings and alerts in Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/couchcryptid/coastal-threat-bridge/internal/domain"
)

// ErrPersistence marks a hard storage failure. A failed reading write aborts
// the ingestion request; a failed alert write suppresses that alert's
// broadcast but not the reading's success response.
var ErrPersistence = errors.New("persistence failure")

const schema = `
CREATE TABLE IF NOT EXISTS sensor_readings (
	id          BIGSERIAL PRIMARY KEY,
	sensor_type TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT 'unknown',
	"values"    JSONB NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_sensor_readings_type ON sensor_readings (sensor_type);

CREATE TABLE IF NOT EXISTS alerts (
	id         BIGSERIAL PRIMARY KEY,
	alert_type TEXT NOT NULL,
	severity   TEXT NOT NULL,
	message    TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts (created_at DESC);
`

// Postgres stores readings and alerts. Safe for concurrent use; *sql.DB
// pools connections internally.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to the database at databaseURL.
func Open(databaseURL string, logger *slog.Logger) (*Postgres, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return New(db, logger), nil
}

// New wraps an existing connection pool. Used by tests to inject a mock.
func New(db *sql.DB, logger *slog.Logger) *Postgres {
	return &Postgres{db: db, logger: logger}
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	p.logger.Info("database schema checked")
	return nil
}

// Ping verifies the database is reachable.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// SaveReading inserts the reading and returns it with the assigned ID and
// committed timestamp. A zero Timestamp means the server assigns one.
func (p *Postgres) SaveReading(ctx context.Context, r domain.Reading) (domain.Reading, error) {
	values, err := json.Marshal(r.Values)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("%w: encode reading values: %v", ErrPersistence, err)
	}

	var recordedAt sql.NullTime
	if !r.Timestamp.IsZero() {
		recordedAt = sql.NullTime{Time: r.Timestamp, Valid: true}
	}

	const q = `INSERT INTO sensor_readings (sensor_type, source, "values", recorded_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
		RETURNING id, recorded_at`

	saved := r
	err = p.db.QueryRowContext(ctx, q, r.SensorType, r.Source, values, recordedAt).
		Scan(&saved.ID, &saved.Timestamp)
	if err != nil {
		return domain.Reading{}, fmt.Errorf("%w: insert reading: %v", ErrPersistence, err)
	}
	return saved, nil
}

// SaveAlert inserts the alert draft and returns it with the assigned ID and
// committed creation time.
func (p *Postgres) SaveAlert(ctx context.Context, a domain.Alert) (domain.Alert, error) {
	payload, err := json.Marshal(a.Payload)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("%w: encode alert payload: %v", ErrPersistence, err)
	}

	const q = `INSERT INTO alerts (alert_type, severity, message, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	saved := a
	err = p.db.QueryRowContext(ctx, q, a.AlertType, a.Severity, a.Message, payload).
		Scan(&saved.ID, &saved.CreatedAt)
	if err != nil {
		return domain.Alert{}, fmt.Errorf("%w: insert alert: %v", ErrPersistence, err)
	}
	return saved, nil
}

// ListAlerts returns the most recent alerts, newest first.
func (p *Postgres) ListAlerts(ctx context.Context, limit int) ([]domain.Alert, error) {
	const q = `SELECT id, alert_type, severity, message, payload, created_at
		FROM alerts ORDER BY created_at DESC LIMIT $1`

	rows, err := p.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list alerts: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var alerts []domain.Alert
	for rows.Next() {
		var (
			a       domain.Alert
			payload []byte
		)
		if err := rows.Scan(&a.ID, &a.AlertType, &a.Severity, &a.Message, &payload, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan alert: %v", ErrPersistence, err)
		}
		if err := json.Unmarshal(payload, &a.Payload); err != nil {
			return nil, fmt.Errorf("%w: decode alert payload: %v", ErrPersistence, err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list alerts: %v", ErrPersistence, err)
	}
	return alerts, nil
}
