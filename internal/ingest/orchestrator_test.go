package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/coastal-threat-bridge/internal/alerting"
	"github.com/couchcryptid/coastal-threat-bridge/internal/domain"
	"github.com/couchcryptid/coastal-threat-bridge/internal/ingest"
	"github.com/couchcryptid/coastal-threat-bridge/internal/observability"
	"github.com/couchcryptid/coastal-threat-bridge/internal/scoring"
	"github.com/couchcryptid/coastal-threat-bridge/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- mocks ---

type mockStore struct {
	savedReadings []domain.Reading
	savedAlerts   []domain.Alert
	readingErr    error
	alertErr      error
	nextID        int64
}

func (m *mockStore) SaveReading(_ context.Context, r domain.Reading) (domain.Reading, error) {
	if m.readingErr != nil {
		return domain.Reading{}, m.readingErr
	}
	m.nextID++
	r.ID = m.nextID
	m.savedReadings = append(m.savedReadings, r)
	return r, nil
}

func (m *mockStore) SaveAlert(_ context.Context, a domain.Alert) (domain.Alert, error) {
	if m.alertErr != nil {
		return domain.Alert{}, m.alertErr
	}
	m.nextID++
	a.ID = m.nextID
	m.savedAlerts = append(m.savedAlerts, a)
	return a, nil
}

type mockPublisher struct {
	readings []domain.Reading
	alerts   []domain.Alert
	err      error
}

func (m *mockPublisher) PublishReading(_ context.Context, r domain.Reading) error {
	if m.err != nil {
		return m.err
	}
	m.readings = append(m.readings, r)
	return nil
}

func (m *mockPublisher) PublishAlert(_ context.Context, a domain.Alert) error {
	if m.err != nil {
		return m.err
	}
	m.alerts = append(m.alerts, a)
	return nil
}

type mockNotifier struct {
	sent []string // recipients
	err  error
}

func (m *mockNotifier) Send(_ context.Context, _, to string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, to)
	return fmt.Sprintf("SM%d", len(m.sent)), nil
}

type fixture struct {
	orchestrator *ingest.Orchestrator
	store        *mockStore
	publisher    *mockPublisher
	notifier     *mockNotifier
}

func newFixture(recipients []string) *fixture {
	f := &fixture{
		store:     &mockStore{},
		publisher: &mockPublisher{},
		notifier:  &mockNotifier{},
	}
	f.orchestrator = ingest.NewOrchestrator(
		scoring.NewEngine(nil, discardLogger()),
		alerting.NewPolicy(),
		f.store,
		f.publisher,
		f.notifier,
		recipients,
		discardLogger(),
		observability.NewMetricsForTesting(),
	)
	return f
}

func reading(values map[string]float64) domain.Reading {
	return domain.Reading{SensorType: "combined", Source: "buoy_3", Values: values}
}

func TestIngestMediumThreat(t *testing.T) {
	f := newFixture([]string{"+15550101"})

	// Heuristic: 0.4*0.75 + 0.3*0.8 + 0.3*0.5 = 0.69 -> medium.
	prob, err := f.orchestrator.Ingest(context.Background(), reading(map[string]float64{
		"sea_level": 1.5, "wind_speed": 40, "salinity": 34, "temp": 25, "chl_a": 1.0,
	}))

	require.NoError(t, err)
	assert.InDelta(t, 0.69, prob, 1e-9)

	require.Len(t, f.store.savedReadings, 1)
	require.Len(t, f.store.savedAlerts, 1)
	assert.Equal(t, domain.SeverityMedium, f.store.savedAlerts[0].Severity)
	assert.Equal(t, "Medium coastal threat detected (0.69)", f.store.savedAlerts[0].Message)

	require.Len(t, f.publisher.readings, 1)
	require.Len(t, f.publisher.alerts, 1)
	assert.NotZero(t, f.publisher.alerts[0].ID, "broadcast alert carries the persisted ID")

	assert.Empty(t, f.notifier.sent, "medium severity must not trigger SMS")
}

func TestIngestNoThreat(t *testing.T) {
	f := newFixture(nil)

	prob, err := f.orchestrator.Ingest(context.Background(), reading(map[string]float64{
		"sea_level": 0, "wind_speed": 0, "salinity": 0, "temp": 0, "chl_a": 0,
	}))

	require.NoError(t, err)
	assert.Zero(t, prob)

	assert.Len(t, f.store.savedReadings, 1)
	assert.Empty(t, f.store.savedAlerts)
	assert.Len(t, f.publisher.readings, 1, "reading is broadcast even without an alert")
	assert.Empty(t, f.publisher.alerts)
}

func TestIngestHighThreatSendsSMS(t *testing.T) {
	f := newFixture([]string{"+15550101", "+15550102"})

	prob, err := f.orchestrator.Ingest(context.Background(), reading(map[string]float64{
		"sea_level": 2.0, "wind_speed": 50, "chl_a": 2.0,
	}))

	require.NoError(t, err)
	assert.Equal(t, 1.0, prob)

	require.Len(t, f.store.savedAlerts, 1)
	assert.Equal(t, domain.SeverityHigh, f.store.savedAlerts[0].Severity)
	assert.Equal(t, []string{"+15550101", "+15550102"}, f.notifier.sent)
}

func TestIngestPersistenceFailureAbortsWithoutBroadcast(t *testing.T) {
	f := newFixture(nil)
	f.store.readingErr = fmt.Errorf("%w: connection refused", store.ErrPersistence)

	_, err := f.orchestrator.Ingest(context.Background(), reading(map[string]float64{"sea_level": 1.0}))

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrPersistence)
	assert.Empty(t, f.publisher.readings, "failed persistence must suppress the broadcast")
	assert.Empty(t, f.publisher.alerts)
}

func TestIngestAlertPersistenceFailureSuppressesAlertBroadcast(t *testing.T) {
	f := newFixture(nil)
	f.store.alertErr = fmt.Errorf("%w: disk full", store.ErrPersistence)

	prob, err := f.orchestrator.Ingest(context.Background(), reading(map[string]float64{
		"sea_level": 2.0, "wind_speed": 50, "chl_a": 2.0,
	}))

	require.NoError(t, err, "a failed alert write must not fail the reading")
	assert.Equal(t, 1.0, prob)
	assert.Len(t, f.publisher.readings, 1)
	assert.Empty(t, f.publisher.alerts, "unpersisted alerts must never be broadcast")
}

func TestIngestGatewayFailureIsSwallowed(t *testing.T) {
	f := newFixture(nil)
	f.publisher.err = errors.New("broadcast gateway unavailable")

	prob, err := f.orchestrator.Ingest(context.Background(), reading(map[string]float64{
		"sea_level": 1.5, "wind_speed": 40, "chl_a": 1.0,
	}))

	require.NoError(t, err, "fan-out failures must never fail ingestion")
	assert.InDelta(t, 0.69, prob, 1e-9)
	assert.Len(t, f.store.savedReadings, 1)
	assert.Len(t, f.store.savedAlerts, 1, "alert is still persisted when broadcast fails")
}

func TestIngestNotifierFailureIsSwallowed(t *testing.T) {
	f := newFixture([]string{"+15550101"})
	f.notifier.err = errors.New("provider timeout")

	_, err := f.orchestrator.Ingest(context.Background(), reading(map[string]float64{
		"sea_level": 2.0, "wind_speed": 50, "chl_a": 2.0,
	}))

	require.NoError(t, err, "sms failures must never fail ingestion")
}
