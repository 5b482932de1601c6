package ingest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/coastal-threat-bridge/internal/domain"
	"github.com/couchcryptid/coastal-threat-bridge/internal/ingest"
)

type mockAlertLister struct {
	alerts []domain.Alert
	limit  int
	err    error
}

func (m *mockAlertLister) ListAlerts(_ context.Context, limit int) ([]domain.Alert, error) {
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	return m.alerts, nil
}

func newTestServer(t *testing.T, lister *mockAlertLister) (*ingest.Server, *fixture) {
	t.Helper()
	f := newFixture(nil)
	return ingest.NewServer(":0", f.orchestrator, lister, discardLogger()), f
}

func TestHandleIngestReading(t *testing.T) {
	t.Run("valid reading returns probability", func(t *testing.T) {
		srv, f := newTestServer(t, &mockAlertLister{})

		body := `{"sensor_type":"combined","source":"buoy_3","values":{"sea_level":1.5,"wind_speed":40,"chl_a":1.0}}`
		req := httptest.NewRequest("POST", "/ingest/reading", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		require.Equal(t, 200, rec.Code)
		var resp struct {
			Status      string  `json:"status"`
			Probability float64 `json:"probability"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "ok", resp.Status)
		assert.InDelta(t, 0.69, resp.Probability, 1e-9)
		assert.Len(t, f.store.savedReadings, 1)
	})

	t.Run("malformed json is rejected", func(t *testing.T) {
		srv, f := newTestServer(t, &mockAlertLister{})

		req := httptest.NewRequest("POST", "/ingest/reading", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, 400, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid input data")
		assert.Empty(t, f.store.savedReadings)
	})

	t.Run("missing sensor_type is rejected", func(t *testing.T) {
		srv, _ := newTestServer(t, &mockAlertLister{})

		body := `{"source":"buoy_3","values":{"sea_level":1.0}}`
		req := httptest.NewRequest("POST", "/ingest/reading", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, 400, rec.Code)
		assert.Contains(t, rec.Body.String(), "sensor_type is required")
	})

	t.Run("empty values map is rejected", func(t *testing.T) {
		srv, _ := newTestServer(t, &mockAlertLister{})

		body := `{"sensor_type":"combined","source":"buoy_3","values":{}}`
		req := httptest.NewRequest("POST", "/ingest/reading", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, 400, rec.Code)
	})

	t.Run("persistence failure returns 500", func(t *testing.T) {
		srv, f := newTestServer(t, &mockAlertLister{})
		f.store.readingErr = errors.New("connection refused")

		body := `{"sensor_type":"combined","source":"buoy_3","values":{"sea_level":1.0}}`
		req := httptest.NewRequest("POST", "/ingest/reading", strings.NewReader(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, 500, rec.Code)
		assert.JSONEq(t, `{"error":"failed to store reading"}`, rec.Body.String())
	})
}

func TestHandleListAlerts(t *testing.T) {
	created := time.Date(2024, 3, 11, 9, 30, 0, 0, time.UTC)
	lister := &mockAlertLister{alerts: []domain.Alert{{
		ID:        7,
		AlertType: domain.AlertTypeCoastalThreat,
		Severity:  domain.SeverityHigh,
		Message:   "High coastal threat detected (0.85)",
		Payload:   map[string]float64{"sea_level": 1.9},
		CreatedAt: created,
	}}}

	t.Run("default limit", func(t *testing.T) {
		srv, _ := newTestServer(t, lister)

		req := httptest.NewRequest("GET", "/alerts", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		require.Equal(t, 200, rec.Code)
		assert.Equal(t, 50, lister.limit)
		assert.Contains(t, rec.Body.String(), "High coastal threat detected (0.85)")
	})

	t.Run("explicit limit", func(t *testing.T) {
		srv, _ := newTestServer(t, lister)

		req := httptest.NewRequest("GET", "/alerts?limit=5", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		require.Equal(t, 200, rec.Code)
		assert.Equal(t, 5, lister.limit)
	})

	t.Run("invalid limit is rejected", func(t *testing.T) {
		srv, _ := newTestServer(t, lister)

		req := httptest.NewRequest("GET", "/alerts?limit=zero", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, 400, rec.Code)
	})

	t.Run("lister failure returns 500", func(t *testing.T) {
		srv, _ := newTestServer(t, &mockAlertLister{err: errors.New("db down")})

		req := httptest.NewRequest("GET", "/alerts", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		assert.Equal(t, 500, rec.Code)
	})

	t.Run("empty result is an empty array", func(t *testing.T) {
		srv, _ := newTestServer(t, &mockAlertLister{})

		req := httptest.NewRequest("GET", "/alerts", nil)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)

		require.Equal(t, 200, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t, &mockAlertLister{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestHandleRoot(t *testing.T) {
	srv, _ := newTestServer(t, &mockAlertLister{})

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"service":"coastal-threat-backend","status":"ok"}`, rec.Body.String())
}
