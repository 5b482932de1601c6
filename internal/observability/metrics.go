package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges shared by the
// ingestion API and the broadcast bridge.
type Metrics struct {
	// Ingestion pipeline.
	ReadingsIngested prometheus.Counter
	IngestFailures   prometheus.Counter
	AlertsCreated    *prometheus.CounterVec // labels: severity={high,medium}
	IngestDuration   prometheus.Histogram

	// Publish gateway and notification tail.
	GatewayFailures prometheus.Counter
	SMSSent         prometheus.Counter
	SMSFailures     prometheus.Counter

	// Broadcast bridge.
	BroadcastsPublished  *prometheus.CounterVec // labels: type={reading,alert}
	DeliveriesSucceeded  prometheus.Counter
	DeliveriesFailed     prometheus.Counter
	SubscribersConnected prometheus.Gauge
	ArchiveMessages      prometheus.Counter
	ArchiveFailures      prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReadingsIngested,
		m.IngestFailures,
		m.AlertsCreated,
		m.IngestDuration,
		m.GatewayFailures,
		m.SMSSent,
		m.SMSFailures,
		m.BroadcastsPublished,
		m.DeliveriesSucceeded,
		m.DeliveriesFailed,
		m.SubscribersConnected,
		m.ArchiveMessages,
		m.ArchiveFailures,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReadingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal",
			Name:      "readings_ingested_total",
			Help:      "Total sensor readings successfully persisted.",
		}),
		IngestFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal",
			Name:      "ingest_failures_total",
			Help:      "Total ingestion requests that failed on the primary reading write.",
		}),
		AlertsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coastal",
			Name:      "alerts_created_total",
			Help:      "Total alerts persisted, by severity.",
		}, []string{"severity"}),
		IngestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coastal",
			Name:      "ingest_duration_seconds",
			Help:      "Duration of a complete ingest call including the fan-out tail.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		GatewayFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal",
			Name:      "gateway_failures_total",
			Help:      "Total broadcast submissions that could not reach the bridge.",
		}),
		SMSSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal",
			Name:      "sms_sent_total",
			Help:      "Total SMS notifications accepted by the provider.",
		}),
		SMSFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal",
			Name:      "sms_failures_total",
			Help:      "Total SMS notifications that failed to send.",
		}),
		BroadcastsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coastal",
			Name:      "broadcasts_published_total",
			Help:      "Total frames accepted for fan-out, by message type.",
		}, []string{"type"}),
		DeliveriesSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal",
			Name:      "deliveries_total",
			Help:      "Total frames queued to individual subscriber connections.",
		}),
		DeliveriesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal",
			Name:      "delivery_failures_total",
			Help:      "Total subscribers dropped for failing to accept a frame.",
		}),
		SubscribersConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coastal",
			Name:      "subscribers_connected",
			Help:      "Number of currently registered subscriber connections.",
		}),
		ArchiveMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal",
			Name:      "archive_messages_total",
			Help:      "Total broadcast frames written to the Kafka archive topic.",
		}),
		ArchiveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal",
			Name:      "archive_failures_total",
			Help:      "Total archive writes that failed.",
		}),
	}
}
