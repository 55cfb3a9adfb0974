package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Intent gateway metrics
	IntentsSubmitted     prometheus.Counter
	IntentOutcomes       *prometheus.CounterVec
	IdempotentReplays    prometheus.Counter
	IdempotencyConflicts prometheus.Counter
	AttestationFailures  *prometheus.CounterVec

	// Clearing metrics
	TransfersFinalized prometheus.Counter
	TransferAmount     prometheus.Histogram
	ClearingDuration   prometheus.Histogram

	// Reconciliation metrics
	IntentsRecovered *prometheus.CounterVec
	ConsistencyDrift prometheus.Gauge

	// Event bus metrics
	EventsDispatched      *prometheus.CounterVec
	EventDispatchFailures *prometheus.CounterVec
	OutboxBacklog         prometheus.Gauge

	// Mirror metrics
	MirrorSyncFailures prometheus.Counter
	MirrorSyncRetries  prometheus.Counter
	MirrorLagSeconds   prometheus.Gauge

	// Honoring metrics
	HonoringAttempts *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthFailures *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Intent gateway metrics
		IntentsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "obligent_intents_submitted_total",
			Help: "Total number of obligation intents submitted",
		}),
		IntentOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obligent_intent_outcomes_total",
				Help: "Total terminal intent outcomes by status",
			},
			[]string{"status"},
		),
		IdempotentReplays: promauto.NewCounter(prometheus.CounterOpts{
			Name: "obligent_idempotent_replays_total",
			Help: "Total submissions answered from a previous outcome",
		}),
		IdempotencyConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "obligent_idempotency_conflicts_total",
			Help: "Total idempotency keys reused with different parameters",
		}),
		AttestationFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obligent_attestation_failures_total",
				Help: "Total attestation verification failures by cause",
			},
			[]string{"cause"},
		),

		// Clearing metrics
		TransfersFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "obligent_transfers_finalized_total",
			Help: "Total number of transfers finalized",
		}),
		TransferAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "obligent_transfer_amount",
			Help:    "Finalized transfer amounts in minor units",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		ClearingDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "obligent_clearing_duration_seconds",
			Help:    "Duration of clearing operations",
			Buckets: prometheus.DefBuckets,
		}),

		// Reconciliation metrics
		IntentsRecovered: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obligent_intents_recovered_total",
				Help: "Total stuck intents resolved by the reconciler, by final status",
			},
			[]string{"status"},
		),
		ConsistencyDrift: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "obligent_ledger_consistency_drift",
			Help: "Absolute drift between posted debits and credits",
		}),

		// Event bus metrics
		EventsDispatched: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obligent_events_dispatched_total",
				Help: "Total outbox events delivered to all subscribers",
			},
			[]string{"event_type"},
		),
		EventDispatchFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obligent_event_dispatch_failures_total",
				Help: "Total subscriber delivery failures",
			},
			[]string{"subscriber"},
		),
		OutboxBacklog: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "obligent_outbox_backlog",
			Help: "Unpublished events seen in the last dispatch batch",
		}),

		// Mirror metrics
		MirrorSyncFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "obligent_mirror_sync_failures_total",
			Help: "Total mirror writes that failed after retries",
		}),
		MirrorSyncRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "obligent_mirror_sync_retries_total",
			Help: "Total mirror write retries",
		}),
		MirrorLagSeconds: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "obligent_mirror_lag_seconds",
			Help: "Age of the last event folded into the mirror",
		}),

		// Honoring metrics
		HonoringAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obligent_honoring_attempts_total",
				Help: "Total honoring attempt outcomes by status",
			},
			[]string{"status"},
		),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obligent_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "obligent_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Authentication metrics
		AuthFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "obligent_auth_failures_total",
				Help: "Total admin authentication failures",
			},
			[]string{"reason"},
		),
	}
}
