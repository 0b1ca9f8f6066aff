package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the sync engine's Prometheus metrics. It implements
// usecase.SyncRecorder.
type Metrics struct {
	// Sync metrics
	SyncAttempts *prometheus.CounterVec
	SyncDuration *prometheus.HistogramVec
	Conflicts    prometheus.Counter
	RemoteErrors *prometheus.CounterVec
	LastSyncAt   prometheus.Gauge

	// Queue metrics
	QueueDepth     prometheus.Gauge
	QueueProcessed prometheus.Counter

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Authentication metrics
	AuthFailures *prometheus.CounterVec
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates and registers all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SyncAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitsync_sync_attempts_total",
				Help: "Total group sync attempts by outcome",
			},
			[]string{"outcome"},
		),
		SyncDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "splitsync_sync_duration_seconds",
				Help:    "Duration of a single group sync",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		Conflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "splitsync_conflicts_total",
			Help: "Total conflicts detected between local and remote copies",
		}),
		RemoteErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitsync_remote_errors_total",
				Help: "Total remote store errors by kind",
			},
			[]string{"kind"},
		),
		LastSyncAt: factory.NewGauge(prometheus.GaugeOpts{
			Name: "splitsync_last_sync_timestamp_seconds",
			Help: "Unix time of the last finished sync attempt",
		}),

		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "splitsync_queue_depth",
			Help: "Pending changes waiting to be pushed",
		}),
		QueueProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "splitsync_queue_processed_total",
			Help: "Total pending changes cleared after a push",
		}),

		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitsync_rate_limit_hits_total",
				Help: "Total requests rejected by the rate limiter",
			},
			[]string{"client"},
		),
		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "splitsync_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),
	}
}

// RecordSync counts one sync attempt.
func (m *Metrics) RecordSync(outcome string, duration time.Duration) {
	m.SyncAttempts.WithLabelValues(outcome).Inc()
	m.SyncDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	m.LastSyncAt.SetToCurrentTime()
}

func (m *Metrics) RecordConflict() {
	m.Conflicts.Inc()
}

func (m *Metrics) RecordRemoteError(kind string) {
	m.RemoteErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordQueueProcessed(n int) {
	if n > 0 {
		m.QueueProcessed.Add(float64(n))
	}
}

func (m *Metrics) SetQueueDepth(n int) {
	m.QueueDepth.Set(float64(n))
}

// RecordRateLimited counts a rejected request for client.
func (m *Metrics) RecordRateLimited(client string) {
	m.RateLimitHits.WithLabelValues(client).Inc()
}

// RecordAuthFailure counts a rejected token, labelled by HTTP status.
func (m *Metrics) RecordAuthFailure(status int) {
	m.AuthFailures.WithLabelValues(strconv.Itoa(status)).Inc()
}
