package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/splitsync/internal/usecase"
)

var _ usecase.SyncRecorder = (*Metrics)(nil)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewWithRegisterer(registry)

	m.RecordSync(usecase.OutcomePushed, time.Second)

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestRecordSync(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RecordSync(usecase.OutcomePushed, 200*time.Millisecond)
	m.RecordSync(usecase.OutcomePushed, 100*time.Millisecond)
	m.RecordSync(usecase.OutcomeConflict, 50*time.Millisecond)

	if got := testutil.ToFloat64(m.SyncAttempts.WithLabelValues(usecase.OutcomePushed)); got != 2 {
		t.Fatalf("expected 2 pushed attempts, got %v", got)
	}
	if got := testutil.ToFloat64(m.SyncAttempts.WithLabelValues(usecase.OutcomeConflict)); got != 1 {
		t.Fatalf("expected 1 conflict attempt, got %v", got)
	}
	if got := testutil.CollectAndCount(m.SyncDuration); got != 2 {
		t.Fatalf("expected 2 duration series, got %d", got)
	}
	if got := testutil.ToFloat64(m.LastSyncAt); got == 0 {
		t.Fatalf("expected last sync timestamp to be set")
	}
}

func TestQueueAndErrorMetrics(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.SetQueueDepth(7)
	m.SetQueueDepth(3)
	m.RecordQueueProcessed(4)
	m.RecordQueueProcessed(0)
	m.RecordConflict()
	m.RecordRemoteError("transient")
	m.RecordRemoteError("transient")
	m.RecordRateLimited("10.0.0.1")
	m.RecordAuthFailure(401)

	if got := testutil.ToFloat64(m.QueueDepth); got != 3 {
		t.Fatalf("expected queue depth 3, got %v", got)
	}
	if got := testutil.ToFloat64(m.QueueProcessed); got != 4 {
		t.Fatalf("expected 4 processed, got %v", got)
	}
	if got := testutil.ToFloat64(m.Conflicts); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
	if got := testutil.ToFloat64(m.RemoteErrors.WithLabelValues("transient")); got != 2 {
		t.Fatalf("expected 2 transient errors, got %v", got)
	}
	if got := testutil.ToFloat64(m.RateLimitHits.WithLabelValues("10.0.0.1")); got != 1 {
		t.Fatalf("expected 1 rate limit hit, got %v", got)
	}
	if got := testutil.ToFloat64(m.AuthFailures.WithLabelValues("401")); got != 1 {
		t.Fatalf("expected 1 auth failure, got %v", got)
	}
}
