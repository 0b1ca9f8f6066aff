package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a local store transaction.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultSyncInterval is the period between orchestrator ticks.
	DefaultSyncInterval = 30 * time.Second

	// Sync outcomes reported to the SyncRecorder.
	OutcomeUnchanged = "unchanged"
	OutcomePushed    = "pushed"
	OutcomePulled    = "pulled"
	OutcomeConflict  = "conflict"
	OutcomeMerged    = "merged"
	OutcomeError     = "error"
	OutcomeSkipped   = "skipped"
)
