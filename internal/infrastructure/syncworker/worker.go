package syncworker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Syncer is the part of the sync use case the worker drives.
type Syncer interface {
	RecoverInterrupted(ctx context.Context) (int, error)
	Tick(ctx context.Context)
	Wait()
}

// Ticker abstracts time.Ticker so tests can drive ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

// Worker runs sync rounds on a fixed interval until its context ends.
type Worker struct {
	syncer          Syncer
	logger          zerolog.Logger
	interval        time.Duration
	shutdownTimeout time.Duration
	newTicker       func(time.Duration) Ticker
}

// Config for Worker.
type Config struct {
	Syncer          Syncer
	Logger          zerolog.Logger
	Interval        time.Duration // Time between rounds
	ShutdownTimeout time.Duration // How long Start waits for in-flight syncs on exit
	NewTicker       func(time.Duration) Ticker
}

// New creates a new Worker.
func New(cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 15 * time.Second
	}
	if cfg.NewTicker == nil {
		cfg.NewTicker = func(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }
	}

	return &Worker{
		syncer:          cfg.Syncer,
		logger:          cfg.Logger.With().Str("component", "sync_worker").Logger(),
		interval:        cfg.Interval,
		shutdownTimeout: cfg.ShutdownTimeout,
		newTicker:       cfg.NewTicker,
	}
}

// Start recovers interrupted syncs, runs a round immediately and then one
// per interval. It returns ctx.Err() once in-flight syncs have been joined
// or the shutdown timeout has passed.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("sync worker started")

	if n, err := w.syncer.RecoverInterrupted(ctx); err != nil {
		w.logger.Error().Err(err).Msg("failed to recover interrupted syncs")
	} else if n > 0 {
		w.logger.Warn().Int("count", n).Msg("recovered interrupted syncs")
	}

	ticker := w.newTicker(w.interval)
	defer ticker.Stop()

	w.syncer.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("sync worker shutting down")
			w.drain()
			return ctx.Err()
		case <-ticker.C():
			w.syncer.Tick(ctx)
		}
	}
}

// drain waits for in-flight syncs, giving up after the shutdown timeout.
func (w *Worker) drain() {
	done := make(chan struct{})
	go func() {
		w.syncer.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info().Msg("in-flight syncs finished")
	case <-time.After(w.shutdownTimeout):
		w.logger.Warn().Dur("timeout", w.shutdownTimeout).Msg("gave up waiting for in-flight syncs")
	}
}
