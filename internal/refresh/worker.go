package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tbckr/asnlook/internal/apperr"
)

// Refresher is the interface for entities that can update themselves.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefresherFunc is an adapter to allow the use of ordinary functions as
// [Refresher].
type RefresherFunc func(ctx context.Context) error

// type check
var _ Refresher = RefresherFunc(nil)

// Refresh implements the [Refresher] interface for RefresherFunc.
func (f RefresherFunc) Refresh(ctx context.Context) error {
	return f(ctx)
}

// WorkerConfig is the configuration structure for a *Worker.
type WorkerConfig struct {
	// Refresher is the entity being refreshed.
	Refresher Refresher

	// Logger is used for logging the operation of the worker.
	Logger *slog.Logger

	// Interval is the refresh interval. Must be greater than zero.
	Interval time.Duration
}

// Worker calls its Refresher every Interval and whenever Trigger is called.
// Cycles never overlap: a trigger arriving during a cycle is queued, and at
// most one trigger is queued at a time.
type Worker struct {
	logger   *slog.Logger
	refr     Refresher
	interval time.Duration

	trigger chan struct{}
	done    chan struct{}
	stopped chan struct{}

	mu       sync.Mutex
	started  bool
	cancel   context.CancelFunc
	shutdown sync.Once
}

// NewWorker returns a new *Worker. c must not be nil.
func NewWorker(c *WorkerConfig) *Worker {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		logger:   logger,
		refr:     c.Refresher,
		interval: c.Interval,
		trigger:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start launches the refresh loop. It fails for a non-positive interval or
// when the worker was already started or shut down.
func (w *Worker) Start(_ context.Context) error {
	if w.interval <= 0 {
		return fmt.Errorf("%w: refresh interval must be positive, got %s", apperr.ErrInvalidInput, w.interval)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return errors.New("refresh worker already started")
	}
	select {
	case <-w.done:
		return errors.New("refresh worker already shut down")
	default:
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.started = true
	w.cancel = cancel
	go w.refreshInALoop(ctx)
	return nil
}

// Trigger requests an immediate refresh. It reports false when a request is
// already queued.
func (w *Worker) Trigger() bool {
	select {
	case w.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Shutdown stops the loop, cancelling a running cycle, and waits for it to
// exit or for ctx to be done. It may be called more than once, and on a
// worker that was never started.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.shutdown.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		close(w.done)
		if w.started {
			w.cancel()
		} else {
			close(w.stopped)
		}
	})

	select {
	case <-w.stopped:
		w.logger.InfoContext(ctx, "refresh worker shut down")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for refresh loop: %w", ctx.Err())
	}
}

func (w *Worker) refreshInALoop(ctx context.Context) {
	defer close(w.stopped)

	tick := time.NewTicker(w.interval)
	defer tick.Stop()

	w.logger.InfoContext(ctx, "starting refresh loop", "interval", w.interval)

	for {
		select {
		case <-w.done:
			w.logger.InfoContext(ctx, "finished refresh loop")
			return
		case <-tick.C:
			w.refresh(ctx, "interval")
		case <-w.trigger:
			w.refresh(ctx, "trigger")
		}
	}
}

func (w *Worker) refresh(ctx context.Context, reason string) {
	defer func() {
		if v := recover(); v != nil {
			w.logger.ErrorContext(ctx, "recovered from panic in refresh", "value", v)
		}
	}()

	w.logger.DebugContext(ctx, "refresh started", "reason", reason)
	err := w.refr.Refresh(ctx)
	switch {
	case err == nil:
		w.logger.DebugContext(ctx, "refresh finished", "reason", reason)
	case errors.Is(err, apperr.ErrRefreshInProgress):
		w.logger.DebugContext(ctx, "refresh skipped", "reason", reason)
	case ctx.Err() != nil:
		w.logger.InfoContext(ctx, "refresh cancelled by shutdown")
	}
	// Other errors are logged by the refresher.
}
