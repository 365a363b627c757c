package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Run is a journey pipeline currently executing in the background.
type Run struct {
	JourneyID string    `json:"journey_id"`
	StartedAt time.Time `json:"started_at"`
}

// Runner executes journey pipelines in background goroutines, one per
// journey. It outlives the requests that start pipelines and is stopped
// with Shutdown.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	runs   map[string]Run
	log    *slog.Logger
}

// NewRunner creates a runner.
func NewRunner(log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		ctx:    ctx,
		cancel: cancel,
		runs:   make(map[string]Run),
		log:    log,
	}
}

// Go starts fn for journeyID unless a run for it is already in flight.
// A panic in fn is recovered and reported through onPanic.
func (r *Runner) Go(journeyID string, fn func(ctx context.Context, id string) error, onPanic func(ctx context.Context, id string, err error)) bool {
	r.mu.Lock()
	if _, running := r.runs[journeyID]; running || r.ctx.Err() != nil {
		r.mu.Unlock()
		return false
	}
	r.runs[journeyID] = Run{JourneyID: journeyID, StartedAt: time.Now()}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.runs, journeyID)
			r.mu.Unlock()
		}()
		defer func() {
			if p := recover(); p != nil {
				r.log.Error("journey pipeline panicked", "journey_id", journeyID, "panic", p)
				if onPanic != nil {
					onPanic(context.WithoutCancel(r.ctx), journeyID, fmt.Errorf("internal panic: %v", p))
				}
			}
		}()

		start := time.Now()
		if err := fn(r.ctx, journeyID); err != nil {
			r.log.Warn("journey pipeline failed", "journey_id", journeyID, "duration_ms", time.Since(start).Milliseconds(), "error", err)
			return
		}
		r.log.Info("journey pipeline finished", "journey_id", journeyID, "duration_ms", time.Since(start).Milliseconds())
	}()
	return true
}

// Active returns the in-flight runs, most recent first.
func (r *Runner) Active() []Run {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]Run, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	slices.SortFunc(runs, func(a, b Run) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
	return runs
}

// Shutdown cancels running pipelines and waits for them to return, or for
// ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.cancel()
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
