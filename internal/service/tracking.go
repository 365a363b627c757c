package service

import (
	"context"
	"sync"
	"time"

	"github.com/raphaelgruber/journeys/internal/models"
)

// ProgressTracker is the subset of ProgressService a tracking session
// drives.
type ProgressTracker interface {
	MarkInProgress(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error)
	MarkCompleted(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error)
	AddTimeSpent(ctx context.Context, key models.ProgressKey, minutes int) (*models.ProgressRecord, error)
}

// TrackingSession measures active time for one viewer of one journey.
// At most one resource is timed at a time. Whole minutes are written
// through the tracker and sub-minute remainders carry over per resource
// for the life of the session.
type TrackingSession struct {
	tracker   ProgressTracker
	userID    string
	journeyID string
	now       func() time.Time

	mu        sync.Mutex
	active    string
	startedAt time.Time
	carry     map[string]time.Duration
}

// NewTrackingSession creates a session. now may be nil.
func NewTrackingSession(tracker ProgressTracker, userID, journeyID string, now func() time.Time) *TrackingSession {
	if now == nil {
		now = time.Now
	}
	return &TrackingSession{
		tracker:   tracker,
		userID:    userID,
		journeyID: journeyID,
		now:       now,
		carry:     make(map[string]time.Duration),
	}
}

func (t *TrackingSession) key(resourceID string) models.ProgressKey {
	return models.ProgressKey{UserID: t.userID, JourneyID: t.journeyID, ResourceID: resourceID}
}

// Open starts timing resourceID, flushing whatever was active before.
func (t *TrackingSession) Open(ctx context.Context, resourceID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.flushLocked(ctx); err != nil {
		return err
	}
	if _, err := t.tracker.MarkInProgress(ctx, t.key(resourceID)); err != nil {
		t.active = ""
		return err
	}
	t.active = resourceID
	t.startedAt = t.now()
	return nil
}

// Tick writes the whole minutes accrued on the active resource and keeps
// timing it.
func (t *TrackingSession) Tick(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.flushLocked(ctx)
}

// Complete marks resourceID completed. When it is the active resource its
// time is flushed first and timing stops.
func (t *TrackingSession) Complete(ctx context.Context, resourceID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if resourceID == t.active {
		if err := t.flushLocked(ctx); err != nil {
			return err
		}
	}
	// The timer keeps running until the completion is stored.
	if _, err := t.tracker.MarkCompleted(ctx, t.key(resourceID)); err != nil {
		return err
	}
	if resourceID == t.active {
		t.active = ""
	}
	return nil
}

// Stop flushes and stops timing.
func (t *TrackingSession) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.flushLocked(ctx)
	t.active = ""
	return err
}

// Active returns the resource being timed, or "".
func (t *TrackingSession) Active() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *TrackingSession) flushLocked(ctx context.Context) error {
	if t.active == "" {
		return nil
	}
	now := t.now()
	elapsed := now.Sub(t.startedAt) + t.carry[t.active]
	t.startedAt = now
	if elapsed < 0 {
		elapsed = 0
	}

	minutes := int(elapsed / time.Minute)
	t.carry[t.active] = elapsed % time.Minute
	if minutes == 0 {
		return nil
	}
	if _, err := t.tracker.AddTimeSpent(ctx, t.key(t.active), minutes); err != nil {
		t.carry[t.active] = elapsed
		return err
	}
	return nil
}
