package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/journeys/internal/metrics"
	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/sqlstore"
)

// ProgressService applies client progress events with compare-and-set
// writes. Every write is committed before the call returns.
type ProgressService struct {
	progress ProgressStore
	journeys JourneyStore
	log      *slog.Logger
	metrics  *metrics.Collector
	now      func() time.Time
}

// NewProgressService creates a progress service.
func NewProgressService(progress ProgressStore, journeys JourneyStore, log *slog.Logger, mc *metrics.Collector) *ProgressService {
	if log == nil {
		log = slog.Default()
	}
	return &ProgressService{
		progress: progress,
		journeys: journeys,
		log:      log,
		metrics:  mc,
		now:      time.Now,
	}
}

// MarkInProgress records that the user opened a resource. A completed
// resource stays completed.
func (s *ProgressService) MarkInProgress(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error) {
	return s.apply(ctx, key, models.ProgressEvent{Op: models.OpMarkInProgress})
}

// MarkCompleted marks a resource completed. Repeating it changes nothing.
func (s *ProgressService) MarkCompleted(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error) {
	return s.apply(ctx, key, models.ProgressEvent{Op: models.OpMarkCompleted})
}

// MarkIncomplete resets a resource to not started and clears its
// completion stamp. Time spent is kept.
func (s *ProgressService) MarkIncomplete(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error) {
	return s.apply(ctx, key, models.ProgressEvent{Op: models.OpMarkIncomplete})
}

// AddTimeSpent adds minutes of active time. Non-positive values are
// ignored.
func (s *ProgressService) AddTimeSpent(ctx context.Context, key models.ProgressKey, minutes int) (*models.ProgressRecord, error) {
	return s.apply(ctx, key, models.ProgressEvent{Op: models.OpAddTime, Minutes: minutes})
}

func (s *ProgressService) apply(ctx context.Context, key models.ProgressKey, ev models.ProgressEvent) (_ *models.ProgressRecord, err error) {
	defer s.metrics.Track(metrics.OpProgressWrite, time.Now(), &err)

	if key.UserID == "" || key.JourneyID == "" || key.ResourceID == "" {
		return nil, fmt.Errorf("%s: %w: user, journey and resource are required", ev.Op, ErrInvalidInput)
	}
	j, err := s.readyJourney(ctx, key.UserID, key.JourneyID)
	if err != nil {
		return nil, err
	}
	if !j.Contains(key.ResourceID) {
		return nil, fmt.Errorf("resource %s in journey %s: %w", key.ResourceID, key.JourneyID, ErrNotFound)
	}

	// Retry once on conflict, from a fresh read.
	for attempt := 0; attempt < 2; attempt++ {
		cur, err := s.current(ctx, key)
		if err != nil {
			return nil, &ProgressError{Op: ev.Op, JourneyID: key.JourneyID, ResourceID: key.ResourceID, Err: err}
		}
		next, changed := cur.Apply(ev, s.now().UTC())
		if !changed {
			return &cur, nil
		}

		saved, err := s.progress.SaveProgress(ctx, next)
		if err == nil {
			return &saved, nil
		}
		if !errors.Is(err, sqlstore.ErrProgressConflict) {
			return nil, &ProgressError{Op: ev.Op, JourneyID: key.JourneyID, ResourceID: key.ResourceID, Err: err}
		}
		s.log.Debug("progress write conflict", "op", ev.Op, "journey_id", key.JourneyID, "resource_id", key.ResourceID, "attempt", attempt+1)
	}
	return nil, &ProgressError{Op: ev.Op, JourneyID: key.JourneyID, ResourceID: key.ResourceID, Err: sqlstore.ErrProgressConflict}
}

func (s *ProgressService) current(ctx context.Context, key models.ProgressKey) (models.ProgressRecord, error) {
	rec, err := s.progress.GetProgress(ctx, key)
	if notFound(err) {
		return models.ProgressRecord{ProgressKey: key}, nil
	}
	if err != nil {
		return models.ProgressRecord{}, err
	}
	return *rec, nil
}

func (s *ProgressService) journey(ctx context.Context, userID, journeyID string) (*models.Journey, error) {
	j, err := s.journeys.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, wrapNotFound("journey "+journeyID, err)
	}
	if j.UserID != userID {
		return nil, fmt.Errorf("journey %s: %w", journeyID, ErrNotFound)
	}
	return j, nil
}

func (s *ProgressService) readyJourney(ctx context.Context, userID, journeyID string) (*models.Journey, error) {
	j, err := s.journey(ctx, userID, journeyID)
	if err != nil {
		return nil, err
	}
	if j.Status != models.JourneyReady {
		return nil, fmt.Errorf("journey %s is %s: %w", journeyID, j.Status, ErrJourneyNotReady)
	}
	return j, nil
}

// Summary aggregates the user's progress over a journey.
func (s *ProgressService) Summary(ctx context.Context, userID, journeyID string) (*models.ProgressSummary, error) {
	j, err := s.journey(ctx, userID, journeyID)
	if err != nil {
		return nil, err
	}
	resources := j.Resources
	if j.Status != models.JourneyReady {
		resources = nil
	}
	records, err := s.progress.ListProgress(ctx, userID, journeyID)
	if err != nil {
		return nil, fmt.Errorf("progress summary: %w", err)
	}
	sum := models.Summarize(j.ID, resources, records)
	return &sum, nil
}

// LastPosition returns where the user left off: the most recently accessed
// resource of the journey and its index in journey order.
func (s *ProgressService) LastPosition(ctx context.Context, userID, journeyID string) (*models.LastPosition, error) {
	j, err := s.readyJourney(ctx, userID, journeyID)
	if err != nil {
		return nil, err
	}

	rec, err := s.progress.LastAccessed(ctx, userID, journeyID)
	if err != nil {
		return nil, wrapNotFound("last position in "+journeyID, err)
	}
	if j.Position(rec.ResourceID) < 0 {
		// The latest record points outside the journey; fall back to the
		// newest one that does not.
		records, err := s.progress.ListProgress(ctx, userID, journeyID)
		if err != nil {
			return nil, fmt.Errorf("last position: %w", err)
		}
		rec = nil
		for i := range records {
			if j.Contains(records[i].ResourceID) {
				rec = &records[i]
				break
			}
		}
		if rec == nil {
			return nil, fmt.Errorf("last position in %s: %w", journeyID, ErrNotFound)
		}
	}
	return &models.LastPosition{
		JourneyID:  journeyID,
		ResourceID: rec.ResourceID,
		Index:      j.Position(rec.ResourceID),
		AccessedAt: rec.LastAccessedAt,
	}, nil
}
