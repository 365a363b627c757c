package models

import "time"

// Completion is the progress state of one resource for one user.
type Completion int

const (
	NotStarted Completion = 0
	InProgress Completion = 1
	Completed  Completion = 2
)

func (c Completion) String() string {
	switch c {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	}
	return "unknown"
}

// ProgressKey identifies a progress record.
type ProgressKey struct {
	UserID     string `json:"user_id"`
	JourneyID  string `json:"journey_id"`
	ResourceID string `json:"resource_id"`
}

// ProgressRecord is the per-user completion and time-spent state of a resource.
// Version increments on every write and guards compare-and-set updates.
type ProgressRecord struct {
	ProgressKey
	Completed        Completion `json:"completed"`
	TimeSpentMinutes int        `json:"time_spent_minutes"`
	LastAccessedAt   time.Time  `json:"last_accessed_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	Version          int64      `json:"-"`
}

// ProgressOp is a client-reported progress event.
type ProgressOp string

const (
	OpMarkInProgress ProgressOp = "mark_in_progress"
	OpMarkCompleted  ProgressOp = "mark_completed"
	OpMarkIncomplete ProgressOp = "mark_incomplete"
	OpAddTime        ProgressOp = "add_time_spent"
)

// ProgressEvent is an operation plus its argument.
type ProgressEvent struct {
	Op      ProgressOp
	Minutes int
}

// Apply returns the record that results from ev at time now, and whether
// anything changed. The receiver is not modified.
//
// View events never lower a completed resource. Time events never touch
// Completed. Complete and incomplete are idempotent and completed_at keeps
// its first stamp.
func (r ProgressRecord) Apply(ev ProgressEvent, now time.Time) (ProgressRecord, bool) {
	next := r
	switch ev.Op {
	case OpMarkInProgress:
		if r.Completed == Completed {
			return r, false
		}
		if next.Completed < InProgress {
			next.Completed = InProgress
		}
		next.LastAccessedAt = now

	case OpMarkCompleted:
		if r.Completed == Completed && r.CompletedAt != nil {
			return r, false
		}
		next.Completed = Completed
		if next.CompletedAt == nil {
			t := now
			next.CompletedAt = &t
		}
		next.LastAccessedAt = now

	case OpMarkIncomplete:
		if r.Completed == NotStarted && r.CompletedAt == nil {
			return r, false
		}
		next.Completed = NotStarted
		next.CompletedAt = nil
		next.LastAccessedAt = now

	case OpAddTime:
		if ev.Minutes <= 0 {
			return r, false
		}
		next.TimeSpentMinutes += ev.Minutes
		next.LastAccessedAt = now

	default:
		return r, false
	}
	return next, true
}

// ResourceProgress is the per-resource entry of a progress summary.
type ResourceProgress struct {
	Completed        Completion `json:"completed"`
	TimeSpentMinutes int        `json:"time_spent_minutes"`
	LastAccessedAt   time.Time  `json:"last_accessed_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// ProgressSummary aggregates progress over a journey.
type ProgressSummary struct {
	JourneyID             string                      `json:"journey_id"`
	TotalResources        int                         `json:"total_resources"`
	CompletedCount        int                         `json:"completed_count"`
	InProgressCount       int                         `json:"in_progress_count"`
	NotStartedCount       int                         `json:"not_started_count"`
	CompletionPercentage  int                         `json:"completion_percentage"`
	TotalTimeSpentMinutes int                         `json:"total_time_spent_minutes"`
	ByResource            map[string]ResourceProgress `json:"progress_by_resource"`
}

// Summarize builds a summary for a journey whose ordered resource ids are
// resources. Records for resources outside the journey are ignored.
func Summarize(journeyID string, resources []string, records []ProgressRecord) ProgressSummary {
	s := ProgressSummary{
		JourneyID:      journeyID,
		TotalResources: len(resources),
		ByResource:     make(map[string]ResourceProgress),
	}
	member := make(map[string]bool, len(resources))
	for _, id := range resources {
		member[id] = true
	}
	for _, rec := range records {
		if !member[rec.ResourceID] {
			continue
		}
		if _, dup := s.ByResource[rec.ResourceID]; dup {
			continue
		}
		switch rec.Completed {
		case Completed:
			s.CompletedCount++
		case InProgress:
			s.InProgressCount++
		}
		s.TotalTimeSpentMinutes += rec.TimeSpentMinutes
		s.ByResource[rec.ResourceID] = ResourceProgress{
			Completed:        rec.Completed,
			TimeSpentMinutes: rec.TimeSpentMinutes,
			LastAccessedAt:   rec.LastAccessedAt,
			CompletedAt:      rec.CompletedAt,
		}
	}
	s.NotStartedCount = s.TotalResources - s.CompletedCount - s.InProgressCount
	if s.TotalResources > 0 {
		// Integer round-half-up of 100*completed/total.
		s.CompletionPercentage = (200*s.CompletedCount + s.TotalResources) / (2 * s.TotalResources)
	}
	return s
}

// LastPosition is the most recently accessed resource of a journey.
type LastPosition struct {
	JourneyID  string    `json:"journey_id"`
	ResourceID string    `json:"resource_id"`
	Index      int       `json:"index"`
	AccessedAt time.Time `json:"last_accessed_at"`
}
