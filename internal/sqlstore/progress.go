package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/journeys/internal/models"
)

type progressRow struct {
	UserID           string        `db:"user_id"`
	JourneyID        string        `db:"journey_id"`
	ResourceID       string        `db:"resource_id"`
	Completed        int           `db:"completed"`
	TimeSpentMinutes int           `db:"time_spent_minutes"`
	LastAccessedAt   int64         `db:"last_accessed_at"`
	CompletedAt      sql.NullInt64 `db:"completed_at"`
	Version          int64         `db:"version"`
}

func (r progressRow) toModel() models.ProgressRecord {
	rec := models.ProgressRecord{
		ProgressKey: models.ProgressKey{
			UserID:     r.UserID,
			JourneyID:  r.JourneyID,
			ResourceID: r.ResourceID,
		},
		Completed:        models.Completion(r.Completed),
		TimeSpentMinutes: r.TimeSpentMinutes,
		LastAccessedAt:   fromMillis(r.LastAccessedAt),
		Version:          r.Version,
	}
	if r.CompletedAt.Valid {
		t := fromMillis(r.CompletedAt.Int64)
		rec.CompletedAt = &t
	}
	return rec
}

const progressColumns = `user_id, journey_id, resource_id, completed, time_spent_minutes, last_accessed_at, completed_at, version`

// GetProgress returns the progress record for key.
func (s *Store) GetProgress(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error) {
	var row progressRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+progressColumns+` FROM progress
		WHERE user_id = ? AND journey_id = ? AND resource_id = ?`,
		key.UserID, key.JourneyID, key.ResourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("progress %s/%s: %w", key.JourneyID, key.ResourceID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	rec := row.toModel()
	return &rec, nil
}

// ListProgress returns a user's progress records for a journey, most
// recently accessed first.
func (s *Store) ListProgress(ctx context.Context, userID, journeyID string) ([]models.ProgressRecord, error) {
	var rows []progressRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+progressColumns+` FROM progress
		WHERE user_id = ? AND journey_id = ?
		ORDER BY last_accessed_at DESC, resource_id`, userID, journeyID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	out := make([]models.ProgressRecord, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// LastAccessed returns the most recently accessed progress record of a
// journey.
func (s *Store) LastAccessed(ctx context.Context, userID, journeyID string) (*models.ProgressRecord, error) {
	var row progressRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+progressColumns+` FROM progress
		WHERE user_id = ? AND journey_id = ?
		ORDER BY last_accessed_at DESC, resource_id LIMIT 1`, userID, journeyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("last position %s: %w", journeyID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("last position: %w", err)
	}
	rec := row.toModel()
	return &rec, nil
}

// SaveProgress writes rec if the stored version still matches rec.Version.
// Version 0 means the record is new. A concurrent write in between yields
// ErrProgressConflict. The saved record carries the new version.
func (s *Store) SaveProgress(ctx context.Context, rec models.ProgressRecord) (models.ProgressRecord, error) {
	var completedAt sql.NullInt64
	if rec.CompletedAt != nil {
		completedAt = sql.NullInt64{Int64: millis(*rec.CompletedAt), Valid: true}
	}

	if rec.Version == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO progress (`+progressColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT (user_id, journey_id, resource_id) DO NOTHING`,
			rec.UserID, rec.JourneyID, rec.ResourceID, int(rec.Completed), rec.TimeSpentMinutes,
			millis(rec.LastAccessedAt), completedAt)
		if err != nil {
			return rec, fmt.Errorf("insert progress: %w", classifyWriteError(err))
		}
		if n, err := res.RowsAffected(); err != nil || n == 0 {
			return rec, fmt.Errorf("insert progress %s/%s: %w", rec.JourneyID, rec.ResourceID, ErrProgressConflict)
		}
		rec.Version = 1
		return rec, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE progress SET
			completed = ?, time_spent_minutes = ?, last_accessed_at = ?, completed_at = ?,
			version = version + 1
		WHERE user_id = ? AND journey_id = ? AND resource_id = ? AND version = ?`,
		int(rec.Completed), rec.TimeSpentMinutes, millis(rec.LastAccessedAt), completedAt,
		rec.UserID, rec.JourneyID, rec.ResourceID, rec.Version)
	if err != nil {
		return rec, fmt.Errorf("update progress: %w", classifyWriteError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return rec, fmt.Errorf("update progress: %w", err)
	}
	if n == 0 {
		return rec, fmt.Errorf("update progress %s/%s: %w", rec.JourneyID, rec.ResourceID, ErrProgressConflict)
	}
	rec.Version++
	return rec, nil
}

// classifyWriteError maps lock contention to ErrProgressConflict.
func classifyWriteError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") {
		return fmt.Errorf("%w: %v", ErrProgressConflict, err)
	}
	return err
}
