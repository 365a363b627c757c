package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/raphaelgruber/journeys/internal/models"
)

type journeyRow struct {
	ID          string `db:"id"`
	UserID      string `db:"user_id"`
	Topic       string `db:"topic"`
	Level       string `db:"level"`
	Goal        string `db:"goal"`
	Format      string `db:"preferred_format"`
	Status      string `db:"status"`
	FailedStage string `db:"failed_stage"`
	Error       string `db:"error"`
	CreatedAt   int64  `db:"created_at"`
	UpdatedAt   int64  `db:"updated_at"`
}

func (r journeyRow) toModel() models.Journey {
	return models.Journey{
		ID:          r.ID,
		UserID:      r.UserID,
		Topic:       r.Topic,
		Level:       models.Difficulty(r.Level),
		Goal:        r.Goal,
		Format:      models.Format(r.Format),
		Status:      models.JourneyStatus(r.Status),
		FailedStage: r.FailedStage,
		Error:       r.Error,
		Resources:   []string{},
		Sections:    []models.Section{},
		CreatedAt:   fromMillis(r.CreatedAt),
		UpdatedAt:   fromMillis(r.UpdatedAt),
	}
}

const journeyColumns = `id, user_id, topic, level, goal, preferred_format, status, failed_stage, error, created_at, updated_at`

// CreateJourney inserts a new pending journey. The caller assigns the ID.
func (s *Store) CreateJourney(ctx context.Context, j *models.Journey) error {
	now := s.now().UTC()
	j.Status = models.JourneyPending
	j.CreatedAt = now
	j.UpdatedAt = now
	if j.Resources == nil {
		j.Resources = []string{}
	}
	if j.Sections == nil {
		j.Sections = []models.Section{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journeys (id, user_id, topic, level, goal, preferred_format, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.UserID, j.Topic, string(j.Level), j.Goal, string(j.Format), string(j.Status),
		millis(now), millis(now))
	if err != nil {
		return fmt.Errorf("create journey: %w", err)
	}
	return nil
}

// GetJourney loads a journey with its ordered resources and sections.
// The section map is repaired so every resource is covered exactly once.
func (s *Store) GetJourney(ctx context.Context, id string) (*models.Journey, error) {
	var row journeyRow
	err := s.db.GetContext(ctx, &row, `SELECT `+journeyColumns+` FROM journeys WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journey %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get journey: %w", err)
	}
	j := row.toModel()

	titles, err := s.loadResources(ctx, &j)
	if err != nil {
		return nil, err
	}
	if err := s.loadSections(ctx, &j); err != nil {
		return nil, err
	}
	if j.Status == models.JourneyReady {
		j.EnsureCoverage(titles)
	}
	return &j, nil
}

func (s *Store) loadResources(ctx context.Context, j *models.Journey) (map[string]string, error) {
	var rows []struct {
		ResourceID string `db:"resource_id"`
		Title      string `db:"title"`
	}
	err := s.db.SelectContext(ctx, &rows,
		`SELECT resource_id, title FROM journey_resources WHERE journey_id = ? ORDER BY position`, j.ID)
	if err != nil {
		return nil, fmt.Errorf("load journey resources: %w", err)
	}
	titles := make(map[string]string, len(rows))
	for _, r := range rows {
		j.Resources = append(j.Resources, r.ResourceID)
		titles[r.ResourceID] = r.Title
	}
	return titles, nil
}

func (s *Store) loadSections(ctx context.Context, j *models.Journey) error {
	var secs []struct {
		Position    int    `db:"position"`
		Name        string `db:"name"`
		Description string `db:"description"`
	}
	err := s.db.SelectContext(ctx, &secs,
		`SELECT position, name, description FROM sections WHERE journey_id = ? ORDER BY position`, j.ID)
	if err != nil {
		return fmt.Errorf("load sections: %w", err)
	}
	var refs []struct {
		Section int    `db:"section_position"`
		Ref     string `db:"resource_ref"`
	}
	err = s.db.SelectContext(ctx, &refs, `
		SELECT section_position, resource_ref FROM section_resources
		WHERE journey_id = ? ORDER BY section_position, position`, j.ID)
	if err != nil {
		return fmt.Errorf("load section resources: %w", err)
	}

	byPos := make(map[int][]string, len(secs))
	for _, r := range refs {
		byPos[r.Section] = append(byPos[r.Section], r.Ref)
	}
	for _, sec := range secs {
		res := byPos[sec.Position]
		if res == nil {
			res = []string{}
		}
		j.Sections = append(j.Sections, models.Section{
			Name:        sec.Name,
			Description: sec.Description,
			Resources:   res,
		})
	}
	return nil
}

// ListJourneys returns a user's journeys, newest first, with resource ids
// but without sections.
func (s *Store) ListJourneys(ctx context.Context, userID string, limit int) ([]models.Journey, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []journeyRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+journeyColumns+` FROM journeys
		WHERE user_id = ? ORDER BY created_at DESC, id LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list journeys: %w", err)
	}
	out := make([]models.Journey, 0, len(rows))
	for _, r := range rows {
		j := r.toModel()
		if _, err := s.loadResources(ctx, &j); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, nil
}

// CountJourneys counts a user's journeys that have not failed.
func (s *Store) CountJourneys(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM journeys WHERE user_id = ? AND status != ?`, userID, string(models.JourneyFailed))
	if err != nil {
		return 0, fmt.Errorf("count journeys: %w", err)
	}
	return n, nil
}

// ListIncomplete returns journeys whose pipeline has not reached a
// terminal status, oldest first.
func (s *Store) ListIncomplete(ctx context.Context) ([]models.Journey, error) {
	var rows []journeyRow
	query, args, err := sqlx.In(`
		SELECT `+journeyColumns+` FROM journeys
		WHERE status IN (?) ORDER BY created_at`,
		[]string{string(models.JourneyPending), string(models.JourneyScraping), string(models.JourneyCurating)})
	if err != nil {
		return nil, fmt.Errorf("list incomplete journeys: %w", err)
	}
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list incomplete journeys: %w", err)
	}
	out := make([]models.Journey, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// TransitionStatus moves a journey from one status to the next. The update
// only applies while the journey is still in from. A journey already in to
// is treated as success so retried stages are harmless.
func (s *Store) TransitionStatus(ctx context.Context, id string, from, to models.JourneyStatus) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		return s.transition(ctx, tx, id, from, to)
	})
}

func (s *Store) transition(ctx context.Context, tx *sqlx.Tx, id string, from, to models.JourneyStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE journeys SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), millis(s.now()), id, string(from))
	if err != nil {
		return fmt.Errorf("transition journey %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition journey %s: %w", id, err)
	}
	if n == 1 {
		return nil
	}

	var current string
	err = tx.GetContext(ctx, &current, `SELECT status FROM journeys WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("journey %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("transition journey %s: %w", id, err)
	}
	if models.JourneyStatus(current) == to {
		return nil
	}
	return fmt.Errorf("journey %s is %s, cannot move %s -> %s: %w", id, current, from, to, ErrInvalidTransition)
}

// BeginCuration moves a journey from scraping to curating and records the
// candidate resource ids curation will work from.
func (s *Store) BeginCuration(ctx context.Context, id string, candidates []string) error {
	if candidates == nil {
		candidates = []string{}
	}
	data, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("encode candidates: %w", err)
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.transition(ctx, tx, id, models.JourneyScraping, models.JourneyCurating); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE journeys SET candidates = ? WHERE id = ?`, string(data), id)
		if err != nil {
			return fmt.Errorf("store candidates: %w", err)
		}
		return nil
	})
}

// Candidates returns the candidate resource ids recorded by BeginCuration.
func (s *Store) Candidates(ctx context.Context, id string) ([]string, error) {
	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT candidates FROM journeys WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("journey %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get candidates: %w", err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	return ids, nil
}

// CompleteCuration stores the selected resources and sections and marks the
// journey ready, all in one transaction. Calling it on a journey that is
// already ready leaves the stored result untouched.
func (s *Store) CompleteCuration(ctx context.Context, id string, resources []models.Resource, sections []models.Section) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var current string
		err := tx.GetContext(ctx, &current, `SELECT status FROM journeys WHERE id = ?`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("journey %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("complete curation: %w", err)
		}
		switch models.JourneyStatus(current) {
		case models.JourneyReady:
			return nil
		case models.JourneyCurating:
		default:
			return fmt.Errorf("journey %s is %s, cannot complete curation: %w", id, current, ErrInvalidTransition)
		}

		for _, stmt := range []string{
			`DELETE FROM section_resources WHERE journey_id = ?`,
			`DELETE FROM sections WHERE journey_id = ?`,
			`DELETE FROM journey_resources WHERE journey_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return fmt.Errorf("complete curation: %w", err)
			}
		}
		for i, r := range resources {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO journey_resources (journey_id, position, resource_id, title) VALUES (?, ?, ?, ?)`,
				id, i, r.ID, r.Title)
			if err != nil {
				return fmt.Errorf("store journey resource %s: %w", r.ID, err)
			}
		}
		for si, sec := range sections {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO sections (journey_id, position, name, description) VALUES (?, ?, ?, ?)`,
				id, si, sec.Name, sec.Description)
			if err != nil {
				return fmt.Errorf("store section %q: %w", sec.Name, err)
			}
			for ri, ref := range sec.Resources {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO section_resources (journey_id, section_position, position, resource_ref)
					VALUES (?, ?, ?, ?)`, id, si, ri, ref)
				if err != nil {
					return fmt.Errorf("store section %q: %w", sec.Name, err)
				}
			}
		}
		return s.transition(ctx, tx, id, models.JourneyCurating, models.JourneyReady)
	})
}

// FailJourney marks an in-flight journey failed, recording the stage and
// error. Terminal journeys are left unchanged.
func (s *Store) FailJourney(ctx context.Context, id, stage, msg string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE journeys SET status = ?, failed_stage = ?, error = ?, updated_at = ?
		WHERE id = ? AND status NOT IN (?, ?)`,
		string(models.JourneyFailed), stage, msg, millis(s.now()),
		id, string(models.JourneyReady), string(models.JourneyFailed))
	if err != nil {
		return fmt.Errorf("fail journey %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists int
		err := s.db.GetContext(ctx, &exists, `SELECT COUNT(*) FROM journeys WHERE id = ?`, id)
		if err == nil && exists == 0 {
			return fmt.Errorf("journey %s: %w", id, ErrNotFound)
		}
	}
	return nil
}
