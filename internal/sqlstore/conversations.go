package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/raphaelgruber/journeys/internal/models"
)

type conversationRow struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	JourneyID sql.NullString `db:"journey_id"`
	CreatedAt int64          `db:"created_at"`
	UpdatedAt int64          `db:"updated_at"`
}

func (r conversationRow) toModel() models.Conversation {
	c := models.Conversation{
		ID:        r.ID,
		UserID:    r.UserID,
		Turns:     []models.Turn{},
		CreatedAt: fromMillis(r.CreatedAt),
		UpdatedAt: fromMillis(r.UpdatedAt),
	}
	if r.JourneyID.Valid {
		id := r.JourneyID.String
		c.JourneyID = &id
	}
	return c
}

// CreateConversation inserts an empty conversation. The caller assigns the ID.
func (s *Store) CreateConversation(ctx context.Context, c *models.Conversation) error {
	now := s.now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Turns == nil {
		c.Turns = []models.Turn{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.UserID, millis(now), millis(now))
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

// GetConversation loads a conversation with its turns in order.
func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	var row conversationRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, user_id, journey_id, created_at, updated_at FROM conversations WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	c := row.toModel()
	if err := s.db.SelectContext(ctx, &c.Turns, `
		SELECT role, content FROM conversation_turns
		WHERE conversation_id = ? ORDER BY seq`, id); err != nil {
		return nil, fmt.Errorf("load turns: %w", err)
	}
	return &c, nil
}

// ActiveConversation returns the user's most recently updated conversation
// that has not spawned a journey.
func (s *Store) ActiveConversation(ctx context.Context, userID string) (*models.Conversation, error) {
	var id string
	err := s.db.GetContext(ctx, &id, `
		SELECT id FROM conversations
		WHERE user_id = ? AND journey_id IS NULL
		ORDER BY updated_at DESC LIMIT 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active conversation for %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("active conversation: %w", err)
	}
	return s.GetConversation(ctx, id)
}

// ListConversations returns a user's conversations, newest first, without turns.
func (s *Store) ListConversations(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []conversationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, journey_id, created_at, updated_at FROM conversations
		WHERE user_id = ? ORDER BY updated_at DESC, id LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	out := make([]models.Conversation, len(rows))
	for i, r := range rows {
		out[i] = r.toModel()
	}
	return out, nil
}

// AppendTurns adds turns to the end of a conversation.
func (s *Store) AppendTurns(ctx context.Context, conversationID string, turns ...models.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		now := millis(s.now())
		res, err := tx.ExecContext(ctx,
			`UPDATE conversations SET updated_at = ? WHERE id = ?`, now, conversationID)
		if err != nil {
			return fmt.Errorf("append turns: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("conversation %s: %w", conversationID, ErrNotFound)
		}

		var next int
		if err := tx.GetContext(ctx, &next,
			`SELECT COALESCE(MAX(seq) + 1, 0) FROM conversation_turns WHERE conversation_id = ?`,
			conversationID); err != nil {
			return fmt.Errorf("append turns: %w", err)
		}
		for i, t := range turns {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO conversation_turns (conversation_id, seq, role, content, created_at)
				VALUES (?, ?, ?, ?, ?)`, conversationID, next+i, t.Role, t.Content, now)
			if err != nil {
				return fmt.Errorf("append turn: %w", err)
			}
		}
		return nil
	})
}

// LinkJourney closes a conversation by recording the journey it spawned.
// A conversation can be linked only once.
func (s *Store) LinkJourney(ctx context.Context, conversationID, journeyID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET journey_id = ?, updated_at = ?
		WHERE id = ? AND journey_id IS NULL`, journeyID, millis(s.now()), conversationID)
	if err != nil {
		return fmt.Errorf("link journey: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("conversation %s not open: %w", conversationID, ErrNotFound)
	}
	return nil
}
