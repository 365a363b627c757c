package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/raphaelgruber/journeys/internal/llm"
	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCreator struct {
	intents []models.Intent
	err     error
}

func (f *fakeCreator) Create(_ context.Context, userID string, intent models.Intent) (*models.Journey, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.intents = append(f.intents, intent)
	return &models.Journey{ID: fmt.Sprintf("j%d", len(f.intents)), UserID: userID, Topic: intent.Topic, Level: intent.Level}, nil
}

func newElicitor(t *testing.T, r *fakeReasoner, c *fakeCreator) (*Elicitor, *sqlstore.Store) {
	t.Helper()
	store := newStore(t)
	return NewElicitor(store, r, c, nil), store
}

var readyAnalysis = &llm.Analysis{
	Reply:  "Sounds good!",
	Topic:  "Kubernetes",
	Level:  "intermediate",
	Goal:   "run my side project in a cluster",
	Format: "video",
	Ready:  true,
}

func TestElicitorFallback(t *testing.T) {
	r := &fakeReasoner{err: fmt.Errorf("analyze: %w", llm.ErrReasoningUnavailable)}
	e, store := newElicitor(t, r, &fakeCreator{})
	ctx := context.Background()

	reply, err := e.Start(ctx, "u1", "hello")
	require.NoError(t, err)
	assert.Equal(t, fallbackReply, reply.Reply)
	assert.False(t, reply.Ready)
	assert.Contains(t, reply.Questions, "I want to learn Python")

	conv, err := store.GetConversation(ctx, reply.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Turns, 2, "history survives an unavailable endpoint")
	assert.Equal(t, models.Turn{Role: models.RoleUser, Content: "hello"}, conv.Turns[0])
	assert.Equal(t, models.RoleAssistant, conv.Turns[1].Role)
}

func TestElicitorAsksForMissingSlots(t *testing.T) {
	r := &fakeReasoner{analyses: []*llm.Analysis{{Reply: "What's your level?", Topic: "rust"}}}
	c := &fakeCreator{}
	e, _ := newElicitor(t, r, c)

	reply, err := e.Start(context.Background(), "u1", "I want to learn rust")
	require.NoError(t, err)
	assert.False(t, reply.Ready)
	assert.Empty(t, reply.JourneyID)
	assert.Equal(t, []string{SlotLevel, SlotGoal, SlotFormat}, reply.Missing)
	assert.Contains(t, reply.Questions, "I'm a complete beginner")
	assert.Empty(t, c.intents)
}

func TestElicitorSpawnsJourney(t *testing.T) {
	r := &fakeReasoner{analyses: []*llm.Analysis{readyAnalysis}}
	c := &fakeCreator{}
	e, store := newElicitor(t, r, c)
	ctx := context.Background()

	reply, err := e.Start(ctx, "u1", "k8s for my side project, videos please")
	require.NoError(t, err)
	assert.True(t, reply.Ready)
	assert.Equal(t, "j1", reply.JourneyID)
	assert.Empty(t, reply.Questions)
	require.Len(t, c.intents, 1)
	assert.Equal(t, models.DifficultyIntermediate, c.intents[0].Level)
	assert.Equal(t, models.FormatVideo, c.intents[0].Format)

	conv, err := store.GetConversation(ctx, reply.ConversationID)
	require.NoError(t, err)
	require.NotNil(t, conv.JourneyID)
	assert.Equal(t, "j1", *conv.JourneyID)

	// A closed conversation is history; the next message opens a new one.
	next, err := e.Respond(ctx, "u1", "one more thing", nil, reply.ConversationID)
	require.NoError(t, err)
	assert.NotEqual(t, reply.ConversationID, next.ConversationID)
}

func TestElicitorQuota(t *testing.T) {
	r := &fakeReasoner{analyses: []*llm.Analysis{readyAnalysis}}
	e, _ := newElicitor(t, r, &fakeCreator{err: fmt.Errorf("create journey: %w", ErrQuotaExceeded)})

	reply, err := e.Start(context.Background(), "u1", "teach me k8s")
	require.NoError(t, err)
	assert.False(t, reply.Ready)
	assert.Empty(t, reply.JourneyID)
	assert.Equal(t, quotaReply, reply.Reply)
}

func TestElicitorCreateFailure(t *testing.T) {
	r := &fakeReasoner{analyses: []*llm.Analysis{readyAnalysis}}
	e, _ := newElicitor(t, r, &fakeCreator{err: errors.New("disk full")})

	_, err := e.Start(context.Background(), "u1", "teach me k8s")
	assert.Error(t, err)
}

func TestElicitorSeedsHistory(t *testing.T) {
	r := &fakeReasoner{analyses: []*llm.Analysis{{Reply: "Which format?", Topic: "go"}}}
	e, store := newElicitor(t, r, &fakeCreator{})
	ctx := context.Background()

	history := []models.Turn{
		{Role: models.RoleUser, Content: "I want to learn go"},
		{Role: models.RoleAssistant, Content: "Great, what level?"},
		{Role: "system", Content: "ignored"},
	}
	reply, err := e.Respond(ctx, "u1", "beginner", history, "")
	require.NoError(t, err)

	require.Len(t, r.seen, 1)
	assert.Len(t, r.seen[0], 3)
	assert.Equal(t, "beginner", r.seen[0][2].Content)

	conv, err := store.GetConversation(ctx, reply.ConversationID)
	require.NoError(t, err)
	assert.Len(t, conv.Turns, 4)

	// Continuing the active conversation ignores history now that turns exist.
	_, err = e.Respond(ctx, "u1", "videos", history, "")
	require.NoError(t, err)
	assert.Len(t, r.seen[1], 5)
}

func TestElicitorConversationOwnership(t *testing.T) {
	r := &fakeReasoner{}
	e, _ := newElicitor(t, r, &fakeCreator{})
	ctx := context.Background()

	reply, err := e.Start(ctx, "u1", "hi")
	require.NoError(t, err)

	_, err = e.Respond(ctx, "u2", "hi", nil, reply.ConversationID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.Conversation(ctx, "u2", reply.ConversationID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.Start(ctx, "u1", "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	hist, err := e.History(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}
