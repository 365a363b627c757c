package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/raphaelgruber/journeys/internal/models"
)

const (
	fallbackReply = "I'm having trouble thinking right now. Could you tell me a bit more about what you'd like to learn?"
	quotaReply    = "You've used all your free journeys. Please upgrade to continue."
	promptReply   = "Tell me a bit more about what you'd like to learn."
)

// ChatReply is the assistant's answer to one user message.
type ChatReply struct {
	Reply          string         `json:"reply"`
	Questions      []string       `json:"questions"`
	Ready          bool           `json:"ready"`
	JourneyID      string         `json:"journey_id,omitempty"`
	ConversationID string         `json:"conversation_id"`
	Intent         *models.Intent `json:"intent,omitempty"`
	Missing        []string       `json:"missing,omitempty"`
}

// JourneyCreator starts journeys for an elicited intent.
type JourneyCreator interface {
	Create(ctx context.Context, userID string, intent models.Intent) (*models.Journey, error)
}

// Elicitor runs the conversation that collects a learning intent and
// spawns a journey once enough is known.
type Elicitor struct {
	convs    ConversationStore
	reasoner Reasoner
	journeys JourneyCreator
	log      *slog.Logger
}

// NewElicitor creates an elicitor.
func NewElicitor(convs ConversationStore, reasoner Reasoner, journeys JourneyCreator, log *slog.Logger) *Elicitor {
	if log == nil {
		log = slog.Default()
	}
	return &Elicitor{convs: convs, reasoner: reasoner, journeys: journeys, log: log}
}

// Start opens a new conversation with message.
func (e *Elicitor) Start(ctx context.Context, userID, message string) (*ChatReply, error) {
	if err := validateMessage(userID, message); err != nil {
		return nil, err
	}
	conv, err := e.newConversation(ctx, userID)
	if err != nil {
		return nil, err
	}
	return e.turn(ctx, conv, strings.TrimSpace(message))
}

// Respond continues a conversation. An empty conversationID picks the
// user's active conversation, or opens one. history seeds a conversation
// that has no stored turns yet. Messages to a conversation that already
// spawned a journey start a new one.
func (e *Elicitor) Respond(ctx context.Context, userID, message string, history []models.Turn, conversationID string) (*ChatReply, error) {
	if err := validateMessage(userID, message); err != nil {
		return nil, err
	}
	conv, err := e.conversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	if len(conv.Turns) == 0 && len(history) > 0 {
		seed := make([]models.Turn, 0, len(history))
		for _, t := range history {
			if (t.Role == models.RoleUser || t.Role == models.RoleAssistant) && strings.TrimSpace(t.Content) != "" {
				seed = append(seed, t)
			}
		}
		if err := e.convs.AppendTurns(ctx, conv.ID, seed...); err != nil {
			return nil, fmt.Errorf("seed history: %w", err)
		}
		conv.Turns = seed
	}
	return e.turn(ctx, conv, strings.TrimSpace(message))
}

func validateMessage(userID, message string) error {
	if userID == "" || strings.TrimSpace(message) == "" {
		return fmt.Errorf("chat: %w: user and message are required", ErrInvalidInput)
	}
	return nil
}

func (e *Elicitor) conversation(ctx context.Context, userID, id string) (*models.Conversation, error) {
	if id == "" {
		c, err := e.convs.ActiveConversation(ctx, userID)
		if notFound(err) {
			return e.newConversation(ctx, userID)
		}
		if err != nil {
			return nil, fmt.Errorf("load active conversation: %w", err)
		}
		return c, nil
	}

	c, err := e.convs.GetConversation(ctx, id)
	if err != nil {
		return nil, wrapNotFound("load conversation "+id, err)
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("load conversation %s: %w", id, ErrNotFound)
	}
	if c.Closed() {
		e.log.Debug("conversation already spawned a journey, starting a new one", "conversation_id", id)
		return e.newConversation(ctx, userID)
	}
	return c, nil
}

func (e *Elicitor) newConversation(ctx context.Context, userID string) (*models.Conversation, error) {
	c := &models.Conversation{ID: uuid.NewString(), UserID: userID}
	if err := e.convs.CreateConversation(ctx, c); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

func (e *Elicitor) turn(ctx context.Context, conv *models.Conversation, message string) (*ChatReply, error) {
	userTurn := models.Turn{Role: models.RoleUser, Content: message}
	if err := e.convs.AppendTurns(ctx, conv.ID, userTurn); err != nil {
		return nil, fmt.Errorf("save user turn: %w", err)
	}
	conv.Turns = append(conv.Turns, userTurn)

	reply := &ChatReply{ConversationID: conv.ID, Questions: []string{}}
	a, err := e.reasoner.AnalyzeConversation(ctx, conv.Turns)
	if err != nil {
		e.log.Warn("reasoning unavailable, using fallback reply", "conversation_id", conv.ID, "error", err)
		_, missing := NormalizeIntent(nil)
		reply.Reply = fallbackReply
		reply.Missing = missing
		reply.Questions = DefaultSuggestions(missing, "")
	} else {
		intent, missing := NormalizeIntent(a)
		reply.Reply = strings.TrimSpace(a.Reply)
		reply.Intent = &intent
		reply.Missing = missing
		reply.Questions = CleanSuggestions(a.Suggestions)
		if len(reply.Questions) == 0 {
			reply.Questions = DefaultSuggestions(missing, intent.Topic)
		}

		ready := intent.Topic != "" && conv.UserTurns() >= 1 && (a.Ready || len(missing) == 0)
		if ready {
			if err := e.spawn(ctx, conv, intent, reply); err != nil {
				return nil, err
			}
		}
	}
	if reply.Reply == "" {
		reply.Reply = promptReply
	}
	if reply.Questions == nil {
		reply.Questions = []string{}
	}

	if err := e.convs.AppendTurns(ctx, conv.ID, models.Turn{Role: models.RoleAssistant, Content: reply.Reply}); err != nil {
		return nil, fmt.Errorf("save assistant turn: %w", err)
	}
	return reply, nil
}

// spawn creates the journey for a ready conversation and fills in reply.
func (e *Elicitor) spawn(ctx context.Context, conv *models.Conversation, intent models.Intent, reply *ChatReply) error {
	j, err := e.journeys.Create(ctx, conv.UserID, intent)
	if errors.Is(err, ErrQuotaExceeded) {
		e.log.Info("journey quota reached", "user_id", conv.UserID)
		reply.Reply = quotaReply
		reply.Questions = []string{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("spawn journey: %w", err)
	}

	if err := e.convs.LinkJourney(ctx, conv.ID, j.ID); err != nil {
		e.log.Warn("failed to link journey to conversation", "conversation_id", conv.ID, "journey_id", j.ID, "error", err)
	}
	conv.JourneyID = &j.ID
	reply.Ready = true
	reply.JourneyID = j.ID
	reply.Questions = []string{}
	if reply.Reply == "" {
		reply.Reply = fmt.Sprintf("Great! I'm putting together a %s journey on %s for you.", j.Level, j.Topic)
	}
	return nil
}

// History lists the user's conversations, most recent first, without turns.
func (e *Elicitor) History(ctx context.Context, userID string, limit int) ([]models.Conversation, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	cs, err := e.convs.ListConversations(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return cs, nil
}

// Conversation returns one of the user's conversations with its turns.
func (e *Elicitor) Conversation(ctx context.Context, userID, id string) (*models.Conversation, error) {
	c, err := e.convs.GetConversation(ctx, id)
	if err != nil {
		return nil, wrapNotFound("get conversation "+id, err)
	}
	if c.UserID != userID {
		return nil, fmt.Errorf("get conversation %s: %w", id, ErrNotFound)
	}
	return c, nil
}
