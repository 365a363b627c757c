// Package tools provides MCP tool handlers and registration.
package tools

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/service"
)

// JourneyService is the journey surface the tools read from.
type JourneyService interface {
	Detail(ctx context.Context, userID, id string) (*service.JourneyDetail, error)
	List(ctx context.Context, userID string, limit int) ([]models.Journey, error)
}

// ChatService runs elicitation conversations.
type ChatService interface {
	Start(ctx context.Context, userID, message string) (*service.ChatReply, error)
	Respond(ctx context.Context, userID, message string, history []models.Turn, conversationID string) (*service.ChatReply, error)
}

// ProgressService records and summarizes progress.
type ProgressService interface {
	MarkInProgress(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error)
	MarkCompleted(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error)
	MarkIncomplete(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error)
	AddTimeSpent(ctx context.Context, key models.ProgressKey, minutes int) (*models.ProgressRecord, error)
	Summary(ctx context.Context, userID, journeyID string) (*models.ProgressSummary, error)
	LastPosition(ctx context.Context, userID, journeyID string) (*models.LastPosition, error)
}

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Journeys JourneyService
	Chat     ChatService
	Progress ProgressService
	// UserID is the user every tool call acts as. The stdio server serves
	// one local user.
	UserID string
	Logger *slog.Logger
}
