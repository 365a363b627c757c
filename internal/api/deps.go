package api

import (
	"context"

	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/service"
)

// Journeys is the journey side of the service layer.
type Journeys interface {
	Detail(ctx context.Context, userID, id string) (*service.JourneyDetail, error)
	List(ctx context.Context, userID string, limit int) ([]models.Journey, error)
	Active() []service.Run
}

// Chat is the elicitation side of the service layer.
type Chat interface {
	Start(ctx context.Context, userID, message string) (*service.ChatReply, error)
	Respond(ctx context.Context, userID, message string, history []models.Turn, conversationID string) (*service.ChatReply, error)
	History(ctx context.Context, userID string, limit int) ([]models.Conversation, error)
	Conversation(ctx context.Context, userID, id string) (*models.Conversation, error)
}

// Progress is the progress side of the service layer.
type Progress interface {
	MarkInProgress(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error)
	MarkCompleted(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error)
	MarkIncomplete(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error)
	AddTimeSpent(ctx context.Context, key models.ProgressKey, minutes int) (*models.ProgressRecord, error)
	Summary(ctx context.Context, userID, journeyID string) (*models.ProgressSummary, error)
	LastPosition(ctx context.Context, userID, journeyID string) (*models.LastPosition, error)
}

// Resources reads stored resources.
type Resources interface {
	Get(ctx context.Context, id string, refresh bool) (*models.Resource, error)
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error
