package service

import (
	"context"

	"github.com/raphaelgruber/journeys/internal/llm"
	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/scrape"
	"github.com/raphaelgruber/journeys/internal/sources"
)

// JourneyStore persists journeys and their curated structure.
type JourneyStore interface {
	CreateJourney(ctx context.Context, j *models.Journey) error
	GetJourney(ctx context.Context, id string) (*models.Journey, error)
	ListJourneys(ctx context.Context, userID string, limit int) ([]models.Journey, error)
	CountJourneys(ctx context.Context, userID string) (int, error)
	ListIncomplete(ctx context.Context) ([]models.Journey, error)
	TransitionStatus(ctx context.Context, id string, from, to models.JourneyStatus) error
	BeginCuration(ctx context.Context, id string, candidates []string) error
	Candidates(ctx context.Context, id string) ([]string, error)
	CompleteCuration(ctx context.Context, id string, resources []models.Resource, sections []models.Section) error
	FailJourney(ctx context.Context, id, stage, msg string) error
}

// ProgressStore persists progress records with compare-and-set writes.
type ProgressStore interface {
	GetProgress(ctx context.Context, key models.ProgressKey) (*models.ProgressRecord, error)
	ListProgress(ctx context.Context, userID, journeyID string) ([]models.ProgressRecord, error)
	LastAccessed(ctx context.Context, userID, journeyID string) (*models.ProgressRecord, error)
	SaveProgress(ctx context.Context, rec models.ProgressRecord) (models.ProgressRecord, error)
}

// ConversationStore persists elicitation conversations.
type ConversationStore interface {
	CreateConversation(ctx context.Context, c *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ActiveConversation(ctx context.Context, userID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userID string, limit int) ([]models.Conversation, error)
	AppendTurns(ctx context.Context, conversationID string, turns ...models.Turn) error
	LinkJourney(ctx context.Context, conversationID, journeyID string) error
}

// ResourceStore reads and refreshes scraped resources.
type ResourceStore interface {
	GetResource(ctx context.Context, id string) (*models.Resource, error)
	GetResources(ctx context.Context, ids []string) ([]models.Resource, error)
	RefreshContent(ctx context.Context, id, content string, estimatedTime int) (*models.Resource, error)
}

// Scraper finds resources for a topic.
type Scraper interface {
	Scrape(ctx context.Context, req scrape.Request) ([]models.Resource, error)
}

// Reasoner reads learning intent out of a conversation.
type Reasoner interface {
	AnalyzeConversation(ctx context.Context, turns []models.Turn) (*llm.Analysis, error)
}

// PageFetcher downloads and extracts a web page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*sources.Page, error)
}
