// Package client provides a REST client for the journeys server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/raphaelgruber/journeys/internal/api"
	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/service"
)

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error: %d - %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client is a REST client for the journeys server.
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
}

// New creates a new client acting as userID.
// If baseURL is empty, uses JOURNEYS_SERVER_URL or defaults to localhost:8484.
// Timeout can be configured via JOURNEYS_CLIENT_TIMEOUT (default 2m, chat
// turns wait on the reasoning endpoint).
func New(baseURL, userID string) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("JOURNEYS_SERVER_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8484"
	}

	timeout := 2 * time.Minute
	if t := os.Getenv("JOURNEYS_CLIENT_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			timeout = d
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Execute sends a request to path and decodes the JSON response into result.
func (c *Client) Execute(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userID != "" {
		req.Header.Set(api.UserHeader, c.userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if result != nil && len(data) > 0 {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// =============================================================================
// Chat
// =============================================================================

// StartChat opens a new conversation with message.
func (c *Client) StartChat(ctx context.Context, message string) (*service.ChatReply, error) {
	var out service.ChatReply
	if err := c.Execute(ctx, http.MethodPost, "/api/v1/chat/start", api.ChatRequest{Message: message}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Respond continues conversationID with message. An empty conversationID
// resumes the user's active conversation or starts a new one.
func (c *Client) Respond(ctx context.Context, conversationID, message string) (*service.ChatReply, error) {
	var out service.ChatReply
	req := api.ChatRequest{Message: message, ConversationID: conversationID}
	if err := c.Execute(ctx, http.MethodPost, "/api/v1/chat/respond", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History lists the user's recent conversations.
func (c *Client) History(ctx context.Context, limit int) ([]models.Conversation, error) {
	var out struct {
		Conversations []models.Conversation `json:"conversations"`
	}
	if err := c.Execute(ctx, http.MethodGet, "/api/v1/chat/history"+limitQuery(limit), nil, &out); err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// Conversation fetches one conversation with its messages.
func (c *Client) Conversation(ctx context.Context, id string) (*models.Conversation, error) {
	var out models.Conversation
	if err := c.Execute(ctx, http.MethodGet, "/api/v1/chat/history/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Journeys and resources
// =============================================================================

// ListJourneys lists the user's journeys, newest first.
func (c *Client) ListJourneys(ctx context.Context, limit int) ([]models.Journey, error) {
	var out struct {
		Journeys []models.Journey `json:"journeys"`
	}
	if err := c.Execute(ctx, http.MethodGet, "/api/v1/journeys"+limitQuery(limit), nil, &out); err != nil {
		return nil, err
	}
	return out.Journeys, nil
}

// GetJourney fetches a journey with its resource details.
func (c *Client) GetJourney(ctx context.Context, id string) (*service.JourneyDetail, error) {
	out := service.JourneyDetail{Journey: &models.Journey{}}
	if err := c.Execute(ctx, http.MethodGet, "/api/v1/journeys/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetResource fetches a resource, refetching its content when refresh is set.
func (c *Client) GetResource(ctx context.Context, id string, refresh bool) (*models.Resource, error) {
	path := "/api/v1/resources/" + url.PathEscape(id)
	if refresh {
		path += "?refresh=true"
	}
	var out models.Resource
	if err := c.Execute(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// Progress
// =============================================================================

func progressPath(journeyID, resourceID, action string) string {
	return "/api/v1/progress/" + url.PathEscape(journeyID) + "/" + url.PathEscape(resourceID) + "/" + action
}

func (c *Client) progressEvent(ctx context.Context, journeyID, resourceID, action string, body any) (*models.ProgressRecord, error) {
	var out models.ProgressRecord
	if err := c.Execute(ctx, http.MethodPost, progressPath(journeyID, resourceID, action), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StartResource marks a resource in progress.
func (c *Client) StartResource(ctx context.Context, journeyID, resourceID string) (*models.ProgressRecord, error) {
	return c.progressEvent(ctx, journeyID, resourceID, "start", nil)
}

// CompleteResource marks a resource completed.
func (c *Client) CompleteResource(ctx context.Context, journeyID, resourceID string) (*models.ProgressRecord, error) {
	return c.progressEvent(ctx, journeyID, resourceID, "complete", nil)
}

// ReopenResource marks a completed resource incomplete again.
func (c *Client) ReopenResource(ctx context.Context, journeyID, resourceID string) (*models.ProgressRecord, error) {
	return c.progressEvent(ctx, journeyID, resourceID, "incomplete", nil)
}

// AddTime adds minutes of study time to a resource.
func (c *Client) AddTime(ctx context.Context, journeyID, resourceID string, minutes int) (*models.ProgressRecord, error) {
	return c.progressEvent(ctx, journeyID, resourceID, "time", api.TimeRequest{Minutes: minutes})
}

// ProgressSummary fetches the aggregate progress of a journey.
func (c *Client) ProgressSummary(ctx context.Context, journeyID string) (*models.ProgressSummary, error) {
	var out models.ProgressSummary
	if err := c.Execute(ctx, http.MethodGet, "/api/v1/progress/"+url.PathEscape(journeyID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LastPosition returns the most recently accessed resource of a journey, or
// nil when nothing has been opened yet.
func (c *Client) LastPosition(ctx context.Context, journeyID string) (*models.LastPosition, error) {
	var out struct {
		LastPosition *models.LastPosition `json:"last_position"`
	}
	if err := c.Execute(ctx, http.MethodGet, "/api/v1/progress/"+url.PathEscape(journeyID)+"/last-position", nil, &out); err != nil {
		return nil, err
	}
	return out.LastPosition, nil
}

// =============================================================================
// Server
// =============================================================================

// Stats fetches runtime statistics and the journeys currently being built.
func (c *Client) Stats(ctx context.Context) (*api.StatsResponse, error) {
	var out api.StatsResponse
	if err := c.Execute(ctx, http.MethodGet, "/api/v1/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func limitQuery(limit int) string {
	if limit <= 0 {
		return ""
	}
	return "?limit=" + strconv.Itoa(limit)
}
