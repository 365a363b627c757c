package tools_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/service"
	"github.com/raphaelgruber/journeys/internal/tools"
)

type fakeJourneys struct{}

func (fakeJourneys) Detail(_ context.Context, userID, id string) (*service.JourneyDetail, error) {
	if id != "j1" {
		return nil, fmt.Errorf("journey %s: %w", id, service.ErrNotFound)
	}
	return &service.JourneyDetail{
		Journey:         &models.Journey{ID: "j1", UserID: userID, Topic: "go", Status: models.JourneyReady, Resources: []string{"r1"}},
		ResourceDetails: []models.Resource{{ID: "r1", Title: "A Tour of Go"}},
	}, nil
}

func (fakeJourneys) List(_ context.Context, _ string, _ int) ([]models.Journey, error) {
	return []models.Journey{{ID: "j1", Topic: "go", Status: models.JourneyReady, Level: models.Difficulty("beginner"), Resources: []string{"r1"}}}, nil
}

type fakeChat struct {
	user string
}

func (f *fakeChat) Start(_ context.Context, userID, message string) (*service.ChatReply, error) {
	f.user = userID
	return &service.ChatReply{Reply: "What level are you at?", ConversationID: "c1", Questions: []string{"I'm a beginner"}}, nil
}

func (f *fakeChat) Respond(_ context.Context, _ string, _ string, _ []models.Turn, conversationID string) (*service.ChatReply, error) {
	if conversationID == "quota" {
		return nil, service.ErrQuotaExceeded
	}
	return &service.ChatReply{Reply: "Building it now.", ConversationID: conversationID, Ready: true, JourneyID: "j2"}, nil
}

type fakeProgress struct {
	last *models.LastPosition
}

func (f *fakeProgress) write(key models.ProgressKey, c models.Completion, mins int) (*models.ProgressRecord, error) {
	if key.JourneyID == "building" {
		return nil, &service.ProgressError{Op: models.OpMarkInProgress, JourneyID: key.JourneyID, Err: service.ErrJourneyNotReady}
	}
	return &models.ProgressRecord{ProgressKey: key, Completed: c, TimeSpentMinutes: mins}, nil
}

func (f *fakeProgress) MarkInProgress(_ context.Context, key models.ProgressKey) (*models.ProgressRecord, error) {
	return f.write(key, models.InProgress, 0)
}

func (f *fakeProgress) MarkCompleted(_ context.Context, key models.ProgressKey) (*models.ProgressRecord, error) {
	return f.write(key, models.Completed, 0)
}

func (f *fakeProgress) MarkIncomplete(_ context.Context, key models.ProgressKey) (*models.ProgressRecord, error) {
	return f.write(key, models.InProgress, 0)
}

func (f *fakeProgress) AddTimeSpent(_ context.Context, key models.ProgressKey, minutes int) (*models.ProgressRecord, error) {
	return f.write(key, models.InProgress, minutes)
}

func (f *fakeProgress) Summary(_ context.Context, _, journeyID string) (*models.ProgressSummary, error) {
	return &models.ProgressSummary{JourneyID: journeyID, TotalResources: 2, CompletionPercentage: 50}, nil
}

func (f *fakeProgress) LastPosition(context.Context, string, string) (*models.LastPosition, error) {
	return f.last, nil
}

func connect(t *testing.T, deps *tools.Dependencies) *mcp.ClientSession {
	t.Helper()

	server := mcp.NewServer(&mcp.Implementation{Name: "test-journeys", Version: "0.0.1-test"}, nil)
	tools.RegisterAll(server, deps)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	go func() { _ = server.Run(ctx, serverTransport) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err, "client should connect successfully")
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func newDeps() (*tools.Dependencies, *fakeChat, *fakeProgress) {
	chat := &fakeChat{}
	progress := &fakeProgress{}
	return &tools.Dependencies{
		Journeys: fakeJourneys{},
		Chat:     chat,
		Progress: progress,
		UserID:   "local",
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, chat, progress
}

func call(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(t.Context(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be TextContent")
	return text.Text, result.IsError
}

func TestListTools(t *testing.T) {
	deps, _, _ := newDeps()
	session := connect(t, deps)

	result, err := session.ListTools(t.Context(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"ping", "chat_start", "chat_respond", "get_journey", "list_journeys",
		"progress_start", "progress_complete", "progress_incomplete", "progress_add_time",
		"progress_summary", "progress_last_position",
	}, names)
}

func TestPing(t *testing.T) {
	deps, _, _ := newDeps()
	session := connect(t, deps)

	text, isErr := call(t, session, "ping", map[string]any{})
	assert.Equal(t, "pong", text)
	assert.False(t, isErr)

	text, _ = call(t, session, "ping", map[string]any{"echo": "hello world"})
	assert.Equal(t, "hello world", text)
}

func TestChatTools(t *testing.T) {
	deps, chat, _ := newDeps()
	session := connect(t, deps)

	text, isErr := call(t, session, "chat_start", map[string]any{"message": "learn go"})
	require.False(t, isErr, text)
	var reply service.ChatReply
	require.NoError(t, json.Unmarshal([]byte(text), &reply))
	assert.Equal(t, "c1", reply.ConversationID)
	assert.Equal(t, "local", chat.user)

	text, isErr = call(t, session, "chat_respond", map[string]any{"message": "beginner", "conversation_id": "c1"})
	require.False(t, isErr, text)
	require.NoError(t, json.Unmarshal([]byte(text), &reply))
	assert.Equal(t, "j2", reply.JourneyID)

	text, isErr = call(t, session, "chat_respond", map[string]any{"message": "beginner", "conversation_id": "quota"})
	assert.True(t, isErr)
	assert.Contains(t, text, "quota")

	_, isErr = call(t, session, "chat_start", map[string]any{"message": "  "})
	assert.True(t, isErr)
}

func TestJourneyTools(t *testing.T) {
	deps, _, _ := newDeps()
	session := connect(t, deps)

	text, isErr := call(t, session, "get_journey", map[string]any{"id": "j1"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "A Tour of Go")

	text, isErr = call(t, session, "get_journey", map[string]any{"id": "nope"})
	assert.True(t, isErr)
	assert.Contains(t, text, "Not found")

	text, isErr = call(t, session, "list_journeys", map[string]any{})
	require.False(t, isErr)
	assert.Equal(t, "j1 [ready] go (beginner, 1 resources)", text)

	_, isErr = call(t, session, "list_journeys", map[string]any{"limit": 500})
	assert.True(t, isErr)
}

func TestProgressTools(t *testing.T) {
	deps, _, progress := newDeps()
	session := connect(t, deps)

	text, isErr := call(t, session, "progress_add_time", map[string]any{"journey_id": "j1", "resource_id": "r1", "minutes": 25})
	require.False(t, isErr, text)
	var rec models.ProgressRecord
	require.NoError(t, json.Unmarshal([]byte(text), &rec))
	assert.Equal(t, 25, rec.TimeSpentMinutes)
	assert.Equal(t, "local", rec.UserID)

	text, isErr = call(t, session, "progress_complete", map[string]any{"journey_id": "j1", "resource_id": "r1"})
	require.False(t, isErr, text)

	text, isErr = call(t, session, "progress_start", map[string]any{"journey_id": "building", "resource_id": "r1"})
	assert.True(t, isErr)
	assert.Contains(t, text, "still being built")

	text, _ = call(t, session, "progress_summary", map[string]any{"journey_id": "j1"})
	assert.Contains(t, text, `"completion_percentage": 50`)

	text, _ = call(t, session, "progress_last_position", map[string]any{"journey_id": "j1"})
	assert.Contains(t, text, "Nothing opened yet")

	progress.last = &models.LastPosition{JourneyID: "j1", ResourceID: "r1"}
	text, _ = call(t, session, "progress_last_position", map[string]any{"journey_id": "j1"})
	assert.Contains(t, text, `"resource_id": "r1"`)
}
