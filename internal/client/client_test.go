package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/journeys/internal/api"
	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/service"
)

type recorded struct {
	method string
	path   string
	query  string
	user   string
	body   map[string]any
}

func newServer(t *testing.T, status int, response any) (*httptest.Server, *recorded) {
	t.Helper()
	rec := &recorded{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.RawQuery
		rec.user = r.Header.Get(api.UserHeader)
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestStartChat(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, service.ChatReply{Reply: "What is your goal?", ConversationID: "c1"})
	c := New(srv.URL, "alice")

	reply, err := c.StartChat(t.Context(), "teach me rust")
	require.NoError(t, err)

	assert.Equal(t, "c1", reply.ConversationID)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/v1/chat/start", rec.path)
	assert.Equal(t, "alice", rec.user)
	assert.Equal(t, "teach me rust", rec.body["message"])
}

func TestGetJourney(t *testing.T) {
	detail := service.JourneyDetail{
		Journey:         &models.Journey{ID: "j1", Status: models.JourneyCurating},
		ResourceDetails: []models.Resource{},
	}
	srv, rec := newServer(t, http.StatusOK, detail)
	c := New(srv.URL, "alice")

	got, err := c.GetJourney(t.Context(), "j1")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/journeys/j1", rec.path)
	assert.Equal(t, models.JourneyCurating, got.Status)
}

func TestNotFound(t *testing.T) {
	srv, _ := newServer(t, http.StatusNotFound, map[string]string{"error": "journey j1: not found"})
	c := New(srv.URL, "alice")

	_, err := c.GetJourney(t.Context(), "j1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "journey j1: not found", apiErr.Message)
}

func TestProgressPaths(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, models.ProgressRecord{})
	c := New(srv.URL, "alice")
	ctx := t.Context()

	tests := []struct {
		name string
		call func() error
		path string
	}{
		{"start", func() error { _, err := c.StartResource(ctx, "j1", "r1"); return err }, "/api/v1/progress/j1/r1/start"},
		{"complete", func() error { _, err := c.CompleteResource(ctx, "j1", "r1"); return err }, "/api/v1/progress/j1/r1/complete"},
		{"incomplete", func() error { _, err := c.ReopenResource(ctx, "j1", "r1"); return err }, "/api/v1/progress/j1/r1/incomplete"},
		{"time", func() error { _, err := c.AddTime(ctx, "j1", "r1", 30); return err }, "/api/v1/progress/j1/r1/time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.call())
			assert.Equal(t, http.MethodPost, rec.method)
			assert.Equal(t, tt.path, rec.path)
		})
	}
	assert.EqualValues(t, 30, rec.body["minutes"])
}

func TestLastPositionEmpty(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, map[string]any{"last_position": nil})
	c := New(srv.URL, "alice")

	pos, err := c.LastPosition(t.Context(), "j1")
	require.NoError(t, err)
	assert.Nil(t, pos)
}

func TestListJourneysLimit(t *testing.T) {
	srv, rec := newServer(t, http.StatusOK, map[string]any{"journeys": []models.Journey{{ID: "j1"}}})
	c := New(srv.URL+"/", "alice")

	list, err := c.ListJourneys(t.Context(), 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, "limit=10", rec.query)
}

func TestNewDefaults(t *testing.T) {
	t.Setenv("JOURNEYS_SERVER_URL", "")
	t.Setenv("JOURNEYS_CLIENT_TIMEOUT", "5s")

	c := New("", "bob")
	assert.Equal(t, "http://localhost:8484", c.baseURL)
	assert.Equal(t, "5s", c.httpClient.Timeout.String())
}
