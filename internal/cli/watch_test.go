package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/service"
)

type statusSequence struct {
	statuses []models.JourneyStatus
	calls    int
	err      error
}

func (s *statusSequence) GetJourney(_ context.Context, id string) (*service.JourneyDetail, error) {
	if s.err != nil {
		return nil, s.err
	}
	i := min(s.calls, len(s.statuses)-1)
	s.calls++
	j := &models.Journey{ID: id, Topic: "go", Status: s.statuses[i]}
	if j.Status == models.JourneyFailed {
		j.FailedStage = "curating"
		j.Error = "no usable resources found"
	}
	if j.Status == models.JourneyReady {
		j.Resources = []string{"r1"}
		j.Sections = []models.Section{{Name: "Fundamentals", Resources: []string{"r1"}}}
	}
	return &service.JourneyDetail{
		Journey:         j,
		ResourceDetails: []models.Resource{{ID: "r1", Title: "A Tour of Go", Type: models.ResourceDoc, URL: "https://go.dev/tour"}},
	}, nil
}

func detail(status models.JourneyStatus) *service.JourneyDetail {
	return &service.JourneyDetail{Journey: &models.Journey{ID: "j1", Status: status}}
}

func TestWatchModelKeepsPollingWhileBuilding(t *testing.T) {
	m := newWatchModel(&statusSequence{}, "j1")

	next, cmd := m.Update(journeyUpdateMsg{journey: detail(models.JourneyScraping)})
	wm := next.(watchModel)

	assert.False(t, wm.done)
	assert.NotNil(t, cmd)
	assert.Contains(t, wm.renderContent(), "[scraping]")
	assert.Contains(t, wm.renderContent(), "step 2/4")
}

func TestWatchModelTerminalStates(t *testing.T) {
	m := newWatchModel(&statusSequence{}, "j1")

	next, _ := m.Update(journeyUpdateMsg{journey: detail(models.JourneyReady)})
	wm := next.(watchModel)
	assert.True(t, wm.done)
	assert.NoError(t, wm.err)
	assert.Contains(t, wm.renderContent(), "Journey ready")

	failed := detail(models.JourneyFailed)
	failed.FailedStage = "scraping"
	next, _ = m.Update(journeyUpdateMsg{journey: failed})
	wm = next.(watchModel)
	assert.True(t, wm.done)
	require.Error(t, wm.err)
	assert.Contains(t, wm.err.Error(), "scraping")
}

func TestWatchModelFetchError(t *testing.T) {
	m := newWatchModel(&statusSequence{}, "j1")

	next, _ := m.Update(journeyUpdateMsg{err: errors.New("connection refused")})
	wm := next.(watchModel)
	assert.True(t, wm.done)
	assert.ErrorContains(t, wm.err, "connection refused")
}

func TestPollJourneyUntilReady(t *testing.T) {
	seq := &statusSequence{statuses: []models.JourneyStatus{
		models.JourneyPending, models.JourneyScraping, models.JourneyScraping, models.JourneyCurating, models.JourneyReady,
	}}
	var out bytes.Buffer

	err := pollJourney(t.Context(), seq, "j1", &out, time.Millisecond)
	require.NoError(t, err)

	got := out.String()
	assert.Contains(t, got, "[pending] step 1/4")
	assert.Contains(t, got, "[curating] step 3/4")
	assert.Contains(t, got, "A Tour of Go")
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("[scraping]")))
}

func TestPollJourneyFailed(t *testing.T) {
	seq := &statusSequence{statuses: []models.JourneyStatus{models.JourneyScraping, models.JourneyFailed}}

	err := pollJourney(t.Context(), seq, "j1", &bytes.Buffer{}, time.Millisecond)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no usable resources found")
}
