package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raphaelgruber/journeys/internal/llm"
	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/scrape"
	"github.com/raphaelgruber/journeys/internal/sources"
	"github.com/raphaelgruber/journeys/internal/sqlstore"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlstore.Store {
	t.Helper()
	s, err := sqlstore.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type fakeResources struct {
	mu        sync.Mutex
	byID      map[string]models.Resource
	refreshed []string
}

func newFakeResources(rs ...models.Resource) *fakeResources {
	f := &fakeResources{byID: make(map[string]models.Resource)}
	f.put(rs...)
	return f
}

func (f *fakeResources) put(rs ...models.Resource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rs {
		f.byID[r.ID] = r
	}
}

func (f *fakeResources) GetResource(_ context.Context, id string) (*models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", id, ErrNotFound)
	}
	return &r, nil
}

func (f *fakeResources) GetResources(_ context.Context, ids []string) ([]models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Resource, 0, len(ids))
	for _, id := range ids {
		if r, ok := f.byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResources) RefreshContent(_ context.Context, id, content string, minutes int) (*models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := time.Now()
	r.Content = content
	r.ContentFetchedAt = &now
	r.EstimatedTime = minutes
	f.byID[id] = r
	f.refreshed = append(f.refreshed, id)
	return &r, nil
}

type fakeScraper struct {
	store   *fakeResources
	results []models.Resource
	err     error
	panics  bool
	release chan struct{}
	calls   atomic.Int32
}

func (f *fakeScraper) Scrape(ctx context.Context, _ scrape.Request) ([]models.Resource, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panics {
		panic("adapter exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.store != nil {
		f.store.put(f.results...)
	}
	return f.results, nil
}

type fakeReasoner struct {
	mu       sync.Mutex
	analyses []*llm.Analysis
	err      error
	seen     [][]models.Turn
}

func (f *fakeReasoner) AnalyzeConversation(_ context.Context, turns []models.Turn) (*llm.Analysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, append([]models.Turn(nil), turns...))
	if f.err != nil {
		return nil, f.err
	}
	if len(f.analyses) == 0 {
		return &llm.Analysis{}, nil
	}
	a := f.analyses[0]
	if len(f.analyses) > 1 {
		f.analyses = f.analyses[1:]
	}
	return a, nil
}

type fakeFetcher struct {
	page  *sources.Page
	err   error
	calls atomic.Int32
}

func (f *fakeFetcher) Fetch(context.Context, string) (*sources.Page, error) {
	f.calls.Add(1)
	return f.page, f.err
}

var summary = strings.Repeat("a useful overview sentence ", 3)

func sampleResources() []models.Resource {
	return []models.Resource{
		{ID: "r1", URL: "https://a.dev/1", Title: "Go basics", Type: models.ResourceBlog, Difficulty: models.DifficultyBeginner, Summary: summary, EstimatedTime: 10, Score: 0.9},
		{ID: "r2", URL: "https://a.dev/2", Title: "Go concurrency", Type: models.ResourceVideo, Difficulty: models.DifficultyAdvanced, Summary: summary, Score: 0.8},
		{ID: "r3", URL: "https://a.dev/3", Title: "Go modules", Type: models.ResourceDoc, Difficulty: models.DifficultyIntermediate, Summary: summary, EstimatedTime: 5, Score: 0.7},
		{ID: "r4", URL: "https://a.dev/4", Title: "Build a CLI in Go", Type: models.ResourceBlog, Difficulty: models.DifficultyBeginner, Tags: []string{"project"}, Summary: summary, Score: 0.6},
	}
}

// readyJourney stores a ready journey for user with the given resources.
func readyJourney(t *testing.T, s *sqlstore.Store, user string, rs []models.Resource) *models.Journey {
	t.Helper()
	ctx := context.Background()
	j := &models.Journey{ID: "j-" + user, UserID: user, Topic: "go", Level: models.DifficultyBeginner, Format: models.FormatAny}
	require.NoError(t, s.CreateJourney(ctx, j))
	require.NoError(t, s.TransitionStatus(ctx, j.ID, models.JourneyPending, models.JourneyScraping))
	ids := make([]string, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	require.NoError(t, s.BeginCuration(ctx, j.ID, ids))
	sections := []models.Section{{Name: "Learning Path", Resources: ids}}
	require.NoError(t, s.CompleteCuration(ctx, j.ID, rs, sections))
	got, err := s.GetJourney(ctx, j.ID)
	require.NoError(t, err)
	return got
}
