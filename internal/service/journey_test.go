package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/scrape"
	"github.com/raphaelgruber/journeys/internal/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type journeyFixture struct {
	store     *sqlstore.Store
	resources *fakeResources
	scraper   *fakeScraper
	svc       *JourneyService
}

func newJourneyFixture(t *testing.T, opts JourneyOptions) *journeyFixture {
	t.Helper()
	store := newStore(t)
	resources := newFakeResources()
	scraper := &fakeScraper{store: resources, results: sampleResources()}
	svc := NewJourneyService(store, resources, scraper, opts, nil, nil)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = svc.Shutdown(ctx)
	})
	return &journeyFixture{store: store, resources: resources, scraper: scraper, svc: svc}
}

func (f *journeyFixture) waitStatus(t *testing.T, id string, want models.JourneyStatus) *models.Journey {
	t.Helper()
	var j *models.Journey
	require.Eventually(t, func() bool {
		var err error
		j, err = f.store.GetJourney(context.Background(), id)
		return err == nil && j.Status == want
	}, 5*time.Second, 10*time.Millisecond, "journey %s never reached %s", id, want)
	return j
}

func pendingJourney(t *testing.T, s *sqlstore.Store, id string) {
	t.Helper()
	require.NoError(t, s.CreateJourney(context.Background(), &models.Journey{
		ID: id, UserID: "u1", Topic: "go", Level: models.DifficultyBeginner, Format: models.FormatAny,
	}))
}

func TestCreateRunsPipeline(t *testing.T) {
	f := newJourneyFixture(t, JourneyOptions{})
	ctx := context.Background()

	j, err := f.svc.Create(ctx, "u1", models.Intent{Topic: " go ", Level: "expert", Format: "podcast"})
	require.NoError(t, err)
	assert.Equal(t, "go", j.Topic)
	assert.Equal(t, models.DifficultyBeginner, j.Level)
	assert.Equal(t, models.FormatAny, j.Format)

	ready := f.waitStatus(t, j.ID, models.JourneyReady)
	assert.Len(t, ready.Resources, 4)

	covered := map[string]int{}
	for _, sec := range ready.Sections {
		for _, id := range sec.Resources {
			covered[id]++
		}
	}
	for _, id := range ready.Resources {
		assert.Equal(t, 1, covered[id], "resource %s coverage", id)
	}

	d, err := f.svc.Detail(ctx, "u1", j.ID)
	require.NoError(t, err)
	require.Len(t, d.ResourceDetails, 4)
	assert.Equal(t, ready.Resources[0], d.ResourceDetails[0].ID)
}

func TestCreateValidation(t *testing.T) {
	f := newJourneyFixture(t, JourneyOptions{})
	_, err := f.svc.Create(context.Background(), "u1", models.Intent{Topic: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateQuota(t *testing.T) {
	f := newJourneyFixture(t, JourneyOptions{FreeLimit: 1})
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "u1", models.Intent{Topic: "go"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, "u1", models.Intent{Topic: "rust"})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	_, err = f.svc.Create(ctx, "u2", models.Intent{Topic: "rust"})
	assert.NoError(t, err, "quota is per user")
}

func TestGetHidesUnfinishedJourney(t *testing.T) {
	f := newJourneyFixture(t, JourneyOptions{})
	pendingJourney(t, f.store, "j1")

	j, err := f.svc.Get(context.Background(), "u1", "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JourneyPending, j.Status)
	assert.Empty(t, j.Resources)
	assert.NotNil(t, j.Sections)

	_, err = f.svc.Get(context.Background(), "someone-else", "j1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.svc.Get(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCurateReadyIsNoop(t *testing.T) {
	f := newJourneyFixture(t, JourneyOptions{})
	pendingJourney(t, f.store, "j1")
	ctx := context.Background()

	require.NoError(t, f.svc.Curate(ctx, "j1"))
	require.NoError(t, f.svc.Curate(ctx, "j1"))

	j, err := f.store.GetJourney(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, models.JourneyReady, j.Status)
	assert.Equal(t, int32(1), f.scraper.calls.Load())
}

func TestCurateConcurrentCallsShareOneRun(t *testing.T) {
	f := newJourneyFixture(t, JourneyOptions{})
	f.scraper.release = make(chan struct{})
	pendingJourney(t, f.store, "j1")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.svc.Curate(context.Background(), "j1")
		}()
	}
	require.Eventually(t, func() bool { return f.scraper.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	close(f.scraper.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), f.scraper.calls.Load())
	j := f.waitStatus(t, "j1", models.JourneyReady)
	assert.Len(t, j.Resources, 4)
}

func TestCurateScrapeFailure(t *testing.T) {
	f := newJourneyFixture(t, JourneyOptions{})
	f.scraper.err = fmt.Errorf("scrape %q: %w", "go", scrape.ErrAllSourcesFailed)
	pendingJourney(t, f.store, "j1")

	err := f.svc.Curate(context.Background(), "j1")
	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr), "got %v", err)
	assert.Equal(t, StageScraping, stageErr.Stage)
	assert.ErrorIs(t, err, scrape.ErrAllSourcesFailed)

	j := f.waitStatus(t, "j1", models.JourneyFailed)
	assert.Equal(t, StageScraping, j.FailedStage)
	assert.Contains(t, j.Error, "all sources failed")
}

func TestCurateNothingUsable(t *testing.T) {
	f := newJourneyFixture(t, JourneyOptions{})
	f.scraper.results = nil
	pendingJourney(t, f.store, "j1")

	err := f.svc.Curate(context.Background(), "j1")
	assert.ErrorIs(t, err, ErrNoResources)
	j := f.waitStatus(t, "j1", models.JourneyFailed)
	assert.Equal(t, StageCurating, j.FailedStage)
}

func TestPipelinePanicFailsJourney(t *testing.T) {
	f := newJourneyFixture(t, JourneyOptions{})
	f.scraper.panics = true

	j, err := f.svc.Create(context.Background(), "u1", models.Intent{Topic: "go"})
	require.NoError(t, err)

	failed := f.waitStatus(t, j.ID, models.JourneyFailed)
	assert.Equal(t, StagePanic, failed.FailedStage)
	assert.Contains(t, failed.Error, "adapter exploded")
}

func TestResumeIncompleteFromCurating(t *testing.T) {
	f := newJourneyFixture(t, JourneyOptions{})
	ctx := context.Background()
	rs := sampleResources()
	f.resources.put(rs...)

	pendingJourney(t, f.store, "j1")
	require.NoError(t, f.store.TransitionStatus(ctx, "j1", models.JourneyPending, models.JourneyScraping))
	require.NoError(t, f.store.BeginCuration(ctx, "j1", []string{"r1", "r2", "r3"}))
	pendingJourney(t, f.store, "j2")

	require.NoError(t, f.svc.ResumeIncomplete(ctx))

	j1 := f.waitStatus(t, "j1", models.JourneyReady)
	assert.ElementsMatch(t, []string{"r1", "r2", "r3"}, j1.Resources)
	f.waitStatus(t, "j2", models.JourneyReady)
	assert.Equal(t, int32(1), f.scraper.calls.Load(), "only the pending journey scrapes")
}

func TestSelectCapsJourney(t *testing.T) {
	f := newJourneyFixture(t, JourneyOptions{MaxResources: 2})
	pendingJourney(t, f.store, "j1")

	require.NoError(t, f.svc.Curate(context.Background(), "j1"))
	j := f.waitStatus(t, "j1", models.JourneyReady)
	assert.Len(t, j.Resources, 2)
}

func TestListJourneys(t *testing.T) {
	f := newJourneyFixture(t, JourneyOptions{})
	pendingJourney(t, f.store, "j1")

	js, err := f.svc.List(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, js, 1)
	assert.Equal(t, "j1", js[0].ID)

	js, err = f.svc.List(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, js)
}
