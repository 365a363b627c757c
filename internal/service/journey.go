// Package service holds the business logic behind the API, CLI and MCP
// surfaces: journey creation and curation, elicitation, progress tracking
// and resource access.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raphaelgruber/journeys/internal/curation"
	"github.com/raphaelgruber/journeys/internal/metrics"
	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/scrape"
	"golang.org/x/sync/singleflight"
)

// DefaultListLimit caps journey and conversation listings.
const DefaultListLimit = 50

// JourneyOptions tunes journey creation.
type JourneyOptions struct {
	MaxResources int // resources kept per journey; 0 means curation.DefaultMaxResources
	FreeLimit    int // journeys per user; 0 means unlimited
}

// JourneyDetail is a journey together with its resolved resources.
type JourneyDetail struct {
	*models.Journey
	ResourceDetails []models.Resource `json:"resource_details"`
}

// JourneyService creates journeys and drives them through the pipeline.
type JourneyService struct {
	store     JourneyStore
	resources ResourceStore
	scraper   Scraper
	runner    *Runner
	opts      JourneyOptions
	log       *slog.Logger
	metrics   *metrics.Collector
	group     singleflight.Group
}

// NewJourneyService creates a journey service.
func NewJourneyService(store JourneyStore, resources ResourceStore, scraper Scraper, opts JourneyOptions, log *slog.Logger, mc *metrics.Collector) *JourneyService {
	if log == nil {
		log = slog.Default()
	}
	return &JourneyService{
		store:     store,
		resources: resources,
		scraper:   scraper,
		runner:    NewRunner(log),
		opts:      opts,
		log:       log,
		metrics:   mc,
	}
}

// Create persists a pending journey for intent and starts its pipeline in
// the background.
func (s *JourneyService) Create(ctx context.Context, userID string, intent models.Intent) (*models.Journey, error) {
	topic := strings.TrimSpace(intent.Topic)
	if userID == "" || topic == "" {
		return nil, fmt.Errorf("create journey: %w: user and topic are required", ErrInvalidInput)
	}
	if s.opts.FreeLimit > 0 {
		n, err := s.store.CountJourneys(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("create journey: %w", err)
		}
		if n >= s.opts.FreeLimit {
			return nil, fmt.Errorf("create journey: %w", ErrQuotaExceeded)
		}
	}

	level := intent.Level
	if !level.Valid() {
		level = models.DifficultyBeginner
	}
	j := &models.Journey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Topic:     topic,
		Level:     level,
		Goal:      intent.Goal,
		Format:    models.ParseFormat(string(intent.Format)),
		Resources: []string{},
		Sections:  []models.Section{},
	}
	if err := s.store.CreateJourney(ctx, j); err != nil {
		return nil, fmt.Errorf("create journey: %w", err)
	}
	s.log.Info("journey created", "journey_id", j.ID, "user_id", userID, "topic", topic, "level", level)

	s.start(j.ID)
	return j, nil
}

func (s *JourneyService) start(id string) {
	s.runner.Go(id, s.Curate, s.failPanicked)
}

// Get returns a journey owned by userID. Journeys that are still being
// built come back with their status and no resources or sections.
func (s *JourneyService) Get(ctx context.Context, userID, id string) (*models.Journey, error) {
	j, err := s.store.GetJourney(ctx, id)
	if err != nil {
		return nil, wrapNotFound("get journey "+id, err)
	}
	if userID != "" && j.UserID != userID {
		return nil, fmt.Errorf("get journey %s: %w", id, ErrNotFound)
	}
	if j.Status != models.JourneyReady {
		j.Resources = []string{}
		j.Sections = []models.Section{}
	}
	return j, nil
}

// Detail is Get plus the stored resources of a ready journey, in journey
// order.
func (s *JourneyService) Detail(ctx context.Context, userID, id string) (*JourneyDetail, error) {
	j, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	d := &JourneyDetail{Journey: j, ResourceDetails: []models.Resource{}}
	if len(j.Resources) == 0 {
		return d, nil
	}
	rs, err := s.resources.GetResources(ctx, j.Resources)
	if err != nil {
		return nil, fmt.Errorf("load journey resources: %w", err)
	}
	for i := range rs {
		rs[i].Content = ""
	}
	d.ResourceDetails = rs
	return d, nil
}

// List returns the user's journeys, newest first.
func (s *JourneyService) List(ctx context.Context, userID string, limit int) ([]models.Journey, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	js, err := s.store.ListJourneys(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list journeys: %w", err)
	}
	return js, nil
}

// Curate runs the pipeline for a journey from wherever it stopped.
// A ready or failed journey is left alone. Concurrent calls for the same
// journey share one run.
func (s *JourneyService) Curate(ctx context.Context, id string) error {
	_, err, _ := s.group.Do(id, func() (any, error) {
		return nil, s.run(ctx, id)
	})
	return err
}

func (s *JourneyService) run(ctx context.Context, id string) error {
	j, err := s.store.GetJourney(ctx, id)
	if err != nil {
		return wrapNotFound("load journey "+id, err)
	}

	var found []models.Resource
	switch j.Status {
	case models.JourneyReady, models.JourneyFailed:
		return nil
	case models.JourneyCurating:
		found, err = s.candidates(ctx, id)
		if err != nil {
			return s.fail(ctx, id, StageCurating, err)
		}
	default:
		found, err = s.scrape(ctx, j)
		if err != nil {
			return s.fail(ctx, id, StageScraping, err)
		}
	}

	if err := s.curate(ctx, j, found); err != nil {
		return s.fail(ctx, id, StageCurating, err)
	}
	return nil
}

func (s *JourneyService) scrape(ctx context.Context, j *models.Journey) ([]models.Resource, error) {
	if j.Status == models.JourneyPending {
		if err := s.store.TransitionStatus(ctx, j.ID, models.JourneyPending, models.JourneyScraping); err != nil {
			return nil, err
		}
	}
	s.log.Info("scraping journey", "journey_id", j.ID, "topic", j.Topic)

	found, err := s.scraper.Scrape(ctx, scrape.Request{
		Topic:  j.Topic,
		Level:  j.Level,
		Goal:   j.Goal,
		Format: j.Format,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(found))
	for i, r := range found {
		ids[i] = r.ID
	}
	if err := s.store.BeginCuration(ctx, j.ID, ids); err != nil {
		return nil, err
	}
	return found, nil
}

// candidates reloads the resources persisted when curation began.
func (s *JourneyService) candidates(ctx context.Context, id string) ([]models.Resource, error) {
	ids, err := s.store.Candidates(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resources.GetResources(ctx, ids)
}

func (s *JourneyService) curate(ctx context.Context, j *models.Journey, found []models.Resource) (err error) {
	defer s.metrics.Track(metrics.OpCuration, time.Now(), &err)

	selected := curation.Select(found, j.Format, s.opts.MaxResources)
	if len(selected) == 0 {
		return ErrNoResources
	}
	sections, cerr := curation.CurateWithReport(selected, curation.Signals{Topic: j.Topic, Level: j.Level})
	if errors.Is(cerr, curation.ErrInsufficientSignal) {
		s.log.Info("weak difficulty signal, using a single section", "journey_id", j.ID, "resources", len(selected))
	}
	for i := range selected {
		selected[i].Content = ""
	}

	if err := s.store.CompleteCuration(ctx, j.ID, selected, sections); err != nil {
		return err
	}
	s.log.Info("journey ready", "journey_id", j.ID, "resources", len(selected), "sections", len(sections))
	return nil
}

// fail records the failure on the journey. Cancellation from shutdown
// leaves the journey in place so it resumes on the next start.
func (s *JourneyService) fail(ctx context.Context, id, stage string, err error) error {
	stageErr := &StageError{JourneyID: id, Stage: stage, Err: err}
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		s.log.Info("journey pipeline interrupted", "journey_id", id, "stage", stage)
		return stageErr
	}
	if ferr := s.store.FailJourney(context.WithoutCancel(ctx), id, stage, err.Error()); ferr != nil {
		s.log.Error("failed to record journey failure", "journey_id", id, "error", ferr)
	}
	s.log.Error("journey failed", "journey_id", id, "stage", stage, "error", err)
	return stageErr
}

func (s *JourneyService) failPanicked(ctx context.Context, id string, err error) {
	if ferr := s.store.FailJourney(ctx, id, StagePanic, err.Error()); ferr != nil {
		s.log.Error("failed to record journey failure", "journey_id", id, "error", ferr)
	}
}

// ResumeIncomplete restarts the pipeline of every journey left pending,
// scraping or curating by a previous process.
func (s *JourneyService) ResumeIncomplete(ctx context.Context) error {
	js, err := s.store.ListIncomplete(ctx)
	if err != nil {
		return fmt.Errorf("list incomplete journeys: %w", err)
	}
	if len(js) == 0 {
		s.log.Info("no incomplete journeys to resume")
		return nil
	}
	for _, j := range js {
		s.log.Info("resuming journey", "journey_id", j.ID, "status", j.Status)
		s.start(j.ID)
	}
	return nil
}

// Active lists the pipelines running right now.
func (s *JourneyService) Active() []Run {
	return s.runner.Active()
}

// Shutdown stops background pipelines.
func (s *JourneyService) Shutdown(ctx context.Context) error {
	return s.runner.Shutdown(ctx)
}
