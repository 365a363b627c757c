package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/scrape"
)

// ContentMaxAge is how long fetched page content is served before a
// refresh fetches it again.
const ContentMaxAge = 7 * 24 * time.Hour

// ResourceService reads stored resources and lazily refreshes their content.
type ResourceService struct {
	store   ResourceStore
	fetcher PageFetcher
	log     *slog.Logger
	now     func() time.Time
}

// NewResourceService creates a resource service. fetcher may be nil to
// disable refreshes.
func NewResourceService(store ResourceStore, fetcher PageFetcher, log *slog.Logger) *ResourceService {
	if log == nil {
		log = slog.Default()
	}
	return &ResourceService{store: store, fetcher: fetcher, log: log, now: time.Now}
}

// Get returns a resource. With refresh set, content that is missing or
// older than ContentMaxAge is fetched and stored first. A failed fetch
// still returns the stored resource.
func (s *ResourceService) Get(ctx context.Context, id string, refresh bool) (*models.Resource, error) {
	r, err := s.store.GetResource(ctx, id)
	if err != nil {
		return nil, wrapNotFound("get resource "+id, err)
	}
	if !refresh || !s.stale(r) {
		return r, nil
	}

	page, err := s.fetcher.Fetch(ctx, r.URL)
	if err != nil {
		s.log.Warn("content refresh failed", "resource_id", id, "url", r.URL, "error", err)
		return r, nil
	}
	if len(page.Text) < scrape.MinContentLen {
		s.log.Debug("refreshed page too short, keeping stored content", "resource_id", id, "chars", len(page.Text))
		return r, nil
	}

	updated, err := s.store.RefreshContent(ctx, id, page.Text, scrape.ReadingTime(page.Text))
	if err != nil {
		return nil, fmt.Errorf("refresh resource %s: %w", id, err)
	}
	s.log.Info("resource content refreshed", "resource_id", id)
	return updated, nil
}

func (s *ResourceService) stale(r *models.Resource) bool {
	if s.fetcher == nil || r.Type == models.ResourceVideo {
		return false
	}
	if r.Content == "" || r.ContentFetchedAt == nil {
		return true
	}
	return s.now().Sub(*r.ContentFetchedAt) > ContentMaxAge
}
