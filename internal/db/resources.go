package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// resourceRecord is the SurrealDB shape of a resource.
type resourceRecord struct {
	ID               surrealmodels.RecordID `json:"id"`
	URL              string                 `json:"url"`
	Title            string                 `json:"title"`
	Type             string                 `json:"type"`
	Difficulty       string                 `json:"difficulty"`
	Tags             []string               `json:"tags"`
	Summary          string                 `json:"summary"`
	EstimatedTime    int                    `json:"estimated_time"`
	Content          *string                `json:"content,omitempty"`
	ContentFetchedAt *time.Time             `json:"content_fetched_at,omitempty"`
	Source           string                 `json:"source"`
	Score            float64                `json:"score"`
	Created          time.Time              `json:"created"`
	Updated          time.Time              `json:"updated"`
}

func (r resourceRecord) toModel() (models.Resource, error) {
	id, err := models.RecordIDString(r.ID)
	if err != nil {
		return models.Resource{}, err
	}
	res := models.Resource{
		ID:               id,
		URL:              r.URL,
		Title:            r.Title,
		Type:             models.ResourceType(r.Type),
		Difficulty:       models.Difficulty(r.Difficulty),
		Tags:             r.Tags,
		Summary:          r.Summary,
		EstimatedTime:    r.EstimatedTime,
		Source:           r.Source,
		Score:            r.Score,
		ContentFetchedAt: r.ContentFetchedAt,
		Created:          r.Created,
		Updated:          r.Updated,
	}
	if r.Content != nil {
		res.Content = *r.Content
	}
	return res, nil
}

// upsertResourceSQL writes metadata last-writer-wins while the record key
// stays fixed. Cached content survives metadata refreshes unless new
// content is supplied.
const upsertResourceSQL = `
	UPSERT type::record("resource", $id) SET
		url = $url,
		title = $title,
		type = $type,
		difficulty = $difficulty,
		tags = $tags,
		summary = $summary,
		estimated_time = $estimated_time,
		source = $source,
		score = $score,
		content = $content ?? content,
		content_fetched_at = IF $content THEN time::now() ELSE content_fetched_at END,
		created = IF created THEN created ELSE time::now() END,
		updated = time::now()
	RETURN AFTER
`

// UpsertResource creates or refreshes a resource keyed by its stable ID.
func (c *Client) UpsertResource(ctx context.Context, r models.Resource) (*models.Resource, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("upsert resource: empty id for %s", r.URL)
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	vars := map[string]any{
		"id":             r.ID,
		"url":            r.URL,
		"title":          r.Title,
		"type":           string(r.Type),
		"difficulty":     string(r.Difficulty),
		"tags":           tags,
		"summary":        r.Summary,
		"estimated_time": r.EstimatedTime,
		"source":         r.Source,
		"score":          r.Score,
		"content":        nil,
	}
	if r.Content != "" {
		vars["content"] = r.Content
	}

	var results *[]surrealdb.QueryResult[[]resourceRecord]
	var err error
	// One retry on transaction conflict: concurrent scrapes for different
	// journeys can discover the same URL at the same time.
	for attempt := 0; attempt < 2; attempt++ {
		results, err = surrealdb.Query[[]resourceRecord](ctx, c.db, upsertResourceSQL, vars)
		err = wrapQueryError(err)
		if !errors.Is(err, ErrTransactionConflict) {
			break
		}
		c.log.Debug("resource upsert conflict, retrying", "resource_id", r.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("upsert resource %s: %w", r.ID, err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("upsert resource %s: no result returned", r.ID)
	}
	out, err := (*results)[0].Result[0].toModel()
	if err != nil {
		return nil, fmt.Errorf("upsert resource %s: %w", r.ID, err)
	}
	return &out, nil
}

// UpsertResources writes each resource, stopping at the first failure.
func (c *Client) UpsertResources(ctx context.Context, resources []models.Resource) error {
	for _, r := range resources {
		if _, err := c.UpsertResource(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// GetResource fetches a single resource by ID.
func (c *Client) GetResource(ctx context.Context, id string) (*models.Resource, error) {
	sql := `SELECT * FROM type::record("resource", $id)`
	results, err := surrealdb.Query[[]resourceRecord](ctx, c.db, sql, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get resource: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("get resource %s: %w", id, ErrNotFound)
	}
	r, err := (*results)[0].Result[0].toModel()
	if err != nil {
		return nil, fmt.Errorf("get resource %s: %w", id, err)
	}
	return &r, nil
}

// GetResources fetches resources by ID, preserving the order of ids.
// IDs with no stored record are skipped.
func (c *Client) GetResources(ctx context.Context, ids []string) ([]models.Resource, error) {
	if len(ids) == 0 {
		return []models.Resource{}, nil
	}
	recordIDs := make([]surrealmodels.RecordID, len(ids))
	for i, id := range ids {
		recordIDs[i] = surrealmodels.NewRecordID("resource", id)
	}

	sql := `SELECT * FROM resource WHERE id IN $ids`
	results, err := surrealdb.Query[[]resourceRecord](ctx, c.db, sql, map[string]any{"ids": recordIDs})
	if err != nil {
		return nil, fmt.Errorf("get resources: %w", wrapQueryError(err))
	}

	byID := make(map[string]models.Resource, len(ids))
	if results != nil && len(*results) > 0 {
		for _, rec := range (*results)[0].Result {
			r, err := rec.toModel()
			if err != nil {
				c.log.Warn("skipping resource with unexpected id", "error", err)
				continue
			}
			byID[r.ID] = r
		}
	}

	out := make([]models.Resource, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// RefreshContent replaces the cached content body of a resource.
func (c *Client) RefreshContent(ctx context.Context, id, content string, estimatedTime int) (*models.Resource, error) {
	sql := `
		UPDATE type::record("resource", $id) SET
			content = $content,
			content_fetched_at = time::now(),
			estimated_time = IF $estimated_time > 0 THEN $estimated_time ELSE estimated_time END,
			updated = time::now()
		RETURN AFTER
	`
	results, err := surrealdb.Query[[]resourceRecord](ctx, c.db, sql, map[string]any{
		"id":             id,
		"content":        content,
		"estimated_time": estimatedTime,
	})
	if err != nil {
		return nil, fmt.Errorf("refresh content: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("refresh content %s: %w", id, ErrNotFound)
	}
	r, err := (*results)[0].Result[0].toModel()
	if err != nil {
		return nil, fmt.Errorf("refresh content %s: %w", id, err)
	}
	return &r, nil
}
