package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/journeys/internal/metrics"
	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/sources"
	"golang.org/x/sync/errgroup"
)

// PageFetcher downloads and extracts a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*sources.Page, error)
}

// ResourceWriter persists scraped resources.
type ResourceWriter interface {
	UpsertResources(ctx context.Context, resources []models.Resource) error
}

// Options tunes the orchestrator. Zero values take defaults.
type Options struct {
	AdapterTimeout    time.Duration
	ScrapeTimeout     time.Duration
	MaxCandidates     int
	QueriesPerAdapter int
	FetchWorkers      int
}

func (o *Options) setDefaults() {
	if o.AdapterTimeout <= 0 {
		o.AdapterTimeout = 15 * time.Second
	}
	if o.ScrapeTimeout <= 0 {
		o.ScrapeTimeout = 45 * time.Second
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = 30
	}
	if o.QueriesPerAdapter <= 0 {
		o.QueriesPerAdapter = 2
	}
	if o.FetchWorkers <= 0 {
		o.FetchWorkers = 4
	}
}

// Request describes what to search for.
type Request struct {
	Topic  string
	Level  models.Difficulty
	Goal   string
	Format models.Format
}

// Orchestrator fans a request out to every adapter, merges the answers and
// enriches the survivors with page content.
type Orchestrator struct {
	adapters []sources.Adapter
	fetcher  PageFetcher
	store    ResourceWriter
	opts     Options
	log      *slog.Logger
	metrics  *metrics.Collector
}

// New creates an orchestrator. fetcher and store may be nil to skip
// enrichment and persistence.
func New(adapters []sources.Adapter, fetcher PageFetcher, store ResourceWriter, opts Options, log *slog.Logger, m *metrics.Collector) *Orchestrator {
	opts.setDefaults()
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		adapters: adapters,
		fetcher:  fetcher,
		store:    store,
		opts:     opts,
		log:      log,
		metrics:  m,
	}
}

type adapterResult struct {
	index      int
	candidates []sources.Candidate
	err        error
}

// Scrape searches all adapters and returns the merged resources in
// discovery order. It fails only when no adapter succeeded.
func (o *Orchestrator) Scrape(ctx context.Context, req Request) (_ []models.Resource, err error) {
	start := time.Now()
	defer o.metrics.Track(metrics.OpScrape, start, &err)

	if len(o.adapters) == 0 {
		return nil, fmt.Errorf("scrape %q: %w", req.Topic, ErrAllSourcesFailed)
	}
	queries := BuildQueries(req.Topic, req.Level, req.Goal)
	if len(queries) > o.opts.QueriesPerAdapter {
		queries = queries[:o.opts.QueriesPerAdapter]
	}

	results := make(chan adapterResult, len(o.adapters))
	for i, a := range o.adapters {
		go o.runAdapter(ctx, i, a, queries, results)
	}

	collected := make([]*adapterResult, len(o.adapters))
	timer := time.NewTimer(o.opts.ScrapeTimeout)
	defer timer.Stop()

	pending := len(o.adapters)
collect:
	for pending > 0 {
		select {
		case r := <-results:
			collected[r.index] = &r
			pending--
		case <-timer.C:
			o.log.Warn("scrape timeout, using partial results", "topic", req.Topic, "pending_adapters", pending)
			break collect
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var (
		hits      []Hit
		errs      []error
		succeeded int
	)
	for i, r := range collected {
		name := o.adapters[i].Name()
		if r == nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, ErrAdapterTimeout))
			continue
		}
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, r.err))
			continue
		}
		succeeded++
		hits = append(hits, o.classify(req, i, name, r.candidates)...)
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("scrape %q: %w: %w", req.Topic, ErrAllSourcesFailed, errors.Join(errs...))
	}

	hits = TopN(Dedup(hits), o.opts.MaxCandidates)
	resources := o.enrich(ctx, hits)

	if o.store != nil && len(resources) > 0 {
		if err := o.store.UpsertResources(ctx, resources); err != nil {
			return nil, fmt.Errorf("persist resources: %w", err)
		}
	}
	o.log.Info("scrape finished",
		"topic", req.Topic,
		"adapters_ok", succeeded,
		"adapters_failed", len(errs),
		"resources", len(resources),
		"duration", time.Since(start))
	return resources, nil
}

// runAdapter runs the queries against one adapter. It is detached from the
// caller's cancellation and bounded by the adapter timeout instead.
func (o *Orchestrator) runAdapter(ctx context.Context, index int, a sources.Adapter, queries []string, out chan<- adapterResult) {
	res := adapterResult{index: index}
	defer func() {
		if r := recover(); r != nil {
			res.candidates = nil
			res.err = fmt.Errorf("adapter panic: %v", r)
			o.log.Error("adapter panic recovered", "adapter", a.Name(), "panic", r)
		}
		out <- res
	}()

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.AdapterTimeout)
	defer cancel()

	var lastErr error
	ok := 0
	for _, q := range queries {
		cands, err := o.search(actx, a, q)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(actx.Err(), context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %w", ErrAdapterTimeout, err)
			}
			lastErr = err
			o.log.Warn("adapter search failed", "adapter", a.Name(), "query", q, "error", err)
			if actx.Err() != nil {
				break
			}
			continue
		}
		ok++
		res.candidates = append(res.candidates, cands...)
	}
	if ok == 0 {
		res.err = lastErr
	}
}

func (o *Orchestrator) search(ctx context.Context, a sources.Adapter, q string) (_ []sources.Candidate, err error) {
	defer o.metrics.Track(metrics.OpAdapterSearch, time.Now(), &err)
	return a.Search(ctx, q)
}

// classify canonicalizes, classifies and scores the candidates of one adapter.
func (o *Orchestrator) classify(req Request, adapterIndex int, source string, cands []sources.Candidate) []Hit {
	hits := make([]Hit, 0, len(cands))
	for rank, c := range cands {
		canonical, err := Canonicalize(c.URL)
		if err != nil {
			o.log.Debug("dropping candidate", "url", c.URL, "error", err)
			continue
		}
		text := c.Title + " " + c.Snippet
		typ := ClassifyType(canonical, c.TypeHint, text)
		diff := ClassifyDifficulty(text)
		score := Score(Authority(canonical, c.Authority), Relevance(req.Topic, c.Title, c.Snippet), FormatMatch(req.Format, typ))

		hits = append(hits, Hit{
			Resource: models.Resource{
				ID:         ResourceID(canonical),
				URL:        canonical,
				Title:      c.Title,
				Type:       typ,
				Difficulty: diff,
				Tags:       ClassifyTags(text, typ, diff),
				Summary:    Summarize(c.Snippet),
				Source:     source,
				Score:      score,
			},
			Snippet:      c.Snippet,
			AdapterIndex: adapterIndex,
			Rank:         rank,
		})
	}
	return hits
}

// enrich fetches pages in a bounded pool. Fetch failures keep the snippet.
func (o *Orchestrator) enrich(ctx context.Context, hits []Hit) []models.Resource {
	out := make([]models.Resource, len(hits))
	for i, h := range hits {
		out[i] = h.Resource
	}
	if o.fetcher == nil {
		return out
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.FetchWorkers)
	for i := range out {
		if out[i].Type == models.ResourceVideo {
			continue
		}
		g.Go(func() error {
			o.enrichOne(gctx, &out[i], hits[i].Snippet)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (o *Orchestrator) enrichOne(ctx context.Context, r *models.Resource, snippet string) {
	start := time.Now()
	page, err := o.fetcher.Fetch(ctx, r.URL)
	o.metrics.RecordTiming(metrics.OpPageFetch, time.Since(start))
	if err != nil {
		o.metrics.RecordError(metrics.OpPageFetch)
		o.log.Debug("page fetch failed, keeping snippet", "url", r.URL, "error", err)
		return
	}
	if r.Title == "" {
		r.Title = page.Title
	}
	if len(page.Text) < MinContentLen {
		if r.Summary == "" {
			r.Summary = Summarize(page.Description)
		}
		return
	}

	r.Content = page.Text
	r.EstimatedTime = ReadingTime(page.Text)
	if page.Description != "" {
		r.Summary = Summarize(page.Description)
	} else {
		r.Summary = Summarize(page.Text)
	}
	if r.Summary == "" {
		r.Summary = Summarize(snippet)
	}
	if r.Difficulty == models.DifficultyUnknown {
		r.Difficulty = ClassifyDifficulty(r.Title + " " + page.Description)
	}
	r.Tags = models.NormalizeTags(append(r.Tags, ClassifyTags(r.Title+" "+page.Description, r.Type, r.Difficulty)...))
}
