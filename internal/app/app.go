// Package app wires configuration, stores, the scraping pipeline and the
// services into one runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/raphaelgruber/journeys/internal/api"
	"github.com/raphaelgruber/journeys/internal/cache"
	"github.com/raphaelgruber/journeys/internal/config"
	"github.com/raphaelgruber/journeys/internal/db"
	"github.com/raphaelgruber/journeys/internal/llm"
	"github.com/raphaelgruber/journeys/internal/metrics"
	"github.com/raphaelgruber/journeys/internal/scrape"
	"github.com/raphaelgruber/journeys/internal/service"
	"github.com/raphaelgruber/journeys/internal/sources"
	"github.com/raphaelgruber/journeys/internal/sqlstore"
	"github.com/raphaelgruber/journeys/internal/tools"
)

// App holds every long-lived dependency.
type App struct {
	Config   config.Config
	Log      *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Collector

	Store     *sqlstore.Store
	Resources *db.Client
	Cache     *cache.Cache

	Journeys  *service.JourneyService
	Chat      *service.Elicitor
	Progress  *service.ProgressService
	Resource  *service.ResourceService
	Reasoning *llm.Model
}

// New connects to every backing store and builds the services. Journeys
// left unfinished by a previous run are resumed in the background.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mc := metrics.NewCollector(reg)

	a := &App{Config: cfg, Log: log, Registry: reg, Metrics: mc}

	store, err := sqlstore.Open(ctx, cfg.SQLitePath, sqlstore.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("open relational store: %w", err)
	}
	a.Store = store

	resources, err := db.NewClient(ctx, db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}, log)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("connect to resource store: %w", err)
	}
	a.Resources = resources
	if err := resources.InitSchema(ctx); err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("initialize resource schema: %w", err)
	}

	var resultCache sources.ResultCache
	if cfg.RedisAddr != "" {
		c, err := cache.New(ctx, cache.Config{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			// Searching without a cache is slower but correct.
			log.Warn("search cache unavailable, continuing without it", "addr", cfg.RedisAddr, "error", err)
		} else {
			a.Cache = c
			resultCache = c
		}
	}

	model, err := llm.NewModel(ctx, cfg, log, mc)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("init reasoning model: %w", err)
	}
	a.Reasoning = model

	sites, err := config.LoadSources(cfg.SourcesFile)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	adapters := sources.FromConfig(cfg, sites, resultCache, log)
	fetcher := sources.NewFetcher(cfg.FetchTimeout, cfg.MaxRetries, log)

	orchestrator := scrape.New(adapters, fetcher, resources, scrape.Options{
		AdapterTimeout: cfg.AdapterTimeout,
		ScrapeTimeout:  cfg.ScrapeTimeout,
	}, log, mc)

	a.Journeys = service.NewJourneyService(store, resources, orchestrator, service.JourneyOptions{
		MaxResources: cfg.MaxResources,
		FreeLimit:    cfg.FreeJourneyLimit,
	}, log, mc)
	a.Chat = service.NewElicitor(store, model, a.Journeys, log)
	a.Progress = service.NewProgressService(store, store, log, mc)
	a.Resource = service.NewResourceService(resources, fetcher, log)

	log.Info("journeys initialized",
		"llm_provider", cfg.LLMProvider,
		"llm_model", cfg.LLMModel,
		"adapters", len(adapters),
		"cache", a.Cache != nil,
	)
	return a, nil
}

// ResumeIncomplete restarts pipelines interrupted by the last shutdown.
// Failures are logged; startup continues.
func (a *App) ResumeIncomplete(ctx context.Context) {
	if err := a.Journeys.ResumeIncomplete(ctx); err != nil {
		a.Log.Warn("failed to resume incomplete journeys", "error", err)
	}
}

// HealthChecks returns the dependency checks served by /health.
func (a *App) HealthChecks() map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{
		"sqlite":    a.Store.Ping,
		"surrealdb": a.Resources.Ping,
	}
	if a.Cache != nil {
		checks["redis"] = a.Cache.Ping
	}
	return checks
}

// Handler builds the REST handler over the services.
func (a *App) Handler() *api.Handler {
	return api.NewHandler(a.Journeys, a.Chat, a.Progress, a.Resource, a.Metrics, a.HealthChecks())
}

// ToolDependencies builds the MCP tool dependencies acting as userID.
func (a *App) ToolDependencies(userID string) *tools.Dependencies {
	return &tools.Dependencies{
		Journeys: a.Journeys,
		Chat:     a.Chat,
		Progress: a.Progress,
		UserID:   userID,
		Logger:   a.Log,
	}
}

// Shutdown stops in-flight pipelines and closes every connection.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Journeys != nil {
		if err := a.Journeys.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop pipelines: %w", err))
		}
	}
	if err := a.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close closes every connection opened by New.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if a.Resources != nil {
		if err := a.Resources.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close resource store: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relational store: %w", err))
		}
	}
	return errors.Join(errs...)
}
