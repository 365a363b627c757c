package sources

import (
	"log/slog"
	"net/http"

	"github.com/raphaelgruber/journeys/internal/config"
)

// FromConfig builds the adapter set: DuckDuckGo always, API adapters when
// their keys are configured, and one adapter per site definition. Every
// adapter is rate limited and, when c is non-nil, cached.
func FromConfig(cfg config.Config, sites []config.SiteSource, c ResultCache, log *slog.Logger) []Adapter {
	client := &http.Client{Timeout: cfg.AdapterTimeout}

	type entry struct {
		a   Adapter
		rps float64
	}
	entries := []entry{{NewDuckDuckGo(client), 1}}
	if cfg.YouTubeAPIKey != "" {
		entries = append(entries, entry{NewYouTube(cfg.YouTubeAPIKey, client), 5})
	}
	if cfg.SerpAPIKey != "" {
		entries = append(entries, entry{NewSerpAPI(cfg.SerpAPIKey, client), 2})
	}
	if cfg.BingAPIKey != "" {
		entries = append(entries, entry{NewBing(cfg.BingAPIKey, client), 3})
	}
	if cfg.GoogleCSEKey != "" && cfg.GoogleCSEID != "" {
		entries = append(entries, entry{NewGoogleCSE(cfg.GoogleCSEKey, cfg.GoogleCSEID, client), 1})
	}
	for _, s := range sites {
		entries = append(entries, entry{NewSite(s, cfg.AdapterTimeout), s.RateLimit})
	}

	out := make([]Adapter, 0, len(entries))
	for _, e := range entries {
		out = append(out, Cached(Limited(e.a, e.rps), c, log))
	}
	if log != nil {
		names := make([]string, len(out))
		for i, a := range out {
			names[i] = a.Name()
		}
		log.Info("search adapters configured", "adapters", names)
	}
	return out
}
