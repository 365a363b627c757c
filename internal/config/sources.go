package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SiteSource describes a direct site scraper: a search page on a single site
// whose result links are picked out with CSS selectors.
type SiteSource struct {
	Name          string  `yaml:"name"`
	SearchURL     string  `yaml:"search_url"` // contains {query}
	ItemSelector  string  `yaml:"item_selector"`
	LinkSelector  string  `yaml:"link_selector"`
	TitleSelector string  `yaml:"title_selector"`
	SnippetSelect string  `yaml:"snippet_selector"`
	Type          string  `yaml:"type"` // video, blog or doc
	Authority     float64 `yaml:"authority"`
	RateLimit     float64 `yaml:"rate_limit"` // requests per second
}

// SourcesFile is the top-level layout of the sources YAML file.
type SourcesFile struct {
	Sites []SiteSource `yaml:"sites"`
}

// LoadSources reads site scraper definitions from path.
// An empty path yields no sources.
func LoadSources(path string) ([]SiteSource, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return ParseSources(data)
}

// ParseSources decodes and validates site scraper definitions.
func ParseSources(data []byte) ([]SiteSource, error) {
	var f SourcesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	for i := range f.Sites {
		s := &f.Sites[i]
		if s.Name == "" || s.SearchURL == "" || s.ItemSelector == "" {
			return nil, fmt.Errorf("site %d: name, search_url and item_selector are required", i)
		}
		if s.LinkSelector == "" {
			s.LinkSelector = "a"
		}
		if s.Authority <= 0 {
			s.Authority = 0.5
		}
		if s.RateLimit <= 0 {
			s.RateLimit = 1
		}
	}
	return f.Sites, nil
}
