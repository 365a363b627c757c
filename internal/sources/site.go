package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	colly "github.com/gocolly/colly/v2"
	"github.com/raphaelgruber/journeys/internal/config"
	"github.com/raphaelgruber/journeys/internal/models"
)

// Site scrapes a single site's own search page using CSS selectors.
type Site struct {
	def     config.SiteSource
	timeout time.Duration
}

// NewSite creates an adapter from a site definition.
func NewSite(def config.SiteSource, timeout time.Duration) *Site {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Site{def: def, timeout: timeout}
}

func (s *Site) Name() string { return "site:" + s.def.Name }

func (s *Site) Search(ctx context.Context, query string) ([]Candidate, error) {
	searchURL := strings.ReplaceAll(s.def.SearchURL, "{query}", url.QueryEscape(query))

	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(s.timeout)

	var out []Candidate
	seen := make(map[string]bool)
	c.OnHTML(s.def.ItemSelector, func(e *colly.HTMLElement) {
		if len(out) >= maxResults {
			return
		}
		href := e.ChildAttr(s.def.LinkSelector, "href")
		if href == "" {
			href = e.Attr("href")
		}
		if href == "" {
			return
		}
		abs := e.Request.AbsoluteURL(href)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true

		title := ""
		if s.def.TitleSelector != "" {
			title = e.ChildText(s.def.TitleSelector)
		}
		if title == "" {
			title = e.ChildText(s.def.LinkSelector)
		}
		snippet := ""
		if s.def.SnippetSelect != "" {
			snippet = e.ChildText(s.def.SnippetSelect)
		}
		out = append(out, Candidate{
			URL:       abs,
			Title:     strings.TrimSpace(title),
			Snippet:   strings.TrimSpace(snippet),
			Source:    s.Name(),
			Rank:      len(out),
			TypeHint:  models.ResourceType(s.def.Type),
			Authority: s.def.Authority,
		})
	})

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("%s search: %w", s.Name(), err)
	}
	c.Wait()
	return out, nil
}
