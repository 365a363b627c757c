package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DuckDuckGo scrapes the keyless HTML search endpoint.
type DuckDuckGo struct {
	client  *http.Client
	baseURL string
}

// NewDuckDuckGo creates a DuckDuckGo HTML adapter.
func NewDuckDuckGo(client *http.Client) *DuckDuckGo {
	return &DuckDuckGo{client: defaultClient(client), baseURL: "https://html.duckduckgo.com/html/"}
}

func (d *DuckDuckGo) Name() string { return "duckduckgo" }

func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]Candidate, error) {
	u := d.baseURL + "?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo parse: %w", err)
	}

	var out []Candidate
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.HasClass("result--ad") {
			return true
		}
		link := s.Find("a.result__a").First()
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return true
		}
		out = append(out, Candidate{
			URL:       href,
			Title:     strings.TrimSpace(link.Text()),
			Snippet:   strings.TrimSpace(s.Find(".result__snippet").First().Text()),
			Source:    d.Name(),
			Rank:      len(out),
			Authority: 0.5,
		})
		return len(out) < maxResults
	})
	return out, nil
}
