package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/raphaelgruber/journeys/internal/models"
)

// SerpAPI queries Google through serpapi.com.
type SerpAPI struct {
	key     string
	client  *http.Client
	baseURL string
}

func NewSerpAPI(key string, client *http.Client) *SerpAPI {
	return &SerpAPI{key: key, client: defaultClient(client), baseURL: "https://serpapi.com/search.json"}
}

func (s *SerpAPI) Name() string { return "serpapi" }

func (s *SerpAPI) Search(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{
		"q":       {query},
		"api_key": {s.key},
		"engine":  {"google"},
		"num":     {strconv.Itoa(maxResults)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}
	var body struct {
		OrganicResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := getJSON(s.client, req, &body); err != nil {
		return nil, fmt.Errorf("serpapi search: %w", err)
	}
	out := make([]Candidate, 0, len(body.OrganicResults))
	for _, r := range body.OrganicResults {
		if r.Link == "" {
			continue
		}
		out = append(out, Candidate{URL: r.Link, Title: r.Title, Snippet: r.Snippet, Source: s.Name(), Rank: len(out), Authority: 0.6})
	}
	return out, nil
}

// Bing queries the Bing Web Search API.
type Bing struct {
	key     string
	client  *http.Client
	baseURL string
}

func NewBing(key string, client *http.Client) *Bing {
	return &Bing{key: key, client: defaultClient(client), baseURL: "https://api.bing.microsoft.com/v7.0/search"}
}

func (b *Bing) Name() string { return "bing" }

func (b *Bing) Search(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{"q": {query}, "count": {strconv.Itoa(maxResults)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("bing request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", b.key)
	var body struct {
		WebPages struct {
			Value []struct {
				Name    string `json:"name"`
				URL     string `json:"url"`
				Snippet string `json:"snippet"`
			} `json:"value"`
		} `json:"webPages"`
	}
	if err := getJSON(b.client, req, &body); err != nil {
		return nil, fmt.Errorf("bing search: %w", err)
	}
	out := make([]Candidate, 0, len(body.WebPages.Value))
	for _, r := range body.WebPages.Value {
		if r.URL == "" {
			continue
		}
		out = append(out, Candidate{URL: r.URL, Title: r.Name, Snippet: r.Snippet, Source: b.Name(), Rank: len(out), Authority: 0.6})
	}
	return out, nil
}

// GoogleCSE queries a Google Programmable Search Engine.
type GoogleCSE struct {
	key, cx string
	client  *http.Client
	baseURL string
}

func NewGoogleCSE(key, cx string, client *http.Client) *GoogleCSE {
	return &GoogleCSE{key: key, cx: cx, client: defaultClient(client), baseURL: "https://www.googleapis.com/customsearch/v1"}
}

func (g *GoogleCSE) Name() string { return "google_cse" }

func (g *GoogleCSE) Search(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{"key": {g.key}, "cx": {g.cx}, "q": {query}, "num": {strconv.Itoa(maxResults)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("google cse request: %w", err)
	}
	var body struct {
		Items []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"items"`
	}
	if err := getJSON(g.client, req, &body); err != nil {
		return nil, fmt.Errorf("google cse search: %w", err)
	}
	out := make([]Candidate, 0, len(body.Items))
	for _, r := range body.Items {
		if r.Link == "" {
			continue
		}
		out = append(out, Candidate{URL: r.Link, Title: r.Title, Snippet: r.Snippet, Source: g.Name(), Rank: len(out), Authority: 0.6})
	}
	return out, nil
}

// YouTube searches videos through the YouTube Data API.
type YouTube struct {
	key     string
	client  *http.Client
	baseURL string
}

func NewYouTube(key string, client *http.Client) *YouTube {
	return &YouTube{key: key, client: defaultClient(client), baseURL: "https://www.googleapis.com/youtube/v3/search"}
}

func (y *YouTube) Name() string { return "youtube" }

func (y *YouTube) Search(ctx context.Context, query string) ([]Candidate, error) {
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(maxResults)},
		"q":          {query},
		"key":        {y.key},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("youtube request: %w", err)
	}
	var body struct {
		Items []struct {
			ID struct {
				VideoID string `json:"videoId"`
			} `json:"id"`
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := getJSON(y.client, req, &body); err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	out := make([]Candidate, 0, len(body.Items))
	for _, it := range body.Items {
		if it.ID.VideoID == "" {
			continue
		}
		out = append(out, Candidate{
			URL:       "https://www.youtube.com/watch?v=" + url.QueryEscape(it.ID.VideoID),
			Title:     it.Snippet.Title,
			Snippet:   it.Snippet.Description,
			Source:    y.Name(),
			Rank:      len(out),
			TypeHint:  models.ResourceVideo,
			Authority: 0.7,
		})
	}
	return out, nil
}
