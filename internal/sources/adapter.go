// Package sources talks to search providers and fetches result pages.
package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/raphaelgruber/journeys/internal/models"
)

// Candidate is one raw search hit before canonicalization and scoring.
type Candidate struct {
	URL       string              `json:"url"`
	Title     string              `json:"title"`
	Snippet   string              `json:"snippet"`
	Source    string              `json:"source"`
	Rank      int                 `json:"rank"`
	TypeHint  models.ResourceType `json:"type_hint,omitempty"`
	Authority float64             `json:"authority"`
}

// Adapter searches one source. Zero results is not an error.
type Adapter interface {
	Name() string
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// Temporary reports whether retrying may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

const userAgent = "Mozilla/5.0 (compatible; journeys/1.0; +https://github.com/raphaelgruber/journeys)"

const maxResults = 10

// getJSON performs req and decodes a JSON body into v.
func getJSON(client *http.Client, req *http.Request, v any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &StatusError{URL: req.URL.Redacted(), StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Host, err)
	}
	return nil
}

func defaultClient(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}
