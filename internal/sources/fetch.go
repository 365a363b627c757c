package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	maxRedirects = 5
	maxBodyBytes = 5 << 20
)

var (
	// ErrTooManyRedirects is returned when a page redirects more than maxRedirects times.
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrNotHTML is returned for responses that are neither HTML nor
	// Markdown documents.
	ErrNotHTML = errors.New("response is not html")
)

// Fetcher downloads pages with retries on transient failures.
type Fetcher struct {
	client     *http.Client
	maxRetries int
	log        *slog.Logger
	newBackOff func() backoff.BackOff
}

// NewFetcher creates a fetcher whose requests time out after timeout and are
// retried up to maxRetries times on network errors and 5xx responses.
func NewFetcher(timeout time.Duration, maxRetries int, log *slog.Logger) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return ErrTooManyRedirects
			}
			return nil
		},
	}
	return &Fetcher{
		client:     client,
		maxRetries: maxRetries,
		log:        log,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
}

// Fetch downloads url and extracts its readable content.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	var page *Page
	attempt := 0
	op := func() error {
		attempt++
		p, err := f.fetchOnce(ctx, url)
		if err != nil {
			return err
		}
		page = p
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(f.newBackOff(), uint64(max(f.maxRetries, 0))), ctx)
	notify := func(err error, wait time.Duration) {
		f.log.Debug("page fetch retry", "url", url, "attempt", attempt, "wait", wait, "error", err)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	return page, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/markdown;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, ErrTooManyRedirects) || ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		serr := &StatusError{URL: url, StatusCode: resp.StatusCode}
		if serr.Temporary() {
			return nil, serr
		}
		return nil, backoff.Permanent(serr)
	}

	extract := Extract
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mt, _, _ := mime.ParseMediaType(ct)
		switch {
		case mt == "text/html" || mt == "application/xhtml+xml":
		case isMarkdown(mt, resp.Request.URL.Path):
			extract = ExtractMarkdown
		default:
			return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrNotHTML, mt))
		}
	}

	page, err := extract(io.LimitReader(resp.Body, maxBodyBytes), resp.Request.URL.String())
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	return page, nil
}

// isMarkdown accepts explicit Markdown media types, and plain text served
// from a .md path as raw file hosts do.
func isMarkdown(mediaType, urlPath string) bool {
	switch mediaType {
	case "text/markdown", "text/x-markdown":
		return true
	case "text/plain":
		p := strings.ToLower(urlPath)
		return strings.HasSuffix(p, ".md") || strings.HasSuffix(p, ".markdown")
	}
	return false
}
