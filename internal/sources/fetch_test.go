package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<html><head>
<title>Fallback title</title>
<meta property="og:title" content="Understanding Ownership">
<meta name="description" content="How Rust manages memory.">
<script>var x = 1;</script>
</head><body>
<nav>Home | Docs</nav>
<article><h1>Ownership</h1><p>Each value has an   owner.</p><style>.a{}</style></article>
<footer>copyright</footer>
</body></html>`

func testFetcher(retries int) *Fetcher {
	f := NewFetcher(2*time.Second, retries, nil)
	f.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(time.Millisecond) }
	return f
}

func TestExtract(t *testing.T) {
	p, err := Extract(strings.NewReader(articleHTML), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "Understanding Ownership", p.Title)
	assert.Equal(t, "How Rust manages memory.", p.Description)
	assert.Equal(t, "Ownership Each value has an owner.", p.Text)
}

func TestExtractFallsBackToBody(t *testing.T) {
	p, err := Extract(strings.NewReader(`<html><body><header>x</header><h1> Title </h1><p>text</p></body></html>`), "u")
	require.NoError(t, err)
	assert.Equal(t, "Title", p.Title)
	assert.Equal(t, "Title text", p.Text)
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articleHTML))
	}))
	defer srv.Close()

	p, err := testFetcher(3).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "Understanding Ownership", p.Title)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testFetcher(3).Fetch(context.Background(), srv.URL)
	var serr *StatusError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, http.StatusNotFound, serr.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchGivesUpAfterMaxRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testFetcher(2).Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchRedirectLimit(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	_, err := testFetcher(3).Fetch(context.Background(), srv.URL+"/")
	assert.ErrorIs(t, err, ErrTooManyRedirects)
}

func TestFetchRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF"))
	}))
	defer srv.Close()

	_, err := testFetcher(3).Fetch(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrNotHTML)
}

func TestFetchMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("# Learn Rust\n\nA hands-on guide to ownership, borrowing and lifetimes for beginners.\n\n## Install\n\nRun `rustup`.\n"))
	}))
	defer srv.Close()

	page, err := testFetcher(0).Fetch(context.Background(), srv.URL+"/rust/README.md")
	require.NoError(t, err)
	assert.Equal(t, "Learn Rust", page.Title)
	assert.Equal(t, "A hands-on guide to ownership, borrowing and lifetimes for beginners.", page.Description)
	assert.Contains(t, page.Text, "Install Run rustup.")
}

func TestFetchRejectsPlainTextOutsideMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	_, err := testFetcher(0).Fetch(context.Background(), srv.URL+"/notes.txt")
	assert.ErrorIs(t, err, ErrNotHTML)
}
