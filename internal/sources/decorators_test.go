package sources

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	name  string
	calls int
	res   []Candidate
	err   error
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Search(context.Context, string) ([]Candidate, error) {
	s.calls++
	return s.res, s.err
}

type memCache struct {
	mu   sync.Mutex
	data map[string][]Candidate
	fail bool
}

func (m *memCache) Get(_ context.Context, key string, v any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return false, errors.New("redis down")
	}
	c, ok := m.data[key]
	if ok {
		*(v.(*[]Candidate)) = c
	}
	return ok, nil
}

func (m *memCache) Set(_ context.Context, key string, v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("redis down")
	}
	m.data[key] = v.([]Candidate)
	return nil
}

func TestCachedServesRepeatQueries(t *testing.T) {
	stub := &stubAdapter{name: "ddg", res: []Candidate{{URL: "https://go.dev"}}}
	c := &memCache{data: map[string][]Candidate{}}
	a := Cached(stub, c, nil)

	for range 3 {
		got, err := a.Search(context.Background(), "  Go   Basics ")
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	assert.Equal(t, 1, stub.calls)
	assert.Contains(t, c.data, "search:ddg:go basics")
}

func TestCachedBypassesBrokenCache(t *testing.T) {
	stub := &stubAdapter{name: "ddg", res: []Candidate{{URL: "https://go.dev"}}}
	a := Cached(stub, &memCache{fail: true}, nil)

	got, err := a.Search(context.Background(), "go")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCachedDoesNotStoreErrors(t *testing.T) {
	stub := &stubAdapter{name: "ddg", err: errors.New("boom")}
	c := &memCache{data: map[string][]Candidate{}}
	_, err := Cached(stub, c, nil).Search(context.Background(), "go")
	assert.Error(t, err)
	assert.Empty(t, c.data)
}

func TestLimitedRespectsContext(t *testing.T) {
	stub := &stubAdapter{name: "ddg"}
	a := Limited(stub, 0.001)

	_, err := a.Search(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Search(ctx, "second")
	assert.Error(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "ddg", a.Name())
}
