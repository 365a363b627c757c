package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := New(context.Background(), Config{Address: mr.Addr(), TTL: ttl, Prefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Hour)

	var got []entry
	found, err := c.Get(ctx, "ddg:rust", &got)
	require.NoError(t, err)
	assert.False(t, found)

	want := []entry{{URL: "https://doc.rust-lang.org/book/", Title: "The Book"}}
	require.NoError(t, c.Set(ctx, "ddg:rust", want))

	found, err = c.Get(ctx, "ddg:rust", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, want, got)
	assert.True(t, mr.Exists("test:ddg:rust"))
}

func TestEntriesExpire(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, c.Set(ctx, "k", entry{Title: "x"}))

	mr.FastForward(2 * time.Minute)

	var got entry
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("test:k", "{not json"))

	var got entry
	_, err := c.Get(ctx, "k", &got)
	assert.Error(t, err)
}

func TestNewRequiresAddress(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrEmptyAddress)
}

func TestDefaults(t *testing.T) {
	c := NewWithClient(redis.NewClient(&redis.Options{Addr: "localhost:0"}), 0, "")
	assert.Equal(t, 24*time.Hour, c.ttl)
	assert.Equal(t, "journeys:", c.prefix)
}
