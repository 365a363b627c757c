package scrape

import (
	"math"
	"testing"

	"github.com/raphaelgruber/journeys/internal/models"
)

func TestClassifyType(t *testing.T) {
	tests := []struct {
		url  string
		hint models.ResourceType
		text string
		want models.ResourceType
	}{
		{"https://www.youtube.com/watch?v=x", models.ResourceBlog, "", models.ResourceVideo},
		{"https://vimeo.com/123", "", "", models.ResourceVideo},
		{"https://docs.python.org/3/tutorial/", "", "", models.ResourceDoc},
		{"https://example.com/docs/intro", "", "", models.ResourceDoc},
		{"https://example.readthedocs.io/en/latest/", "", "", models.ResourceDoc},
		{"https://blog.example.com/post", "", "a fun post", models.ResourceBlog},
		{"https://blog.example.com/post", models.ResourceDoc, "", models.ResourceDoc},
	}
	for _, tt := range tests {
		if got := ClassifyType(tt.url, tt.hint, tt.text); got != tt.want {
			t.Errorf("ClassifyType(%q, %q) = %q, want %q", tt.url, tt.hint, got, tt.want)
		}
	}
}

func TestClassifyDifficulty(t *testing.T) {
	tests := map[string]models.Difficulty{
		"Rust for Beginners":                 models.DifficultyBeginner,
		"Getting started with Kubernetes":    models.DifficultyBeginner,
		"Go concurrency patterns":            models.DifficultyIntermediate,
		"A deep dive into the Go scheduler":  models.DifficultyAdvanced,
		"Advanced beginner mistakes":         models.DifficultyAdvanced,
		"Rust ownership":                     models.DifficultyUnknown,
		"Master the Linux command line":      models.DifficultyAdvanced,
		"Mastercard integration walkthrough": models.DifficultyUnknown,
	}
	for text, want := range tests {
		if got := ClassifyDifficulty(text); got != want {
			t.Errorf("ClassifyDifficulty(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestClassifyTags(t *testing.T) {
	tags := ClassifyTags("Build a CLI project from scratch: tutorial", models.ResourceBlog, models.DifficultyBeginner)
	want := []string{"beginner", "blog", "project", "tutorial"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tags = %v, want %v", tags, want)
		}
	}
}

func TestScore(t *testing.T) {
	got := Score(1, 0.5, 1)
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("Score = %v, want 0.8", got)
	}
	if s := Score(2, -1, 0); math.Abs(s-0.4) > 1e-9 {
		t.Errorf("Score should clamp inputs, got %v", s)
	}
}

func TestRelevance(t *testing.T) {
	if r := Relevance("rust ownership", "Understanding Ownership in Rust", ""); r != 1 {
		t.Errorf("full title match = %v, want 1", r)
	}
	if r := Relevance("rust ownership", "Memory", "rust explained"); r != 0.25 {
		t.Errorf("snippet half match = %v, want 0.25", r)
	}
	if r := Relevance("", "anything", ""); r != 0 {
		t.Errorf("empty topic = %v, want 0", r)
	}
}

func TestFormatMatch(t *testing.T) {
	if FormatMatch(models.FormatVideo, models.ResourceVideo) != 1 {
		t.Error("video/video should match")
	}
	if FormatMatch(models.FormatVideo, models.ResourceBlog) != 0 {
		t.Error("video/blog should not match")
	}
	if FormatMatch(models.FormatAny, models.ResourceDoc) != 0.5 {
		t.Error("any should be neutral")
	}
}

func TestAuthority(t *testing.T) {
	if a := Authority("https://developer.mozilla.org/en-US/docs/Web", 0.5); a != 1 {
		t.Errorf("mdn authority = %v, want 1", a)
	}
	if a := Authority("https://cs.stanford.edu/x", 0.5); a != 0.8 {
		t.Errorf(".edu authority = %v, want 0.8", a)
	}
	if a := Authority("https://random.example/x", 0.9); a != 0.9 {
		t.Errorf("adapter authority = %v, want 0.9", a)
	}
	if a := Authority("https://random.example/x", 0); a != 0.5 {
		t.Errorf("default authority = %v, want 0.5", a)
	}
}
