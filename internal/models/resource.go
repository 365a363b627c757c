// Package models defines the domain types shared by the journeys stores and services.
package models

import (
	"slices"
	"strings"
	"time"
)

// ResourceType is the content format of a resource.
type ResourceType string

const (
	ResourceVideo ResourceType = "video"
	ResourceBlog  ResourceType = "blog"
	ResourceDoc   ResourceType = "doc"
)

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceVideo, ResourceBlog, ResourceDoc:
		return true
	}
	return false
}

// Difficulty is the estimated difficulty of a resource or the level of a learner.
// The zero value means the difficulty is unknown.
type Difficulty string

const (
	DifficultyUnknown      Difficulty = ""
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Rank orders difficulties from easiest to hardest. Unknown ranks last.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyBeginner:
		return 0
	case DifficultyIntermediate:
		return 1
	case DifficultyAdvanced:
		return 2
	}
	return 3
}

// Valid reports whether d is one of the three known levels.
func (d Difficulty) Valid() bool {
	return d.Rank() < 3
}

// ParseDifficulty parses a level name, returning DifficultyUnknown for anything else.
func ParseDifficulty(s string) Difficulty {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if d.Valid() {
		return d
	}
	return DifficultyUnknown
}

// Resource is a single scraped piece of learning content.
// ID is derived from the canonical URL and never changes.
type Resource struct {
	ID               string       `json:"id"`
	URL              string       `json:"url"`
	Title            string       `json:"title"`
	Type             ResourceType `json:"type"`
	Difficulty       Difficulty   `json:"difficulty,omitempty"`
	Tags             []string     `json:"tags,omitempty"`
	Summary          string       `json:"summary,omitempty"`
	EstimatedTime    int          `json:"estimated_time"` // minutes, 0 when unknown
	Content          string       `json:"content,omitempty"`
	Source           string       `json:"source,omitempty"`
	Score            float64      `json:"score,omitempty"`
	ContentFetchedAt *time.Time   `json:"content_fetched_at,omitempty"`
	Created          time.Time    `json:"created,omitempty"`
	Updated          time.Time    `json:"updated,omitempty"`
}

// HasTag reports whether the resource carries tag.
func (r Resource) HasTag(tag string) bool {
	return slices.Contains(r.Tags, tag)
}

// NormalizeTags lowercases, dedupes and sorts tags.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
