package models

import (
	"strings"
	"time"
)

// JourneyStatus is the lifecycle state of a journey.
type JourneyStatus string

const (
	JourneyPending  JourneyStatus = "pending"
	JourneyScraping JourneyStatus = "scraping"
	JourneyCurating JourneyStatus = "curating"
	JourneyReady    JourneyStatus = "ready"
	JourneyFailed   JourneyStatus = "failed"
)

// forward lists the single allowed successor of each in-flight status.
var forward = map[JourneyStatus]JourneyStatus{
	JourneyPending:  JourneyScraping,
	JourneyScraping: JourneyCurating,
	JourneyCurating: JourneyReady,
}

// CanTransition reports whether a journey may move from s to next.
// Stages are never skipped and never revisited; any in-flight stage may fail.
func (s JourneyStatus) CanTransition(next JourneyStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == JourneyFailed {
		return true
	}
	return forward[s] == next
}

// Terminal reports whether no further transitions are possible.
func (s JourneyStatus) Terminal() bool {
	return s == JourneyReady || s == JourneyFailed
}

// Step returns the 1-based pipeline position of s, used for progress display.
func (s JourneyStatus) Step() int {
	switch s {
	case JourneyPending:
		return 1
	case JourneyScraping:
		return 2
	case JourneyCurating:
		return 3
	case JourneyReady:
		return 4
	}
	return 0
}

// Format is the learner's preferred content format.
type Format string

const (
	FormatVideo Format = "video"
	FormatBlog  Format = "blog"
	FormatDoc   Format = "doc"
	FormatAny   Format = "any"
	FormatMixed Format = "mixed"
)

// ParseFormat maps free text onto a Format, defaulting to FormatAny.
func ParseFormat(s string) Format {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatVideo, FormatBlog, FormatDoc, FormatAny, FormatMixed:
		return f
	}
	return FormatAny
}

// ResourceType returns the resource type a single-format preference asks for.
// ok is false for any and mixed.
func (f Format) ResourceType() (ResourceType, bool) {
	switch f {
	case FormatVideo:
		return ResourceVideo, true
	case FormatBlog:
		return ResourceBlog, true
	case FormatDoc:
		return ResourceDoc, true
	}
	return "", false
}

// Intent is what the elicitor extracted from the conversation.
type Intent struct {
	Topic          string     `json:"topic"`
	Level          Difficulty `json:"level"`
	Goal           string     `json:"goal"`
	Format         Format     `json:"preferred_format"`
	TimeCommitment string     `json:"time_commitment,omitempty"`
}

// Section is an ordered grouping of resources within a journey.
type Section struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Resources   []string `json:"resources"`
}

// LeftoverSection names the bucket that collects resources no section covers.
const LeftoverSection = "More Resources"

// Journey is a user's curated learning roadmap for one topic.
type Journey struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Topic       string        `json:"topic"`
	Level       Difficulty    `json:"level"`
	Goal        string        `json:"goal"`
	Format      Format        `json:"preferred_format"`
	Status      JourneyStatus `json:"status"`
	FailedStage string        `json:"failed_stage,omitempty"`
	Error       string        `json:"error,omitempty"`
	Resources   []string      `json:"resources"`
	Sections    []Section     `json:"sections"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Contains reports whether resourceID belongs to the journey.
func (j *Journey) Contains(resourceID string) bool {
	for _, id := range j.Resources {
		if id == resourceID {
			return true
		}
	}
	return false
}

// Position returns the index of resourceID in the journey order, or -1.
func (j *Journey) Position(resourceID string) int {
	for i, id := range j.Resources {
		if id == resourceID {
			return i
		}
	}
	return -1
}

// EnsureCoverage repairs the section map so every journey resource appears
// in exactly one section. Section refs may be resource ids or, for older
// journeys, resource titles; titles maps id to title for that lookup.
// Unknown refs and duplicates are dropped, empty sections removed, and any
// uncovered resources appended to a trailing leftover section.
func (j *Journey) EnsureCoverage(titles map[string]string) {
	known := make(map[string]bool, len(j.Resources))
	for _, id := range j.Resources {
		known[id] = true
	}
	byTitle := make(map[string]string, len(titles))
	for _, id := range j.Resources {
		if t := strings.ToLower(strings.TrimSpace(titles[id])); t != "" {
			if _, dup := byTitle[t]; !dup {
				byTitle[t] = id
			}
		}
	}

	seen := make(map[string]bool, len(j.Resources))
	sections := make([]Section, 0, len(j.Sections)+1)
	for _, sec := range j.Sections {
		ids := make([]string, 0, len(sec.Resources))
		for _, ref := range sec.Resources {
			id := ref
			if !known[id] {
				id = byTitle[strings.ToLower(strings.TrimSpace(ref))]
			}
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
		if len(ids) == 0 {
			continue
		}
		sec.Resources = ids
		sections = append(sections, sec)
	}

	var leftovers []string
	for _, id := range j.Resources {
		if !seen[id] {
			leftovers = append(leftovers, id)
		}
	}
	if len(leftovers) > 0 {
		sections = append(sections, Section{
			Name:        LeftoverSection,
			Description: "Additional resources for this journey.",
			Resources:   leftovers,
		})
	}
	j.Sections = sections
}
