// Package curation groups scraped resources into an ordered learning path.
package curation

import (
	"errors"
	"fmt"
	"sort"

	"github.com/raphaelgruber/journeys/internal/models"
)

// ErrInsufficientSignal reports that resources carried too little difficulty
// information to split into sections. Curate recovers from it with a single
// flat section.
var ErrInsufficientSignal = errors.New("insufficient difficulty signal")

// Section names, in display order.
const (
	SectionFundamentals = "Fundamentals"
	SectionIntermediate = "Intermediate Practice"
	SectionAdvanced     = "Advanced Topics"
	SectionProjects     = "Projects"
	SectionLearningPath = "Learning Path"
)

// Signals carries what is known about the learner.
type Signals struct {
	Topic string
	Level models.Difficulty
}

type bucket struct {
	name string
	desc string
}

func buckets(topic string) []bucket {
	if topic == "" {
		topic = "the topic"
	}
	return []bucket{
		{SectionFundamentals, fmt.Sprintf("Core concepts to get started with %s.", topic)},
		{SectionIntermediate, fmt.Sprintf("Hands-on material to deepen your %s skills.", topic)},
		{SectionAdvanced, fmt.Sprintf("In-depth %s topics for experienced learners.", topic)},
		{SectionProjects, fmt.Sprintf("Build something real with %s.", topic)},
	}
}

// Curate groups resources into sections. It never fails: when the
// difficulty signal is too weak it returns one flat section.
func Curate(resources []models.Resource, sig Signals) []models.Section {
	sections, _ := CurateWithReport(resources, sig)
	return sections
}

// CurateWithReport is Curate, additionally returning ErrInsufficientSignal
// when the flat fallback was used.
func CurateWithReport(resources []models.Resource, sig Signals) ([]models.Section, error) {
	if len(resources) == 0 {
		return []models.Section{}, nil
	}
	learner := sig.Level
	if !learner.Valid() {
		learner = models.DifficultyBeginner
	}

	type entry struct {
		r     models.Resource
		index int
		diff  models.Difficulty
	}
	grouped := make([][]entry, 4)
	signal := 0
	for i, r := range resources {
		diff := r.Difficulty
		if diff.Valid() {
			signal++
		} else {
			diff = learner
		}
		slot := diff.Rank()
		if r.HasTag("project") {
			slot = 3
		}
		grouped[slot] = append(grouped[slot], entry{r: r, index: i, diff: diff})
	}

	nonEmpty := 0
	for _, g := range grouped {
		if len(g) > 0 {
			nonEmpty++
		}
	}
	if signal < 2 || nonEmpty < 2 {
		return []models.Section{flat(resources, sig.Topic)}, ErrInsufficientSignal
	}

	defs := buckets(sig.Topic)
	sections := make([]models.Section, 0, nonEmpty)
	for slot, g := range grouped {
		if len(g) == 0 {
			continue
		}
		sort.SliceStable(g, func(a, b int) bool {
			ea, eb := g[a], g[b]
			if ea.diff.Rank() != eb.diff.Rank() {
				return ea.diff.Rank() < eb.diff.Rank()
			}
			ta, tb := ea.r.EstimatedTime, eb.r.EstimatedTime
			if ta != tb {
				switch {
				case ta == 0:
					return false
				case tb == 0:
					return true
				}
				return ta < tb
			}
			return ea.index < eb.index
		})
		ids := make([]string, len(g))
		for i, e := range g {
			ids[i] = e.r.ID
		}
		sections = append(sections, models.Section{
			Name:        defs[slot].name,
			Description: defs[slot].desc,
			Resources:   ids,
		})
	}
	return sections, nil
}

func flat(resources []models.Resource, topic string) models.Section {
	ids := make([]string, len(resources))
	for i, r := range resources {
		ids[i] = r.ID
	}
	desc := "A curated path through the best resources we found."
	if topic != "" {
		desc = fmt.Sprintf("A curated path through the best %s resources we found.", topic)
	}
	return models.Section{Name: SectionLearningPath, Description: desc, Resources: ids}
}
