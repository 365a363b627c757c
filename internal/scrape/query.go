package scrape

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/journeys/internal/models"
)

// BuildQueries returns the search queries for a topic, most specific first.
// Format words are left out so every source returns a mix of material.
func BuildQueries(topic string, level models.Difficulty, goal string) []string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil
	}
	lvl := string(level)
	if lvl == "" {
		lvl = string(models.DifficultyBeginner)
	}
	candidates := []string{
		fmt.Sprintf("%s %s tutorial", topic, lvl),
		fmt.Sprintf("learn %s %s", topic, lvl),
		fmt.Sprintf("%s documentation", topic),
		fmt.Sprintf("%s %s guide", topic, lvl),
	}
	if g := strings.TrimSpace(goal); g != "" && !strings.EqualFold(g, "learn "+topic) {
		candidates = append(candidates, fmt.Sprintf("%s %s", topic, g))
	}
	candidates = append(candidates, fmt.Sprintf("%s projects examples", topic))

	seen := make(map[string]bool, len(candidates))
	out := make([]string, 0, len(candidates))
	for _, q := range candidates {
		q = strings.Join(strings.Fields(q), " ")
		k := strings.ToLower(q)
		if !seen[k] {
			seen[k] = true
			out = append(out, q)
		}
	}
	return out
}
