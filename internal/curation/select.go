package curation

import (
	"math"
	"sort"
	"strings"

	"github.com/raphaelgruber/journeys/internal/models"
)

// DefaultMaxResources caps a journey when no limit is configured.
const DefaultMaxResources = 12

const minSummaryLen = 50

// Select picks the resources a journey will contain. It drops incomplete
// and thin entries, removes title duplicates, balances formats toward the
// learner's preference and caps the list at limit. The result keeps the
// input order.
func Select(resources []models.Resource, format models.Format, limit int) []models.Resource {
	if limit <= 0 {
		limit = DefaultMaxResources
	}

	var usable []models.Resource
	for _, r := range resources {
		if r.URL != "" && strings.TrimSpace(r.Title) != "" {
			usable = append(usable, r)
		}
	}
	var rich []models.Resource
	for _, r := range usable {
		if len(strings.TrimSpace(r.Summary)) >= minSummaryLen {
			rich = append(rich, r)
		}
	}
	if len(rich) > 0 {
		usable = rich
	}

	seen := make(map[string]bool, len(usable))
	unique := usable[:0:0]
	for _, r := range usable {
		key := strings.ToLower(strings.Join(strings.Fields(r.Title), " "))
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, r)
	}
	if len(unique) <= limit {
		return unique
	}

	// Rank by score, then fill per-type quotas in rank order.
	order := make([]int, len(unique))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return unique[order[a]].Score > unique[order[b]].Score
	})

	quotas, class := formatQuotas(format, limit)
	picked := make([]bool, len(unique))
	n := 0
	for _, i := range order {
		c := class(unique[i].Type)
		if quotas[c] > 0 {
			quotas[c]--
			picked[i] = true
			n++
		}
	}
	// Types short of supply leave slots for whatever ranks next.
	for _, i := range order {
		if n >= limit {
			break
		}
		if !picked[i] {
			picked[i] = true
			n++
		}
	}

	out := make([]models.Resource, 0, limit)
	for i, r := range unique {
		if picked[i] {
			out = append(out, r)
		}
	}
	return out
}

// formatQuotas splits n slots across format classes. A single preferred
// format gets 70% and every other type shares the rest; otherwise the split
// is 40% video, 40% blog and 20% doc.
func formatQuotas(format models.Format, n int) (map[string]int, func(models.ResourceType) string) {
	if want, ok := format.ResourceType(); ok {
		preferred := int(math.Ceil(0.7 * float64(n)))
		class := func(t models.ResourceType) string {
			if t == want {
				return "preferred"
			}
			return "other"
		}
		return map[string]int{"preferred": preferred, "other": n - preferred}, class
	}
	video := int(math.Round(0.4 * float64(n)))
	blog := int(math.Round(0.4 * float64(n)))
	quotas := map[string]int{
		string(models.ResourceVideo): video,
		string(models.ResourceBlog):  blog,
		string(models.ResourceDoc):   n - video - blog,
	}
	return quotas, func(t models.ResourceType) string { return string(t) }
}
