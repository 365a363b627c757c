package scrape

import (
	"strings"
	"unicode"

	"github.com/raphaelgruber/journeys/internal/models"
)

// Score weights.
const (
	weightAuthority = 0.4
	weightRelevance = 0.4
	weightFormat    = 0.2
)

// Score ranks a candidate: 0.4·authority + 0.4·relevance + 0.2·format match.
func Score(authority, relevance, formatMatch float64) float64 {
	return weightAuthority*clamp01(authority) + weightRelevance*clamp01(relevance) + weightFormat*clamp01(formatMatch)
}

// Relevance is the share of topic terms present in the title and snippet.
// Title hits count fully, snippet-only hits count half.
func Relevance(topic, title, snippet string) float64 {
	terms := tokenize(topic)
	if len(terms) == 0 {
		return 0
	}
	titleTerms := termSet(title)
	snippetTerms := termSet(snippet)
	var score float64
	for _, t := range terms {
		switch {
		case titleTerms[t]:
			score += 1
		case snippetTerms[t]:
			score += 0.5
		}
	}
	return score / float64(len(terms))
}

// FormatMatch is 1 when the type is what the learner asked for, 0.5 for
// mixed or no preference, and 0 otherwise.
func FormatMatch(pref models.Format, typ models.ResourceType) float64 {
	want, ok := pref.ResourceType()
	if !ok {
		return 0.5
	}
	if want == typ {
		return 1
	}
	return 0
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
	out := fields[:0]
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if len(f) < 2 && f != "c" && f != "r" {
			continue
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

func termSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range tokenize(s) {
		set[t] = true
	}
	return set
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
