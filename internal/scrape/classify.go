package scrape

import (
	"net/url"
	"strings"

	"github.com/raphaelgruber/journeys/internal/models"
)

var videoHosts = []string{"youtube.com", "youtu.be", "vimeo.com", "egghead.io", "frontendmasters.com"}

var docHosts = []string{
	"readthedocs.io", "readthedocs.org", "developer.mozilla.org", "docs.python.org",
	"doc.rust-lang.org", "pkg.go.dev", "go.dev", "learn.microsoft.com", "docs.oracle.com",
	"kubernetes.io", "github.com", "gitlab.com",
}

var (
	advancedWords     = []string{"advanced", "expert", "deep dive", "deep-dive", "mastering", "master ", "internals", "complex", "under the hood"}
	intermediateWords = []string{"intermediate", "best practices", "patterns", "in practice", "beyond the basics", "next steps"}
	beginnerWords     = []string{"beginner", "introduction", "intro to", "getting started", "basics", "first steps", "crash course", "fundamentals", "for dummies", "101"}
	projectWords      = []string{"project", "build a", "build an", "let's build", "hands-on", "from scratch"}
)

// authorities scores how trustworthy a host is for learning material.
var authorities = map[string]float64{
	"developer.mozilla.org": 1.0,
	"docs.python.org":       1.0,
	"doc.rust-lang.org":     1.0,
	"go.dev":                1.0,
	"pkg.go.dev":            0.9,
	"learn.microsoft.com":   0.9,
	"kubernetes.io":         0.9,
	"github.com":            0.8,
	"freecodecamp.org":      0.8,
	"www.freecodecamp.org":  0.8,
	"www.youtube.com":       0.7,
	"realpython.com":        0.8,
	"css-tricks.com":        0.7,
	"dev.to":                0.6,
	"medium.com":            0.5,
	"stackoverflow.com":     0.6,
	"www.w3schools.com":     0.5,
	"www.geeksforgeeks.org": 0.5,
}

func hostOf(canonical string) string {
	u, err := url.Parse(canonical)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func hostMatches(host string, list []string) bool {
	for _, h := range list {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// ClassifyType infers the resource type from the URL, the adapter's hint and
// the text.
func ClassifyType(canonical string, hint models.ResourceType, text string) models.ResourceType {
	host := hostOf(canonical)
	if hostMatches(host, videoHosts) {
		return models.ResourceVideo
	}
	if hint.Valid() {
		return hint
	}
	path := strings.ToLower(canonical)
	if hostMatches(host, docHosts) || strings.HasPrefix(host, "docs.") ||
		strings.Contains(path, "/docs/") || strings.Contains(path, "/reference/") ||
		strings.Contains(path, "/api/") || strings.HasSuffix(path, ".pdf") {
		return models.ResourceDoc
	}
	lower := strings.ToLower(text)
	if strings.Contains(lower, "documentation") || strings.Contains(lower, "reference manual") {
		return models.ResourceDoc
	}
	return models.ResourceBlog
}

// ClassifyDifficulty looks for difficulty keywords in text. It returns
// DifficultyUnknown when there is no signal.
func ClassifyDifficulty(text string) models.Difficulty {
	lower := " " + strings.ToLower(text) + " "
	switch {
	case containsAny(lower, advancedWords):
		return models.DifficultyAdvanced
	case containsAny(lower, intermediateWords):
		return models.DifficultyIntermediate
	case containsAny(lower, beginnerWords):
		return models.DifficultyBeginner
	}
	return models.DifficultyUnknown
}

// ClassifyTags derives tags from the text and the resource type.
func ClassifyTags(text string, typ models.ResourceType, d models.Difficulty) []string {
	lower := strings.ToLower(text)
	var tags []string
	if containsAny(lower, projectWords) {
		tags = append(tags, "project")
	}
	if strings.Contains(lower, "tutorial") {
		tags = append(tags, "tutorial")
	}
	if strings.Contains(lower, "exercise") || strings.Contains(lower, "practice") {
		tags = append(tags, "practice")
	}
	if typ != "" {
		tags = append(tags, string(typ))
	}
	if d != models.DifficultyUnknown {
		tags = append(tags, string(d))
	}
	return models.NormalizeTags(tags)
}

// Authority returns the trust score of a host, falling back to the
// adapter's own authority.
func Authority(canonical string, adapterAuthority float64) float64 {
	host := hostOf(canonical)
	if a, ok := authorities[host]; ok {
		return max(a, adapterAuthority)
	}
	if strings.HasSuffix(host, ".edu") || strings.HasSuffix(host, ".gov") {
		return max(0.8, adapterAuthority)
	}
	if strings.HasPrefix(host, "docs.") || strings.HasSuffix(host, ".readthedocs.io") {
		return max(0.8, adapterAuthority)
	}
	if adapterAuthority > 0 {
		return adapterAuthority
	}
	return 0.5
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
