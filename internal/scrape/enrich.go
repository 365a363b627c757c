package scrape

import (
	"strings"
	"unicode/utf8"
)

const (
	wordsPerMinute = 200
	summaryLimit   = 300
	// MinContentLen is the shortest extracted text treated as a real fetch.
	MinContentLen = 200
)

// ReadingTime estimates minutes to read text, at least 1.
func ReadingTime(text string) int {
	words := len(strings.Fields(text))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Summarize shortens text to at most summaryLimit characters, cutting on a
// word boundary and marking the cut with an ellipsis.
func Summarize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= summaryLimit {
		return text
	}
	runes := []rune(text)
	cut := string(runes[:summaryLimit-1])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:-") + "…"
}
