package service

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/raphaelgruber/journeys/internal/llm"
	"github.com/raphaelgruber/journeys/internal/models"
)

// Intent slots, in the order they are asked for.
const (
	SlotTopic  = "topic"
	SlotLevel  = "level"
	SlotGoal   = "goal"
	SlotFormat = "format"
)

const maxSuggestions = 4

var genericTopics = map[string]bool{
	"general learning": true,
	"learning":         true,
	"topic":            true,
	"unknown":          true,
}

var genericGoals = map[string]bool{
	"learn the topic":             true,
	"learn":                       true,
	"understand":                  true,
	"general learning":            true,
	"topic":                       true,
	"acquire a new skill":         true,
	"just to acquire a new skill": true,
	"acquire new skill":           true,
}

// NormalizeIntent turns a raw analysis into a usable intent. Missing lists
// the slots the user has not actually provided yet, in asking order.
func NormalizeIntent(a *llm.Analysis) (models.Intent, []string) {
	var missing []string
	if a == nil {
		a = &llm.Analysis{}
	}

	topic := strings.TrimSpace(a.Topic)
	if !validTopic(topic) {
		missing = append(missing, SlotTopic)
		topic = ""
	}

	level := models.ParseDifficulty(a.Level)
	if !level.Valid() {
		missing = append(missing, SlotLevel)
		level = models.DifficultyBeginner
	}

	goal := strings.TrimSpace(a.Goal)
	if goal == "" || genericGoals[strings.ToLower(goal)] {
		missing = append(missing, SlotGoal)
		goal = "Learn the topic"
		if topic != "" {
			goal = "Learn " + topic
		}
	}

	format := models.Format(strings.ToLower(strings.TrimSpace(a.Format)))
	if models.ParseFormat(string(format)) != format {
		missing = append(missing, SlotFormat)
		format = models.FormatAny
	}

	return models.Intent{
		Topic:          topic,
		Level:          level,
		Goal:           goal,
		Format:         format,
		TimeCommitment: strings.TrimSpace(a.TimeCommit),
	}, missing
}

func validTopic(topic string) bool {
	t := strings.ToLower(topic)
	return len(t) >= 2 && !genericTopics[t]
}

// DefaultSuggestions returns quick replies for the first missing slot.
func DefaultSuggestions(missing []string, topic string) []string {
	if len(missing) == 0 {
		return nil
	}
	if topic == "" {
		topic = "this topic"
	}
	switch missing[0] {
	case SlotTopic:
		return []string{"I want to learn Python", "I'm interested in web development", "I'd like to learn data science", "I want to learn product management"}
	case SlotLevel:
		return []string{"I'm a complete beginner", "I have some experience", "I'm intermediate level", "I'm advanced"}
	case SlotGoal:
		return []string{
			fmt.Sprintf("I want to master %s", topic),
			fmt.Sprintf("I want to build projects with %s", topic),
			fmt.Sprintf("I want to get a job using %s", topic),
			fmt.Sprintf("I want to understand %s deeply", topic),
		}
	case SlotFormat:
		return []string{"I prefer video tutorials", "I like reading articles", "I want documentation and guides", "I want a mix of formats"}
	}
	return nil
}

var questionStarters = []string{"what", "how", "do you", "can you", "tell me", "share", "let me know", "would you"}

// CleanSuggestions rewrites endpoint suggestions as things the user would
// say, drops any outside 3 to 100 characters and keeps at most four.
func CleanSuggestions(in []string) []string {
	out := make([]string, 0, maxSuggestions)
	for _, s := range in {
		s = strings.TrimSpace(s)
		s = strings.Trim(s, `"'`)
		s = strings.TrimRight(s, "?. ")
		s = firstPerson(s)
		if len(s) < 3 || len(s) > 100 {
			continue
		}
		out = append(out, s)
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func firstPerson(s string) string {
	stripped := false
	lower := strings.ToLower(s)
	for _, q := range questionStarters {
		if hasWordPrefixFold(s, q) && strings.Contains(lower, "you") {
			s = strings.TrimSpace(s[len(q):])
			stripped = true
			break
		}
	}
	if !stripped && !strings.Contains(strings.ToLower(s), "you") {
		return s
	}

	words := strings.Fields(s)
	for i, w := range words {
		switch strings.ToLower(w) {
		case "you":
			words[i] = "I"
		case "your":
			words[i] = "my"
		case "you're":
			words[i] = "I'm"
		}
	}
	s = strings.Join(words, " ")
	if s == "" || startsFirstPerson(s) {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return "I " + string(unicode.ToLower(r)) + s[size:]
}

// hasWordPrefixFold reports whether s starts with the ASCII word w followed
// by a space, ignoring case.
func hasWordPrefixFold(s, w string) bool {
	return len(s) > len(w) && s[len(w)] == ' ' && strings.EqualFold(s[:len(w)], w)
}

func startsFirstPerson(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "i ") || strings.HasPrefix(lower, "i'm") || strings.HasPrefix(lower, "i'd")
}
