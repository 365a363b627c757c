package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/journeys/internal/models"
)

// HistoryWindow is how many trailing turns are sent to the endpoint.
const HistoryWindow = 8

// Analysis is the endpoint's reading of an elicitation conversation.
type Analysis struct {
	Reply       string   `json:"reply"`
	Topic       string   `json:"topic"`
	Level       string   `json:"level"`
	Goal        string   `json:"goal"`
	Format      string   `json:"preferred_format"`
	TimeCommit  string   `json:"time_commitment"`
	Ready       bool     `json:"ready"`
	Suggestions []string `json:"suggestions"`
}

const analyzeSystemPrompt = `You help people plan how to learn something new. Read the conversation and work out:
- topic: the specific subject they want to learn
- level: beginner, intermediate or advanced
- goal: what they want to achieve
- preferred_format: video, blog, doc or any
- time_commitment: how much time they can spend, if mentioned

Ask at most one short follow-up question for whatever is still missing.
Set ready to true only when topic and level are known.
Offer up to 4 short replies the user could send next, written in first person.

Respond with JSON only:
{"reply": "...", "topic": "...", "level": "...", "goal": "...", "preferred_format": "...", "time_commitment": "...", "ready": false, "suggestions": ["..."]}`

// AnalyzeConversation asks the endpoint to extract learning intent from the
// trailing turns of a conversation. Any failure is reported as
// ErrReasoningUnavailable so callers can degrade gracefully.
func (m *Model) AnalyzeConversation(ctx context.Context, turns []models.Turn) (*Analysis, error) {
	if len(turns) > HistoryWindow {
		turns = turns[len(turns)-HistoryWindow:]
	}
	var b strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
	}

	raw, err := m.GenerateWithSystem(ctx, analyzeSystemPrompt, "Conversation:\n"+b.String()+"\nJSON:")
	if err != nil {
		if errors.Is(err, ErrFatalAPI) {
			m.log.Error("reasoning endpoint rejected request", "model", m.modelName, "error", err)
		}
		return nil, fmt.Errorf("analyze conversation: %w: %w", ErrReasoningUnavailable, err)
	}

	a, err := ParseAnalysis(raw)
	if err != nil {
		m.log.Warn("unparseable analysis", "model", m.modelName, "error", err)
		return nil, fmt.Errorf("analyze conversation: %w: %w", ErrReasoningUnavailable, err)
	}
	return a, nil
}

// ParseAnalysis decodes the endpoint's JSON answer. Markdown fences and
// prose around the object are tolerated.
func ParseAnalysis(raw string) (*Analysis, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return nil, errors.New("no JSON object in response")
	}

	var a Analysis
	if err := json.Unmarshal([]byte(s[start:end+1]), &a); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	return &a, nil
}
