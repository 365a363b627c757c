package service

import (
	"testing"

	"github.com/raphaelgruber/journeys/internal/llm"
	"github.com/raphaelgruber/journeys/internal/models"
)

func TestNormalizeIntent(t *testing.T) {
	tests := []struct {
		name    string
		in      *llm.Analysis
		want    models.Intent
		missing []string
	}{
		{
			name:    "nothing known",
			in:      nil,
			want:    models.Intent{Level: models.DifficultyBeginner, Goal: "Learn the topic", Format: models.FormatAny},
			missing: []string{SlotTopic, SlotLevel, SlotGoal, SlotFormat},
		},
		{
			name:    "generic topic",
			in:      &llm.Analysis{Topic: "General Learning", Level: "advanced", Goal: "ship things", Format: "doc"},
			want:    models.Intent{Level: models.DifficultyAdvanced, Goal: "ship things", Format: models.FormatDoc},
			missing: []string{SlotTopic},
		},
		{
			name:    "generic goal and bad values",
			in:      &llm.Analysis{Topic: "Go", Level: "guru", Goal: "learn", Format: "podcast"},
			want:    models.Intent{Topic: "Go", Level: models.DifficultyBeginner, Goal: "Learn Go", Format: models.FormatAny},
			missing: []string{SlotLevel, SlotGoal, SlotFormat},
		},
		{
			name:    "complete",
			in:      &llm.Analysis{Topic: "SQL", Level: "Intermediate", Goal: "tune queries", Format: "Mixed", TimeCommit: "1h a day"},
			want:    models.Intent{Topic: "SQL", Level: models.DifficultyIntermediate, Goal: "tune queries", Format: models.FormatMixed, TimeCommitment: "1h a day"},
			missing: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, missing := NormalizeIntent(tt.in)
			if got != tt.want {
				t.Errorf("intent = %+v, want %+v", got, tt.want)
			}
			if len(missing) != len(tt.missing) {
				t.Fatalf("missing = %v, want %v", missing, tt.missing)
			}
			for i := range missing {
				if missing[i] != tt.missing[i] {
					t.Errorf("missing = %v, want %v", missing, tt.missing)
				}
			}
		})
	}
}

func TestCleanSuggestions(t *testing.T) {
	in := []string{
		`"I'm a beginner"`,
		"Do you prefer videos?",
		"I want to build web apps.",
		"ok",
		"",
		"I like reading articles",
		"I want a mix of formats",
	}
	got := CleanSuggestions(in)
	want := []string{"I'm a beginner", "I prefer videos", "I want to build web apps", "I like reading articles"}
	if len(got) != len(want) {
		t.Fatalf("CleanSuggestions = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("suggestion %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFirstPerson(t *testing.T) {
	tests := map[string]string{
		"DO YOU prefer Ölgemälde?":           "I prefer Ölgemälde?",
		"Über-fast builds are what you want": "I über-fast builds are what I want",
		"Évaluer your skills":                "I évaluer my skills",
		"I know some Go":                     "I know some Go",
	}
	for in, want := range tests {
		if got := firstPerson(in); got != want {
			t.Errorf("firstPerson(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDefaultSuggestions(t *testing.T) {
	if got := DefaultSuggestions(nil, "go"); got != nil {
		t.Errorf("no missing slots should give no suggestions, got %v", got)
	}
	got := DefaultSuggestions([]string{SlotGoal, SlotFormat}, "Go")
	if len(got) != 4 || got[0] != "I want to master Go" {
		t.Errorf("goal suggestions = %v", got)
	}
}
