package curation

import (
	"reflect"
	"testing"

	"github.com/raphaelgruber/journeys/internal/models"
)

func res(id string, d models.Difficulty, minutes int, tags ...string) models.Resource {
	return models.Resource{ID: id, Title: id, URL: "https://x/" + id, Difficulty: d, EstimatedTime: minutes, Tags: tags}
}

func sectionIDs(sections []models.Section) map[string][]string {
	out := make(map[string][]string, len(sections))
	for _, s := range sections {
		out[s.Name] = s.Resources
	}
	return out
}

func TestCurateBuckets(t *testing.T) {
	resources := []models.Resource{
		res("r1", models.DifficultyBeginner, 10),
		res("r2", models.DifficultyAdvanced, 30),
		res("r3", models.DifficultyIntermediate, 20),
		res("r4", models.DifficultyBeginner, 5),
		res("r5", models.DifficultyUnknown, 0),
		res("r6", models.DifficultyBeginner, 60, "project"),
	}

	sections, err := CurateWithReport(resources, Signals{Topic: "rust", Level: models.DifficultyIntermediate})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var names []string
	for _, s := range sections {
		names = append(names, s.Name)
	}
	wantNames := []string{SectionFundamentals, SectionIntermediate, SectionAdvanced, SectionProjects}
	if !reflect.DeepEqual(names, wantNames) {
		t.Errorf("section order = %v, want %v", names, wantNames)
	}

	got := sectionIDs(sections)
	want := map[string][]string{
		SectionFundamentals: {"r4", "r1"},
		SectionIntermediate: {"r3", "r5"},
		SectionAdvanced:     {"r2"},
		SectionProjects:     {"r6"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sections = %v, want %v", got, want)
	}
	if sections[0].Description == "" {
		t.Error("sections should carry a description")
	}
}

func TestCurateBucketPerDifficulty(t *testing.T) {
	tests := []struct {
		name      string
		level     models.Difficulty
		resources []models.Resource
		want      map[string][]string
	}{
		{
			name:  "beginner learner",
			level: models.DifficultyBeginner,
			resources: []models.Resource{
				res("a", models.DifficultyBeginner, 10),
				res("b", models.DifficultyAdvanced, 20),
				res("u", models.DifficultyUnknown, 5),
			},
			want: map[string][]string{
				SectionFundamentals: {"a", "u"},
				SectionAdvanced:     {"b"},
			},
		},
		{
			name:  "intermediate with project",
			level: models.DifficultyIntermediate,
			resources: []models.Resource{
				res("i", models.DifficultyIntermediate, 10),
				res("p", models.DifficultyAdvanced, 30, "project"),
			},
			want: map[string][]string{
				SectionIntermediate: {"i"},
				SectionProjects:     {"p"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections, err := CurateWithReport(tt.resources, Signals{Topic: "go", Level: tt.level})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := sectionIDs(sections); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("sections = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCurateCoversEveryResourceOnce(t *testing.T) {
	resources := []models.Resource{
		res("a", models.DifficultyBeginner, 0),
		res("b", models.DifficultyAdvanced, 0, "project"),
		res("c", models.DifficultyUnknown, 3),
		res("d", models.DifficultyIntermediate, 0),
		res("e", models.DifficultyAdvanced, 2),
	}
	sections := Curate(resources, Signals{})

	seen := map[string]int{}
	for _, s := range sections {
		for _, id := range s.Resources {
			seen[id]++
		}
	}
	for _, r := range resources {
		if seen[r.ID] != 1 {
			t.Errorf("resource %s appears %d times", r.ID, seen[r.ID])
		}
	}

	j := models.Journey{Resources: []string{"a", "b", "c", "d", "e"}, Sections: sections}
	before := len(j.Sections)
	j.EnsureCoverage(nil)
	if len(j.Sections) != before {
		t.Error("curated sections should need no repair")
	}
}

func TestCurateFallback(t *testing.T) {
	tests := []struct {
		name      string
		resources []models.Resource
	}{
		{
			name: "one difficulty signal",
			resources: []models.Resource{
				res("a", models.DifficultyUnknown, 0),
				res("b", models.DifficultyAdvanced, 0),
				res("c", models.DifficultyUnknown, 0),
			},
		},
		{
			name: "single bucket",
			resources: []models.Resource{
				res("a", models.DifficultyBeginner, 9),
				res("b", models.DifficultyBeginner, 1),
				res("c", models.DifficultyUnknown, 0),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sections, err := CurateWithReport(tt.resources, Signals{Level: models.DifficultyBeginner})
			if err != ErrInsufficientSignal {
				t.Errorf("err = %v, want ErrInsufficientSignal", err)
			}
			if len(sections) != 1 || sections[0].Name != SectionLearningPath {
				t.Fatalf("sections = %+v, want one Learning Path", sections)
			}
			if !reflect.DeepEqual(sections[0].Resources, []string{"a", "b", "c"}) {
				t.Errorf("fallback order = %v, want discovery order", sections[0].Resources)
			}
		})
	}
}

func TestCurateIsDeterministic(t *testing.T) {
	resources := []models.Resource{
		res("a", models.DifficultyBeginner, 0),
		res("b", models.DifficultyBeginner, 0),
		res("c", models.DifficultyAdvanced, 10),
		res("d", models.DifficultyAdvanced, 10),
		res("e", models.DifficultyBeginner, 0),
	}
	first := Curate(resources, Signals{})
	for range 10 {
		if got := Curate(resources, Signals{}); !reflect.DeepEqual(got, first) {
			t.Fatalf("run differs: %v vs %v", got, first)
		}
	}
	if ids := sectionIDs(first)[SectionFundamentals]; !reflect.DeepEqual(ids, []string{"a", "b", "e"}) {
		t.Errorf("ties should keep discovery order, got %v", ids)
	}
}

func TestCurateEmpty(t *testing.T) {
	sections, err := CurateWithReport(nil, Signals{})
	if err != nil || len(sections) != 0 {
		t.Errorf("CurateWithReport(nil) = %v, %v", sections, err)
	}
}
