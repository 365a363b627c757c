package models

import (
	"slices"
	"testing"
)

func TestJourneyStatusCanTransition(t *testing.T) {
	tests := []struct {
		from, to JourneyStatus
		want     bool
	}{
		{JourneyPending, JourneyScraping, true},
		{JourneyScraping, JourneyCurating, true},
		{JourneyCurating, JourneyReady, true},
		{JourneyPending, JourneyFailed, true},
		{JourneyScraping, JourneyFailed, true},
		{JourneyCurating, JourneyFailed, true},
		{JourneyPending, JourneyCurating, false},
		{JourneyPending, JourneyReady, false},
		{JourneyScraping, JourneyReady, false},
		{JourneyCurating, JourneyScraping, false},
		{JourneyReady, JourneyCurating, false},
		{JourneyReady, JourneyFailed, false},
		{JourneyFailed, JourneyPending, false},
		{JourneyReady, JourneyReady, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"video":   FormatVideo,
		" Blog ":  FormatBlog,
		"doc":     FormatDoc,
		"mixed":   FormatMixed,
		"any":     FormatAny,
		"podcast": FormatAny,
		"":        FormatAny,
	}
	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

// coverage flattens sections and checks every resource appears exactly once.
func coverage(t *testing.T, j *Journey) {
	t.Helper()
	var all []string
	for _, s := range j.Sections {
		if len(s.Resources) == 0 {
			t.Errorf("section %q is empty", s.Name)
		}
		all = append(all, s.Resources...)
	}
	got := slices.Clone(all)
	want := slices.Clone(j.Resources)
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Errorf("sections cover %v, want %v", all, j.Resources)
	}
}

func TestEnsureCoverage(t *testing.T) {
	tests := []struct {
		name      string
		resources []string
		sections  []Section
		titles    map[string]string
		wantNames []string
	}{
		{
			name:      "full coverage unchanged",
			resources: []string{"a", "b", "c"},
			sections: []Section{
				{Name: "Fundamentals", Resources: []string{"a", "b"}},
				{Name: "Projects", Resources: []string{"c"}},
			},
			wantNames: []string{"Fundamentals", "Projects"},
		},
		{
			name:      "partial coverage gets leftover bucket",
			resources: []string{"a", "b", "c", "d"},
			sections: []Section{
				{Name: "Fundamentals", Resources: []string{"b"}},
			},
			wantNames: []string{"Fundamentals", LeftoverSection},
		},
		{
			name:      "no sections at all",
			resources: []string{"a", "b"},
			wantNames: []string{LeftoverSection},
		},
		{
			name:      "duplicates and unknown refs dropped",
			resources: []string{"a", "b"},
			sections: []Section{
				{Name: "One", Resources: []string{"a", "zzz", "a"}},
				{Name: "Two", Resources: []string{"a", "b"}},
				{Name: "Ghost", Resources: []string{"missing"}},
			},
			wantNames: []string{"One", "Two"},
		},
		{
			name:      "title refs resolved",
			resources: []string{"a", "b"},
			titles:    map[string]string{"a": "Intro to Go", "b": "Go Concurrency"},
			sections: []Section{
				{Name: "Legacy", Resources: []string{"intro to go", "GO CONCURRENCY"}},
			},
			wantNames: []string{"Legacy"},
		},
		{
			name:      "empty journey",
			resources: nil,
			sections:  []Section{{Name: "Empty"}},
			wantNames: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &Journey{Resources: tt.resources, Sections: tt.sections}
			j.EnsureCoverage(tt.titles)

			var names []string
			for _, s := range j.Sections {
				names = append(names, s.Name)
			}
			if !slices.Equal(names, tt.wantNames) {
				t.Errorf("section names = %v, want %v", names, tt.wantNames)
			}
			coverage(t, j)
		})
	}
}

func TestEnsureCoverageIdempotent(t *testing.T) {
	j := &Journey{
		Resources: []string{"a", "b", "c"},
		Sections:  []Section{{Name: "Fundamentals", Resources: []string{"c"}}},
	}
	j.EnsureCoverage(nil)
	first := slices.Clone(j.Sections)
	j.EnsureCoverage(nil)

	if len(first) != len(j.Sections) {
		t.Fatalf("second pass changed section count: %d -> %d", len(first), len(j.Sections))
	}
	for i := range first {
		if first[i].Name != j.Sections[i].Name || !slices.Equal(first[i].Resources, j.Sections[i].Resources) {
			t.Errorf("section %d changed on second pass: %+v -> %+v", i, first[i], j.Sections[i])
		}
	}
}

func TestJourneyPosition(t *testing.T) {
	j := &Journey{Resources: []string{"a", "b", "c"}}
	if got := j.Position("c"); got != 2 {
		t.Errorf("Position(c) = %d, want 2", got)
	}
	if got := j.Position("x"); got != -1 {
		t.Errorf("Position(x) = %d, want -1", got)
	}
	if !j.Contains("b") || j.Contains("x") {
		t.Error("Contains mismatch")
	}
}
