package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/raphaelgruber/journeys/internal/service"
)

// writeJourney prints a journey's sections with their resources.
func writeJourney(w io.Writer, j *service.JourneyDetail) {
	fmt.Fprintf(w, "Journey: %s (%s)\n", j.Topic, j.ID)
	fmt.Fprintf(w, "  Level: %s, Goal: %s, Format: %s\n", j.Level, j.Goal, j.Format)
	fmt.Fprintf(w, "  Status: %s\n", j.Status)
	if j.Status == models.JourneyFailed {
		fmt.Fprintf(w, "  Failed while %s: %s\n", j.FailedStage, j.Error)
	}

	byID := make(map[string]models.Resource, len(j.ResourceDetails))
	for _, r := range j.ResourceDetails {
		byID[r.ID] = r
	}

	n := 0
	for _, s := range j.Sections {
		if len(s.Resources) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", s.Name)
		for _, id := range s.Resources {
			n++
			r, ok := byID[id]
			if !ok {
				fmt.Fprintf(w, "  %2d. %s\n", n, id)
				continue
			}
			fmt.Fprintf(w, "  %2d. [%s] %s\n", n, r.Type, r.Title)
			fmt.Fprintf(w, "      %s  (id: %s%s)\n", r.URL, r.ID, minutes(r.EstimatedTime))
		}
	}
}

func minutes(m int) string {
	if m <= 0 {
		return ""
	}
	return fmt.Sprintf(", ~%d min", m)
}

func writeSummary(w io.Writer, s *models.ProgressSummary) {
	fmt.Fprintf(w, "Progress for %s: %d%%\n", s.JourneyID, s.CompletionPercentage)
	fmt.Fprintf(w, "  Completed: %d, In progress: %d, Not started: %d (of %d)\n",
		s.CompletedCount, s.InProgressCount, s.NotStartedCount, s.TotalResources)
	fmt.Fprintf(w, "  Time spent: %s\n", (time.Duration(s.TotalTimeSpentMinutes) * time.Minute).String())
}

func writeRecord(w io.Writer, r *models.ProgressRecord) {
	fmt.Fprintf(w, "%s: %s, %d min spent\n", r.ResourceID, r.Completed, r.TimeSpentMinutes)
}
