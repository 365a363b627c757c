package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/raphaelgruber/journeys/internal/api"
	"github.com/raphaelgruber/journeys/internal/metrics"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show server statistics",
	Long:  `Show server runtime statistics, token usage and the journeys currently being built.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := apiClient.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("get server stats: %w", err)
		}
		printServerStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

// printServerStats displays server runtime statistics.
func printServerStats(w io.Writer, stats *api.StatsResponse) {
	fmt.Fprintf(w, "Server Statistics (in-memory, since restart)\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════\n")
	fmt.Fprintf(w, "Uptime: %.1f seconds\n", stats.UptimeSeconds)

	sections := []struct {
		name string
		op   *metrics.OperationSnapshot
	}{
		{"Scrape", stats.Scrape},
		{"Adapter Search", stats.AdapterSearch},
		{"Page Fetch", stats.PageFetch},
		{"LLM Generate", stats.LLMGenerate},
		{"Curation", stats.Curation},
		{"Progress Write", stats.ProgressWrite},
	}
	for _, s := range sections {
		if s.op == nil {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", s.name)
		printOpStats(w, s.op)
		printTokenStats(w, s.op)
	}

	if len(stats.ActiveRuns) > 0 {
		fmt.Fprintf(w, "\nBuilding (%d):\n", len(stats.ActiveRuns))
		for _, r := range stats.ActiveRuns {
			fmt.Fprintf(w, "  %s  running %s\n", r.JourneyID, time.Since(r.StartedAt).Round(time.Second))
		}
	}
}

func printOpStats(w io.Writer, op *metrics.OperationSnapshot) {
	fmt.Fprintf(w, "  Calls: %d, Errors: %d, Total: %dms\n", op.Count, op.Errors, op.TotalTimeMs)
	fmt.Fprintf(w, "  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

func printTokenStats(w io.Writer, op *metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Fprintf(w, "  Tokens In:  %d total\n", *op.TotalInputTokens)
	fmt.Fprintf(w, "  Tokens Out: %d total\n", *op.TotalOutputTokens)
}
