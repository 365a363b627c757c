package cli

import (
	"fmt"
	"strconv"

	"github.com/raphaelgruber/journeys/internal/models"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Record and review progress through a journey",
	Long: `Record progress on the resources of a ready journey.

Examples:
  journeys progress start j1 r1
  journeys progress time j1 r1 25
  journeys progress complete j1 r1
  journeys progress summary j1
  journeys progress last j1`,
}

var progressStartCmd = &cobra.Command{
	Use:   "start <journey-id> <resource-id>",
	Short: "Mark a resource in progress",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := apiClient.StartResource(cmd.Context(), args[0], args[1])
		return printRecord(cmd, rec, err)
	},
}

var progressCompleteCmd = &cobra.Command{
	Use:   "complete <journey-id> <resource-id>",
	Short: "Mark a resource completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := apiClient.CompleteResource(cmd.Context(), args[0], args[1])
		return printRecord(cmd, rec, err)
	},
}

var progressIncompleteCmd = &cobra.Command{
	Use:   "incomplete <journey-id> <resource-id>",
	Short: "Reopen a completed resource",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := apiClient.ReopenResource(cmd.Context(), args[0], args[1])
		return printRecord(cmd, rec, err)
	},
}

var progressTimeCmd = &cobra.Command{
	Use:   "time <journey-id> <resource-id> <minutes>",
	Short: "Add study time to a resource",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		mins, err := strconv.Atoi(args[2])
		if err != nil || mins < 0 {
			return fmt.Errorf("invalid minutes: %s", args[2])
		}
		rec, err := apiClient.AddTime(cmd.Context(), args[0], args[1], mins)
		return printRecord(cmd, rec, err)
	},
}

var progressSummaryCmd = &cobra.Command{
	Use:   "summary <journey-id>",
	Short: "Show completion of a journey",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sum, err := apiClient.ProgressSummary(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get progress: %w", err)
		}
		writeSummary(cmd.OutOrStdout(), sum)
		return nil
	},
}

var progressLastCmd = &cobra.Command{
	Use:   "last <journey-id>",
	Short: "Show where you left off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := apiClient.LastPosition(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get last position: %w", err)
		}
		out := cmd.OutOrStdout()
		if pos == nil {
			fmt.Fprintln(out, "Nothing opened yet.")
			return nil
		}
		fmt.Fprintf(out, "Resource %d: %s (last opened %s)\n", pos.Index+1, pos.ResourceID, pos.AccessedAt.Local().Format("2006-01-02 15:04"))
		return nil
	},
}

func printRecord(cmd *cobra.Command, rec *models.ProgressRecord, err error) error {
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	writeRecord(cmd.OutOrStdout(), rec)
	return nil
}

func init() {
	progressCmd.AddCommand(progressStartCmd)
	progressCmd.AddCommand(progressCompleteCmd)
	progressCmd.AddCommand(progressIncompleteCmd)
	progressCmd.AddCommand(progressTimeCmd)
	progressCmd.AddCommand(progressSummaryCmd)
	progressCmd.AddCommand(progressLastCmd)
}
