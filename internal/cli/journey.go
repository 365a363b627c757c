package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var journeyLimit int

var journeyCmd = &cobra.Command{
	Use:   "journey",
	Short: "List, inspect and follow journeys",
}

var journeyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your journeys, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := apiClient.ListJourneys(cmd.Context(), journeyLimit)
		if err != nil {
			return fmt.Errorf("list journeys: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No journeys found. Start one with 'journeys chat'.")
			return nil
		}

		fmt.Fprintf(out, "%-38s %-10s %-14s %-9s %s\n", "ID", "STATUS", "LEVEL", "RESOURCES", "TOPIC")
		for _, j := range list {
			fmt.Fprintf(out, "%-38s %-10s %-14s %-9d %s\n", j.ID, j.Status, j.Level, len(j.Resources), j.Topic)
		}
		return nil
	},
}

var journeyGetCmd = &cobra.Command{
	Use:   "get <journey-id>",
	Short: "Show a journey with its sections and resources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		j, err := apiClient.GetJourney(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("get journey: %w", err)
		}
		writeJourney(cmd.OutOrStdout(), j)
		return nil
	},
}

var journeyWatchCmd = &cobra.Command{
	Use:   "watch <journey-id>",
	Short: "Follow a journey until it is ready",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if isTerminal(cmd.OutOrStdout()) {
			return runWatchTUI(apiClient, args[0])
		}
		return pollJourney(cmd.Context(), apiClient, args[0], cmd.OutOrStdout(), pollInterval)
	},
}

func init() {
	journeyListCmd.Flags().IntVarP(&journeyLimit, "limit", "n", 0, "maximum number of journeys")

	journeyCmd.AddCommand(journeyListCmd)
	journeyCmd.AddCommand(journeyGetCmd)
	journeyCmd.AddCommand(journeyWatchCmd)
}
