package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [conversation-id]",
	Short: "List past conversations or show one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			conv, err := apiClient.Conversation(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get conversation: %w", err)
			}
			fmt.Fprintf(out, "Conversation %s (%s)\n", conv.ID, conv.CreatedAt.Format("2006-01-02 15:04"))
			if conv.JourneyID != nil {
				fmt.Fprintf(out, "  Journey: %s\n", *conv.JourneyID)
			}
			for _, t := range conv.Turns {
				fmt.Fprintf(out, "\n%s: %s\n", t.Role, t.Content)
			}
			return nil
		}

		convs, err := apiClient.History(ctx, historyLimit)
		if err != nil {
			return fmt.Errorf("list conversations: %w", err)
		}
		if len(convs) == 0 {
			fmt.Fprintln(out, "No conversations found")
			return nil
		}

		fmt.Fprintf(out, "%-38s %-38s %s\n", "ID", "JOURNEY", "UPDATED")
		for _, c := range convs {
			journey := "-"
			if c.JourneyID != nil {
				journey = *c.JourneyID
			}
			fmt.Fprintf(out, "%-38s %-38s %s\n", c.ID, journey, c.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of conversations")
}
