// Package cli provides the command-line interface for journeys.
package cli

import (
	"context"

	"github.com/raphaelgruber/journeys/internal/client"
	"github.com/raphaelgruber/journeys/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	userID    string

	cfg       config.Config
	apiClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "journeys",
	Short: "Personalized learning journeys",
	Long: `Journeys turns a short conversation about what you want to learn into a
curated, ordered path of web resources, and tracks your progress through it.

Start with 'journeys chat', then follow along with 'journeys journey watch'
and record progress with the 'journeys progress' commands.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if serverURL == "" {
			serverURL = cfg.ServerURL
		}
		if userID == "" {
			userID = cfg.DefaultUser
		}
		apiClient = client.New(serverURL, userID)
		return nil
	},
}

// ExecuteContext runs the root command with ctx available to every
// subcommand through cmd.Context().
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server URL (default $JOURNEYS_SERVER_URL)")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "user id (default $JOURNEYS_USER)")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(journeyCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(statsCmd)
}
