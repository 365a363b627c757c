package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/raphaelgruber/journeys/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	chatConversation string
	chatNoWatch      bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk through what you want to learn",
	Long: `Start or continue a conversation that narrows down a learning goal.
Once the topic, level and goal are clear a journey is created and its
progress is shown until it is ready.

Examples:
  journeys chat
  journeys chat "I want to learn Kubernetes for work"
  journeys chat --conversation c1 "intermediate"`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatConversation, "conversation", "", "continue this conversation")
	chatCmd.Flags().BoolVar(&chatNoWatch, "no-watch", false, "do not follow the journey once it is created")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	interactive := isTerminal(cmd.InOrStdin())

	var first string
	if len(args) > 0 {
		first = strings.Join(args, " ")
	}

	reply, err := chatLoop(ctx, apiClient, cmd.InOrStdin(), out, first, chatConversation, interactive)
	if err != nil {
		return err
	}
	if reply == nil || reply.JourneyID == "" || chatNoWatch {
		return nil
	}

	fmt.Fprintf(out, "\nJourney %s created.\n", reply.JourneyID)
	if interactive {
		return runWatchTUI(apiClient, reply.JourneyID)
	}
	return pollJourney(ctx, apiClient, reply.JourneyID, out, pollInterval)
}

// chatClient is the part of the client a conversation needs.
type chatClient interface {
	StartChat(ctx context.Context, message string) (*service.ChatReply, error)
	Respond(ctx context.Context, conversationID, message string) (*service.ChatReply, error)
}

// chatLoop sends messages read from in until the assistant reports a
// created journey or input ends. It returns the last reply.
func chatLoop(ctx context.Context, c chatClient, in io.Reader, out io.Writer, first, conversationID string, prompt bool) (*service.ChatReply, error) {
	scanner := bufio.NewScanner(in)
	next := func() (string, bool) {
		for {
			if prompt {
				fmt.Fprint(out, "> ")
			}
			if !scanner.Scan() {
				return "", false
			}
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				return line, true
			}
		}
	}

	msg := first
	if msg == "" {
		if prompt {
			fmt.Fprintln(out, "What would you like to learn?")
		}
		var ok bool
		if msg, ok = next(); !ok {
			return nil, scanner.Err()
		}
	}

	var last *service.ChatReply
	for {
		var reply *service.ChatReply
		var err error
		if conversationID == "" {
			reply, err = c.StartChat(ctx, msg)
		} else {
			reply, err = c.Respond(ctx, conversationID, msg)
		}
		if err != nil {
			return last, fmt.Errorf("chat: %w", err)
		}
		last = reply
		conversationID = reply.ConversationID

		fmt.Fprintf(out, "\n%s\n", reply.Reply)
		if reply.JourneyID != "" {
			return reply, nil
		}
		for i, q := range reply.Questions {
			fmt.Fprintf(out, "  %d. %s\n", i+1, q)
		}

		line, ok := next()
		if !ok {
			return last, scanner.Err()
		}
		msg = pickSuggestion(line, reply.Questions)
	}
}

// pickSuggestion lets a bare number select one of the offered suggestions.
func pickSuggestion(line string, suggestions []string) string {
	var n int
	if _, err := fmt.Sscanf(line, "%d", &n); err == nil && fmt.Sprint(n) == line && n >= 1 && n <= len(suggestions) {
		return suggestions[n-1]
	}
	return line
}

// isTerminal reports whether stream is an interactive terminal.
func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
