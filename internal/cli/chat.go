package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatSessionID string

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Chat with the college advisor",
	Long: `Open an interactive conversation with the Degree Dialog advisor.

Without arguments this starts the full-screen chat. With a message argument
it sends a single message and prints the reply, which works in scripts and
pipes.

Examples:
  dialog chat
  dialog chat --session abc123
  dialog chat "What scholarships are available for engineering students?"`,
	Args: cobra.ArbitraryArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatSessionID, "session", "s", "", "resume an existing session id")
}

func runChat(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	if len(args) > 0 {
		return runChatOnce(strings.Join(args, " "))
	}
	return runChatTUI(chatSessionID)
}

// runChatOnce sends one message and prints the advisor's reply.
func runChatOnce(text string) error {
	conv, _, recon := newControllers()
	ctx := context.Background()

	if chatSessionID != "" {
		if err := conv.LoadHistory(ctx, recon, chatSessionID); err != nil {
			return checkAuthErr(err)
		}
	}

	if err := conv.Send(ctx, text); err != nil {
		return checkAuthErr(err)
	}

	msgs := conv.Messages()
	if len(msgs) == 0 {
		return nil
	}
	last := msgs[len(msgs)-1]
	fmt.Println(last.Content)
	if id := conv.SessionID(); id != "" && chatSessionID == "" {
		fmt.Fprintf(os.Stderr, "(session %s)\n", id)
	}
	return nil
}
