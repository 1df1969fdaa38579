package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	sessionDateStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6C6C"))
	sessionPreviewStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4"))
	sessionIDStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFD7"))
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List past conversations",
	Long: `List your saved conversations, newest first.

Use the printed id with 'dialog chat --session <id>' to resume one.`,
	Args: cobra.NoArgs,
	RunE: runSessions,
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all chat history",
	Args:  cobra.NoArgs,
	RunE:  runSessionsClear,
}

var clearYes bool

func init() {
	sessionsClearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip the confirmation prompt")
	sessionsCmd.AddCommand(sessionsClearCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	_, list, _ := newControllers()
	if err := list.Refresh(context.Background()); err != nil {
		return checkAuthErr(err)
	}

	sessions := list.Sessions()
	if len(sessions) == 0 {
		fmt.Println("No chat history yet.")
		return nil
	}

	now := time.Now()
	for _, s := range sessions {
		fmt.Printf("%s  %s  %s\n",
			sessionIDStyle.Render(s.ID),
			sessionDateStyle.Render(fmt.Sprintf("%-9s", formatSessionDate(s.CreatedAt, now))),
			sessionPreviewStyle.Render(s.Preview),
		)
	}
	return nil
}

func runSessionsClear(cmd *cobra.Command, args []string) error {
	if err := requireAuth(); err != nil {
		return err
	}

	if !clearYes && !confirm("Delete all chat history? This cannot be undone.") {
		fmt.Println("Aborted.")
		return nil
	}

	_, list, _ := newControllers()
	if err := list.ClearAll(context.Background()); err != nil {
		return checkAuthErr(err)
	}
	fmt.Println("Chat history cleared.")
	return nil
}
