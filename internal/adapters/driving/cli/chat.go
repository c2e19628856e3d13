package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/policypal/policypal/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Launches the interactive chat interface. Follow-up questions are
resolved against the conversation ("what about the second one?" works).

Controls:
  Enter    - Send question
  Esc, q   - Quit (Ctrl+C also works)`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(_ *cobra.Command, _ []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	// Panic recovery to get stack traces out of the alternate screen.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in chat UI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	program := tea.NewProgram(tui.New(chatService), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running chat UI: %w", err)
	}
	return nil
}
