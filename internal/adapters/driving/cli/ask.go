package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/policypal/policypal/internal/core/domain"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the ingested Executive Orders",
	Long: `Asks a single question and prints a grounded answer with citations.
For a multi-turn conversation, use "policypal chat".`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	answer, err := chatService.Ask(context.Background(), args[0], nil)
	if err != nil && !errors.Is(err, domain.ErrGenerationUnavailable) {
		return fmt.Errorf("answering question: %w", err)
	}
	// A generation failure still carries the degraded answer and the
	// retrieved citations; show them rather than just the error.

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	outputAnswerText(cmd, answer)
	return nil
}

func outputAnswerJSON(cmd *cobra.Command, answer domain.Answer) error {
	out := struct {
		Answer  string             `json:"answer"`
		Sources []domain.SourceRef `json:"sources"`
	}{
		Answer:  answer.Text,
		Sources: answer.Sources,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer domain.Answer) {
	boldCyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	cmd.Println(answer.Text)

	if len(answer.Sources) == 0 {
		return
	}

	cmd.Println()
	cmd.Println(boldCyan("Sources:"))
	for _, src := range answer.Sources {
		cmd.Printf("  %s %s\n", boldCyan("EO "+src.OrderNumber), dim(src.Title))
	}
}
