package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/policypal/policypal/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the ingested orders for relevant passages",
	Long: `Performs semantic search over the ingested Executive Orders and
prints the matching passages without composing an answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of passages (0 = configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrieverService == nil {
		return errors.New("retriever service not configured")
	}

	results, err := retrieverService.Retrieve(context.Background(), args[0], nil, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	outputSearchText(cmd, results)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, results []domain.RetrievalResult) error {
	type resultOut struct {
		OrderNumber string  `json:"order_number"`
		Title       string  `json:"title"`
		Score       float64 `json:"score"`
		Content     string  `json:"content"`
	}

	out := make([]resultOut, len(results))
	for i := range results {
		out[i] = resultOut{
			OrderNumber: results[i].Document.OrderNumber,
			Title:       results[i].Document.Title,
			Score:       results[i].Score,
			Content:     results[i].Chunk.Content,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, results []domain.RetrievalResult) {
	if len(results) == 0 {
		cmd.Println("No relevant passages found.")
		return
	}

	for i := range results {
		cmd.Printf("[%d] EO %s: %s (%.2f)\n", i+1,
			results[i].Document.OrderNumber, results[i].Document.Title, results[i].Score)
		cmd.Printf("    %s\n\n", snippet(results[i].Chunk.Content, 200))
	}
}

// snippet shortens chunk content for terminal display.
func snippet(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
