package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/policypal/policypal/internal/core/domain"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Manage the ingested Executive Orders",
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested orders",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsShowCmd = &cobra.Command{
	Use:   "show [order-number]",
	Short: "Show an order's metadata and text",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsShow,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [order-number]",
	Short: "Remove an order from the knowledge base",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentsDelete,
}

var documentsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarise the corpus by administration and year",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsSummary,
}

func init() {
	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsShowCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	documentsCmd.AddCommand(documentsSummaryCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(context.Background())
	if err != nil {
		return fmt.Errorf("listing orders: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No Executive Orders ingested yet.")
		return nil
	}

	for _, doc := range docs {
		date := ""
		if !doc.PublishedDate.IsZero() {
			date = doc.PublishedDate.Format("2006-01-02")
		}
		cmd.Printf("  EO %-6s %-10s %s\n", doc.OrderNumber, date, doc.Title)
	}
	cmd.Printf("\n%d orders.\n", len(docs))
	return nil
}

func runDocumentsShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.GetByOrderNumber(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no order %s in the knowledge base", args[0])
		}
		return fmt.Errorf("loading order: %w", err)
	}

	cmd.Printf("Executive Order %s\n", doc.OrderNumber)
	cmd.Printf("Title:          %s\n", doc.Title)
	if doc.President != "" {
		cmd.Printf("President:      %s\n", doc.President)
	}
	if doc.Administration != "" {
		cmd.Printf("Administration: %s\n", doc.Administration)
	}
	if !doc.PublishedDate.IsZero() {
		cmd.Printf("Published:      %s\n", doc.PublishedDate.Format("2006-01-02"))
	}
	if doc.URL != "" {
		cmd.Printf("URL:            %s\n", doc.URL)
	}
	cmd.Println()
	cmd.Println(doc.FullText)
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := context.Background()

	doc, err := documentService.GetByOrderNumber(ctx, args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no order %s in the knowledge base", args[0])
		}
		return fmt.Errorf("loading order: %w", err)
	}

	if err := documentService.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}

	cmd.Printf("Deleted EO %s.\n", doc.OrderNumber)
	return nil
}

func runDocumentsSummary(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	summary, err := documentService.Summary(context.Background())
	if err != nil {
		return fmt.Errorf("summarising corpus: %w", err)
	}

	if summary.TotalDocuments == 0 {
		cmd.Println("No Executive Orders ingested yet.")
		return nil
	}

	cmd.Printf("%d Executive Orders ingested.\n\n", summary.TotalDocuments)
	for _, admin := range summary.Administrations {
		cmd.Printf("%s: %d orders", admin.Administration, admin.Total)
		if admin.President != "" {
			cmd.Printf(" (%s)", admin.President)
		}
		cmd.Println()
		for _, yc := range admin.Years {
			cmd.Printf("  %d: %d\n", yc.Year, yc.Count)
		}
	}
	return nil
}
