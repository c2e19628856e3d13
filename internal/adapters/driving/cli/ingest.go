package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/policypal/policypal/internal/adapters/driven/feed/localdir"
	"github.com/policypal/policypal/internal/core/ports/driving"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest Executive Orders into the knowledge base",
}

var ingestFetchYear int

var ingestFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and ingest orders from the Federal Register",
	Long: `Fetches the Executive Orders published in a given year from the
Federal Register API and ingests them. Orders already ingested with
identical text are skipped; changed orders supersede the stored version.`,
	Args: cobra.NoArgs,
	RunE: runIngestFetch,
}

var ingestDirCmd = &cobra.Command{
	Use:   "dir [path]",
	Short: "Ingest order files from a local directory",
	Long: `Reads every order file (*.json) in the directory and ingests it.
Each file holds one order with order_number, title and full_text fields.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngestDir,
}

var ingestWatchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch a directory and ingest order files as they appear",
	Long: `Watches the directory for new or updated order files (*.json) and
ingests each one as it lands. Runs until interrupted. Without a path
argument the feed.watch_dir from the config file is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngestWatch,
}

var ingestPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Process stored orders that have not been indexed yet",
	Args:  cobra.NoArgs,
	RunE:  runIngestPending,
}

var ingestRebuildCmd = &cobra.Command{
	Use:   "rebuild-index",
	Short: "Rebuild the vector index from stored embeddings",
	Long: `Repopulates the vector index from the embeddings already stored in
the database. Use this after a corrupt or lost index snapshot.`,
	Args: cobra.NoArgs,
	RunE: runIngestRebuild,
}

func init() {
	ingestFetchCmd.Flags().IntVarP(&ingestFetchYear, "year", "y", time.Now().Year(), "publication year to fetch")

	ingestCmd.AddCommand(ingestFetchCmd)
	ingestCmd.AddCommand(ingestDirCmd)
	ingestCmd.AddCommand(ingestWatchCmd)
	ingestCmd.AddCommand(ingestPendingCmd)
	ingestCmd.AddCommand(ingestRebuildCmd)
	rootCmd.AddCommand(ingestCmd)
}

func runIngestFetch(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}
	if documentFeed == nil {
		return errors.New("no document feed configured")
	}

	ctx := context.Background()

	docs, err := documentFeed.Fetch(ctx, ingestFetchYear)
	if err != nil {
		return fmt.Errorf("fetching orders: %w", err)
	}
	if len(docs) == 0 {
		cmd.Printf("No Executive Orders found for %d.\n", ingestFetchYear)
		return nil
	}

	stats, err := ingestService.IngestAll(ctx, docs)
	printIngestStats(cmd, stats)
	return err
}

func runIngestDir(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	feed, err := localdir.NewFeed(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()

	docs, err := feed.Fetch(ctx, 0)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}
	if len(docs) == 0 {
		cmd.Println("No order files found.")
		return nil
	}

	stats, err := ingestService.IngestAll(ctx, docs)
	printIngestStats(cmd, stats)
	return err
}

func runIngestWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	dir := defaultWatchDir
	if len(args) > 0 {
		dir = args[0]
	}
	if dir == "" {
		return errors.New("no directory given and feed.watch_dir is not configured")
	}

	feed, err := localdir.NewFeed(dir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	docs, errs := feed.Watch(ctx)
	cmd.Printf("Watching %s for order files. Ctrl-C to stop.\n", dir)

	for docs != nil || errs != nil {
		select {
		case doc, ok := <-docs:
			if !ok {
				docs = nil
				continue
			}
			if err := ingestService.Ingest(ctx, doc); err != nil {
				cmd.PrintErrf("EO %s: %v\n", doc.OrderNumber, err)
				continue
			}
			cmd.Printf("Ingested EO %s: %s\n", doc.OrderNumber, doc.Title)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			cmd.PrintErrf("watch: %v\n", err)
		}
	}
	return nil
}

func runIngestPending(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	stats, err := ingestService.ProcessPending(context.Background())
	printIngestStats(cmd, stats)
	return err
}

func runIngestRebuild(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	count, err := ingestService.RebuildIndex(context.Background())
	if err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}

	cmd.Printf("Rebuilt index with %d vectors.\n", count)
	return nil
}

func printIngestStats(cmd *cobra.Command, stats driving.IngestStats) {
	cmd.Printf("Ingested %d, skipped %d, failed %d.\n", stats.Ingested, stats.Skipped, stats.Failed)
}
