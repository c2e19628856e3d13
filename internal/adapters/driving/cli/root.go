// Package cli provides the cobra command tree for PolicyPal.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/policypal/policypal/internal/core/ports/driven"
	"github.com/policypal/policypal/internal/core/ports/driving"
	"github.com/policypal/policypal/internal/logger"
)

// version is stamped at build time via -ldflags.
var version = "0.1.0"

// Services injected by main before Execute. Commands check for nil and
// fail with a clear message instead of panicking.
var (
	ingestService    driving.IngestService
	retrieverService driving.RetrieverService
	chatService      driving.ChatService
	documentService  driving.DocumentService
	documentFeed     driven.DocumentFeed
	defaultWatchDir  string
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "policypal",
	Short: "Ask questions about U.S. Executive Orders",
	Long: `PolicyPal ingests U.S. Executive Orders, indexes them for semantic
search, and answers natural-language questions about them with citations
back to the specific orders.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

// Services bundles everything the command tree needs.
type Services struct {
	Ingest    driving.IngestService
	Retriever driving.RetrieverService
	Chat      driving.ChatService
	Documents driving.DocumentService

	// Feed is the upstream order source for `ingest fetch`. Optional.
	Feed driven.DocumentFeed

	// WatchDir is the directory `ingest watch` falls back to when no
	// path argument is given. Optional.
	WatchDir string
}

// SetServices injects the application services into the command tree.
func SetServices(s Services) {
	ingestService = s.Ingest
	retrieverService = s.Retriever
	chatService = s.Chat
	documentService = s.Documents
	documentFeed = s.Feed
	defaultWatchDir = s.WatchDir
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
