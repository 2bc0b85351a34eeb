package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/frontdesk/internal/core/ports/driving"
	"github.com/custodia-labs/frontdesk/internal/inbox"
)

var watchBusiness string

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a drop directory and ingest files that appear in it",
	Long: `Watches a directory and automatically ingests files dropped into it
for the given business. PDF files are text-extracted; .txt and .md
files are ingested as notes. Hidden files are ignored.

Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchBusiness, "business", "b", "", "business ID (required)")
	_ = watchCmd.MarkFlagRequired("business")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher := inbox.New(indexerService, watchBusiness, args[0],
		inbox.WithResultHandler(func(path string, result *driving.IndexResult, err error) {
			switch {
			case err != nil:
				cmd.Printf("failed: %s: %v\n", path, err)
			case result != nil && !result.Success:
				cmd.Printf("failed: %s: %s\n", path, result.Message)
			case result != nil:
				cmd.Printf("indexed: %s -> %s (%d chunks)\n", path, result.DocumentID, result.IndexedChunks)
			}
		}),
	)

	cmd.Printf("Watching %s for business %s. Press Ctrl+C to stop.\n", args[0], watchBusiness)
	return watcher.Run(ctx)
}
