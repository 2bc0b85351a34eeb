package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

var (
	indexFile       string
	indexAllBatch   int
	refreshedFields []string
)

var indexCmd = &cobra.Command{
	Use:   "index [doc-id]",
	Short: "Index an existing document",
	Long: `Runs an indexing pass for a stored document: chunk, embed, persist.
Use --file to supply the raw bytes for a PDF document.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex [doc-id]",
	Short: "Delete a document's chunks and index it again",
	Args:  cobra.ExactArgs(1),
	RunE:  runReindex,
}

var indexAllCmd = &cobra.Command{
	Use:   "index-all",
	Short: "Regenerate and index knowledge for every active business",
	Long: `Iterates active businesses in batches, regenerating synthesized
documents from structured fields and indexing them. One business's
failure never aborts the run.`,
	Args: cobra.NoArgs,
	RunE: runIndexAll,
}

var refreshFieldsCmd = &cobra.Command{
	Use:   "refresh-fields [business-id]",
	Short: "Reindex the synthesized documents for changed structured fields",
	Long: `Regenerates and reindexes only the documents synthesized from the
named structured fields (service_catalog, quick_responses, policies).
With no --field flags, all fields are refreshed.`,
	Args: cobra.ExactArgs(1),
	RunE: runRefreshFields,
}

func init() {
	indexCmd.Flags().StringVarP(&indexFile, "file", "f", "", "file to read raw bytes from (PDF documents)")
	indexAllCmd.Flags().IntVar(&indexAllBatch, "batch-size", 10, "businesses per batch")
	refreshFieldsCmd.Flags().StringSliceVar(&refreshedFields, "field", nil, "structured field to refresh (repeatable)")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(indexAllCmd)
	rootCmd.AddCommand(refreshFieldsCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	var fileData []byte
	if indexFile != "" {
		data, err := os.ReadFile(indexFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", indexFile, err)
		}
		fileData = data
	}

	result, err := indexerService.IndexDocument(context.Background(), args[0], fileData)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("indexing failed: %s", result.Message)
	}

	cmd.Printf("Indexed document %s (%d chunks)\n", result.DocumentID, result.IndexedChunks)
	return nil
}

func runReindex(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	result, err := indexerService.ReindexDocument(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("indexing failed: %s", result.Message)
	}

	cmd.Printf("Reindexed document %s (%d chunks)\n", result.DocumentID, result.IndexedChunks)
	return nil
}

func runIndexAll(cmd *cobra.Command, _ []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	result, err := indexerService.IndexAllBusinesses(context.Background(), indexAllBatch)
	if err != nil {
		return fmt.Errorf("index-all failed: %w", err)
	}

	cmd.Printf("Indexed %d/%d businesses\n", result.Succeeded, result.Businesses)
	for _, msg := range result.Errors {
		cmd.Printf("  failed: %s\n", msg)
	}
	return nil
}

func runRefreshFields(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	fields := refreshedFields
	if len(fields) == 0 {
		fields = domain.KnowledgeFields()
	}

	result, err := indexerService.UpdateBusinessKnowledge(context.Background(), args[0], fields)
	if err != nil {
		return fmt.Errorf("refresh-fields failed: %w", err)
	}

	cmd.Printf("Refreshed %d documents (%d chunks, %d superseded)\n",
		result.IndexedDocuments, result.IndexedChunks, result.DeletedDocuments)
	return nil
}
