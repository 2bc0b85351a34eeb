package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	updateContent string
	updateFile    string
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage stored documents",
	Long:  `List, view, update, or revert stored knowledge documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list [business-id]",
	Short: "List documents for a business",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentUpdateCmd = &cobra.Command{
	Use:   "update [doc-id]",
	Short: "Create and index a new version of a document",
	Long: `Creates a new version with the given content, deactivating the
current one, and indexes it. The previous version stays available
for revert.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentUpdate,
}

var documentRevertCmd = &cobra.Command{
	Use:   "revert [doc-id]",
	Short: "Restore the previous version of a document",
	Long: `Deactivates the current version and reactivates the previous one
together with its already-embedded chunks. No re-indexing happens.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentRevert,
}

func init() {
	documentUpdateCmd.Flags().StringVar(&updateContent, "content", "", "new content for the version")
	documentUpdateCmd.Flags().StringVarP(&updateFile, "file", "f", "", "file to read the new content from")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentUpdateCmd)
	documentCmd.AddCommand(documentRevertCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	businessID := args[0]
	docs, err := documentService.ListDocuments(context.Background(), businessID)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Printf("No documents found for business: %s\n", businessID)
		return nil
	}

	cmd.Printf("Documents for business %s:\n\n", businessID)
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Title:  %s\n", docs[i].Title)
		cmd.Printf("    Type:   %s\n", docs[i].Type)
		cmd.Printf("    Status: %s\n", docs[i].IndexingStatus)
		if !docs[i].Active {
			cmd.Println("    Active: false")
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := context.Background()
	doc, err := documentService.GetDocument(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	chunks, err := documentService.CountChunks(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to count chunks: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:    %s\n", doc.Title)
	cmd.Printf("  Business: %s\n", doc.BusinessID)
	cmd.Printf("  Type:     %s\n", doc.Type)
	cmd.Printf("  Status:   %s\n", doc.IndexingStatus)
	cmd.Printf("  Active:   %v\n", doc.Active)
	cmd.Printf("  Chunks:   %d\n", chunks)
	if doc.ServiceID != nil {
		cmd.Printf("  Service:  %s\n", *doc.ServiceID)
	}
	if doc.PreviousVersionID != nil {
		cmd.Printf("  Previous: %s\n", *doc.PreviousVersionID)
	}
	if doc.IndexingError != "" {
		cmd.Printf("  Error:    %s\n", doc.IndexingError)
	}
	cmd.Printf("  Created:  %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:  %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	return nil
}

func runDocumentUpdate(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	content := updateContent
	if updateFile != "" {
		data, err := os.ReadFile(updateFile)
		if err != nil {
			return fmt.Errorf("reading %s: %w", updateFile, err)
		}
		content = string(data)
	}
	if content == "" {
		return errors.New("either --content or --file is required")
	}

	result, err := indexerService.UpdateDocumentVersion(context.Background(), args[0], content)
	if err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("indexing failed: %s", result.Message)
	}

	cmd.Printf("Created version %s (%d chunks)\n", result.DocumentID, result.IndexedChunks)
	return nil
}

func runDocumentRevert(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	result, err := indexerService.RevertDocumentVersion(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("revert failed: %w", err)
	}

	cmd.Printf("Reverted to version %s\n", result.DocumentID)
	return nil
}
