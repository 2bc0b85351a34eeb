package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

var (
	ingestBusiness string
	ingestTitle    string
	ingestType     string
	ingestService  string
	ingestContent  string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest and index a document",
	Long: `Creates a document from a file or inline content and immediately
indexes it: the content is chunked, embedded, and stored for retrieval.

PDF files are text-extracted page by page; everything else is treated
as plain text. With no file argument, --content supplies the text.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestBusiness, "business", "b", "", "business ID (required)")
	ingestCmd.Flags().StringVarP(&ingestTitle, "title", "t", "", "document title (defaults to file name)")
	ingestCmd.Flags().StringVar(&ingestType, "type", "", "document type (pdf, note, policy, faq, guide, general)")
	ingestCmd.Flags().StringVar(&ingestService, "service", "", "service ID to scope the document to")
	ingestCmd.Flags().StringVar(&ingestContent, "content", "", "inline text content instead of a file")
	_ = ingestCmd.MarkFlagRequired("business")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if indexerService == nil {
		return errors.New("indexer service not configured")
	}

	req := domain.IngestRequest{
		BusinessID: ingestBusiness,
		Title:      ingestTitle,
		ServiceID:  ingestService,
		Content:    ingestContent,
	}

	if len(args) == 1 {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		req.FileName = filepath.Base(path)
		if req.Title == "" {
			req.Title = strings.TrimSuffix(req.FileName, filepath.Ext(req.FileName))
		}

		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			req.FileData = data
			req.Type = domain.DocumentTypePDF
		} else {
			req.Content = string(data)
			req.Type = domain.DocumentTypeNote
		}
	}

	if ingestType != "" {
		req.Type = domain.DocumentType(ingestType)
	}
	if req.Type == "" {
		req.Type = domain.DocumentTypeNote
	}

	result, err := indexerService.CreateAndIndex(context.Background(), req)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("indexing failed: %s", result.Message)
	}

	cmd.Printf("Indexed document %s (%d chunks)\n", result.DocumentID, result.IndexedChunks)
	return nil
}
