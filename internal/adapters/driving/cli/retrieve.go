package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/frontdesk/internal/core/domain"
)

var (
	retrieveBusiness string
	retrieveService  string
	retrieveType     string
	retrieveLimit    int
	retrieveMinSim   float64
	retrieveDebug    bool
	retrieveJSON     bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Retrieve grounding context for a query",
	Long: `Retrieves formatted, provenance-tagged context for a customer query.
Vector similarity search runs first; a keyword fallback covers queries
with no vector hits. Mentioning a service name scopes retrieval to
that service plus generic documents.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringVarP(&retrieveBusiness, "business", "b", "", "business ID (required)")
	retrieveCmd.Flags().StringVar(&retrieveService, "service", "", "restrict retrieval to a named service")
	retrieveCmd.Flags().StringVar(&retrieveType, "type", "", "restrict retrieval to one document type")
	retrieveCmd.Flags().IntVarP(&retrieveLimit, "limit", "n", 0, "maximum number of chunks (default 5)")
	retrieveCmd.Flags().Float64Var(&retrieveMinSim, "min-similarity", 0, "similarity cutoff for vector search")
	retrieveCmd.Flags().BoolVar(&retrieveDebug, "debug", false, "print retrieval diagnostics")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output context and diagnostics as JSON")
	_ = retrieveCmd.MarkFlagRequired("business")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrieverService == nil {
		return errors.New("retriever service not configured")
	}

	opts := domain.RetrievalOptions{
		ServiceFilter: retrieveService,
		DocumentType:  domain.DocumentType(retrieveType),
		Limit:         retrieveLimit,
		MinSimilarity: retrieveMinSim,
	}

	ctx := context.Background()
	result, debug := retrieverService.RetrieveContextDebug(ctx, args[0], retrieveBusiness, opts)

	if retrieveJSON {
		return outputRetrieveJSON(cmd, result, debug)
	}

	if result == "" {
		cmd.Println("No relevant context found.")
	} else {
		cmd.Println(result)
	}

	if retrieveDebug && debug != nil {
		cmd.Println()
		cmd.Println("Diagnostics:")
		if debug.DetectedService != "" {
			cmd.Printf("  Detected service: %s\n", debug.DetectedService)
		}
		cmd.Printf("  Vector hits:      %d\n", debug.VectorHits)
		cmd.Printf("  Keyword fallback: %v (%d hits)\n", debug.UsedKeywordFallback, debug.KeywordHits)
		cmd.Printf("  Failed:           %v\n", debug.Failed)
		cmd.Printf("  Elapsed:          %s\n", debug.Elapsed)
	}

	return nil
}

func outputRetrieveJSON(cmd *cobra.Command, result string, debug *domain.RetrievalDebug) error {
	payload := struct {
		Context string                 `json:"context"`
		Debug   *domain.RetrievalDebug `json:"debug,omitempty"`
	}{Context: result}
	if retrieveDebug {
		payload.Debug = debug
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
