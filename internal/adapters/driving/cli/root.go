// Package cli implements the cobra command surface for frontdesk.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/frontdesk/internal/core/ports/driving"
	"github.com/custodia-labs/frontdesk/internal/logger"
)

// version is stamped at build time via -ldflags.
var version = "0.1.0"

// Driving ports injected by Execute before the command tree runs.
var (
	indexerService   driving.Indexer
	retrieverService driving.Retriever
	documentService  driving.DocumentReader
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "frontdesk",
	Short: "Knowledge indexing and retrieval for small businesses",
	Long: `Frontdesk indexes business knowledge (documents, service catalogs,
quick responses, policies) and retrieves grounding context for
conversations with customers.

Documents are chunked, embedded, and stored with version history.
Retrieval combines vector similarity search with a keyword fallback
and returns provenance-tagged context.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Deps aggregates the driving ports the commands depend on.
type Deps struct {
	Indexer   driving.Indexer
	Retriever driving.Retriever
	Documents driving.DocumentReader
}

// Execute wires the dependencies into the command tree and runs it.
func Execute(deps *Deps) error {
	if deps != nil {
		indexerService = deps.Indexer
		retrieverService = deps.Retriever
		documentService = deps.Documents
	}
	return rootCmd.Execute()
}

// SetVersion overrides the reported binary version.
func SetVersion(v string) {
	version = v
}
