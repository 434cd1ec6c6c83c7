package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Portfolio import and entity resolution service",
	Long: `Folio turns messy broker exports into clean portfolio records.

It parses broker CSVs, resolves each row to a canonical market
instrument through a tiered pipeline (alias memory, fund registry,
crypto heuristics, free-text search) and merges the reviewed batch
into the stored portfolio.

Usage:
  go run ./cmd/folio [command]

Examples:
  go run ./cmd/folio api
  go run ./cmd/folio resolve --file export.csv --platform degiro
  go run ./cmd/folio scheduler start`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
