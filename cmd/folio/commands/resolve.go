package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tkaya/folio/internal/contracts"
	"github.com/tkaya/folio/internal/importer"
	"github.com/tkaya/folio/internal/resolver"
	"github.com/tkaya/folio/pkg/config"
	"github.com/tkaya/folio/pkg/logger"
	"github.com/tkaya/folio/pkg/redis"
)

// resolveCmd represents the resolve command
var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a broker CSV without touching the database",
	Long: `Parses a broker CSV export and runs the resolution pipeline,
printing the resolved rows as JSON. Alias memory and portfolio
reconciliation are skipped, so this is a dry run against the live
market data providers.

Example:
  go run ./cmd/folio resolve --file export.csv --platform degiro`,
	RunE: runResolve,
}

var (
	resolveFile     string
	resolvePlatform string
)

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringVar(&resolveFile, "file", "", "CSV file to resolve (required)")
	resolveCmd.Flags().StringVar(&resolvePlatform, "platform", "", "source platform label")
	resolveCmd.MarkFlagRequired("file")
}

func runResolve(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	content, err := os.ReadFile(resolveFile)
	if err != nil {
		return fmt.Errorf("read csv file: %w", err)
	}

	parsed, err := importer.ParseCSV(string(content), resolvePlatform)
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"format": parsed.Format,
		"rows":   len(parsed.Rows),
		"errors": len(parsed.Errors),
	}).Info("CSV parsed")

	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	market := buildMarketData(cfg, rdb, log)
	res := buildResolver(cfg, market, log)

	rows := make([]contracts.ImportRow, 0, len(parsed.Rows))
	for _, p := range parsed.Rows {
		rows = append(rows, p.ImportRow)
	}

	resolved := res.ResolveAll(cmd.Context(), rows, resolver.NewAliasSnapshot(nil), nil)

	out := map[string]interface{}{
		"format":       parsed.Format,
		"resolved":     resolved,
		"parseErrors":  parsed.Errors,
		"transactions": len(parsed.Transactions),
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	return nil
}
