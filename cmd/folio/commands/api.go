package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tkaya/folio/internal/api"
	"github.com/tkaya/folio/internal/api/handlers"
	"github.com/tkaya/folio/internal/importer"
	"github.com/tkaya/folio/internal/store"
	"github.com/tkaya/folio/pkg/config"
	"github.com/tkaya/folio/pkg/database"
	"github.com/tkaya/folio/pkg/logger"
	"github.com/tkaya/folio/pkg/redis"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the import API server",
	Long: `Starts the REST API server for the import pipeline.

Endpoints:
  GET  /health                Health check
  POST /api/import/resolve    Resolve raw rows or CSV to instruments
  POST /api/import/execute    Merge a reviewed batch into a portfolio
  GET  /api/rates             EUR conversion rate table

Example:
  go run ./cmd/folio api
  go run ./cmd/folio api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "override the configured port")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	log.Info("Connected to database")

	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	market := buildMarketData(cfg, rdb, log)
	res := buildResolver(cfg, market, log)

	instrumentRepo := store.NewInstrumentRepo(db.Pool)
	transactionRepo := store.NewTransactionRepo(db.Pool)
	aliasRepo := store.NewAliasRepo(db.Pool)

	merger := importer.NewMerger(instrumentRepo, transactionRepo, aliasRepo, res.Policy(), log)

	importHandler := handlers.NewImportHandler(aliasRepo, instrumentRepo, res, merger, log)
	ratesHandler := handlers.NewRatesHandler(market, log)
	router := api.NewRouter(importHandler, ratesHandler, log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("Server running on http://localhost:%s\n", cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
