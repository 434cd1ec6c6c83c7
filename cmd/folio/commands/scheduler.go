package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tkaya/folio/internal/scheduler"
	"github.com/tkaya/folio/internal/scheduler/jobs"
	"github.com/tkaya/folio/internal/store"
	"github.com/tkaya/folio/pkg/config"
	"github.com/tkaya/folio/pkg/database"
	"github.com/tkaya/folio/pkg/logger"
	"github.com/tkaya/folio/pkg/redis"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run scheduled background jobs",
	Long: `Starts the background job scheduler.

Registered jobs:
  price_refresh - refresh cached prices of open positions every 15 minutes

Example:
  go run ./cmd/folio scheduler start
  go run ./cmd/folio scheduler run price_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run one job immediately and exit",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func buildScheduler(cfg *config.Config, db *database.DB, rdb *redis.Client, log *logger.Logger) (*scheduler.Scheduler, error) {
	market := buildMarketData(cfg, rdb, log)
	instrumentRepo := store.NewInstrumentRepo(db.Pool)

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewPriceRefreshJob(instrumentRepo, market, log)); err != nil {
		return nil, err
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	sched, err := buildScheduler(cfg, db, rdb, log)
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	fmt.Println("Scheduler running. Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	rdb, err := redis.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer rdb.Close()

	market := buildMarketData(cfg, rdb, log)
	instrumentRepo := store.NewInstrumentRepo(db.Pool)

	jobName := args[0]
	switch jobName {
	case "price_refresh":
		job := jobs.NewPriceRefreshJob(instrumentRepo, market, log)
		if err := job.Run(cmd.Context()); err != nil {
			return fmt.Errorf("job %s failed: %w", jobName, err)
		}
	default:
		return fmt.Errorf("unknown job %s", jobName)
	}

	log.WithField("job", jobName).Info("Job finished")
	return nil
}
