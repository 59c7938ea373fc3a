package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/jobly/internal/job"
	jobpostgres "github.com/frahmantamala/jobly/internal/job/postgres"
	"github.com/frahmantamala/jobly/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that run alongside the HTTP server`,
}

var promotionWorkerCmd = &cobra.Command{
	Use:   "promotions",
	Short: "Start the promotion expiry sweeper",
	Long:  `Periodically clear the promoted flag on jobs whose promotion window has ended`,
	Run: func(cmd *cobra.Command, args []string) {
		startPromotionWorker()
	},
}

var (
	sweepInterval time.Duration
	sweepOnce     bool
)

const defaultSweepInterval = 10 * time.Minute

func startPromotionWorker() {
	cfg, err := setup()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	lg := logger.LoggerWrapper()

	sqlDB, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	gormDB, err := initGorm(sqlDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize gorm: %v\n", err)
		os.Exit(1)
	}

	jobs := job.NewService(jobpostgres.NewJobRepository(gormDB, sqlDB), lg)

	interval := getDurationFlag(sweepInterval, cfg.PromotionSweeper.Interval)
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweep := func() {
		n, err := jobs.ExpireLapsed(ctx)
		if err != nil {
			lg.Error("promotion sweep failed", "error", err)
			return
		}
		lg.Info("promotion sweep finished", "expired", n)
	}

	sweep()
	if sweepOnce {
		return
	}

	lg.Info("promotion worker is running. Press Ctrl+C to stop.", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			lg.Info("promotion worker stopped")
			return
		case <-ticker.C:
			sweep()
		}
	}
}

func getDurationFlag(flagValue, configValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	promotionWorkerCmd.Flags().DurationVar(&sweepInterval, "interval", 0, "Sweep interval (overrides config)")
	promotionWorkerCmd.Flags().BoolVar(&sweepOnce, "once", false, "Run a single sweep and exit")

	workerCmd.AddCommand(promotionWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
