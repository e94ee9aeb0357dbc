package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/hris-dtr/internal/config"
	"github.com/cmlabs-hris/hris-dtr/internal/domain/dtr"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/database"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/keylock"
	"github.com/cmlabs-hris/hris-dtr/internal/repository/postgresql"
	dtrService "github.com/cmlabs-hris/hris-dtr/internal/service/dtr"
	scheduleService "github.com/cmlabs-hris/hris-dtr/internal/service/schedule"
	"github.com/spf13/cobra"
)

var (
	cfg         *config.Config
	db          *database.DB
	dtrSvc      dtr.Service
	batchRunner dtr.BatchRunner
)

var rootCmd = &cobra.Command{
	Use:           "dtrctl",
	Short:         "Recompute and inspect daily time records",
	Long:          `dtrctl runs the daily time record engine against the attendance database outside the API server.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		level, _ := cfg.LogLevel()
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

		db, err = database.NewPostgreSQLDB(cmd.Context(), cfg.DatabaseURL(), database.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return err
		}

		assignmentRepo := postgresql.NewScheduleAssignmentRepository(db)
		resolver := scheduleService.NewResolver(
			postgresql.NewWorkScheduleRepository(db),
			assignmentRepo,
			scheduleService.ResolverOptions{
				DefaultLocation:    cfg.Engine.Location,
				OvernightTailGrace: cfg.Engine.OvernightTailGrace,
			},
		)
		dtrSvc = dtrService.NewDTRService(
			resolver,
			postgresql.NewAttendanceLogRepository(db),
			postgresql.NewDailyTimeRecordRepository(db),
			dtrService.NewPunchProcessor(cfg.Engine.DuplicateScanWindow),
			keylock.New(),
			cfg.Engine.Location,
		)
		batchRunner = dtrService.NewBatchRecalculator(dtrSvc, assignmentRepo, cfg.Batch.Concurrency)
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if db != nil {
			db.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recalcCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
