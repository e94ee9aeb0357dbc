package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-dtr/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-dtr/internal/handler/http"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/database"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-dtr/internal/pkg/keylock"
	"github.com/cmlabs-hris/hris-dtr/internal/repository/postgresql"
	dtrService "github.com/cmlabs-hris/hris-dtr/internal/service/dtr"
	scheduleService "github.com/cmlabs-hris/hris-dtr/internal/service/schedule"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatal("Error loading config: ", err)
	}

	logLevel, _ := cfg.LogLevel()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})).With(
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	attendanceLogRepo := postgresql.NewAttendanceLogRepository(db)
	workScheduleRepo := postgresql.NewWorkScheduleRepository(db)
	assignmentRepo := postgresql.NewScheduleAssignmentRepository(db)
	recordRepo := postgresql.NewDailyTimeRecordRepository(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	resolver := scheduleService.NewResolver(workScheduleRepo, assignmentRepo, scheduleService.ResolverOptions{
		DefaultLocation:    cfg.Engine.Location,
		OvernightTailGrace: cfg.Engine.OvernightTailGrace,
	})
	processor := dtrService.NewPunchProcessor(cfg.Engine.DuplicateScanWindow)
	dtrSvc := dtrService.NewDTRService(
		resolver,
		attendanceLogRepo,
		recordRepo,
		processor,
		keylock.New(),
		cfg.Engine.Location,
	)
	batchRunner := dtrService.NewBatchRecalculator(dtrSvc, assignmentRepo, cfg.Batch.Concurrency)

	if cfg.Batch.CronEnabled {
		scheduler := cron.NewScheduler(cfg.Engine.Location)
		if err := cron.NewDTRJobs(batchRunner, cfg.Engine.Location, cfg.Engine.OvernightTailGrace).RegisterJobs(scheduler, cfg.Batch.Cron); err != nil {
			log.Fatal("Error registering cron jobs: ", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	dtrHandler := appHTTP.NewDTRHandler(dtrSvc, batchRunner)

	router := appHTTP.NewRouter(appHTTP.RouterOptions{
		AppName:        cfg.App.Name,
		Version:        version,
		Env:            cfg.App.Env,
		AllowedOrigins: cfg.App.AllowedOrigins,
		LogLevel:       logLevel,
	}, JWTService, dtrHandler)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	server := &http.Server{
		Addr:              port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	slog.Info("Server running", "addr", "http://localhost"+port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
	}
}
