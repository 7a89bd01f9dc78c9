package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/fpl-planner/internal/clients/fpl"
	"github.com/aristath/fpl-planner/internal/config"
	"github.com/aristath/fpl-planner/internal/database"
	"github.com/aristath/fpl-planner/internal/events"
	"github.com/aristath/fpl-planner/internal/modules/plans"
	"github.com/aristath/fpl-planner/internal/modules/players"
	"github.com/aristath/fpl-planner/internal/modules/squad"
	"github.com/aristath/fpl-planner/internal/modules/transfers"
	"github.com/aristath/fpl-planner/internal/reliability"
	"github.com/aristath/fpl-planner/internal/scheduler"
	"github.com/aristath/fpl-planner/internal/server"
	"github.com/aristath/fpl-planner/internal/snapshots"
	"github.com/aristath/fpl-planner/pkg/logger"
	"github.com/rs/zerolog"
)

func main() {
	// Initialize logger
	log := logger.New(logger.Config{
		Level:  "info",
		Pretty: true,
	})

	log.Info().Msg("Starting FPL Planner")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Re-initialize at the configured level
	log = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	// Initialize databases - two-database architecture
	// Durable domain state and ephemeral upstream snapshots are kept apart
	// so cache churn never touches the planner's write path.

	// 1. planner.db - Player pool, transfer ledger, archived plans
	plannerDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/planner.db",
		Profile: database.ProfileStandard,
		Name:    "planner",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize planner database")
	}
	defer plannerDB.Close()

	// 2. cache.db - Upstream API snapshots with TTLs
	cacheDB, err := database.New(database.Config{
		Path:    cfg.DataDir + "/cache.db",
		Profile: database.ProfileCache, // Maximum speed for ephemeral data
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache database")
	}
	defer cacheDB.Close()

	// Apply schemas (each module owns its own tables)
	if err := initSchemas(plannerDB, cacheDB); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	// Event manager (for system events)
	eventManager := events.NewManager(log)

	// Register background jobs
	if err := registerJobs(sched, plannerDB, cacheDB, cfg, eventManager, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Log:       log,
		PlannerDB: plannerDB,
		CacheDB:   cacheDB,
		Config:    cfg,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		Scheduler: sched,
		Events:    eventManager,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

// initSchemas applies every module schema to its database.
func initSchemas(plannerDB, cacheDB *database.DB) error {
	if err := players.InitSchema(plannerDB.Conn()); err != nil {
		return fmt.Errorf("players schema: %w", err)
	}
	if err := transfers.InitSchema(plannerDB.Conn()); err != nil {
		return fmt.Errorf("transfers schema: %w", err)
	}
	if err := plans.InitSchema(plannerDB.Conn()); err != nil {
		return fmt.Errorf("plans schema: %w", err)
	}
	if err := snapshots.InitSchema(cacheDB.Conn()); err != nil {
		return fmt.Errorf("snapshots schema: %w", err)
	}
	return nil
}

func registerJobs(sched *scheduler.Scheduler, plannerDB, cacheDB *database.DB, cfg *config.Config, eventManager *events.Manager, log zerolog.Logger) error {
	// Clients and repositories the jobs share
	fplClient := fpl.NewClient(cfg.FPLBaseURL, log)
	snapshotStore := snapshots.NewStore(cacheDB.Conn())
	transfersRepo := transfers.NewRepository(plannerDB.Conn(), log)
	squadService := squad.NewService(fplClient, snapshotStore, transfersRepo, log)

	playersRepo := players.NewRepository(plannerDB.Conn(), log)
	playersService := players.NewService(playersRepo, log)
	plansRepo := plans.NewRepository(plannerDB.Conn(), log)

	// Database references for the reliability jobs
	databases := map[string]*database.DB{
		"planner": plannerDB,
		"cache":   cacheDB,
	}

	// Register Job 1: Refresh Cycle (every 30 minutes)
	refreshCycle := scheduler.NewRefreshCycleJob(scheduler.RefreshCycleConfig{
		Log:       log,
		Bootstrap: squadService,
		Players:   playersService,
		Snapshots: snapshotStore,
		Events:    eventManager,
		Deadlines: scheduler.NewDeadlineService(log),
	})
	if err := sched.AddJob("0 */30 * * * *", refreshCycle); err != nil {
		return fmt.Errorf("failed to register refresh_cycle job: %w", err)
	}

	// Register Job 2: Health Check (every 6 hours)
	healthCheck := scheduler.NewHealthCheckJob(databases, cfg.DataDir, eventManager, log)
	if err := sched.AddJob("0 0 */6 * * *", healthCheck); err != nil {
		return fmt.Errorf("failed to register health_check job: %w", err)
	}

	// Register Job 3: Weekly Maintenance (Sunday at 4:00 AM)
	maintenance := reliability.NewMaintenanceJob(databases, plansRepo, log)
	if err := sched.AddJob("0 0 4 * * 0", maintenance); err != nil {
		return fmt.Errorf("failed to register maintenance job: %w", err)
	}

	// Register Job 4: Daily Backup (daily at 3:00 AM), only when an S3 target is configured
	if cfg.BackupEnabled() {
		s3Client, err := reliability.NewS3Client(cfg.BackupEndpoint, cfg.BackupAccessKey, cfg.BackupSecretKey, cfg.BackupBucket, log)
		if err != nil {
			return fmt.Errorf("failed to initialize backup store: %w", err)
		}
		backupService := reliability.NewBackupService(databases, s3Client, eventManager, cfg.DataDir, cfg.BackupRetention, log)
		if err := sched.AddJob("0 0 3 * * *", reliability.NewBackupJob(backupService)); err != nil {
			return fmt.Errorf("failed to register backup job: %w", err)
		}
	} else {
		log.Info().Msg("Backups disabled, no S3 target configured")
	}

	log.Info().Int("jobs", len(sched.JobNames())).Msg("Background jobs registered successfully")

	return nil
}
