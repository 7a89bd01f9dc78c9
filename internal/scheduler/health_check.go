package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/aristath/fpl-planner/internal/database"
	"github.com/aristath/fpl-planner/internal/events"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"
)

// walFrameWarnThreshold flags a WAL that passive checkpoints are no
// longer keeping up with.
const walFrameWarnThreshold = 1000

// diskUsedWarnPercent flags a data volume that is close to full.
const diskUsedWarnPercent = 90.0

// HealthCheckJob performs database integrity and capacity checks
// Runs every 6 hours
type HealthCheckJob struct {
	log       zerolog.Logger
	databases map[string]*database.DB
	dataDir   string
	events    *events.Manager
	running   atomic.Bool
}

// NewHealthCheckJob creates a new health check job
func NewHealthCheckJob(
	databases map[string]*database.DB,
	dataDir string,
	eventManager *events.Manager,
	log zerolog.Logger,
) *HealthCheckJob {
	return &HealthCheckJob{
		log:       log.With().Str("job", "health_check").Logger(),
		databases: databases,
		dataDir:   dataDir,
		events:    eventManager,
	}
}

// Name returns the job name
func (j *HealthCheckJob) Name() string {
	return "health_check"
}

// Run executes the health check
func (j *HealthCheckJob) Run() error {
	if !j.running.CompareAndSwap(false, true) {
		j.log.Warn().Msg("Health check already running, skipping")
		return nil
	}
	defer j.running.Store(false)

	j.log.Info().Msg("Starting database health check")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// Step 1: Check database integrity
	if err := j.checkIntegrity(ctx); err != nil {
		j.log.Error().Err(err).Msg("Database integrity check failed")
		return err
	}

	// Step 2: Check WAL checkpoints
	j.checkWALCheckpoints(ctx)

	// Step 3: Check disk space
	j.checkDiskSpace()

	duration := time.Since(startTime)
	j.log.Info().
		Dur("duration", duration).
		Msg("Health check completed successfully")

	return nil
}

// checkIntegrity verifies integrity of all SQLite databases
func (j *HealthCheckJob) checkIntegrity(ctx context.Context) error {
	for _, name := range j.databaseNames() {
		db := j.databases[name]
		if db == nil {
			j.log.Warn().Str("database", name).Msg("Database not initialized, skipping")
			continue
		}

		if err := db.HealthCheck(ctx); err != nil {
			// Corruption cannot be auto-recovered, only reported
			j.events.Emit(events.HealthCheckAlert, "health_check", map[string]interface{}{
				"database": name,
				"error":    err.Error(),
			})
			return fmt.Errorf("database %s failed integrity check: %w", name, err)
		}

		j.log.Debug().Str("database", name).Msg("Database integrity OK")
	}

	return nil
}

// checkWALCheckpoints monitors WAL checkpoint status
func (j *HealthCheckJob) checkWALCheckpoints(ctx context.Context) {
	for _, name := range j.databaseNames() {
		db := j.databases[name]
		if db == nil {
			continue
		}

		frames, checkpointed, err := db.WALCheckpoint(ctx)
		if err != nil {
			j.log.Warn().
				Err(err).
				Str("database", name).
				Msg("Failed to check WAL checkpoint")
			continue
		}

		if frames > walFrameWarnThreshold {
			j.log.Warn().
				Str("database", name).
				Int("wal_frames", frames).
				Int("checkpointed", checkpointed).
				Msg("WAL file is large, checkpoint may be needed")
		} else {
			j.log.Debug().
				Str("database", name).
				Int("wal_frames", frames).
				Msg("WAL checkpoint status OK")
		}
	}
}

// checkDiskSpace warns when the data volume is close to full
func (j *HealthCheckJob) checkDiskSpace() {
	if j.dataDir == "" {
		return
	}

	usage, err := disk.Usage(j.dataDir)
	if err != nil {
		j.log.Warn().Err(err).Msg("Failed to check disk space")
		return
	}

	if usage.UsedPercent > diskUsedWarnPercent {
		j.events.Emit(events.HealthCheckAlert, "health_check", map[string]interface{}{
			"disk_used_percent": usage.UsedPercent,
		})
		j.log.Warn().
			Float64("used_percent", usage.UsedPercent).
			Uint64("free_bytes", usage.Free).
			Msg("Data volume is running low on space")
	} else {
		j.log.Debug().
			Float64("used_percent", usage.UsedPercent).
			Msg("Disk space OK")
	}
}

// databaseNames returns database names sorted for stable iteration
func (j *HealthCheckJob) databaseNames() []string {
	names := make([]string, 0, len(j.databases))
	for name := range j.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
