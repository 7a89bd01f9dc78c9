package reliability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/fpl-planner/internal/database"
	"github.com/aristath/fpl-planner/internal/modules/plans"
	"github.com/rs/zerolog"
)

// planRetentionDays bounds the plan archive. Old planner runs are only
// interesting for a gameweek or two after they were made.
const planRetentionDays = 90

// MaintenanceJob performs weekly database maintenance (Sunday 4 AM)
type MaintenanceJob struct {
	databases map[string]*database.DB
	plans     *plans.Repository
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(
	databases map[string]*database.DB,
	plansRepo *plans.Repository,
	log zerolog.Logger,
) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		plans:     plansRepo,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting weekly maintenance")
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Step 1: Truncate WAL files (prevent bloat)
	for _, name := range j.databaseNames() {
		db := j.databases[name]
		j.log.Debug().Str("database", name).Msg("Truncating WAL")

		_, err := db.Conn().ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)")
		if err != nil {
			j.log.Warn().
				Str("database", name).
				Err(err).
				Msg("WAL checkpoint failed")
			// Don't return error - this is not critical
		}
	}

	// Step 2: VACUUM all databases
	for _, name := range j.databaseNames() {
		j.log.Info().Str("database", name).Msg("Running VACUUM")

		if err := j.vacuumDatabase(ctx, j.databases[name], name); err != nil {
			j.log.Error().
				Str("database", name).
				Err(err).
				Msg("VACUUM failed")
			// Continue with other databases
		}
	}

	// Step 3: Prune old plan records
	if err := j.pruneOldPlans(); err != nil {
		j.log.Error().Err(err).Msg("Failed to prune old plans")
		// Continue - not critical
	}

	duration := time.Since(startTime)
	j.log.Info().
		Dur("duration_ms", duration).
		Msg("Weekly maintenance completed successfully")

	return nil
}

// vacuumDatabase performs VACUUM on a database and reports space reclaimed
func (j *MaintenanceJob) vacuumDatabase(ctx context.Context, db *database.DB, name string) error {
	var pageCount, pageSize int
	db.Conn().QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	db.Conn().QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	sizeBefore := float64(pageCount*pageSize) / 1024 / 1024

	_, err := db.Conn().ExecContext(ctx, "VACUUM")
	if err != nil {
		return fmt.Errorf("VACUUM failed: %w", err)
	}

	db.Conn().QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	sizeAfter := float64(pageCount*pageSize) / 1024 / 1024

	j.log.Info().
		Str("database", name).
		Float64("size_before_mb", sizeBefore).
		Float64("size_after_mb", sizeAfter).
		Float64("space_reclaimed_mb", sizeBefore-sizeAfter).
		Msg("VACUUM completed")

	return nil
}

// pruneOldPlans deletes archived dual runs past the retention window
func (j *MaintenanceJob) pruneOldPlans() error {
	if j.plans == nil {
		return nil
	}

	cutoff := time.Now().AddDate(0, 0, -planRetentionDays)
	deleted, err := j.plans.DeleteOlderThan(cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		j.log.Info().
			Int64("deleted", deleted).
			Msg("Pruned old plan records")
	} else {
		j.log.Debug().Msg("No old plan records to prune")
	}

	return nil
}

func (j *MaintenanceJob) databaseNames() []string {
	names := make([]string, 0, len(j.databases))
	for name := range j.databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
