package scheduler

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aristath/fpl-planner/internal/clients/fpl"
	"github.com/aristath/fpl-planner/internal/events"
	"github.com/aristath/fpl-planner/internal/snapshots"
	"github.com/rs/zerolog"
)

// BootstrapSource loads the provider bootstrap feed.
// Implemented by squad.Service, which caches through the snapshot store.
type BootstrapSource interface {
	Bootstrap() (*fpl.Bootstrap, error)
}

// PlayerStore ingests bootstrap data into the local player pool.
type PlayerStore interface {
	Sync(bootstrap *fpl.Bootstrap) (int, error)
	RecordGameweekPoints(bootstrap *fpl.Bootstrap) (int, error)
}

// SnapshotStore is the slice of the snapshot cache the refresh cycle uses.
type SnapshotStore interface {
	Delete(kind, key string) error
	Prune() (int64, error)
}

// RefreshCycleJob keeps the local player pool aligned with the provider
// Runs every 30 minutes
type RefreshCycleJob struct {
	log       zerolog.Logger
	bootstrap BootstrapSource
	players   PlayerStore
	snapshots SnapshotStore
	events    *events.Manager
	deadlines *DeadlineService
	running   atomic.Bool
}

// RefreshCycleConfig holds configuration for the refresh cycle job
type RefreshCycleConfig struct {
	Log       zerolog.Logger
	Bootstrap BootstrapSource
	Players   PlayerStore
	Snapshots SnapshotStore
	Events    *events.Manager
	Deadlines *DeadlineService
}

// NewRefreshCycleJob creates a new refresh cycle job
func NewRefreshCycleJob(cfg RefreshCycleConfig) *RefreshCycleJob {
	return &RefreshCycleJob{
		log:       cfg.Log.With().Str("job", "refresh_cycle").Logger(),
		bootstrap: cfg.Bootstrap,
		players:   cfg.Players,
		snapshots: cfg.Snapshots,
		events:    cfg.Events,
		deadlines: cfg.Deadlines,
	}
}

// Name returns the job name
func (j *RefreshCycleJob) Name() string {
	return "refresh_cycle"
}

// Run executes the refresh cycle
func (j *RefreshCycleJob) Run() error {
	// Overlapping runs would hammer the provider for no benefit
	if !j.running.CompareAndSwap(false, true) {
		j.log.Warn().Msg("Refresh cycle already running, skipping")
		return nil
	}
	defer j.running.Store(false)

	j.log.Info().Msg("Starting refresh cycle")
	startTime := time.Now()
	j.events.Emit(events.RefreshStart, "refresh_cycle", nil)

	// Step 1: Drop the cached bootstrap so the fetch hits the live API (non-critical)
	j.dropBootstrapSnapshot()

	// Step 2: Fetch the bootstrap feed (CRITICAL)
	bootstrap, err := j.fetchBootstrap()
	if err != nil {
		j.events.EmitError("refresh_cycle", err, map[string]interface{}{"step": "bootstrap fetch"})
		return fmt.Errorf("bootstrap fetch failed: %w", err)
	}

	// Step 3: Sync the player pool (CRITICAL)
	synced, err := j.syncPlayers(bootstrap)
	if err != nil {
		j.events.EmitError("refresh_cycle", err, map[string]interface{}{"step": "player sync"})
		return fmt.Errorf("player sync failed: %w", err)
	}

	// Step 4: Append gameweek points history (non-critical)
	j.recordPoints(bootstrap)

	// Step 5: Prune expired snapshots (non-critical)
	j.pruneSnapshots()

	j.logNextDeadline(bootstrap)

	j.events.Emit(events.PlayersRefreshed, "refresh_cycle", map[string]interface{}{
		"players": synced,
	})
	j.events.Emit(events.RefreshComplete, "refresh_cycle", nil)

	duration := time.Since(startTime)
	j.log.Info().
		Dur("duration", duration).
		Int("players", synced).
		Msg("Refresh cycle completed successfully")

	return nil
}

// dropBootstrapSnapshot invalidates the cached bootstrap payload
// Non-critical - a stale snapshot still refreshes the pool
func (j *RefreshCycleJob) dropBootstrapSnapshot() {
	j.log.Debug().Msg("Dropping bootstrap snapshot")

	if err := j.snapshots.Delete(snapshots.KindBootstrap, "global"); err != nil {
		j.log.Error().Err(err).Msg("Failed to drop bootstrap snapshot")
		// Continue - non-critical
	}
}

// fetchBootstrap pulls the bootstrap feed from the provider
// CRITICAL - without it there is nothing to sync
func (j *RefreshCycleJob) fetchBootstrap() (*fpl.Bootstrap, error) {
	j.log.Debug().Msg("Fetching bootstrap feed (CRITICAL)")

	bootstrap, err := j.bootstrap.Bootstrap()
	if err != nil {
		return nil, err
	}

	j.log.Debug().
		Int("elements", len(bootstrap.Elements)).
		Int("events", len(bootstrap.Events)).
		Msg("Bootstrap feed fetched")

	return bootstrap, nil
}

// syncPlayers refreshes the stored player pool from the bootstrap feed
// CRITICAL - errors are returned and stop the cycle
func (j *RefreshCycleJob) syncPlayers(bootstrap *fpl.Bootstrap) (int, error) {
	j.log.Debug().Msg("Syncing player pool (CRITICAL)")

	synced, err := j.players.Sync(bootstrap)
	if err != nil {
		return 0, err
	}

	j.log.Debug().Int("players", synced).Msg("Player pool synced")
	return synced, nil
}

// recordPoints appends per-gameweek scores for finished gameweeks
// Non-critical - errors are logged but don't stop the cycle
func (j *RefreshCycleJob) recordPoints(bootstrap *fpl.Bootstrap) {
	j.log.Debug().Msg("Recording gameweek points")

	recorded, err := j.players.RecordGameweekPoints(bootstrap)
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to record gameweek points")
		// Continue - non-critical
		return
	}

	if recorded > 0 {
		j.log.Debug().Int("recorded", recorded).Msg("Gameweek points recorded")
	}
}

// pruneSnapshots drops expired cache entries
// Non-critical - errors are logged but don't stop the cycle
func (j *RefreshCycleJob) pruneSnapshots() {
	j.log.Debug().Msg("Pruning expired snapshots")

	pruned, err := j.snapshots.Prune()
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to prune snapshots")
		// Continue - non-critical
		return
	}

	if pruned > 0 {
		j.events.Emit(events.SnapshotsPruned, "refresh_cycle", map[string]interface{}{
			"pruned": pruned,
		})
		j.log.Debug().Int64("pruned", pruned).Msg("Expired snapshots pruned")
	}
}

// logNextDeadline surfaces deadline urgency in the refresh log
func (j *RefreshCycleJob) logNextDeadline(bootstrap *fpl.Bootstrap) {
	if j.deadlines == nil {
		return
	}

	status := j.deadlines.Status(bootstrap)
	if status == nil {
		return
	}

	if status.Imminent {
		j.log.Info().
			Int("event", status.Event).
			Float64("hours_left", status.HoursLeft).
			Msg("Deadline imminent")
	} else {
		j.log.Debug().
			Int("event", status.Event).
			Float64("hours_left", status.HoursLeft).
			Msg("Next deadline")
	}
}
