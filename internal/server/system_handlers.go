package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/fpl-planner/internal/clients/fpl"
	"github.com/aristath/fpl-planner/internal/database"
	"github.com/aristath/fpl-planner/internal/scheduler"
)

// BootstrapSource supplies the events feed for deadline reporting.
type BootstrapSource interface {
	Bootstrap() (*fpl.Bootstrap, error)
}

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	plannerDB *database.DB
	cacheDB   *database.DB
	scheduler *scheduler.Scheduler
	deadlines *scheduler.DeadlineService
	squads    BootstrapSource
	startTime time.Time
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	plannerDB, cacheDB *database.DB,
	sched *scheduler.Scheduler,
	squads BootstrapSource,
) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("component", "system_handlers").Logger(),
		dataDir:   dataDir,
		plannerDB: plannerDB,
		cacheDB:   cacheDB,
		scheduler: sched,
		deadlines: scheduler.NewDeadlineService(log),
		squads:    squads,
		startTime: time.Now(),
	}
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string                    `json:"status"`
	UptimeSeconds int64                     `json:"uptime_seconds"`
	PlayerCount   int                       `json:"player_count"`
	PlanCount     int                       `json:"plan_count"`
	LastRefresh   string                    `json:"last_refresh,omitempty"`
	NextDeadline  *scheduler.DeadlineStatus `json:"next_deadline,omitempty"`
	CPUPercent    float64                   `json:"cpu_percent"`
	RAMPercent    float64                   `json:"ram_percent"`
	Goroutines    int                       `json:"goroutines"`
}

// JobsStatusResponse represents scheduler job status
type JobsStatusResponse struct {
	TotalJobs int                            `json:"total_jobs"`
	Jobs      []string                       `json:"jobs"`
	LastRuns  map[string]scheduler.JobStatus `json:"last_runs"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// DBInfo represents information about a single database
type DBInfo struct {
	Name   string  `json:"name"`
	Path   string  `json:"path"`
	SizeMB float64 `json:"size_mb"`
}

// HandleSystemStatus returns comprehensive system status
// GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	// Query the player store for pool size and last refresh time
	var playerCount int
	var lastRefresh sql.NullString

	err := h.plannerDB.Conn().QueryRow(`
		SELECT COUNT(*), MAX(updated_at)
		FROM players
	`).Scan(&playerCount, &lastRefresh)

	if err != nil && err != sql.ErrNoRows {
		h.log.Error().Err(err).Msg("Failed to query players")
	}

	// Format last refresh time if available
	refresh := ""
	if lastRefresh.Valid && lastRefresh.String != "" {
		// Parse and reformat to "YYYY-MM-DD HH:MM"
		if t, err := time.Parse(time.RFC3339, lastRefresh.String); err == nil {
			refresh = t.Format("2006-01-02 15:04")
		}
	}

	// Query archived plan count
	var planCount int
	err = h.plannerDB.Conn().QueryRow(`SELECT COUNT(*) FROM plans`).Scan(&planCount)
	if err != nil && err != sql.ErrNoRows {
		h.log.Error().Err(err).Msg("Failed to query plans")
	}

	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "running",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		PlayerCount:   playerCount,
		PlanCount:     planCount,
		LastRefresh:   refresh,
		NextDeadline:  h.nextDeadline(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleDeadline returns the next transfer deadline
// GET /api/system/deadline
func (h *SystemHandlers) HandleDeadline(w http.ResponseWriter, r *http.Request) {
	bootstrap, err := h.squads.Bootstrap()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load bootstrap for deadline status")
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": "Player data unavailable",
		})
		return
	}

	status := h.deadlines.Status(bootstrap)
	if status == nil {
		h.writeJSON(w, http.StatusOK, map[string]bool{
			"season_over": true,
		})
		return
	}

	h.writeJSON(w, http.StatusOK, status)
}

// HandleJobsStatus returns the job registry with per-job last-run status
// GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting jobs status")

	names := h.scheduler.JobNames()
	response := JobsStatusResponse{
		TotalJobs: len(names),
		Jobs:      names,
		LastRuns:  h.scheduler.LastRuns(),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleTriggerJob runs a registered job immediately
// POST /api/system/jobs/{name}
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	registered := false
	for _, job := range h.scheduler.JobNames() {
		if job == name {
			registered = true
			break
		}
	}
	if !registered {
		h.log.Warn().Str("job", name).Msg("Unknown job trigger requested")
		h.writeJSON(w, http.StatusNotFound, map[string]string{
			"status":  "error",
			"message": fmt.Sprintf("Unknown job: %s", name),
		})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job trigger")

	if err := h.scheduler.RunNow(name); err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Job %s triggered successfully", name),
	})
}

// HandleDatabaseStats returns database statistics
// GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	databases := []DBInfo{}
	totalSizeMB := 0.0

	for _, db := range []*database.DB{h.plannerDB, h.cacheDB} {
		if db == nil {
			continue
		}
		info, err := os.Stat(db.Path())
		if err != nil {
			continue
		}
		sizeMB := float64(info.Size()) / 1024 / 1024
		totalSizeMB += sizeMB

		databases = append(databases, DBInfo{
			Name:   db.Name(),
			Path:   db.Path(),
			SizeMB: sizeMB,
		})
	}

	response := DatabaseStatsResponse{
		Databases:   databases,
		TotalSizeMB: totalSizeMB,
		LastChecked: time.Now().Format(time.RFC3339),
	}

	h.writeJSON(w, http.StatusOK, response)
}

// nextDeadline reports the upcoming deadline, or nil when the feed is
// unreachable or the season is over.
func (h *SystemHandlers) nextDeadline() *scheduler.DeadlineStatus {
	bootstrap, err := h.squads.Bootstrap()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to load bootstrap for deadline status")
		return nil
	}
	return h.deadlines.Status(bootstrap)
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short sample interval so status calls stay fast
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	// Memory statistics are instant, no sampling needed
	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
