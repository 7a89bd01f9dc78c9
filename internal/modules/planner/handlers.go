package planner

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fpl-planner/internal/clients/fpl"
	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/internal/events"
	"github.com/aristath/fpl-planner/internal/modules/candidates"
	"github.com/aristath/fpl-planner/internal/modules/optimizer"
	"github.com/aristath/fpl-planner/internal/modules/plans"
	"github.com/aristath/fpl-planner/internal/modules/squad"
	"github.com/aristath/fpl-planner/internal/solver"
)

// SquadLoader assembles the planning state for a manager entry.
type SquadLoader interface {
	Load(entryID int) (*squad.State, error)
	Bootstrap() (*fpl.Bootstrap, error)
}

// RunDefaults fills in run parameters the caller omitted.
type RunDefaults struct {
	Horizon      int
	MaxTransfers int
}

// PlannerCache stores the last dual run.
type PlannerCache struct {
	mu          sync.RWMutex
	lastRun     *DualRecommendation
	lastEntryID int
	lastEvent   int
	lastUpdated time.Time
}

// PlannerHandlers handles HTTP requests for the planner module.
type PlannerHandlers struct {
	squads    SquadLoader
	builder   *candidates.Builder
	service   *Service
	plansRepo *plans.Repository
	events    *events.Manager
	defaults  RunDefaults
	cache     *PlannerCache
	log       zerolog.Logger
}

// NewPlannerHandlers creates planner HTTP handlers.
func NewPlannerHandlers(
	squads SquadLoader,
	builder *candidates.Builder,
	service *Service,
	plansRepo *plans.Repository,
	events *events.Manager,
	defaults RunDefaults,
	log zerolog.Logger,
) *PlannerHandlers {
	return &PlannerHandlers{
		squads:    squads,
		builder:   builder,
		service:   service,
		plansRepo: plansRepo,
		events:    events,
		defaults:  defaults,
		cache: &PlannerCache{
			lastRun:     nil,
			lastUpdated: time.Time{},
		},
		log: log.With().Str("module", "planner_handlers").Logger(),
	}
}

// RunRequest is the body of POST /api/planner/run. Horizon and
// MaxTransfers fall back to the configured defaults when zero.
type RunRequest struct {
	EntryID      int `json:"entry_id"`
	Horizon      int `json:"horizon"`
	MaxTransfers int `json:"max_transfers"`
}

// HandleGetStatus handles GET /api/planner - returns planner settings and last run.
func (h *PlannerHandlers) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	h.cache.mu.RLock()
	defer h.cache.mu.RUnlock()

	response := map[string]interface{}{
		"settings": map[string]interface{}{
			"default_horizon":       h.defaults.Horizon,
			"default_max_transfers": h.defaults.MaxTransfers,
		},
		"last_run": nil,
		"status":   "ready",
	}

	if h.cache.lastRun != nil {
		response["last_run"] = map[string]interface{}{
			"entry_id":           h.cache.lastEntryID,
			"event":              h.cache.lastEvent,
			"verdict":            string(h.cache.lastRun.Verdict),
			"identical":          h.cache.lastRun.Identical,
			"net_gain_from_hits": h.cache.lastRun.NetGainFromHits,
			"hit_transfer_count": h.cache.lastRun.HitTransferCount,
		}
		response["last_run_time"] = h.cache.lastUpdated.Format(time.RFC3339)
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleRun handles POST /api/planner/run - runs the dual-scenario planner.
func (h *PlannerHandlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.EntryID <= 0 {
		h.writeError(w, http.StatusBadRequest, "Invalid entry_id")
		return
	}

	horizon := req.Horizon
	if horizon == 0 {
		horizon = h.defaults.Horizon
	}
	if horizon < 1 || horizon > 8 {
		h.writeError(w, http.StatusBadRequest, "Invalid horizon")
		return
	}

	maxTransfers := req.MaxTransfers
	if maxTransfers == 0 {
		maxTransfers = h.defaults.MaxTransfers
	}
	if maxTransfers < 1 || maxTransfers > domain.SquadSize {
		h.writeError(w, http.StatusBadRequest, "Invalid max_transfers")
		return
	}

	h.log.Info().
		Int("entry_id", req.EntryID).
		Int("horizon", horizon).
		Int("max_transfers", maxTransfers).
		Msg("Running transfer planner")

	// 1. Load the squad state
	state, err := h.squads.Load(req.EntryID)
	if err != nil {
		var inputErr *optimizer.InputError
		if errors.As(err, &inputErr) {
			h.writeError(w, http.StatusBadRequest, inputErr.Message)
			return
		}
		h.log.Error().Err(err).Int("entry_id", req.EntryID).Msg("Failed to load squad")
		h.writeError(w, http.StatusInternalServerError, "Failed to load squad")
		return
	}

	// 2. Build the candidate pool
	bootstrap, err := h.squads.Bootstrap()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load player data")
		h.writeError(w, http.StatusInternalServerError, "Failed to load player data")
		return
	}
	pool := h.builder.Build(bootstrap.Elements, state.Owned(), state.SellingPrices(), horizon)

	// 3. Run both scenarios
	recommendation, err := h.service.RunDual(r.Context(), DualRequest{
		CurrentSquad:  state.PlayerIDs(),
		Pool:          pool,
		Bank:          state.Bank,
		Budget:        state.Budget,
		FreeTransfers: state.FreeTransfers,
		Horizon:       horizon,
		MaxTransfers:  maxTransfers,
	})
	if err != nil {
		h.respondRunError(w, req.EntryID, err)
		return
	}

	// 4. Archive the plan
	planUUID := h.archive(req.EntryID, state.Event, recommendation)

	// 5. Update cache
	h.cache.mu.Lock()
	h.cache.lastRun = recommendation
	h.cache.lastEntryID = req.EntryID
	h.cache.lastEvent = state.Event
	h.cache.lastUpdated = time.Now()
	h.cache.mu.Unlock()

	h.events.Emit(events.PlanComputed, "planner", map[string]interface{}{
		"entry_id": req.EntryID,
		"event":    state.Event,
		"verdict":  string(recommendation.Verdict),
	})

	response := map[string]interface{}{
		"entry_id":       req.EntryID,
		"event":          state.Event,
		"free_transfers": state.FreeTransfers,
		"horizon":        horizon,
		"max_transfers":  maxTransfers,
		"recommendation": recommendation,
	}
	if planUUID != "" {
		response["plan_uuid"] = planUUID
	}

	h.writeJSON(w, http.StatusOK, response)
}

// respondRunError maps a dual-run failure to the right status code.
// Caller mistakes come back as 400, an unreachable solver as 503, and
// everything else as 500.
func (h *PlannerHandlers) respondRunError(w http.ResponseWriter, entryID int, err error) {
	h.events.Emit(events.PlanFailed, "planner", map[string]interface{}{
		"entry_id": entryID,
		"error":    err.Error(),
	})

	var inputErr *optimizer.InputError
	var solveErr *solver.SolveError
	var integrityErr *optimizer.IntegrityError
	switch {
	case errors.As(err, &inputErr):
		h.writeError(w, http.StatusBadRequest, inputErr.Message)
	case solver.IsUnavailable(err):
		h.log.Error().Err(err).Msg("Solver unavailable")
		h.writeError(w, http.StatusServiceUnavailable, "Solver unavailable")
	case errors.As(err, &solveErr):
		h.log.Error().Err(err).Msg("Solver rejected the model")
		h.writeError(w, http.StatusInternalServerError, solveErr.Message)
	case errors.As(err, &integrityErr):
		h.log.Error().Err(err).Str("check", integrityErr.Check).Msg("Solution failed integrity checks")
		h.writeError(w, http.StatusInternalServerError, integrityErr.Error())
	default:
		h.log.Error().Err(err).Msg("Planner run failed")
		h.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Planner run failed: %v", err))
	}
}

// archive persists the run for the history endpoint. A storage failure
// is logged and the response still goes out.
func (h *PlannerHandlers) archive(entryID, event int, rec *DualRecommendation) string {
	suggestions, _ := json.Marshal(map[string][]Suggestion{
		"conservative": rec.Conservative.Suggestions,
		"optimal":      rec.Optimal.Suggestions,
	})

	id, err := h.plansRepo.Save(&plans.Plan{
		EntryID:               entryID,
		Event:                 event,
		Verdict:               string(rec.Verdict),
		Identical:             rec.Identical,
		ConservativeTransfers: rec.Conservative.TransferCount,
		OptimalTransfers:      rec.Optimal.TransferCount,
		ConservativePoints:    rec.Conservative.TotalPoints,
		OptimalPoints:         rec.Optimal.TotalPoints,
		NetGain:               rec.NetGainFromHits,
		HitTransfers:          rec.HitTransferCount,
		Suggestions:           suggestions,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to archive plan, continuing")
		return ""
	}

	h.events.Emit(events.PlanArchived, "planner", map[string]interface{}{
		"plan_uuid": id,
		"entry_id":  entryID,
	})
	return id
}

// HTTP helpers

func (h *PlannerHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *PlannerHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}
