package plans

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// PlansHandlers contains HTTP handlers for the plan history API
type PlansHandlers struct {
	repo *Repository
	log  zerolog.Logger
}

// NewPlansHandlers creates a new plans handlers instance
func NewPlansHandlers(repo *Repository, log zerolog.Logger) *PlansHandlers {
	return &PlansHandlers{
		repo: repo,
		log:  log.With().Str("module", "plans_handlers").Logger(),
	}
}

// HandleGetHistory returns archived runs, newest first
// GET /api/planner/history?entry_id=1234&limit=20
func (h *PlansHandlers) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entryID := 0
	if raw := r.URL.Query().Get("entry_id"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "Invalid entry id", http.StatusBadRequest)
			return
		}
		entryID = n
	}

	history, err := h.repo.History(entryID, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch plan history")
		http.Error(w, "Failed to fetch plan history", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []Plan{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(history) // Ignore encode error - already committed response
}
