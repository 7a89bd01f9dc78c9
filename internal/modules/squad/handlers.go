package squad

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fpl-planner/internal/modules/optimizer"
)

// SquadHandlers contains HTTP handlers for the squad API
type SquadHandlers struct {
	service *Service
	log     zerolog.Logger
}

// NewSquadHandlers creates a new squad handlers instance
func NewSquadHandlers(service *Service, log zerolog.Logger) *SquadHandlers {
	return &SquadHandlers{
		service: service,
		log:     log.With().Str("module", "squad_handlers").Logger(),
	}
}

// HandleGetSquad returns the valued squad state for one manager
// GET /api/squad/{entryID}
func (h *SquadHandlers) HandleGetSquad(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.Atoi(chi.URLParam(r, "entryID"))
	if err != nil || entryID <= 0 {
		http.Error(w, "Invalid entry id", http.StatusBadRequest)
		return
	}

	state, err := h.service.Load(entryID)
	if err != nil {
		var inputErr *optimizer.InputError
		if errors.As(err, &inputErr) {
			http.Error(w, inputErr.Message, http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Int("entry_id", entryID).Msg("Failed to load squad")
		http.Error(w, "Failed to load squad", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stateResponse(state)) // Ignore encode error - already committed response
}

func stateResponse(state *State) map[string]interface{} {
	squadPlayers := make([]map[string]interface{}, 0, len(state.Players))
	for _, p := range state.Players {
		player := map[string]interface{}{
			"id":              p.ID,
			"name":            p.Name,
			"position":        p.Position.String(),
			"club_id":         p.ClubID,
			"club":            p.Club,
			"price":           p.Price.Millions(),
			"purchase_price":  p.PurchasePrice.Millions(),
			"selling_price":   p.SellingPrice.Millions(),
			"form":            p.Form,
			"points_per_game": p.PointsPerGame,
			"is_captain":      p.IsCaptain,
		}
		if p.Chance != nil {
			player["chance"] = *p.Chance
		}
		squadPlayers = append(squadPlayers, player)
	}

	resp := map[string]interface{}{
		"entry_id":       state.EntryID,
		"event":          state.Event,
		"players":        squadPlayers,
		"bank":           state.Bank.Millions(),
		"squad_value":    state.SquadValue.Millions(),
		"budget":         state.Budget.Millions(),
		"free_transfers": state.FreeTransfers,
	}

	if state.TeamName != "" {
		resp["team_name"] = state.TeamName
	}
	if state.ManagerName != "" {
		resp["manager_name"] = state.ManagerName
	}
	if len(state.History) > 0 {
		resp["history"] = state.History
	}

	return resp
}
