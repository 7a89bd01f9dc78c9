package players

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/internal/modules/candidates"
	"github.com/aristath/fpl-planner/pkg/formulas"
)

// momentumPeriod is the EMA window for form momentum, in gameweeks.
const momentumPeriod = 4

// projectionLength is how many gameweeks the detail projection covers.
const projectionLength = 5

var positionCodes = map[string]domain.Position{
	"GK":  domain.Goalkeeper,
	"DEF": domain.Defender,
	"MID": domain.Midfielder,
	"FWD": domain.Forward,
}

// PlayersHandlers contains HTTP handlers for the player store API
type PlayersHandlers struct {
	repo    *Repository
	service *Service
	log     zerolog.Logger
}

// NewPlayersHandlers creates a new players handlers instance
func NewPlayersHandlers(repo *Repository, service *Service, log zerolog.Logger) *PlayersHandlers {
	return &PlayersHandlers{
		repo:    repo,
		service: service,
		log:     log.With().Str("module", "players_handlers").Logger(),
	}
}

// HandleListPlayers returns stored players, filtered and sorted
// GET /api/players?position=MID&club=3&sort=form&limit=50
func (h *PlayersHandlers) HandleListPlayers(w http.ResponseWriter, r *http.Request) {
	filter := Filter{SortBy: r.URL.Query().Get("sort")}

	if code := r.URL.Query().Get("position"); code != "" {
		pos, ok := positionCodes[code]
		if !ok {
			http.Error(w, "Invalid position code", http.StatusBadRequest)
			return
		}
		filter.Position = &pos
	}

	if club := r.URL.Query().Get("club"); club != "" {
		clubID, err := strconv.Atoi(club)
		if err != nil {
			http.Error(w, "Invalid club id", http.StatusBadRequest)
			return
		}
		filter.ClubID = &clubID
	}

	if limit := r.URL.Query().Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}

	stored, err := h.repo.List(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list players")
		http.Error(w, "Failed to list players", http.StatusInternalServerError)
		return
	}

	response := make([]map[string]interface{}, 0, len(stored))
	for _, p := range stored {
		response = append(response, playerResponse(p))
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response) // Ignore encode error - already committed response
}

// HandleGetPlayer returns one player with form momentum and projection
// GET /api/players/{id}
func (h *PlayersHandlers) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(w, "Invalid player id", http.StatusBadRequest)
		return
	}

	player, err := h.repo.Get(id)
	if err != nil {
		h.log.Error().Err(err).Int("player_id", id).Msg("Failed to fetch player")
		http.Error(w, "Failed to fetch player", http.StatusInternalServerError)
		return
	}
	if player == nil {
		http.Error(w, "Player not found", http.StatusNotFound)
		return
	}

	history, err := h.repo.PointsHistory(id)
	if err != nil {
		h.log.Error().Err(err).Int("player_id", id).Msg("Failed to fetch points history")
		http.Error(w, "Failed to fetch points history", http.StatusInternalServerError)
		return
	}

	scores := make([]float64, len(history))
	for i, gp := range history {
		scores[i] = float64(gp.Points)
	}

	result := playerResponse(*player)
	result["history"] = history
	result["momentum"] = formulas.PointsMomentum(scores, momentumPeriod)
	result["recent_average"] = formulas.RecentAverage(scores, momentumPeriod)
	result["consistency"] = formulas.Consistency(scores)
	result["blank_rate"] = formulas.BlankRate(scores)
	result["form_drawdown"] = formulas.FormDrawdown(scores, momentumPeriod)

	ep := candidates.ExpectedPoints(player.Form, player.PointsPerGame, player.Chance)
	projection := make([]float64, projectionLength)
	for i := range projection {
		projection[i] = ep * formulas.HorizonWeight(i)
	}
	result["expected_points"] = ep
	result["projection"] = projection

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result) // Ignore encode error - already committed response
}

// HandlePoolStats returns the per-position expected-points distribution
// GET /api/players/stats
func (h *PlayersHandlers) HandlePoolStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.PoolStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute pool stats")
		http.Error(w, "Failed to compute pool stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats) // Ignore encode error - already committed response
}

func playerResponse(p Player) map[string]interface{} {
	resp := map[string]interface{}{
		"id":              p.ID,
		"name":            p.Name,
		"full_name":       p.FullName,
		"position":        p.Position.String(),
		"club_id":         p.ClubID,
		"club":            p.Club,
		"price":           p.Price.Millions(),
		"form":            p.Form,
		"points_per_game": p.PointsPerGame,
		"total_points":    p.TotalPoints,
		"event_points":    p.EventPoints,
		"minutes":         p.Minutes,
		"status":          p.Status,
		"selected_by":     p.SelectedBy,
	}

	if p.News != "" {
		resp["news"] = p.News
	}
	if p.Chance != nil {
		resp["chance"] = *p.Chance
	}

	return resp
}
