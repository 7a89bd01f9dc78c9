// Package optimizer formulates transfer optimization requests, invokes
// the external MILP solver, and validates the structural integrity of
// what comes back.
package optimizer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/internal/modules/candidates"
	"github.com/aristath/fpl-planner/internal/solver"
)

// netSpendToleranceTenths absorbs float rounding on the solver wire when
// checking the budget invariant post-solve.
const netSpendToleranceTenths = 1

// maxHorizon matches the length of the decay-weight table.
const maxHorizon = 8

// Service is the solver adapter.
type Service struct {
	primary  solver.Client
	fallback solver.Client
	log      zerolog.Logger
}

// NewService creates a new optimizer service. fallback may be nil when
// only one transport is configured.
func NewService(primary, fallback solver.Client, log zerolog.Logger) *Service {
	return &Service{
		primary:  primary,
		fallback: fallback,
		log:      log.With().Str("service", "optimizer").Logger(),
	}
}

// Optimize runs one solve: validate the input, build and prefilter the
// wire request, invoke the solver (retrying once on a fallback transport
// if the primary is unreachable), then validate the solution before
// returning it.
func (s *Service) Optimize(ctx context.Context, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	wireReq := buildWireRequest(req)

	resp, err := s.solve(ctx, wireReq)
	if err != nil {
		return nil, err
	}

	result := resultFromWire(resp)

	if err := validateResult(req, result); err != nil {
		s.log.Error().
			Err(err).
			Int("ceiling", req.TransferCeiling).
			Ints("transfers_in", result.TransfersIn).
			Ints("transfers_out", result.TransfersOut).
			Msg("Solver returned structurally invalid solution")
		return nil, err
	}

	s.log.Info().
		Int("ceiling", req.TransferCeiling).
		Int("transfers", result.TransferCount).
		Int("point_hit", result.PointHit).
		Float64("total_points", result.TotalPoints).
		Msg("Solve completed")

	return result, nil
}

// solve invokes the primary transport and retries exactly once on the
// fallback when the primary is unreachable. Failures reported by the
// solver itself are final: another transport would run the same model.
func (s *Service) solve(ctx context.Context, wireReq solver.Request) (*solver.Response, error) {
	resp, err := s.primary.Solve(ctx, wireReq)
	if err == nil {
		return resp, nil
	}

	if solver.IsUnavailable(err) && s.fallback != nil {
		s.log.Warn().
			Err(err).
			Str("transport", s.primary.Name()).
			Str("fallback", s.fallback.Name()).
			Msg("Solver unavailable, retrying on fallback transport")
		return s.fallback.Solve(ctx, wireReq)
	}

	return nil, err
}

func validateRequest(req Request) error {
	if len(req.CurrentSquad) != domain.SquadSize {
		return inputErrorf("squad has %d players, need %d", len(req.CurrentSquad), domain.SquadSize)
	}
	if req.Horizon < 1 || req.Horizon > maxHorizon {
		return inputErrorf("horizon %d out of range 1..%d", req.Horizon, maxHorizon)
	}
	if req.FreeTransfers < 0 {
		return inputErrorf("negative free transfer count %d", req.FreeTransfers)
	}
	if req.TransferCeiling < 0 {
		return inputErrorf("negative transfer ceiling %d", req.TransferCeiling)
	}
	if req.Bank < 0 {
		return inputErrorf("negative bank %s", req.Bank)
	}
	if len(req.Pool) == 0 {
		return inputErrorf("empty candidate pool")
	}

	poolByID := make(map[int]candidates.Candidate, len(req.Pool))
	for _, c := range req.Pool {
		if c.ID <= 0 {
			return inputErrorf("candidate with malformed id %d", c.ID)
		}
		if !c.Position.Valid() {
			return inputErrorf("candidate %d has invalid position %d", c.ID, int(c.Position))
		}
		if _, dup := poolByID[c.ID]; dup {
			return inputErrorf("duplicate candidate id %d", c.ID)
		}
		poolByID[c.ID] = c
	}

	seen := make(map[int]bool, len(req.CurrentSquad))
	quota := make(map[domain.Position]int)
	for _, id := range req.CurrentSquad {
		if seen[id] {
			return inputErrorf("duplicate player %d in squad", id)
		}
		seen[id] = true

		c, ok := poolByID[id]
		if !ok {
			return inputErrorf("squad player %d missing from candidate pool", id)
		}
		quota[c.Position]++
	}

	for _, pos := range domain.Positions {
		if quota[pos] != domain.SquadQuota[pos] {
			return inputErrorf("squad has %d %s, need %d", quota[pos], pos, domain.SquadQuota[pos])
		}
	}

	return nil
}

// buildWireRequest prefilters the pool and converts tenths to the
// decimal millions the solver expects.
func buildWireRequest(req Request) solver.Request {
	filtered := Prefilter(req.Pool, req.Budget)

	players := make([]solver.Player, len(filtered))
	for i, c := range filtered {
		p := solver.Player{
			ID:             c.ID,
			Position:       int(c.Position),
			Team:           c.Club,
			Price:          c.Price.Millions(),
			ExpectedPoints: c.ExpectedPoints,
		}
		if c.SellingPrice != nil {
			sell := c.SellingPrice.Millions()
			p.SellingPrice = &sell
		}
		players[i] = p
	}

	return solver.Request{
		CurrentSquad:  req.CurrentSquad,
		AllPlayers:    players,
		Budget:        req.Budget.Millions(),
		Bank:          req.Bank.Millions(),
		FreeTransfers: req.FreeTransfers,
		Horizon:       req.Horizon,
		MaxTransfers:  req.TransferCeiling,
	}
}

// resultFromWire normalizes the solver response: the wire carries the
// point hit as a positive penalty, results carry it negative.
func resultFromWire(resp *solver.Response) *Result {
	return &Result{
		Squad:         resp.Squad,
		TransfersIn:   resp.TransferInIDs(),
		TransfersOut:  resp.TransferOutIDs(),
		TransferCount: resp.TotalTransfers,
		PointHit:      -resp.PointHit,
		TotalPoints:   resp.ExpectedPoints,
	}
}

// validateResult enforces the structural invariants every solution must
// satisfy. A violation here is a formulation or solver-binding bug.
func validateResult(req Request, result *Result) error {
	if len(result.Squad) != domain.SquadSize {
		return integrityErrorf("squad_size", "solution squad has %d players, need %d", len(result.Squad), domain.SquadSize)
	}
	if len(result.TransfersIn) != len(result.TransfersOut) {
		return integrityErrorf("transfer_balance", "%d in vs %d out", len(result.TransfersIn), len(result.TransfersOut))
	}
	if result.TransferCount != len(result.TransfersIn) {
		return integrityErrorf("transfer_count", "count %d but %d incoming players", result.TransferCount, len(result.TransfersIn))
	}
	if result.TransferCount > req.TransferCeiling {
		return integrityErrorf("transfer_ceiling", "%d transfers but the ceiling was %d", result.TransferCount, req.TransferCeiling)
	}
	if result.PointHit > 0 || result.PointHit%domain.PointHitPenalty != 0 {
		return integrityErrorf("point_hit", "point hit %d is not a non-positive multiple of %d", result.PointHit, domain.PointHitPenalty)
	}

	poolByID := make(map[int]candidates.Candidate, len(req.Pool))
	for _, c := range req.Pool {
		poolByID[c.ID] = c
	}

	quota := make(map[domain.Position]int)
	perClub := make(map[int]int)
	for _, id := range result.Squad {
		c, ok := poolByID[id]
		if !ok {
			return integrityErrorf("unknown_player", "solution player %d not in candidate pool", id)
		}
		quota[c.Position]++
		perClub[c.Club]++
	}

	for _, pos := range domain.Positions {
		if quota[pos] != domain.SquadQuota[pos] {
			return integrityErrorf("position_quota", "solution has %d %s, need %d", quota[pos], pos, domain.SquadQuota[pos])
		}
	}

	for club, count := range perClub {
		if count > domain.MaxPerClub {
			return integrityErrorf("club_cap", "club %d contributes %d players, cap is %d", club, count, domain.MaxPerClub)
		}
	}

	owned := make(map[int]bool, len(req.CurrentSquad))
	for _, id := range req.CurrentSquad {
		owned[id] = true
	}

	var netSpend domain.Tenths
	for _, id := range result.TransfersIn {
		if owned[id] {
			return integrityErrorf("transfer_direction", "incoming player %d already owned", id)
		}
		netSpend += poolByID[id].Price
	}
	for _, id := range result.TransfersOut {
		if !owned[id] {
			return integrityErrorf("transfer_direction", "outgoing player %d not owned", id)
		}
		c := poolByID[id]
		if c.SellingPrice != nil {
			netSpend -= *c.SellingPrice
		} else {
			netSpend -= c.Price
		}
	}

	if netSpend > req.Bank+netSpendToleranceTenths {
		return integrityErrorf("budget", "net spend %s exceeds bank %s", netSpend, req.Bank)
	}

	// The final squad must be exactly (current \ out) + in
	finalSet := make(map[int]bool, len(result.Squad))
	for _, id := range result.Squad {
		finalSet[id] = true
	}
	outSet := make(map[int]bool, len(result.TransfersOut))
	for _, id := range result.TransfersOut {
		if finalSet[id] {
			return integrityErrorf("squad_consistency", "outgoing player %d still in solution squad", id)
		}
		outSet[id] = true
	}
	for _, id := range result.TransfersIn {
		if !finalSet[id] {
			return integrityErrorf("squad_consistency", "incoming player %d missing from solution squad", id)
		}
	}
	for _, id := range req.CurrentSquad {
		if !outSet[id] && !finalSet[id] {
			return integrityErrorf("squad_consistency", "player %d vanished without a transfer out", id)
		}
	}

	return nil
}
