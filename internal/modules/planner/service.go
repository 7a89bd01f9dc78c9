package planner

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aristath/fpl-planner/internal/modules/candidates"
	"github.com/aristath/fpl-planner/internal/modules/optimizer"
)

// Optimizer runs a single optimization scenario.
type Optimizer interface {
	Optimize(ctx context.Context, req optimizer.Request) (*optimizer.Result, error)
}

// Service runs the two scenarios of a planning request and weighs
// them against each other.
type Service struct {
	optimizer Optimizer
	log       zerolog.Logger
}

// NewService creates a planner service.
func NewService(opt Optimizer, log zerolog.Logger) *Service {
	return &Service{
		optimizer: opt,
		log:       log.With().Str("service", "planner").Logger(),
	}
}

type solveOutcome struct {
	result *optimizer.Result
	err    error
}

// RunDual solves the conservative scenario (capped at the free
// allowance) and the optimal scenario (capped at MaxTransfers)
// concurrently, then compares them. Both solves must succeed; the
// first error aborts the run.
func (s *Service) RunDual(ctx context.Context, req DualRequest) (*DualRecommendation, error) {
	conservativeReq := scenarioRequest(req, req.FreeTransfers)
	optimalReq := scenarioRequest(req, req.MaxTransfers)

	conservativeCh := make(chan solveOutcome, 1)
	optimalCh := make(chan solveOutcome, 1)

	go func() {
		result, err := s.optimizer.Optimize(ctx, conservativeReq)
		conservativeCh <- solveOutcome{result: result, err: err}
	}()
	go func() {
		result, err := s.optimizer.Optimize(ctx, optimalReq)
		optimalCh <- solveOutcome{result: result, err: err}
	}()

	conservative := <-conservativeCh
	optimal := <-optimalCh

	if conservative.err != nil {
		return nil, conservative.err
	}
	if optimal.err != nil {
		return nil, optimal.err
	}

	return s.compare(req, conservative.result, optimal.result), nil
}

// compare builds the recommendation from the two solved scenarios.
func (s *Service) compare(req DualRequest, conservative, optimal *optimizer.Result) *DualRecommendation {
	pool := poolByID(req.Pool)

	identical := conservative.Equal(optimal)
	netGain := optimal.TotalPoints - conservative.TotalPoints

	hitCount := optimal.TransferCount - req.FreeTransfers
	if hitCount < 0 {
		hitCount = 0
	}

	verdict := VerdictConservative
	switch {
	case identical:
		verdict = VerdictEither
	case netGain > 0:
		verdict = VerdictOptimal
	}

	s.log.Info().
		Str("verdict", string(verdict)).
		Bool("identical", identical).
		Float64("net_gain_from_hits", netGain).
		Int("hit_transfers", hitCount).
		Int("conservative_transfers", conservative.TransferCount).
		Int("optimal_transfers", optimal.TransferCount).
		Msg("Dual-scenario run complete")

	return &DualRecommendation{
		Conservative: &Scenario{
			Result:      *conservative,
			Suggestions: buildSuggestions(conservative, pool, req.FreeTransfers),
		},
		Optimal: &Scenario{
			Result:      *optimal,
			Suggestions: buildSuggestions(optimal, pool, req.FreeTransfers),
		},
		Identical:        identical,
		NetGainFromHits:  netGain,
		HitTransferCount: hitCount,
		Verdict:          verdict,
	}
}

func scenarioRequest(req DualRequest, ceiling int) optimizer.Request {
	return optimizer.Request{
		CurrentSquad:    req.CurrentSquad,
		Pool:            req.Pool,
		Bank:            req.Bank,
		Budget:          req.Budget,
		FreeTransfers:   req.FreeTransfers,
		Horizon:         req.Horizon,
		TransferCeiling: ceiling,
	}
}

func poolByID(pool []candidates.Candidate) map[int]candidates.Candidate {
	index := make(map[int]candidates.Candidate, len(pool))
	for _, c := range pool {
		index[c.ID] = c
	}
	return index
}
