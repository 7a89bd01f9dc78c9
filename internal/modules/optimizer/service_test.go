package optimizer

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/internal/modules/candidates"
	"github.com/aristath/fpl-planner/internal/solver"
)

// fakeSolver is a scripted solver.Client.
type fakeSolver struct {
	name    string
	resp    *solver.Response
	err     error
	calls   int
	lastReq solver.Request
}

func (f *fakeSolver) Solve(ctx context.Context, req solver.Request) (*solver.Response, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeSolver) Name() string { return f.name }

// testPool builds a valid 15-player squad (ids 1..15) plus two outside
// candidates (ids 20, 21).
func testPool() ([]candidates.Candidate, []int) {
	pool := []candidates.Candidate{
		{ID: 1, Position: domain.Goalkeeper, Club: 1, Price: 45, Owned: true},
		{ID: 2, Position: domain.Goalkeeper, Club: 2, Price: 45, Owned: true},
		{ID: 3, Position: domain.Defender, Club: 3, Price: 50, Owned: true},
		{ID: 4, Position: domain.Defender, Club: 4, Price: 50, Owned: true},
		{ID: 5, Position: domain.Defender, Club: 5, Price: 50, Owned: true},
		{ID: 6, Position: domain.Defender, Club: 6, Price: 50, Owned: true},
		{ID: 7, Position: domain.Defender, Club: 7, Price: 50, Owned: true},
		{ID: 8, Position: domain.Midfielder, Club: 8, Price: 70, Owned: true},
		{ID: 9, Position: domain.Midfielder, Club: 9, Price: 70, Owned: true},
		{ID: 10, Position: domain.Midfielder, Club: 10, Price: 70, Owned: true},
		{ID: 11, Position: domain.Midfielder, Club: 1, Price: 70, Owned: true},
		{ID: 12, Position: domain.Midfielder, Club: 2, Price: 70, Owned: true},
		{ID: 13, Position: domain.Forward, Club: 3, Price: 80, Owned: true},
		{ID: 14, Position: domain.Forward, Club: 4, Price: 80, Owned: true},
		{ID: 15, Position: domain.Forward, Club: 5, Price: 80, Owned: true},
		{ID: 20, Position: domain.Midfielder, Club: 11, Price: 75},
		{ID: 21, Position: domain.Forward, Club: 12, Price: 85},
	}
	squad := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}

	for i := range pool {
		pool[i].ExpectedPoints = []float64{4.0, 4.0, 4.0}
	}

	return pool, squad
}

func testOptRequest() Request {
	pool, squad := testPool()
	return Request{
		CurrentSquad:    squad,
		Pool:            pool,
		Bank:            10,
		Budget:          940,
		FreeTransfers:   1,
		Horizon:         3,
		TransferCeiling: 2,
	}
}

// noTransferResponse answers with the unchanged squad.
func noTransferResponse(squad []int) *solver.Response {
	return &solver.Response{
		Squad:          squad,
		TransfersIn:    []solver.ResponsePlayer{},
		TransfersOut:   []solver.ResponsePlayer{},
		TotalTransfers: 0,
		PointHit:       0,
		ExpectedPoints: 60.0,
	}
}

func TestOptimize_Success(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	req := testOptRequest()

	primary := &fakeSolver{name: "http", resp: noTransferResponse(req.CurrentSquad)}
	service := NewService(primary, nil, log)

	result, err := service.Optimize(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 0, result.TransferCount)
	assert.Equal(t, 0, result.PointHit)
	assert.InDelta(t, 60.0, result.TotalPoints, 0.001)

	// Tenths converted to millions on the wire
	assert.InDelta(t, 94.0, primary.lastReq.Budget, 0.001)
	assert.InDelta(t, 1.0, primary.lastReq.Bank, 0.001)
	assert.Equal(t, 2, primary.lastReq.MaxTransfers)
	assert.Equal(t, 1, primary.lastReq.FreeTransfers)
	assert.Equal(t, 3, primary.lastReq.Horizon)
}

func TestOptimize_NormalizesPointHitSign(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	req := testOptRequest()

	// One hit transfer: 20 in for 8 out
	resp := &solver.Response{
		Squad:          []int{1, 2, 3, 4, 5, 6, 7, 9, 10, 11, 12, 13, 14, 15, 20},
		TransfersIn:    []solver.ResponsePlayer{{ID: 20}},
		TransfersOut:   []solver.ResponsePlayer{{ID: 8}},
		TotalTransfers: 1,
		PointHit:       4,
		ExpectedPoints: 58.0,
	}
	primary := &fakeSolver{name: "http", resp: resp}
	service := NewService(primary, nil, log)

	req.FreeTransfers = 0
	result, err := service.Optimize(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, -4, result.PointHit)
	assert.Equal(t, []int{20}, result.TransfersIn)
	assert.Equal(t, []int{8}, result.TransfersOut)
}

func TestOptimize_InputErrorsNeverReachSolver(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"short squad", func(r *Request) { r.CurrentSquad = r.CurrentSquad[:14] }},
		{"duplicate squad player", func(r *Request) { r.CurrentSquad[14] = r.CurrentSquad[0] }},
		{"squad player missing from pool", func(r *Request) { r.CurrentSquad[0] = 999 }},
		{"horizon too small", func(r *Request) { r.Horizon = 0 }},
		{"horizon too large", func(r *Request) { r.Horizon = 9 }},
		{"negative ceiling", func(r *Request) { r.TransferCeiling = -1 }},
		{"negative free transfers", func(r *Request) { r.FreeTransfers = -1 }},
		{"negative bank", func(r *Request) { r.Bank = -5 }},
		{"empty pool", func(r *Request) { r.Pool = nil }},
		{"broken quota", func(r *Request) {
			// Swap a midfielder for a fourth forward
			for i := range r.Pool {
				if r.Pool[i].ID == 12 {
					r.Pool[i].Position = domain.Forward
				}
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testOptRequest()
			tt.mutate(&req)

			primary := &fakeSolver{name: "http", resp: noTransferResponse(req.CurrentSquad)}
			service := NewService(primary, nil, log)

			_, err := service.Optimize(context.Background(), req)

			var inputErr *InputError
			require.ErrorAs(t, err, &inputErr)
			assert.Equal(t, 0, primary.calls, "input errors must not reach the solver")
		})
	}
}

func TestOptimize_RetriesOnFallbackWhenUnavailable(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	req := testOptRequest()

	primary := &fakeSolver{name: "http", err: fmt.Errorf("%w: connection refused", solver.ErrUnavailable)}
	fallback := &fakeSolver{name: "subprocess", resp: noTransferResponse(req.CurrentSquad)}
	service := NewService(primary, fallback, log)

	result, err := service.Optimize(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, 0, result.TransferCount)
}

func TestOptimize_NoRetryOnSolveError(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	req := testOptRequest()

	primary := &fakeSolver{name: "http", err: &solver.SolveError{Message: "Optimization failed with status: Infeasible"}}
	fallback := &fakeSolver{name: "subprocess", resp: noTransferResponse(req.CurrentSquad)}
	service := NewService(primary, fallback, log)

	_, err := service.Optimize(context.Background(), req)

	var solveErr *solver.SolveError
	require.ErrorAs(t, err, &solveErr)
	assert.Equal(t, 0, fallback.calls, "model failures must not retry")
}

func TestOptimize_SurfacesFallbackFailure(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	req := testOptRequest()

	primary := &fakeSolver{name: "http", err: fmt.Errorf("%w: connection refused", solver.ErrUnavailable)}
	fallback := &fakeSolver{name: "subprocess", err: fmt.Errorf("%w: script missing", solver.ErrUnavailable)}
	service := NewService(primary, fallback, log)

	_, err := service.Optimize(context.Background(), req)

	require.Error(t, err)
	assert.True(t, solver.IsUnavailable(err))
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestOptimize_IntegrityViolations(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	fullSquad := []int{1, 2, 3, 4, 5, 6, 7, 9, 10, 11, 12, 13, 14, 15, 20}

	tests := []struct {
		name  string
		resp  *solver.Response
		check string
	}{
		{
			"short squad",
			&solver.Response{Squad: []int{1, 2, 3}, TransfersIn: []solver.ResponsePlayer{}, TransfersOut: []solver.ResponsePlayer{}},
			"squad_size",
		},
		{
			"imbalanced transfers",
			&solver.Response{
				Squad:          fullSquad,
				TransfersIn:    []solver.ResponsePlayer{{ID: 20}},
				TransfersOut:   []solver.ResponsePlayer{},
				TotalTransfers: 1,
			},
			"transfer_balance",
		},
		{
			"count mismatch",
			&solver.Response{
				Squad:          fullSquad,
				TransfersIn:    []solver.ResponsePlayer{{ID: 20}},
				TransfersOut:   []solver.ResponsePlayer{{ID: 8}},
				TotalTransfers: 2,
			},
			"transfer_count",
		},
		{
			"broken position quota",
			&solver.Response{
				// Forward 21 in for midfielder 12 out
				Squad:          []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 14, 15, 21},
				TransfersIn:    []solver.ResponsePlayer{{ID: 21}},
				TransfersOut:   []solver.ResponsePlayer{{ID: 12}},
				TotalTransfers: 1,
			},
			"position_quota",
		},
		{
			"point hit not a multiple of four",
			&solver.Response{
				Squad:          fullSquad,
				TransfersIn:    []solver.ResponsePlayer{{ID: 20}},
				TransfersOut:   []solver.ResponsePlayer{{ID: 8}},
				TotalTransfers: 1,
				PointHit:       3,
			},
			"point_hit",
		},
		{
			"outgoing player still in squad",
			&solver.Response{
				Squad:          []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
				TransfersIn:    []solver.ResponsePlayer{{ID: 20}},
				TransfersOut:   []solver.ResponsePlayer{{ID: 8}},
				TotalTransfers: 1,
			},
			"squad_consistency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testOptRequest()
			primary := &fakeSolver{name: "http", resp: tt.resp}
			service := NewService(primary, nil, log)

			_, err := service.Optimize(context.Background(), req)

			var integrityErr *IntegrityError
			require.ErrorAs(t, err, &integrityErr)
			assert.Equal(t, tt.check, integrityErr.Check)
		})
	}
}

func TestOptimize_BudgetViolationCaught(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	req := testOptRequest()
	req.Bank = 0

	// 20 in at 75, 8 out at 70: net spend 5 tenths against an empty bank
	resp := &solver.Response{
		Squad:          []int{1, 2, 3, 4, 5, 6, 7, 9, 10, 11, 12, 13, 14, 15, 20},
		TransfersIn:    []solver.ResponsePlayer{{ID: 20}},
		TransfersOut:   []solver.ResponsePlayer{{ID: 8}},
		TotalTransfers: 1,
	}
	primary := &fakeSolver{name: "http", resp: resp}
	service := NewService(primary, nil, log)

	_, err := service.Optimize(context.Background(), req)

	var integrityErr *IntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, "budget", integrityErr.Check)
}

func TestOptimize_CeilingViolationCaught(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)
	req := testOptRequest()
	req.TransferCeiling = 0

	// One transfer against a zero ceiling
	resp := &solver.Response{
		Squad:          []int{1, 2, 3, 4, 5, 6, 7, 9, 10, 11, 12, 13, 14, 15, 20},
		TransfersIn:    []solver.ResponsePlayer{{ID: 20}},
		TransfersOut:   []solver.ResponsePlayer{{ID: 8}},
		TotalTransfers: 1,
	}
	primary := &fakeSolver{name: "http", resp: resp}
	service := NewService(primary, nil, log)

	_, err := service.Optimize(context.Background(), req)

	var integrityErr *IntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.Equal(t, "transfer_ceiling", integrityErr.Check)
}

func TestResultEqual(t *testing.T) {
	a := &Result{TransferCount: 2, TransfersIn: []int{1, 2}, TransfersOut: []int{3, 4}}
	b := &Result{TransferCount: 2, TransfersIn: []int{2, 1}, TransfersOut: []int{4, 3}}
	c := &Result{TransferCount: 2, TransfersIn: []int{1, 5}, TransfersOut: []int{3, 4}}
	d := &Result{TransferCount: 1, TransfersIn: []int{1}, TransfersOut: []int{3}}

	assert.True(t, a.Equal(b), "order must not matter")
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}
