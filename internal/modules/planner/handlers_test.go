package planner

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fpl-planner/internal/clients/fpl"
	"github.com/aristath/fpl-planner/internal/domain"
	"github.com/aristath/fpl-planner/internal/events"
	"github.com/aristath/fpl-planner/internal/modules/candidates"
	"github.com/aristath/fpl-planner/internal/modules/optimizer"
	"github.com/aristath/fpl-planner/internal/modules/plans"
	"github.com/aristath/fpl-planner/internal/modules/squad"
	"github.com/aristath/fpl-planner/internal/solver"
)

type fakeSquadLoader struct {
	state        *squad.State
	bootstrap    *fpl.Bootstrap
	loadErr      error
	bootstrapErr error
}

func (f *fakeSquadLoader) Load(entryID int) (*squad.State, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.state, nil
}

func (f *fakeSquadLoader) Bootstrap() (*fpl.Bootstrap, error) {
	if f.bootstrapErr != nil {
		return nil, f.bootstrapErr
	}
	return f.bootstrap, nil
}

func plannerLoader() *fakeSquadLoader {
	return &fakeSquadLoader{
		state: &squad.State{
			EntryID:  1234,
			TeamName: "Test FC",
			Event:    2,
			Players: []squad.SquadPlayer{
				{ID: 1, Name: "Keeper", Position: domain.Goalkeeper, Price: 45, SellingPrice: 45},
				{ID: 8, Name: "Holding Mid", Position: domain.Midfielder, Price: 70, SellingPrice: 68},
				{ID: 13, Name: "Target Man", Position: domain.Forward, Price: 80, SellingPrice: 80},
			},
			Bank:          20,
			SquadValue:    195,
			Budget:        213,
			FreeTransfers: 1,
		},
		bootstrap: &fpl.Bootstrap{
			Elements: []fpl.Element{
				{ID: 1, WebName: "Keeper", ElementType: 1, Team: 1, NowCost: 45, Form: "3.0", PointsPerGame: "3.0", Status: "a"},
				{ID: 8, WebName: "Holding Mid", ElementType: 3, Team: 2, NowCost: 70, Form: "2.0", PointsPerGame: "2.0", Status: "a"},
				{ID: 13, WebName: "Target Man", ElementType: 4, Team: 3, NowCost: 80, Form: "3.0", PointsPerGame: "3.0", Status: "a"},
				{ID: 20, WebName: "Hot Mid", ElementType: 3, Team: 4, NowCost: 75, Form: "4.0", PointsPerGame: "4.0", Status: "a"},
				{ID: 21, WebName: "Hot Forward", ElementType: 4, Team: 5, NowCost: 85, Form: "5.0", PointsPerGame: "5.0", Status: "a"},
			},
		},
	}
}

// divergingResults has the optimal scenario taking one hit that pays
// for itself, so the verdict comes out "optimal".
func divergingResults() map[int]*optimizer.Result {
	return map[int]*optimizer.Result{
		1: {
			Squad:         []int{1, 8, 21},
			TransfersIn:   []int{21},
			TransfersOut:  []int{13},
			TransferCount: 1,
			TotalPoints:   30,
		},
		2: {
			Squad:         []int{1, 20, 21},
			TransfersIn:   []int{21, 20},
			TransfersOut:  []int{13, 8},
			TransferCount: 2,
			PointHit:      -4,
			TotalPoints:   33,
		},
	}
}

func setupPlannerHandlers(t *testing.T, loader *fakeSquadLoader, opt Optimizer) (*PlannerHandlers, *plans.Repository, *sql.DB) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, plans.InitSchema(db))

	nop := zerolog.New(nil).Level(zerolog.Disabled)
	repo := plans.NewRepository(db, nop)
	handlers := NewPlannerHandlers(
		loader,
		candidates.NewBuilder(nop),
		NewService(opt, nop),
		repo,
		events.NewManager(nop),
		RunDefaults{Horizon: 3, MaxTransfers: 2},
		nop,
	)
	return handlers, repo, db
}

func postRun(t *testing.T, handlers *PlannerHandlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/planner/run", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handlers.HandleRun(rec, req)
	return rec
}

func TestHandleRunReturnsRecommendation(t *testing.T) {
	fake := &fakeOptimizer{results: divergingResults()}
	handlers, repo, _ := setupPlannerHandlers(t, plannerLoader(), fake)

	rec := postRun(t, handlers, `{"entry_id": 1234}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))

	assert.Equal(t, float64(1234), body["entry_id"])
	assert.Equal(t, float64(2), body["event"])
	assert.Equal(t, float64(1), body["free_transfers"])
	assert.Equal(t, float64(3), body["horizon"])
	assert.Equal(t, float64(2), body["max_transfers"])
	assert.NotEmpty(t, body["plan_uuid"])

	recommendation, ok := body["recommendation"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "optimal", recommendation["verdict"])
	assert.Equal(t, float64(3), recommendation["net_gain_from_hits"])
	assert.Equal(t, float64(1), recommendation["hit_transfer_count"])

	optimal, ok := recommendation["optimal"].(map[string]interface{})
	require.True(t, ok)
	suggestions, ok := optimal["suggestions"].([]interface{})
	require.True(t, ok)
	require.Len(t, suggestions, 2)

	first := suggestions[0].(map[string]interface{})
	assert.Equal(t, float64(13), first["out"].(map[string]interface{})["id"])
	assert.Equal(t, float64(21), first["in"].(map[string]interface{})["id"])

	plan, err := repo.Latest(1234)
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, body["plan_uuid"], plan.UUID)
	assert.Equal(t, 2, plan.Event)
	assert.Equal(t, "optimal", plan.Verdict)
	assert.Equal(t, 1, plan.ConservativeTransfers)
	assert.Equal(t, 2, plan.OptimalTransfers)
	assert.InDelta(t, 3.0, plan.NetGain, 1e-9)
	assert.Equal(t, 1, plan.HitTransfers)
	assert.Contains(t, string(plan.Suggestions), `"conservative"`)
	assert.Contains(t, string(plan.Suggestions), `"optimal"`)
}

func TestHandleRunRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", "{not json"},
		{"missing entry id", `{}`},
		{"negative entry id", `{"entry_id": -5}`},
		{"horizon out of range", `{"entry_id": 1234, "horizon": 99}`},
		{"negative max transfers", `{"entry_id": 1234, "max_transfers": -1}`},
		{"max transfers beyond squad size", `{"entry_id": 1234, "max_transfers": 16}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeOptimizer{}
			handlers, _, _ := setupPlannerHandlers(t, plannerLoader(), fake)

			rec := postRun(t, handlers, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
			assert.Empty(t, fake.requests)
		})
	}
}

func TestHandleRunSquadInputError(t *testing.T) {
	loader := plannerLoader()
	loader.loadErr = &optimizer.InputError{Message: "entry 1234 has 14 picks, want 15"}
	handlers, _, _ := setupPlannerHandlers(t, loader, &fakeOptimizer{})

	rec := postRun(t, handlers, `{"entry_id": 1234}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body["error"], "14 picks")
}

func TestHandleRunSolverUnavailable(t *testing.T) {
	fake := &fakeOptimizer{errs: map[int]error{
		1: solver.ErrUnavailable,
		2: solver.ErrUnavailable,
	}}
	handlers, repo, _ := setupPlannerHandlers(t, plannerLoader(), fake)

	rec := postRun(t, handlers, `{"entry_id": 1234}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Solver unavailable", body["error"])

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHandleRunSolveErrorPassedVerbatim(t *testing.T) {
	fake := &fakeOptimizer{
		results: map[int]*optimizer.Result{1: divergingResults()[1]},
		errs:    map[int]error{2: &solver.SolveError{Message: "infeasible: club quota"}},
	}
	handlers, _, _ := setupPlannerHandlers(t, plannerLoader(), fake)

	rec := postRun(t, handlers, `{"entry_id": 1234}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "infeasible: club quota", body["error"])
}

func TestHandleGetStatusLifecycle(t *testing.T) {
	fake := &fakeOptimizer{results: divergingResults()}
	handlers, _, _ := setupPlannerHandlers(t, plannerLoader(), fake)

	req := httptest.NewRequest(http.MethodGet, "/api/planner", nil)
	rec := httptest.NewRecorder()
	handlers.HandleGetStatus(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ready", body["status"])
	assert.Nil(t, body["last_run"])
	settings := body["settings"].(map[string]interface{})
	assert.Equal(t, float64(3), settings["default_horizon"])
	assert.Equal(t, float64(2), settings["default_max_transfers"])

	postRun(t, handlers, `{"entry_id": 1234}`)

	rec = httptest.NewRecorder()
	handlers.HandleGetStatus(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body = map[string]interface{}{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	lastRun, ok := body["last_run"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1234), lastRun["entry_id"])
	assert.Equal(t, "optimal", lastRun["verdict"])
	assert.NotEmpty(t, body["last_run_time"])
}

func TestHandleRunRespondsWhenArchiveFails(t *testing.T) {
	fake := &fakeOptimizer{results: divergingResults()}
	handlers, _, db := setupPlannerHandlers(t, plannerLoader(), fake)

	// A dead plans store must not take the endpoint down with it.
	require.NoError(t, db.Close())

	rec := postRun(t, handlers, `{"entry_id": 1234}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotContains(t, body, "plan_uuid")
	assert.NotNil(t, body["recommendation"])
}
