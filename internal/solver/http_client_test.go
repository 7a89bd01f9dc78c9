package solver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() Request {
	return Request{
		CurrentSquad:  []int{1, 2, 3},
		AllPlayers:    []Player{{ID: 1, Position: 1, Team: 1, Price: 4.0, ExpectedPoints: []float64{2.0}}},
		Budget:        100.0,
		Bank:          2.3,
		FreeTransfers: 1,
		Horizon:       3,
		MaxTransfers:  2,
	}
}

func TestHTTPSolve_Success(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	var capturedPath string
	var capturedBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&capturedBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"squad": [1, 2, 3], "transfers_in": [], "transfers_out": [], "total_transfers": 0, "point_hit": 0, "expected_points": 42.5}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, log)
	resp, err := client.Solve(context.Background(), testRequest())

	require.NoError(t, err)
	assert.Equal(t, "/optimize", capturedPath)
	assert.Equal(t, []int{1, 2, 3}, resp.Squad)
	assert.InDelta(t, 42.5, resp.ExpectedPoints, 0.001)

	// ep_gwN keys reach the wire
	players := capturedBody["all_players"].([]interface{})
	first := players[0].(map[string]interface{})
	assert.Equal(t, 2.0, first["ep_gw1"])
}

func TestHTTPSolve_ErrorBodyBecomesSolveError(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Optimization failed with status: Infeasible"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, log)
	_, err := client.Solve(context.Background(), testRequest())

	var solveErr *SolveError
	require.ErrorAs(t, err, &solveErr)
	assert.Contains(t, solveErr.Message, "Infeasible")
	assert.False(t, IsUnavailable(err))
}

func TestHTTPSolve_DegenerateErrorResultOn200(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	// Infeasible models come back with status 200 and an error field
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Optimization failed", "squad": [1], "transfers_in": [], "transfers_out": [], "total_transfers": 0, "point_hit": 0, "expected_points": 0}`))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, 5*time.Second, log)
	_, err := client.Solve(context.Background(), testRequest())

	var solveErr *SolveError
	require.ErrorAs(t, err, &solveErr)
}

func TestHTTPSolve_UnreachableIsUnavailable(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	// Closed server: connection refused
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewHTTPClient(server.URL, time.Second, log)
	_, err := client.Solve(context.Background(), testRequest())

	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	var solveErr *SolveError
	assert.False(t, errors.As(err, &solveErr))
}

func TestHTTPSolve_UnparseableBodyIsUnavailable(t *testing.T) {
	log := zerolog.New(nil).Level(zerolog.Disabled)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>502 Bad Gateway</html>"))
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, time.Second, log)
	_, err := client.Solve(context.Background(), testRequest())

	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}
