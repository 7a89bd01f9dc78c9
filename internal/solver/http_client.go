package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HTTPClient calls the solver microservice over HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewHTTPClient creates a new HTTP solver client.
func NewHTTPClient(baseURL string, timeout time.Duration, log zerolog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		log: log.With().Str("client", "solver_http").Logger(),
	}
}

// Name identifies this transport in logs and retry decisions.
func (c *HTTPClient) Name() string {
	return "http"
}

// Solve posts the optimization request to the microservice.
func (c *HTTPClient) Solve(ctx context.Context, req Request) (*Response, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal solver request: %w", err)
	}

	c.log.Debug().
		Int("pool_size", len(req.AllPlayers)).
		Int("max_transfers", req.MaxTransfers).
		Msg("Calling solver service")

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/optimize", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrUnavailable, err)
	}

	// The service reports model failures as an error field in the body,
	// on 4xx/5xx statuses as well as in degenerate 200 results
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: unparseable response (status %d): %v", ErrUnavailable, httpResp.StatusCode, err)
	}

	if resp.Error != "" {
		return nil, &SolveError{Message: resp.Error}
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: solver returned status %d", ErrUnavailable, httpResp.StatusCode)
	}

	return &resp, nil
}
