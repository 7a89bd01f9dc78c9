package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/rs/zerolog"
)

// SubprocessClient runs the solver script locally, feeding the request
// over stdin and reading the result from stdout. Used as the fallback
// transport when the microservice is unreachable.
type SubprocessClient struct {
	python  string
	script  string
	timeout time.Duration
	log     zerolog.Logger
}

// NewSubprocessClient creates a new subprocess solver client.
func NewSubprocessClient(python, script string, timeout time.Duration, log zerolog.Logger) *SubprocessClient {
	return &SubprocessClient{
		python:  python,
		script:  script,
		timeout: timeout,
		log:     log.With().Str("client", "solver_subprocess").Logger(),
	}
}

// Name identifies this transport in logs and retry decisions.
func (c *SubprocessClient) Name() string {
	return "subprocess"
}

// Solve spawns the solver script and exchanges JSON over stdin/stdout.
// The process is killed when the context deadline passes.
func (c *SubprocessClient) Solve(ctx context.Context, req Request) (*Response, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal solver request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.python, c.script)
	cmd.Stdin = bytes.NewReader(jsonData)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.log.Debug().
		Str("script", c.script).
		Int("pool_size", len(req.AllPlayers)).
		Msg("Running solver script")

	runErr := cmd.Run()

	// The script writes an error result to stdout and exits non-zero,
	// so parse stdout before looking at the exit code
	if stdout.Len() > 0 {
		var resp Response
		if err := json.Unmarshal(stdout.Bytes(), &resp); err == nil {
			if resp.Error != "" {
				return nil, &SolveError{Message: resp.Error}
			}
			if runErr == nil {
				return &resp, nil
			}
		}
	}

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w: solver script timed out after %s", ErrUnavailable, c.timeout)
	}

	if runErr != nil {
		return nil, fmt.Errorf("%w: solver script failed: %v (stderr: %s)", ErrUnavailable, runErr, truncate(stderr.String(), 300))
	}

	return nil, fmt.Errorf("%w: solver script produced no output", ErrUnavailable)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
