// Package solver invokes the external MILP transfer solver over one of
// two transports: an HTTP microservice or a local subprocess.
package solver

import "context"

// Client runs one optimization request against the external solver.
//
// Implementations classify failures: transport problems wrap
// ErrUnavailable, failures reported by the solver itself come back as
// *SolveError.
type Client interface {
	Solve(ctx context.Context, req Request) (*Response, error)
	Name() string
}
