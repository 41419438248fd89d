package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"RigorScore/internal/domain"
	"RigorScore/internal/ports"
)

// DefaultTimeout bounds a single oracle call.
const DefaultTimeout = 30 * time.Second

// Func adapts a plain function to ports.Oracle.
type Func func(ctx context.Context, req domain.OracleRequest) (domain.Verdict, error)

// Evaluate calls f.
func (f Func) Evaluate(ctx context.Context, req domain.OracleRequest) (domain.Verdict, error) {
	return f(ctx, req)
}

// Guard applies a per-call deadline and classifies failures.
// Deadline overruns wrap domain.ErrOracleTimeout, everything else wraps domain.ErrOracleUnavailable.
type Guard struct {
	next    ports.Oracle
	timeout time.Duration
	metrics ports.Metrics
}

var _ ports.Oracle = (*Guard)(nil)

// NewGuard wraps next; a non-positive timeout falls back to DefaultTimeout.
func NewGuard(next ports.Oracle, timeout time.Duration, metrics ports.Metrics) *Guard {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Guard{next: next, timeout: timeout, metrics: metrics}
}

// Evaluate forwards the request under the guard's deadline.
func (g *Guard) Evaluate(ctx context.Context, req domain.OracleRequest) (domain.Verdict, error) {
	if g.next == nil {
		return domain.Verdict{}, fmt.Errorf("no oracle configured: %w", domain.ErrOracleUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	verdict, err := g.next.Evaluate(callCtx, req)
	outcome := "ok"
	switch {
	case err == nil:
		verdict = verdict.Normalize()
	case ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded)):
		outcome = "timeout"
		if !errors.Is(err, domain.ErrOracleTimeout) {
			err = fmt.Errorf("%w: %w", domain.ErrOracleTimeout, err)
		}
	default:
		outcome = "error"
		if !errors.Is(err, domain.ErrOracleUnavailable) && !errors.Is(err, domain.ErrOracleTimeout) {
			err = fmt.Errorf("%w: %w", domain.ErrOracleUnavailable, err)
		}
	}

	if g.metrics != nil {
		g.metrics.ObserveOracleCall(req.Task, outcome, time.Since(start))
	}
	return verdict, err
}
