// Package runner executes an estimation on a dedicated goroutine so the
// caller stays responsive, exposing cancellation and a completion event.
// The only state shared with the running estimation is its cancellation
// flag.
package runner

import (
	"context"
	"log/slog"

	"github.com/seastate/biomassfit/internal/estimator"
	"github.com/seastate/biomassfit/internal/model"
)

// Completion is the run-finished notification delivered to the caller.
type Completion struct {
	Result *estimator.Result
	Err    error

	// Summary is the formatted best-fitness report.
	Summary string
	// ShowDiagnosticChart tells the caller whether to follow up with the
	// diagnostic chart.
	ShowDiagnosticChart bool
}

// Runner wraps one background estimation run.
type Runner struct {
	est  estimator.Estimator
	done chan Completion
}

// Start launches the estimation in the background. Cancelling ctx maps
// onto the estimator's cooperative stop flag.
func Start(ctx context.Context, est estimator.Estimator, cfg *model.EstimationConfig) *Runner {
	r := &Runner{
		est:  est,
		done: make(chan Completion, 1),
	}

	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			slog.Info("Context cancelled, stopping estimation")
			est.Cancel()
		case <-watchDone:
		}
	}()

	go func() {
		defer close(watchDone)
		res, err := est.EstimateParameters(cfg)

		c := Completion{Result: res, Err: err}
		if res != nil {
			c.Summary = res.Summary
			c.ShowDiagnosticChart = res.ShowDiagnosticChart
		}
		r.done <- c
	}()

	return r
}

// Cancel requests a cooperative stop; it takes effect at the next
// evaluation boundary.
func (r *Runner) Cancel() { r.est.Cancel() }

// Done delivers the completion event exactly once.
func (r *Runner) Done() <-chan Completion { return r.done }
