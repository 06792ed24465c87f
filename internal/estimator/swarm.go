package estimator

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
	"gonum.org/v1/gonum/stat"

	"github.com/seastate/biomassfit/internal/model"
	"github.com/seastate/biomassfit/internal/progress"
)

// SwarmName selects the swarm driver in EstimationConfig.Minimizer.
const SwarmName = "Bees"

// Swarm is the population-based alternative driver. It implements the
// same external contract as Minimizer, differing only in its internal
// search procedure and in supporting multiple independent sub-runs whose
// best-fitness spread is reported.
//
// The underlying library accepts a single scalar bound pair, so the
// search runs in the unit box and candidates are affinely mapped onto the
// per-parameter bounds inside the objective.
type Swarm struct {
	base

	// MaxIterations and PopulationSize shape each sub-run's search. The
	// library requires a population of at least 20.
	MaxIterations  int
	PopulationSize int
	Seed           int64
}

// NewSwarm returns a swarm driver with the default search shape.
func NewSwarm(sink progress.Sink) *Swarm {
	return &Swarm{
		base:           base{sink: sink},
		MaxIterations:  500,
		PopulationSize: 20,
		Seed:           1,
	}
}

func (sw *Swarm) EstimateParameters(cfg *model.EstimationConfig) (*Result, error) {
	sess, err := sw.beginRun(cfg, sw.sink)
	if err != nil {
		return nil, err
	}

	subRuns := cfg.NumSubRuns
	if subRuns < 1 {
		subRuns = 1
	}

	slog.Info("Starting swarm estimation",
		"session_id", sess.id,
		"parameters", sess.bounds.Len(),
		"sub_runs", subRuns,
		"population", sw.PopulationSize,
	)

	status, reason, bestPerSubRun, searchErr := sw.search(sess, subRuns)

	var stddev float64
	if len(bestPerSubRun) > 1 {
		stddev = stat.StdDev(bestPerSubRun, nil)
	}
	return sw.finishRun(sess, status, reason, stddev, len(bestPerSubRun), searchErr)
}

// search executes the sub-runs sequentially. The session spans all of
// them, so the evaluation counter, progress throttle, stopping criteria
// and best point are global to the run while each sub-run restarts the
// swarm from scratch.
func (sw *Swarm) search(sess *session, subRuns int) (status Status, reason string, bestPerSubRun []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			fs, ok := r.(*forcedStop)
			if !ok {
				status = StatusFailed
				reason = StopFailed
				err = fmt.Errorf("swarm aborted: %v", r)
				return
			}
			if fs.reason == StopCancelled {
				status = StatusCancelled
			} else {
				status = StatusCompleted
			}
			reason = fs.reason
		}
	}()

	objective := sess.objective()
	dim := sess.bounds.Len()

	for run := 1; run <= subRuns; run++ {
		sess.label = fmt.Sprintf("Run %d-%d", sw.runNum, run)

		config := mayfly.NewDefaultConfig()
		config.ObjectiveFunc = func(u []float64) float64 {
			return objective(sess.bounds.FromUnit(u))
		}
		config.ProblemSize = dim
		config.MaxIterations = sw.MaxIterations
		config.NPop = sw.PopulationSize
		config.LowerBound = 0
		config.UpperBound = 1
		config.Rand = rand.New(rand.NewSource(sw.Seed + int64(run)))

		result, optErr := mayfly.Optimize(config)
		if optErr != nil {
			return StatusFailed, StopFailed, bestPerSubRun, fmt.Errorf("swarm sub-run %d: %w", run, optErr)
		}
		bestPerSubRun = append(bestPerSubRun, result.GlobalBest.Cost)

		slog.Info("Sub-run completed",
			"session_id", sess.id,
			"sub_run", run,
			"of", subRuns,
			"best_fitness", result.GlobalBest.Cost,
		)
	}
	return StatusCompleted, StopConverged, bestPerSubRun, nil
}

// New returns the driver selected by the config's algorithm name:
// the swarm driver for SwarmName, the minimizer family otherwise.
func New(cfg *model.EstimationConfig, sink progress.Sink) (Estimator, error) {
	if cfg.Minimizer == SwarmName {
		return NewSwarm(sink), nil
	}
	if _, err := newMethod(cfg.Minimizer); err != nil {
		return nil, err
	}
	return NewMinimizer(sink), nil
}
