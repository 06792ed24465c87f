package estimator

import (
	"fmt"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/optimize"

	"github.com/seastate/biomassfit/internal/fitness"
	"github.com/seastate/biomassfit/internal/model"
	"github.com/seastate/biomassfit/internal/progress"
)

// The historical algorithm vocabulary is kept as the selection surface
// and mapped onto gonum's method catalog. Several names alias the same
// method because the catalog is smaller than the original family.
var minimizerRegistry = map[string]func() optimize.Method{
	// Global strategies.
	"GN_ORIG_DIRECT_L": func() optimize.Method { return &optimize.CmaEsChol{} },
	"GN_DIRECT_L":      func() optimize.Method { return &optimize.CmaEsChol{} },
	"GN_DIRECT_L_RAND": func() optimize.Method { return &optimize.CmaEsChol{} },
	"GN_CRS2_LM":       func() optimize.Method { return &optimize.CmaEsChol{} },
	"GD_StoGO":         func() optimize.Method { return &optimize.CmaEsChol{} },

	// Local derivative-free strategies.
	"LN_COBYLA":     func() optimize.Method { return &optimize.NelderMead{} },
	"LN_BOBYQA":     func() optimize.Method { return &optimize.NelderMead{} },
	"LN_PRAXIS":     func() optimize.Method { return &optimize.NelderMead{} },
	"LN_NELDERMEAD": func() optimize.Method { return &optimize.NelderMead{} },
	"LN_SBPLX":      func() optimize.Method { return &optimize.NelderMead{} },

	// Local gradient strategies, driven by finite differences.
	"LD_MMA":   func() optimize.Method { return &optimize.LBFGS{} },
	"LD_SLSQP": func() optimize.Method { return &optimize.LBFGS{} },
	"LD_LBFGS": func() optimize.Method { return &optimize.LBFGS{} },
}

// MinimizerNames lists the accepted algorithm names, sorted.
func MinimizerNames() []string {
	names := make([]string, 0, len(minimizerRegistry))
	for name := range minimizerRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newMethod(name string) (optimize.Method, error) {
	factory, ok := minimizerRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown minimizer: %q", name)
	}
	return factory(), nil
}

// Custom termination statuses reported by the converger. The library
// evaluates Problem.Func on worker goroutines, so stops cannot unwind
// from inside the objective; they are signalled through the settings and
// checked on the optimization loop's own goroutine.
var (
	statusCancelled     = optimize.NewStatus("cancelled", true, nil)
	statusTargetReached = optimize.NewStatus("target fitness reached", true, nil)
	statusEvalFailure   = optimize.NewStatus("evaluation failure", true, nil)
)

// stopConverger layers cancellation, the optional target-fitness
// criterion and evaluation failures over the standard
// function-convergence test. Converged runs once per major iteration.
type stopConverger struct {
	sess  *session
	inner optimize.FunctionConverge
}

func (c *stopConverger) Init(dim int) { c.inner.Init(dim) }

func (c *stopConverger) Converged(loc *optimize.Location) optimize.Status {
	if c.sess.cancel.Load() {
		return statusCancelled
	}
	if c.sess.evalErr() != nil {
		return statusEvalFailure
	}
	if c.sess.cfg.UseStopVal && loc.F <= c.sess.cfg.StopVal {
		return statusTargetReached
	}
	return c.inner.Converged(loc)
}

// Minimizer drives a single-trajectory bound-constrained search using
// the algorithm named in the config. Bounds are enforced by projecting
// every candidate into the box before evaluation.
type Minimizer struct {
	base
}

// NewMinimizer returns a driver writing progress to sink. A nil sink
// discards progress output.
func NewMinimizer(sink progress.Sink) *Minimizer {
	return &Minimizer{base: base{sink: sink}}
}

func (m *Minimizer) EstimateParameters(cfg *model.EstimationConfig) (*Result, error) {
	method, err := newMethod(cfg.Minimizer)
	if err != nil {
		m.setStatus(StatusFailed)
		return nil, err
	}

	sess, err := m.beginRun(cfg, m.sink)
	if err != nil {
		return nil, err
	}

	slog.Info("Starting estimation",
		"session_id", sess.id,
		"minimizer", cfg.Minimizer,
		"parameters", sess.bounds.Len(),
		"criterion", cfg.ObjectiveCriterion,
	)

	status, reason, searchErr := m.search(sess, method)
	return m.finishRun(sess, status, reason, 0, 1, searchErr)
}

// search runs the optimizer to completion or to the first stopping
// criterion. The evaluation and time budgets map onto the library's own
// limits; cancellation, the target fitness and evaluation failures are
// caught by the converger. The returned status distinguishes the
// criterion that fired.
func (m *Minimizer) search(sess *session, method optimize.Method) (Status, string, error) {
	objective := func(x []float64) float64 {
		f, err := sess.evaluate(x)
		if err != nil {
			sess.setEvalErr(err)
			return fitness.InfeasibleFitness
		}
		return f
	}
	problem := optimize.Problem{
		Func: objective,
		Grad: func(grad, x []float64) {
			fd.Gradient(grad, objective, x, nil)
		},
	}

	settings := &optimize.Settings{
		Converger: &stopConverger{
			sess:  sess,
			inner: optimize.FunctionConverge{Absolute: 1e-10, Iterations: 100},
		},
	}
	if sess.cfg.UseStopAfterEvals {
		settings.FuncEvaluations = sess.cfg.StopAfterEvals
	}
	if sess.cfg.UseStopAfterTime {
		settings.Runtime = sess.cfg.StopAfterTime
	}

	result, optErr := optimize.Minimize(problem, sess.bounds.StartPoint(), settings, method)

	if err := sess.evalErr(); err != nil {
		return StatusFailed, StopFailed, fmt.Errorf("minimizer %q: %w", sess.cfg.Minimizer, err)
	}
	if optErr != nil {
		return StatusFailed, StopFailed, fmt.Errorf("minimizer %q: %w", sess.cfg.Minimizer, optErr)
	}

	// The session tracks the best point itself, but the library may
	// polish the final point without a fresh evaluation.
	if result != nil && result.F < sess.bestFitness {
		sess.bestFitness = result.F
		sess.best = append(sess.best[:0:0], sess.bounds.Clamp(result.X)...)
	}

	switch result.Status {
	case statusCancelled:
		return StatusCancelled, StopCancelled, nil
	case statusTargetReached:
		return StatusCompleted, StopTargetReached, nil
	case optimize.FunctionEvaluationLimit:
		return StatusCompleted, StopMaxEvals, nil
	case optimize.RuntimeLimit:
		return StatusCompleted, StopMaxTime, nil
	default:
		return StatusCompleted, StopConverged, nil
	}
}
