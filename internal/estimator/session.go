package estimator

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/seastate/biomassfit/internal/fitness"
	"github.com/seastate/biomassfit/internal/forms"
	"github.com/seastate/biomassfit/internal/model"
	"github.com/seastate/biomassfit/internal/params"
	"github.com/seastate/biomassfit/internal/progress"
	"github.com/seastate/biomassfit/internal/sim"
)

// forcedStop unwinds the optimizer's search loop immediately when a
// stopping criterion or a cancellation fires mid-search. It is control
// flow, not an error: the recover site maps it back onto a status.
// Only drivers that evaluate the objective on the calling goroutine may
// use it; a driver whose library evaluates on worker goroutines cannot
// recover the panic and must signal stops through the library instead.
type forcedStop struct {
	reason string
}

func (f *forcedStop) Error() string { return "forced stop: " + f.reason }

// session is the per-run state. Everything here is owned by the single
// goroutine executing the run, except the cancellation flag, which is the
// only state shared with the caller while running.
type session struct {
	id    string
	label string

	cfg      *model.EstimationConfig
	set      *forms.Set
	bounds   *params.Bounds
	observed *mat.Dense
	sink     progress.Sink

	cancel atomic.Bool

	// failMu guards failure, the first evaluation error seen. The gonum
	// driver's optimization loop reads it from another goroutine.
	failMu  sync.Mutex
	failure error

	start       time.Time
	evaluations int
	best        []float64
	bestFitness float64
}

func newSession(cfg *model.EstimationConfig, sink progress.Sink, runNum int) (*session, error) {
	set, err := forms.NewSet(cfg)
	if err != nil {
		return nil, err
	}
	bounds, err := params.BuildBounds(cfg)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = progress.Discard{}
	}
	return &session{
		id:          uuid.New().String(),
		label:       fmt.Sprintf("Run %d-1", runNum),
		cfg:         cfg,
		set:         set,
		bounds:      bounds,
		observed:    cfg.ObservedBiomass(),
		sink:        sink,
		bestFitness: math.Inf(1),
	}, nil
}

// evaluate decodes a candidate, simulates the trajectory and scores it.
// Candidates are projected into the bound box first; bound enforcement is
// the driver's job, not the codec's. A decode error is a
// programming-contract violation and fails the run rather than silently
// truncating.
func (s *session) evaluate(x []float64) (float64, error) {
	xc := s.bounds.Clamp(x)
	ps, err := params.Decode(xc, s.cfg)
	if err != nil {
		return 0, err
	}
	st := sim.Run(ps, s.set, s.cfg)
	f := fitness.Score(st, s.observed, s.cfg.ObjectiveCriterion, s.cfg.Scaling)

	s.evaluations++
	if f < s.bestFitness {
		s.bestFitness = f
		s.best = append(s.best[:0:0], xc...)
	}
	if s.evaluations%progressInterval == 0 {
		s.writeSnapshot()
	}
	return f, nil
}

// setEvalErr records the first evaluation failure; later ones are noise.
func (s *session) setEvalErr(err error) {
	s.failMu.Lock()
	if s.failure == nil {
		s.failure = err
	}
	s.failMu.Unlock()
}

func (s *session) evalErr() error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	return s.failure
}

// objective wraps evaluate with the cancellation check and the
// independently optional stopping criteria for drivers that evaluate on
// the calling goroutine. The cancellation flag is checked at the start of
// every evaluation; when set, the whole search unwinds without computing
// another fitness.
func (s *session) objective() func(x []float64) float64 {
	return func(x []float64) float64 {
		if s.cancel.Load() {
			panic(&forcedStop{reason: StopCancelled})
		}
		if s.cfg.UseStopAfterTime && time.Since(s.start) > s.cfg.StopAfterTime {
			panic(&forcedStop{reason: StopMaxTime})
		}
		if s.cfg.UseStopAfterEvals && s.evaluations >= s.cfg.StopAfterEvals {
			panic(&forcedStop{reason: StopMaxEvals})
		}

		f, err := s.evaluate(x)
		if err != nil {
			panic(err)
		}

		if s.cfg.UseStopVal && f <= s.cfg.StopVal {
			panic(&forcedStop{reason: StopTargetReached})
		}
		return f
	}
}

// writeSnapshot appends one throttled progress line. The Model-Efficiency
// sign adjustment happens here, at write time, not at evaluation time.
func (s *session) writeSnapshot() {
	adjusted := fitness.AdjustForDisplay(s.bestFitness, s.cfg.ObjectiveCriterion)
	if err := s.sink.Snapshot(s.label, s.evaluations, adjusted, unusedCounter); err != nil {
		slog.Warn("Failed to write progress snapshot", "session_id", s.id, "error", err)
	}
}

// base carries the state machine and result bookkeeping shared by both
// drivers.
type base struct {
	mu     sync.Mutex
	status Status
	sess   *session
	last   *Result

	// pending carries a cancel issued before the run enters Running, so
	// the very first evaluation still observes it.
	pending atomic.Bool

	sink   progress.Sink
	runNum int
}

func (b *base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status == "" {
		return StatusIdle
	}
	return b.status
}

func (b *base) setStatus(st Status) {
	b.mu.Lock()
	b.status = st
	b.mu.Unlock()
}

// Cancel sets the cooperative stop flag. Safe to call from any goroutine
// and at any lifecycle state; before Running it applies to the next run.
func (b *base) Cancel() {
	b.mu.Lock()
	sess := b.sess
	b.mu.Unlock()
	if sess != nil {
		sess.cancel.Store(true)
		return
	}
	b.pending.Store(true)
}

// beginRun transitions Idle -> Configured -> Running and builds the
// session. One run at a time per driver instance.
func (b *base) beginRun(cfg *model.EstimationConfig, sink progress.Sink) (*session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.status == StatusRunning {
		return nil, fmt.Errorf("estimation already running")
	}
	b.runNum++
	sess, err := newSession(cfg, sink, b.runNum)
	if err != nil {
		b.status = StatusFailed
		return nil, err
	}
	b.status = StatusConfigured
	b.sess = sess
	if b.pending.Swap(false) {
		sess.cancel.Store(true)
	}

	sess.start = time.Now()
	b.status = StatusRunning
	return sess, nil
}

// finishRun decodes the best vector, formats the summary, writes the
// run-stop record and stores the result for the getters.
func (b *base) finishRun(sess *session, status Status, reason string, stddev float64, subRuns int, err error) (*Result, error) {
	elapsed := time.Since(sess.start)

	res := &Result{
		Status:              status,
		StopReason:          reason,
		BestFitness:         sess.bestFitness,
		FitnessStdDev:       stddev,
		BestVector:          sess.best,
		Evaluations:         sess.evaluations,
		SubRuns:             subRuns,
		Elapsed:             elapsed,
		ShowDiagnosticChart: sess.cfg.ShowDiagnosticChart,
	}
	if len(sess.best) > 0 {
		ps, decodeErr := params.Decode(sess.best, sess.cfg)
		if decodeErr != nil && err == nil {
			status, res.Status = StatusFailed, StatusFailed
			err = decodeErr
		}
		res.Best = ps
	}
	res.Summary = formatSummary(sess.cfg, res)

	elapsedStr := "Elapsed runtime: " + elapsed.Round(time.Millisecond).String()
	if sinkErr := sess.sink.StopRecord(elapsedStr, res.Summary); sinkErr != nil {
		slog.Warn("Failed to write stop record", "session_id", sess.id, "error", sinkErr)
	}

	switch status {
	case StatusCancelled:
		slog.Info("Estimation cancelled", "session_id", sess.id, "evaluations", sess.evaluations)
	case StatusFailed:
		slog.Error("Estimation failed", "session_id", sess.id, "error", err)
	default:
		slog.Info("Estimation completed",
			"session_id", sess.id,
			"stop_reason", reason,
			"best_fitness", res.BestFitness,
			"evaluations", sess.evaluations,
			"elapsed", elapsed,
		)
	}

	b.mu.Lock()
	b.status = status
	b.last = res
	b.sess = nil
	b.mu.Unlock()

	return res, err
}

func (b *base) lastBest() *forms.ParameterSet {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return nil
	}
	return b.last.Best
}

// Per-group accessors over the last run's decoded best parameters. They
// return nil until a run has produced a best point.

func (b *base) GrowthRates() []float64 {
	if ps := b.lastBest(); ps != nil {
		return ps.GrowthRate
	}
	return nil
}

func (b *base) CarryingCapacities() []float64 {
	if ps := b.lastBest(); ps != nil {
		return ps.CarryingCapacity
	}
	return nil
}

func (b *base) Catchability() []float64 {
	if ps := b.lastBest(); ps != nil {
		return ps.Catchability
	}
	return nil
}

func (b *base) Exponent() []float64 {
	if ps := b.lastBest(); ps != nil {
		return ps.Exponent
	}
	return nil
}

func (b *base) CompetitionAlpha() [][]float64 {
	if ps := b.lastBest(); ps != nil {
		return matrixRows(ps.CompetitionAlpha)
	}
	return nil
}

func (b *base) CompetitionBetaSpecies() [][]float64 {
	if ps := b.lastBest(); ps != nil {
		return matrixRows(ps.CompetitionBetaSpecies)
	}
	return nil
}

func (b *base) CompetitionBetaGuilds() [][]float64 {
	if ps := b.lastBest(); ps != nil {
		return matrixRows(ps.CompetitionBetaGuilds)
	}
	return nil
}

func (b *base) Predation() [][]float64 {
	if ps := b.lastBest(); ps != nil {
		return matrixRows(ps.Predation)
	}
	return nil
}

func (b *base) Handling() [][]float64 {
	if ps := b.lastBest(); ps != nil {
		return matrixRows(ps.Handling)
	}
	return nil
}

func matrixRows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, m)
	}
	return rows
}
