// Package estimator owns the parameter-search loop: bounds and starting
// point, stopping criteria, cooperative cancellation, throttled progress
// output and extraction of the best decoded parameters. Two drivers share
// the same external contract: a bound-constrained numerical minimizer
// family and a swarm-based alternative.
package estimator

import (
	"time"

	"github.com/seastate/biomassfit/internal/forms"
	"github.com/seastate/biomassfit/internal/model"
)

// Status is the driver's lifecycle state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConfigured Status = "configured"
	StatusRunning    Status = "running"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusFailed     Status = "failed"
)

// Stop reasons recorded on the result. Exactly one applies; the first
// criterion to trigger wins.
const (
	StopConverged     = "converged"
	StopTargetReached = "target fitness reached"
	StopMaxEvals      = "evaluation budget exhausted"
	StopMaxTime       = "time budget exhausted"
	StopCancelled     = "cancelled by user"
	StopFailed        = "optimizer failure"
)

// Throttling interval for progress snapshots, in evaluations. Policy
// constant, not user-configurable.
const progressInterval = 1000

// unusedCounter fills the loop file's trailing field, which downstream
// consumers reserve but do not read.
const unusedCounter = -1

// Result is the outcome of one estimation run.
type Result struct {
	Status     Status
	StopReason string

	// BestFitness is the minimized value; for Model Efficiency it is
	// the negated statistic (use fitness.AdjustForDisplay to report it).
	BestFitness float64
	// FitnessStdDev is the spread of sub-run best fitnesses; zero for
	// single-run drivers.
	FitnessStdDev float64

	BestVector []float64
	Best       *forms.ParameterSet

	Evaluations int
	SubRuns     int
	Elapsed     time.Duration

	// Summary is the human-readable best-fitness report also written to
	// the run-stop record.
	Summary string
	// ShowDiagnosticChart mirrors the config flag for the completion
	// notification.
	ShowDiagnosticChart bool
}

// Estimator is the contract both drivers implement.
type Estimator interface {
	// EstimateParameters runs one estimation to a terminal status. The
	// returned error is non-nil only for Failed runs; cancellation is a
	// status, not an error.
	EstimateParameters(cfg *model.EstimationConfig) (*Result, error)
	// Cancel requests a cooperative stop. The swarm driver observes it
	// at the next evaluation; the minimizer family at the next major
	// iteration.
	Cancel()
	// Status reports the current lifecycle state.
	Status() Status

	// Accessors for the last completed run's decoded best parameters.
	GrowthRates() []float64
	CarryingCapacities() []float64
	Catchability() []float64
	CompetitionAlpha() [][]float64
	CompetitionBetaSpecies() [][]float64
	CompetitionBetaGuilds() [][]float64
	Predation() [][]float64
	Handling() [][]float64
	Exponent() []float64
}
