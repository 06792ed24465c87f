package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"gonum.org/v1/gonum/mat"
)

// Functional form names. Forms are selected by exact, case-sensitive match
// against this vocabulary; the registry in internal/forms is keyed on it.
const (
	GrowthLinear   = "Linear"
	GrowthLogistic = "Logistic"

	HarvestCatch        = "Catch"
	HarvestEffort       = "Effort (qE)"
	HarvestExploitation = "Exploitation (F)"

	CompetitionNoK     = "NO_K"
	CompetitionMSProd  = "MS-PROD"
	CompetitionAggProd = "AGG-PROD"

	PredationTypeI   = "Type I"
	PredationTypeII  = "Type II"
	PredationTypeIII = "Type III"

	// FormNull disables a term entirely.
	FormNull = "Null"
)

// ObjectiveCriterion selects the fitness statistic.
type ObjectiveCriterion string

const (
	CriterionLeastSquares      ObjectiveCriterion = "Least Squares"
	CriterionModelEfficiency   ObjectiveCriterion = "Model Efficiency"
	CriterionMaximumLikelihood ObjectiveCriterion = "Maximum Likelihood"
)

// ScalingMethod selects how simulated and observed series are rescaled
// before fitness scoring.
type ScalingMethod string

const (
	ScalingMinMax ScalingMethod = "Min Max"
	ScalingMean   ScalingMethod = "Mean"
)

// EstimationConfig is the fully populated input for one estimation run.
// It is built by the config loader (or a calling application) before the
// run starts and is treated as immutable for the run's duration; the
// engine never reaches back into storage.
type EstimationConfig struct {
	NumSpecies int `validate:"min=1"`
	NumGuilds  int `validate:"min=1"`
	// RunLength is the number of simulated years beyond year 0, so all
	// [year][series] matrices have RunLength+1 rows.
	RunLength int `validate:"min=1"`

	// GuildMembership maps guild index to its member species indices.
	// Every species belongs to exactly one guild.
	GuildMembership [][]int `validate:"required"`

	// Observed data, all (RunLength+1) x NumSpecies except the guild
	// matrix which is (RunLength+1) x NumGuilds.
	ObservedBiomassSpecies *mat.Dense `validate:"required"`
	ObservedBiomassGuilds  *mat.Dense `validate:"required"`
	Catch                  *mat.Dense
	Effort                 *mat.Dense
	Exploitation           *mat.Dense

	GrowthForm      string `validate:"required"`
	HarvestForm     string `validate:"required"`
	CompetitionForm string `validate:"required"`
	PredationForm   string `validate:"required"`

	ObjectiveCriterion ObjectiveCriterion `validate:"required"`
	Scaling            ScalingMethod
	// Minimizer names the search algorithm; "Bees" selects the swarm
	// driver, anything else is looked up in the minimizer registry.
	Minimizer string `validate:"required"`

	// Stopping criteria, each independently optional. The first one to
	// trigger ends the run.
	UseStopVal        bool
	StopVal           float64
	UseStopAfterTime  bool
	StopAfterTime     time.Duration
	UseStopAfterEvals bool
	StopAfterEvals    int

	// TotalNumParameters is the declared total across all blocks; the
	// derived layout must match it exactly.
	TotalNumParameters int
	// NumSubRuns is the number of independent repetitions used by the
	// swarm driver. Values below 1 mean a single run.
	NumSubRuns int

	ShowDiagnosticChart bool

	// Parameter ranges. Vectors are indexed by species (or by guild
	// under AGG-PROD); matrix blocks share one scalar pair each.
	GrowthRateMin       []float64
	GrowthRateMax       []float64
	CarryingCapacityMin []float64
	CarryingCapacityMax []float64
	CatchabilityMin     []float64
	CatchabilityMax     []float64

	CompetitionAlphaMin float64
	CompetitionAlphaMax float64
	CompetitionBetaMin  float64
	CompetitionBetaMax  float64
	PredationMin        float64
	PredationMax        float64
	HandlingMin         float64
	HandlingMax         float64
	ExponentMin         float64
	ExponentMax         float64
}

// NumUnits returns the number of simulated population units: guilds under
// AGG-PROD, species otherwise.
func (c *EstimationConfig) NumUnits() int {
	if c.CompetitionForm == CompetitionAggProd {
		return c.NumGuilds
	}
	return c.NumSpecies
}

// ObservedBiomass returns the observed matrix the fitness evaluator
// compares against: the guild matrix under AGG-PROD, species otherwise.
func (c *EstimationConfig) ObservedBiomass() *mat.Dense {
	if c.CompetitionForm == CompetitionAggProd {
		return c.ObservedBiomassGuilds
	}
	return c.ObservedBiomassSpecies
}

// GuildOf returns the guild index for each species, derived from
// GuildMembership.
func (c *EstimationConfig) GuildOf() []int {
	guildOf := make([]int, c.NumSpecies)
	for g, members := range c.GuildMembership {
		for _, s := range members {
			if s >= 0 && s < c.NumSpecies {
				guildOf[s] = g
			}
		}
	}
	return guildOf
}

var validate = validator.New()

// Validate checks tag constraints plus the shape invariants the tags
// cannot express. Shape violations are programming-contract errors and
// fail the run before any evaluation happens.
func (c *EstimationConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	if len(c.GuildMembership) != c.NumGuilds {
		return fmt.Errorf("config validation: %d guilds declared but %d membership lists",
			c.NumGuilds, len(c.GuildMembership))
	}
	seen := make(map[int]bool)
	for g, members := range c.GuildMembership {
		for _, s := range members {
			if s < 0 || s >= c.NumSpecies {
				return fmt.Errorf("config validation: guild %d references species %d (have %d species)",
					g, s, c.NumSpecies)
			}
			if seen[s] {
				return fmt.Errorf("config validation: species %d belongs to more than one guild", s)
			}
			seen[s] = true
		}
	}
	if len(seen) != c.NumSpecies {
		return fmt.Errorf("config validation: %d of %d species assigned to a guild", len(seen), c.NumSpecies)
	}

	years := c.RunLength + 1
	if err := checkShape("observedBiomassSpecies", c.ObservedBiomassSpecies, years, c.NumSpecies); err != nil {
		return err
	}
	if err := checkShape("observedBiomassGuilds", c.ObservedBiomassGuilds, years, c.NumGuilds); err != nil {
		return err
	}
	for name, m := range map[string]*mat.Dense{
		"catch":        c.Catch,
		"effort":       c.Effort,
		"exploitation": c.Exploitation,
	} {
		if m == nil {
			continue
		}
		if err := checkShape(name, m, years, c.NumSpecies); err != nil {
			return err
		}
	}

	n := c.NumUnits()
	for name, v := range map[string][]float64{
		"growthRateMin": c.GrowthRateMin,
		"growthRateMax": c.GrowthRateMax,
	} {
		if len(v) != n {
			return fmt.Errorf("config validation: %s has %d entries, want %d", name, len(v), n)
		}
	}
	if c.GrowthForm == GrowthLogistic {
		if len(c.CarryingCapacityMin) != n || len(c.CarryingCapacityMax) != n {
			return fmt.Errorf("config validation: carrying capacity ranges must have %d entries", n)
		}
	}
	if c.HarvestForm == HarvestEffort {
		if len(c.CatchabilityMin) != n || len(c.CatchabilityMax) != n {
			return fmt.Errorf("config validation: catchability ranges must have %d entries", n)
		}
		if c.Effort == nil {
			return fmt.Errorf("config validation: harvest form %q requires an effort matrix", c.HarvestForm)
		}
	}
	if c.HarvestForm == HarvestCatch && c.Catch == nil {
		return fmt.Errorf("config validation: harvest form %q requires a catch matrix", c.HarvestForm)
	}
	if c.HarvestForm == HarvestExploitation && c.Exploitation == nil {
		return fmt.Errorf("config validation: harvest form %q requires an exploitation matrix", c.HarvestForm)
	}

	return nil
}

func checkShape(name string, m *mat.Dense, rows, cols int) error {
	r, c := m.Dims()
	if r != rows || c != cols {
		return fmt.Errorf("config validation: %s is %dx%d, want %dx%d", name, r, c, rows, cols)
	}
	return nil
}
