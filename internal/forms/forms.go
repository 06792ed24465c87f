// Package forms holds the pluggable functional-form strategies that the
// population simulator combines: growth, harvest, competition and
// predation. Forms are selected by exact name from a closed registry and
// each form also declares the parameter ranges for the blocks it owns, in
// the engine's fixed block order.
package forms

import (
	"fmt"

	"github.com/seastate/biomassfit/internal/model"
	"gonum.org/v1/gonum/mat"
)

// ParameterSet is a flat parameter vector decoded into named biological
// parameter groups. Optional blocks are nil when the active forms do not
// use them.
type ParameterSet struct {
	GrowthRate       []float64
	CarryingCapacity []float64
	Catchability     []float64

	CompetitionAlpha       *mat.Dense
	CompetitionBetaSpecies *mat.Dense
	CompetitionBetaGuilds  *mat.Dense
	Predation              *mat.Dense
	Handling               *mat.Dense
	Exponent               []float64
}

// Range is one lower/upper bound pair for a single scalar parameter.
// Lower == Upper pins the parameter to that value.
type Range struct {
	Lower float64
	Upper float64
}

// Aggregates carries the system-level context a form may need when
// evaluating one species at one time step.
type Aggregates struct {
	// SystemCarryingCapacity is precomputed once per evaluation, before
	// the year loop, and held constant across the trajectory.
	SystemCarryingCapacity float64
	// GuildCarryingCapacity is indexed by guild.
	GuildCarryingCapacity []float64
	// GuildOf maps unit index to guild index.
	GuildOf []int
	// SpeciesBiomass and GuildBiomass are the full trajectories computed
	// so far; rows at or before the evaluated time-1 are valid.
	SpeciesBiomass *mat.Dense
	GuildBiomass   *mat.Dense
}

// GrowthForm produces the additive growth term.
type GrowthForm interface {
	Evaluate(i int, biomass float64, ps *ParameterSet) float64
	// ParameterRanges contributes this form's bound pairs in block order.
	ParameterRanges(cfg *model.EstimationConfig) []Range
}

// HarvestForm produces the additive harvest (removal) term.
type HarvestForm interface {
	Evaluate(t, i int, biomass float64, ps *ParameterSet, cfg *model.EstimationConfig) float64
	ParameterRanges(cfg *model.EstimationConfig) []Range
}

// CompetitionForm produces the additive competition term.
type CompetitionForm interface {
	Evaluate(t, i int, biomass float64, ps *ParameterSet, agg *Aggregates) float64
	ParameterRanges(cfg *model.EstimationConfig) []Range
}

// PredationForm produces the additive predation term.
type PredationForm interface {
	Evaluate(t, i int, biomass float64, ps *ParameterSet, agg *Aggregates) float64
	ParameterRanges(cfg *model.EstimationConfig) []Range
}

// Set bundles the four active forms for one run.
type Set struct {
	Growth      GrowthForm
	Harvest     HarvestForm
	Competition CompetitionForm
	Predation   PredationForm
}

// NewSet resolves the config's form names against the registry.
func NewSet(cfg *model.EstimationConfig) (*Set, error) {
	growth, err := NewGrowth(cfg.GrowthForm)
	if err != nil {
		return nil, err
	}
	harvest, err := NewHarvest(cfg.HarvestForm)
	if err != nil {
		return nil, err
	}
	competition, err := NewCompetition(cfg.CompetitionForm)
	if err != nil {
		return nil, err
	}
	predation, err := NewPredation(cfg.PredationForm)
	if err != nil {
		return nil, err
	}
	return &Set{Growth: growth, Harvest: harvest, Competition: competition, Predation: predation}, nil
}

// The registry is the single place form names are interpreted. Lookups
// are case-sensitive.

var growthRegistry = map[string]func() GrowthForm{
	model.GrowthLinear:   func() GrowthForm { return linearGrowth{} },
	model.GrowthLogistic: func() GrowthForm { return logisticGrowth{} },
	model.FormNull:       func() GrowthForm { return nullGrowth{} },
}

var harvestRegistry = map[string]func() HarvestForm{
	model.HarvestCatch:        func() HarvestForm { return catchHarvest{} },
	model.HarvestEffort:       func() HarvestForm { return effortHarvest{} },
	model.HarvestExploitation: func() HarvestForm { return exploitationHarvest{} },
	model.FormNull:            func() HarvestForm { return nullHarvest{} },
}

var competitionRegistry = map[string]func() CompetitionForm{
	model.CompetitionNoK:     func() CompetitionForm { return alphaCompetition{} },
	model.CompetitionMSProd:  func() CompetitionForm { return msProdCompetition{} },
	model.CompetitionAggProd: func() CompetitionForm { return aggProdCompetition{} },
	model.FormNull:           func() CompetitionForm { return nullCompetition{} },
}

var predationRegistry = map[string]func() PredationForm{
	model.PredationTypeI:   func() PredationForm { return typeIPredation{} },
	model.PredationTypeII:  func() PredationForm { return typeIIPredation{} },
	model.PredationTypeIII: func() PredationForm { return typeIIIPredation{} },
	model.FormNull:         func() PredationForm { return nullPredation{} },
}

// NewGrowth returns the named growth form.
func NewGrowth(name string) (GrowthForm, error) {
	f, ok := growthRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown growth form: %q", name)
	}
	return f(), nil
}

// NewHarvest returns the named harvest form.
func NewHarvest(name string) (HarvestForm, error) {
	f, ok := harvestRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown harvest form: %q", name)
	}
	return f(), nil
}

// NewCompetition returns the named competition form.
func NewCompetition(name string) (CompetitionForm, error) {
	f, ok := competitionRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown competition form: %q", name)
	}
	return f(), nil
}

// NewPredation returns the named predation form.
func NewPredation(name string) (PredationForm, error) {
	f, ok := predationRegistry[name]
	if !ok {
		return nil, fmt.Errorf("unknown predation form: %q", name)
	}
	return f(), nil
}

func vectorRanges(lower, upper []float64) []Range {
	ranges := make([]Range, len(lower))
	for i := range lower {
		ranges[i] = Range{Lower: lower[i], Upper: upper[i]}
	}
	return ranges
}

func matrixRanges(rows, cols int, lower, upper float64) []Range {
	ranges := make([]Range, rows*cols)
	for i := range ranges {
		ranges[i] = Range{Lower: lower, Upper: upper}
	}
	return ranges
}
