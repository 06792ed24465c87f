package forms

import (
	"math"

	"github.com/seastate/biomassfit/internal/model"
)

// typeIPredation is a linear (Holling type I) functional response: prey
// loss proportional to the rho-weighted predator biomass.
type typeIPredation struct{}

func (typeIPredation) Evaluate(t, i int, biomass float64, ps *ParameterSet, agg *Aggregates) float64 {
	return biomass * rhoWeightedBiomass(t, i, ps, agg)
}

func (typeIPredation) ParameterRanges(cfg *model.EstimationConfig) []Range {
	n := cfg.NumUnits()
	return matrixRanges(n, n, cfg.PredationMin, cfg.PredationMax)
}

// typeIIPredation saturates the type I response with handling time.
type typeIIPredation struct{}

func (typeIIPredation) Evaluate(t, i int, biomass float64, ps *ParameterSet, agg *Aggregates) float64 {
	return biomass * rhoWeightedBiomass(t, i, ps, agg) / (1.0 + handlingSaturation(t, i, ps, agg))
}

func (typeIIPredation) ParameterRanges(cfg *model.EstimationConfig) []Range {
	n := cfg.NumUnits()
	ranges := matrixRanges(n, n, cfg.PredationMin, cfg.PredationMax)
	return append(ranges, matrixRanges(n, n, cfg.HandlingMin, cfg.HandlingMax)...)
}

// typeIIIPredation additionally raises prey biomass to an estimated
// per-species exponent.
type typeIIIPredation struct{}

func (typeIIIPredation) Evaluate(t, i int, biomass float64, ps *ParameterSet, agg *Aggregates) float64 {
	return math.Pow(biomass, ps.Exponent[i]) * rhoWeightedBiomass(t, i, ps, agg) /
		(1.0 + handlingSaturation(t, i, ps, agg))
}

func (typeIIIPredation) ParameterRanges(cfg *model.EstimationConfig) []Range {
	n := cfg.NumUnits()
	ranges := matrixRanges(n, n, cfg.PredationMin, cfg.PredationMax)
	ranges = append(ranges, matrixRanges(n, n, cfg.HandlingMin, cfg.HandlingMax)...)
	for i := 0; i < n; i++ {
		ranges = append(ranges, Range{Lower: cfg.ExponentMin, Upper: cfg.ExponentMax})
	}
	return ranges
}

type nullPredation struct{}

func (nullPredation) Evaluate(int, int, float64, *ParameterSet, *Aggregates) float64 { return 0 }

func (nullPredation) ParameterRanges(*model.EstimationConfig) []Range { return nil }

func rhoWeightedBiomass(t, i int, ps *ParameterSet, agg *Aggregates) float64 {
	_, n := ps.Predation.Dims()
	var sum float64
	for j := 0; j < n; j++ {
		sum += ps.Predation.At(i, j) * agg.SpeciesBiomass.At(t, j)
	}
	return sum
}

func handlingSaturation(t, i int, ps *ParameterSet, agg *Aggregates) float64 {
	_, n := ps.Handling.Dims()
	var sum float64
	for j := 0; j < n; j++ {
		sum += ps.Handling.At(i, j) * ps.Predation.At(i, j) * agg.SpeciesBiomass.At(t, j)
	}
	return sum
}
