package forms

import "github.com/seastate/biomassfit/internal/model"

// Every growth form owns the growth-rate block; the logistic family adds
// the carrying-capacity block.

type linearGrowth struct{}

func (linearGrowth) Evaluate(i int, biomass float64, ps *ParameterSet) float64 {
	return ps.GrowthRate[i] * biomass
}

func (linearGrowth) ParameterRanges(cfg *model.EstimationConfig) []Range {
	return vectorRanges(cfg.GrowthRateMin, cfg.GrowthRateMax)
}

type logisticGrowth struct{}

func (logisticGrowth) Evaluate(i int, biomass float64, ps *ParameterSet) float64 {
	k := ps.CarryingCapacity[i]
	return ps.GrowthRate[i] * biomass * (1.0 - biomass/k)
}

func (logisticGrowth) ParameterRanges(cfg *model.EstimationConfig) []Range {
	ranges := vectorRanges(cfg.GrowthRateMin, cfg.GrowthRateMax)
	return append(ranges, vectorRanges(cfg.CarryingCapacityMin, cfg.CarryingCapacityMax)...)
}

type nullGrowth struct{}

func (nullGrowth) Evaluate(int, float64, *ParameterSet) float64 { return 0 }

func (nullGrowth) ParameterRanges(cfg *model.EstimationConfig) []Range {
	// The growth-rate block is always present in the layout, even when
	// the term itself is disabled.
	return vectorRanges(cfg.GrowthRateMin, cfg.GrowthRateMax)
}
