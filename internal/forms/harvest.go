package forms

import "github.com/seastate/biomassfit/internal/model"

// catchHarvest removes the recorded catch tonnage directly.
type catchHarvest struct{}

func (catchHarvest) Evaluate(t, i int, biomass float64, ps *ParameterSet, cfg *model.EstimationConfig) float64 {
	return cfg.Catch.At(t, i)
}

func (catchHarvest) ParameterRanges(*model.EstimationConfig) []Range { return nil }

// effortHarvest is the qE form: catchability times recorded effort times
// current biomass. It is the only harvest form that estimates parameters.
type effortHarvest struct{}

func (effortHarvest) Evaluate(t, i int, biomass float64, ps *ParameterSet, cfg *model.EstimationConfig) float64 {
	return ps.Catchability[i] * cfg.Effort.At(t, i) * biomass
}

func (effortHarvest) ParameterRanges(cfg *model.EstimationConfig) []Range {
	return vectorRanges(cfg.CatchabilityMin, cfg.CatchabilityMax)
}

// exploitationHarvest removes a recorded fraction of current biomass.
type exploitationHarvest struct{}

func (exploitationHarvest) Evaluate(t, i int, biomass float64, ps *ParameterSet, cfg *model.EstimationConfig) float64 {
	return cfg.Exploitation.At(t, i) * biomass
}

func (exploitationHarvest) ParameterRanges(*model.EstimationConfig) []Range { return nil }

type nullHarvest struct{}

func (nullHarvest) Evaluate(int, int, float64, *ParameterSet, *model.EstimationConfig) float64 {
	return 0
}

func (nullHarvest) ParameterRanges(*model.EstimationConfig) []Range { return nil }
