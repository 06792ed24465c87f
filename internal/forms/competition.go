package forms

import "github.com/seastate/biomassfit/internal/model"

// alphaCompetition is the capacity-free form: the term for species i is
// its biomass times the alpha-weighted sum of all species' biomass.
type alphaCompetition struct{}

func (alphaCompetition) Evaluate(t, i int, biomass float64, ps *ParameterSet, agg *Aggregates) float64 {
	_, n := ps.CompetitionAlpha.Dims()
	var weighted float64
	for j := 0; j < n; j++ {
		weighted += ps.CompetitionAlpha.At(i, j) * agg.SpeciesBiomass.At(t, j)
	}
	return biomass * weighted
}

func (alphaCompetition) ParameterRanges(cfg *model.EstimationConfig) []Range {
	n := cfg.NumUnits()
	return matrixRanges(n, n, cfg.CompetitionAlphaMin, cfg.CompetitionAlphaMax)
}

// msProdCompetition splits competition into a within-guild part scaled by
// the guild carrying capacity and a between-guild part scaled by the
// remaining system capacity.
type msProdCompetition struct{}

func (msProdCompetition) Evaluate(t, i int, biomass float64, ps *ParameterSet, agg *Aggregates) float64 {
	guild := agg.GuildOf[i]
	guildK := agg.GuildCarryingCapacity[guild]

	_, n := ps.CompetitionBetaSpecies.Dims()
	var within float64
	for j := 0; j < n; j++ {
		within += ps.CompetitionBetaSpecies.At(i, j) * agg.SpeciesBiomass.At(t, j)
	}

	_, g := ps.CompetitionBetaGuilds.Dims()
	var between float64
	for j := 0; j < g; j++ {
		if j == guild {
			continue
		}
		between += ps.CompetitionBetaGuilds.At(i, j) * agg.GuildBiomass.At(t, j)
	}

	r := ps.GrowthRate[i]
	term := r * biomass * within / guildK
	if rest := agg.SystemCarryingCapacity - guildK; rest > 0 {
		term += r * biomass * between / rest
	}
	return term
}

func (msProdCompetition) ParameterRanges(cfg *model.EstimationConfig) []Range {
	n := cfg.NumUnits()
	ranges := matrixRanges(n, n, cfg.CompetitionBetaMin, cfg.CompetitionBetaMax)
	return append(ranges, matrixRanges(n, cfg.NumGuilds, cfg.CompetitionBetaMin, cfg.CompetitionBetaMax)...)
}

// aggProdCompetition is the guild-aggregated form: only the beta-guild
// block is estimated and the simulated units are guilds.
type aggProdCompetition struct{}

func (aggProdCompetition) Evaluate(t, i int, biomass float64, ps *ParameterSet, agg *Aggregates) float64 {
	guild := agg.GuildOf[i]
	guildK := agg.GuildCarryingCapacity[guild]

	_, g := ps.CompetitionBetaGuilds.Dims()
	var between float64
	for j := 0; j < g; j++ {
		if j == guild {
			continue
		}
		between += ps.CompetitionBetaGuilds.At(i, j) * agg.GuildBiomass.At(t, j)
	}

	rest := agg.SystemCarryingCapacity - guildK
	if rest <= 0 {
		return 0
	}
	return ps.GrowthRate[i] * biomass * between / rest
}

func (aggProdCompetition) ParameterRanges(cfg *model.EstimationConfig) []Range {
	return matrixRanges(cfg.NumUnits(), cfg.NumGuilds, cfg.CompetitionBetaMin, cfg.CompetitionBetaMax)
}

type nullCompetition struct{}

func (nullCompetition) Evaluate(int, int, float64, *ParameterSet, *Aggregates) float64 { return 0 }

func (nullCompetition) ParameterRanges(*model.EstimationConfig) []Range { return nil }
