// Package sim advances the multi-species population model year by year,
// combining the four pluggable term evaluators into a biomass trajectory.
package sim

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/seastate/biomassfit/internal/forms"
	"github.com/seastate/biomassfit/internal/model"
)

// State is one simulated trajectory. Units are species, or guilds when
// the competition form aggregates by guild.
type State struct {
	// Units is (RunLength+1) x NumUnits.
	Units *mat.Dense
	// Guilds is (RunLength+1) x NumGuilds; each year's row is recomputed
	// as the sum of member species, never carried forward independently.
	Guilds *mat.Dense
	// Feasible is false when any unit's biomass went negative or
	// non-finite mid-run. The matrices are then partial and must not be
	// scored.
	Feasible bool
}

// SystemCarryingCapacity sums member carrying capacities per guild and
// across the whole system. It runs once per evaluation, before the year
// loop; the result is held constant across the trajectory.
func SystemCarryingCapacity(carryingCapacity []float64, membership [][]int) (system float64, perGuild []float64) {
	perGuild = make([]float64, len(membership))
	for g, members := range membership {
		var guildK float64
		for _, s := range members {
			guildK += carryingCapacity[s]
		}
		perGuild[g] = guildK
		system += guildK
	}
	return system, perGuild
}

// Run simulates the trajectory for one decoded parameter set. The year-0
// row comes from the observed initial biomass. On the first negative or
// NaN biomass the run stops immediately and reports infeasible.
func Run(ps *forms.ParameterSet, set *forms.Set, cfg *model.EstimationConfig) *State {
	years := cfg.RunLength + 1
	numUnits := cfg.NumUnits()
	aggProd := cfg.CompetitionForm == model.CompetitionAggProd

	st := &State{
		Units:  mat.NewDense(years, numUnits, nil),
		Guilds: mat.NewDense(years, cfg.NumGuilds, nil),
	}

	var system float64
	var perGuild []float64
	if ps.CarryingCapacity != nil {
		system, perGuild = SystemCarryingCapacity(ps.CarryingCapacity, guildMembership(cfg, aggProd))
	} else {
		perGuild = make([]float64, cfg.NumGuilds)
	}

	agg := &forms.Aggregates{
		SystemCarryingCapacity: system,
		GuildCarryingCapacity:  perGuild,
		GuildOf:                unitGuilds(cfg, aggProd),
		SpeciesBiomass:         st.Units,
		GuildBiomass:           st.Guilds,
	}

	observed := cfg.ObservedBiomass()
	for i := 0; i < numUnits; i++ {
		st.Units.Set(0, i, observed.At(0, i))
	}
	for g := 0; g < cfg.NumGuilds; g++ {
		st.Guilds.Set(0, g, cfg.ObservedBiomassGuilds.At(0, g))
	}

	for t := 1; t < years; t++ {
		prev := t - 1
		for i := 0; i < numUnits; i++ {
			biomass := st.Units.At(prev, i)

			growth := set.Growth.Evaluate(i, biomass, ps)
			harvest := set.Harvest.Evaluate(prev, i, biomass, ps, cfg)
			competition := set.Competition.Evaluate(prev, i, biomass, ps, agg)
			predation := set.Predation.Evaluate(prev, i, biomass, ps, agg)

			biomass += growth - harvest - competition - predation

			if biomass < 0 || math.IsNaN(biomass) {
				return st
			}
			st.Units.Set(t, i, biomass)
		}
		sumGuilds(st, cfg, aggProd, t)
	}

	st.Feasible = true
	return st
}

// sumGuilds recomputes year t's guild row from the member units.
func sumGuilds(st *State, cfg *model.EstimationConfig, aggProd bool, t int) {
	if aggProd {
		// Units already are guilds.
		for g := 0; g < cfg.NumGuilds; g++ {
			st.Guilds.Set(t, g, st.Units.At(t, g))
		}
		return
	}
	for g, members := range cfg.GuildMembership {
		var total float64
		for _, s := range members {
			total += st.Units.At(t, s)
		}
		st.Guilds.Set(t, g, total)
	}
}

func guildMembership(cfg *model.EstimationConfig, aggProd bool) [][]int {
	if !aggProd {
		return cfg.GuildMembership
	}
	// Under AGG-PROD each guild-unit is its own member.
	membership := make([][]int, cfg.NumGuilds)
	for g := range membership {
		membership[g] = []int{g}
	}
	return membership
}

func unitGuilds(cfg *model.EstimationConfig, aggProd bool) []int {
	if !aggProd {
		return cfg.GuildOf()
	}
	guildOf := make([]int, cfg.NumGuilds)
	for g := range guildOf {
		guildOf[g] = g
	}
	return guildOf
}
