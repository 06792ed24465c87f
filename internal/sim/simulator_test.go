package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/seastate/biomassfit/internal/forms"
	"github.com/seastate/biomassfit/internal/model"
)

// logisticConfig is the deterministic growth-only scenario: 2 species in
// 1 guild, logistic growth, everything else disabled.
func logisticConfig() *model.EstimationConfig {
	return &model.EstimationConfig{
		NumSpecies:      2,
		NumGuilds:       1,
		RunLength:       2,
		GuildMembership: [][]int{{0, 1}},

		ObservedBiomassSpecies: mat.NewDense(3, 2, []float64{
			50, 80,
			0, 0,
			0, 0,
		}),
		ObservedBiomassGuilds: mat.NewDense(3, 1, []float64{130, 0, 0}),

		GrowthForm:      model.GrowthLogistic,
		HarvestForm:     model.FormNull,
		CompetitionForm: model.FormNull,
		PredationForm:   model.FormNull,
	}
}

func logisticParams() *forms.ParameterSet {
	return &forms.ParameterSet{
		GrowthRate:       []float64{0.1, 0.2},
		CarryingCapacity: []float64{100, 200},
	}
}

func mustSet(t *testing.T, cfg *model.EstimationConfig) *forms.Set {
	t.Helper()
	set, err := forms.NewSet(cfg)
	require.NoError(t, err)
	return set
}

func TestLogisticGrowthTrajectory(t *testing.T) {
	cfg := logisticConfig()

	st := Run(logisticParams(), mustSet(t, cfg), cfg)
	require.True(t, st.Feasible)

	// B_t = B_{t-1} + r*B_{t-1}*(1 - B_{t-1}/K)
	assert.InDelta(t, 52.5, st.Units.At(1, 0), 1e-9)
	assert.InDelta(t, 89.6, st.Units.At(1, 1), 1e-9)
	assert.InDelta(t, 54.99375, st.Units.At(2, 0), 1e-9)
	// 89.6 + 0.2*89.6*(1 - 89.6/200)
	assert.InDelta(t, 99.49184, st.Units.At(2, 1), 1e-9)
}

func TestGuildBiomassIsSumOfMembers(t *testing.T) {
	cfg := logisticConfig()

	st := Run(logisticParams(), mustSet(t, cfg), cfg)
	require.True(t, st.Feasible)

	years, _ := st.Units.Dims()
	for ti := 0; ti < years; ti++ {
		want := st.Units.At(ti, 0) + st.Units.At(ti, 1)
		assert.InDelta(t, want, st.Guilds.At(ti, 0), 1e-9, "year %d", ti)
	}
}

func TestInfeasibleTrajectoryStopsImmediately(t *testing.T) {
	cfg := logisticConfig()
	cfg.HarvestForm = model.HarvestCatch
	// Catch far above biomass drives year 1 negative.
	cfg.Catch = mat.NewDense(3, 2, []float64{
		1000, 1000,
		1000, 1000,
		1000, 1000,
	})

	st := Run(logisticParams(), mustSet(t, cfg), cfg)

	assert.False(t, st.Feasible)
	// Year 1 was never committed.
	assert.Zero(t, st.Units.At(1, 0))
}

func TestSystemCarryingCapacity(t *testing.T) {
	system, perGuild := SystemCarryingCapacity(
		[]float64{100, 200, 50},
		[][]int{{0, 1}, {2}},
	)

	// Regression pin: sum over guilds of the sum of member capacities.
	assert.Equal(t, 350.0, system)
	assert.Equal(t, []float64{300, 50}, perGuild)
}

func TestAggProdSimulatesGuildUnits(t *testing.T) {
	cfg := &model.EstimationConfig{
		NumSpecies:      3,
		NumGuilds:       2,
		RunLength:       1,
		GuildMembership: [][]int{{0, 1}, {2}},

		ObservedBiomassSpecies: mat.NewDense(2, 3, []float64{
			10, 20, 30,
			0, 0, 0,
		}),
		ObservedBiomassGuilds: mat.NewDense(2, 2, []float64{
			30, 30,
			0, 0,
		}),

		GrowthForm:      model.GrowthLogistic,
		HarvestForm:     model.FormNull,
		CompetitionForm: model.CompetitionAggProd,
		PredationForm:   model.FormNull,
	}

	ps := &forms.ParameterSet{
		GrowthRate:            []float64{0.1, 0.1},
		CarryingCapacity:      []float64{100, 100},
		CompetitionBetaGuilds: mat.NewDense(2, 2, []float64{0, 0, 0, 0}),
	}

	st := Run(ps, mustSet(t, cfg), cfg)
	require.True(t, st.Feasible)

	_, units := st.Units.Dims()
	assert.Equal(t, 2, units)
	// With zero competition each guild-unit grows logistically from the
	// observed guild biomass.
	assert.InDelta(t, 30+0.1*30*(1-30.0/100.0), st.Units.At(1, 0), 1e-9)
}
