package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func validConfig() *EstimationConfig {
	return &EstimationConfig{
		NumSpecies:      2,
		NumGuilds:       1,
		RunLength:       2,
		GuildMembership: [][]int{{0, 1}},

		ObservedBiomassSpecies: mat.NewDense(3, 2, nil),
		ObservedBiomassGuilds:  mat.NewDense(3, 1, nil),

		GrowthForm:      GrowthLogistic,
		HarvestForm:     FormNull,
		CompetitionForm: FormNull,
		PredationForm:   FormNull,

		ObjectiveCriterion: CriterionLeastSquares,
		Scaling:            ScalingMinMax,
		Minimizer:          "Bees",

		GrowthRateMin:       []float64{0, 0},
		GrowthRateMax:       []float64{1, 1},
		CarryingCapacityMin: []float64{10, 10},
		CarryingCapacityMax: []float64{100, 100},
	}
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRejectsMissingForms(t *testing.T) {
	cfg := validConfig()
	cfg.PredationForm = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsGuildCountMismatch(t *testing.T) {
	cfg := validConfig()
	cfg.NumGuilds = 2
	cfg.ObservedBiomassGuilds = mat.NewDense(3, 2, nil)
	// Still only one membership list.
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnassignedSpecies(t *testing.T) {
	cfg := validConfig()
	cfg.GuildMembership = [][]int{{0}}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDoubleAssignedSpecies(t *testing.T) {
	cfg := validConfig()
	cfg.NumGuilds = 2
	cfg.GuildMembership = [][]int{{0, 1}, {1}}
	cfg.ObservedBiomassGuilds = mat.NewDense(3, 2, nil)
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsWrongMatrixShape(t *testing.T) {
	cfg := validConfig()
	cfg.ObservedBiomassSpecies = mat.NewDense(2, 2, nil)
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "observedBiomassSpecies")
}

func TestValidateRequiresHarvestData(t *testing.T) {
	cfg := validConfig()
	cfg.HarvestForm = HarvestCatch
	assert.Error(t, cfg.Validate())

	cfg.Catch = mat.NewDense(3, 2, nil)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiresCatchabilityForEffort(t *testing.T) {
	cfg := validConfig()
	cfg.HarvestForm = HarvestEffort
	cfg.Effort = mat.NewDense(3, 2, nil)
	// Catchability ranges absent.
	assert.Error(t, cfg.Validate())

	cfg.CatchabilityMin = []float64{0, 0}
	cfg.CatchabilityMax = []float64{1, 1}
	assert.NoError(t, cfg.Validate())
}

func TestNumUnitsFollowsCompetitionForm(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, 2, cfg.NumUnits())
	assert.Same(t, cfg.ObservedBiomassSpecies, cfg.ObservedBiomass())

	cfg.CompetitionForm = CompetitionAggProd
	assert.Equal(t, 1, cfg.NumUnits())
	assert.Same(t, cfg.ObservedBiomassGuilds, cfg.ObservedBiomass())
}

func TestGuildOf(t *testing.T) {
	cfg := validConfig()
	cfg.NumSpecies = 3
	cfg.NumGuilds = 2
	cfg.GuildMembership = [][]int{{0, 2}, {1}}

	assert.Equal(t, []int{0, 1, 0}, cfg.GuildOf())
}
