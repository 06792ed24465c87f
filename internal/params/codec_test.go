package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seastate/biomassfit/internal/model"
)

// fullConfig activates every optional block: logistic growth, effort
// harvest, MS-PROD competition and Type III predation.
func fullConfig() *model.EstimationConfig {
	return &model.EstimationConfig{
		NumSpecies: 3,
		NumGuilds:  2,

		GrowthForm:      model.GrowthLogistic,
		HarvestForm:     model.HarvestEffort,
		CompetitionForm: model.CompetitionMSProd,
		PredationForm:   model.PredationTypeIII,

		GrowthRateMin:       []float64{0, 0, 0},
		GrowthRateMax:       []float64{1, 1, 1},
		CarryingCapacityMin: []float64{10, 20, 30},
		CarryingCapacityMax: []float64{100, 200, 300},
		CatchabilityMin:     []float64{0, 0, 0},
		CatchabilityMax:     []float64{0.5, 0.5, 0.5},
		CompetitionBetaMin:  0,
		CompetitionBetaMax:  1,
		PredationMin:        0,
		PredationMax:        0.1,
		HandlingMin:         0,
		HandlingMax:         2,
		ExponentMin:         1,
		ExponentMax:         3,
	}
}

func TestLayoutLen(t *testing.T) {
	cfg := fullConfig()
	l := NewLayout(cfg)

	// r(3) + K(3) + q(3) + betaS(9) + betaG(6) + rho(9) + h(9) + exp(3)
	assert.Equal(t, 45, l.Len())
}

func TestLayoutAggProdUsesGuildDimension(t *testing.T) {
	cfg := fullConfig()
	cfg.CompetitionForm = model.CompetitionAggProd
	cfg.HarvestForm = model.FormNull
	cfg.PredationForm = model.FormNull

	l := NewLayout(cfg)
	assert.Equal(t, 2, l.N)
	// r(2) + K(2) + betaG(2x2)
	assert.Equal(t, 8, l.Len())
}

func TestDecodeFlattenRoundTrip(t *testing.T) {
	cfg := fullConfig()
	l := NewLayout(cfg)

	x := make([]float64, l.Len())
	for i := range x {
		x[i] = float64(i) + 0.25
	}

	ps, err := Decode(x, cfg)
	require.NoError(t, err)

	// Spot-check block placement: growth first, then K.
	assert.Equal(t, []float64{0.25, 1.25, 2.25}, ps.GrowthRate)
	assert.Equal(t, []float64{3.25, 4.25, 5.25}, ps.CarryingCapacity)
	require.NotNil(t, ps.CompetitionBetaGuilds)
	r, c := ps.CompetitionBetaGuilds.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)

	assert.Equal(t, x, Flatten(ps, cfg))
}

func TestDecodeRejectsLengthMismatch(t *testing.T) {
	cfg := fullConfig()

	_, err := Decode(make([]float64, 7), cfg)
	assert.Error(t, err)
}

func TestBuildBoundsMatchesLayout(t *testing.T) {
	cfg := fullConfig()

	b, err := BuildBounds(cfg)
	require.NoError(t, err)
	assert.Equal(t, NewLayout(cfg).Len(), b.Len())

	// First entries are the growth-rate block in species order.
	assert.Equal(t, 0.0, b.Lower[0])
	assert.Equal(t, 1.0, b.Upper[0])
	// Then carrying capacity.
	assert.Equal(t, 10.0, b.Lower[3])
	assert.Equal(t, 100.0, b.Upper[3])
}

func TestBuildBoundsRejectsDeclaredCountMismatch(t *testing.T) {
	cfg := fullConfig()
	cfg.TotalNumParameters = 7

	_, err := BuildBounds(cfg)
	assert.Error(t, err)
}

func TestStartPoint(t *testing.T) {
	b := &Bounds{
		Lower: []float64{0, 5, 2},
		Upper: []float64{10, 5, 4},
	}

	x := b.StartPoint()

	assert.Equal(t, 5.0, x[0])
	// A pinned parameter starts at the shared bound exactly, not a
	// midpoint.
	assert.Equal(t, 5.0, x[1])
	assert.Equal(t, 3.0, x[2])
}

func TestClampAndFromUnit(t *testing.T) {
	b := &Bounds{
		Lower: []float64{0, -1},
		Upper: []float64{1, 1},
	}

	assert.Equal(t, []float64{1, -1}, b.Clamp([]float64{3, -7}))
	assert.Equal(t, []float64{0.5, 0}, b.FromUnit([]float64{0.5, 0.5}))
	assert.Equal(t, []float64{0, -1}, b.FromUnit([]float64{0, 0}))
	assert.Equal(t, []float64{1, 1}, b.FromUnit([]float64{1, 1}))
}
