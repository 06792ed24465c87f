package fitness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"

	"github.com/seastate/biomassfit/internal/model"
	"github.com/seastate/biomassfit/internal/sim"
)

func feasible(data []float64, rows, cols int) *sim.State {
	return &sim.State{
		Units:    mat.NewDense(rows, cols, data),
		Feasible: true,
	}
}

func TestInfeasibleTrajectoryScoresSentinel(t *testing.T) {
	obs := mat.NewDense(2, 1, []float64{1, 2})
	st := &sim.State{Units: mat.NewDense(2, 1, []float64{1, 2}), Feasible: false}

	for _, c := range []model.ObjectiveCriterion{
		model.CriterionLeastSquares,
		model.CriterionModelEfficiency,
		model.CriterionMaximumLikelihood,
	} {
		got := Score(st, obs, c, model.ScalingMinMax)
		assert.Equal(t, 99999.0, got, "criterion %s", c)
	}
}

func TestLeastSquaresPerfectFitIsZero(t *testing.T) {
	obs := mat.NewDense(3, 2, []float64{1, 4, 2, 5, 3, 6})
	st := feasible([]float64{1, 4, 2, 5, 3, 6}, 3, 2)

	got := Score(st, obs, model.CriterionLeastSquares, model.ScalingMinMax)
	assert.InDelta(t, 0.0, got, 1e-12)
}

func TestModelEfficiencySignConvention(t *testing.T) {
	obs := mat.NewDense(3, 1, []float64{1, 2, 3})
	st := feasible([]float64{1, 2, 3}, 3, 1)

	// A perfect fit has MEF = 1; the minimized score is its negation.
	got := Score(st, obs, model.CriterionModelEfficiency, model.ScalingMinMax)
	assert.InDelta(t, -1.0, got, 1e-12)

	assert.InDelta(t, 1.0, AdjustForDisplay(got, model.CriterionModelEfficiency), 1e-12)
	// Other criteria pass through unadjusted.
	assert.Equal(t, got, AdjustForDisplay(got, model.CriterionLeastSquares))
}

func TestModelEfficiencyDegradesWithError(t *testing.T) {
	obs := mat.NewDense(3, 1, []float64{1, 2, 3})
	perfect := feasible([]float64{1, 2, 3}, 3, 1)
	worse := feasible([]float64{1, 3, 2}, 3, 1)

	fp := Score(perfect, obs, model.CriterionModelEfficiency, model.ScalingMinMax)
	fw := Score(worse, obs, model.CriterionModelEfficiency, model.ScalingMinMax)

	assert.Less(t, fp, fw)
}

func TestMaximumLikelihoodIgnoresScaling(t *testing.T) {
	obs := mat.NewDense(3, 2, []float64{1, 10, 2, 30, 3, 20})
	st := feasible([]float64{1.5, 12, 2.5, 28, 2.8, 21}, 3, 2)

	minMax := Score(st, obs, model.CriterionMaximumLikelihood, model.ScalingMinMax)
	mean := Score(st, obs, model.CriterionMaximumLikelihood, model.ScalingMean)

	// Likelihood works on original magnitudes, so the scaling choice has
	// no effect.
	assert.Equal(t, minMax, mean)
	assert.False(t, minMax == 0)
}

func TestLeastSquaresScoresRescaledSeries(t *testing.T) {
	obs := mat.NewDense(2, 1, []float64{0, 10})
	st := feasible([]float64{0, 20}, 2, 1)

	// Both columns rescale to [0, 1], so the raw factor-of-two error
	// vanishes after min-max scaling.
	got := Score(st, obs, model.CriterionLeastSquares, model.ScalingMinMax)
	assert.InDelta(t, 0.0, got, 1e-12)
}
