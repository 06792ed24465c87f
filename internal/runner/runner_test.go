package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/seastate/biomassfit/internal/estimator"
	"github.com/seastate/biomassfit/internal/model"
	"github.com/seastate/biomassfit/internal/progress"
)

func runnerConfig() *model.EstimationConfig {
	return &model.EstimationConfig{
		NumSpecies:      2,
		NumGuilds:       1,
		RunLength:       2,
		GuildMembership: [][]int{{0, 1}},

		ObservedBiomassSpecies: mat.NewDense(3, 2, []float64{
			50, 80,
			52, 88,
			55, 95,
		}),
		ObservedBiomassGuilds: mat.NewDense(3, 1, []float64{130, 140, 150}),

		GrowthForm:      model.GrowthLogistic,
		HarvestForm:     model.FormNull,
		CompetitionForm: model.FormNull,
		PredationForm:   model.FormNull,

		ObjectiveCriterion: model.CriterionLeastSquares,
		Scaling:            model.ScalingMinMax,
		Minimizer:          estimator.SwarmName,

		UseStopAfterEvals: true,
		StopAfterEvals:    200,

		GrowthRateMin:       []float64{0, 0},
		GrowthRateMax:       []float64{0.5, 0.5},
		CarryingCapacityMin: []float64{100, 150},
		CarryingCapacityMax: []float64{300, 400},
	}
}

func waitDone(t *testing.T, r *Runner) Completion {
	t.Helper()
	select {
	case c := <-r.Done():
		return c
	case <-time.After(30 * time.Second):
		t.Fatal("estimation did not finish")
		return Completion{}
	}
}

func TestRunnerDeliversCompletion(t *testing.T) {
	est := estimator.NewSwarm(progress.Discard{})
	est.MaxIterations = 50

	r := Start(context.Background(), est, runnerConfig())
	c := waitDone(t, r)

	require.NoError(t, c.Err)
	require.NotNil(t, c.Result)
	assert.Equal(t, estimator.StatusCompleted, c.Result.Status)
	assert.NotEmpty(t, c.Summary)
}

func TestRunnerCancelStopsRun(t *testing.T) {
	cfg := runnerConfig()
	cfg.UseStopAfterEvals = false

	est := estimator.NewSwarm(progress.Discard{})
	// Pre-cancel so the run stops at its first evaluation regardless of
	// scheduling.
	est.Cancel()

	r := Start(context.Background(), est, cfg)
	c := waitDone(t, r)

	require.NoError(t, c.Err)
	require.NotNil(t, c.Result)
	assert.Equal(t, estimator.StatusCancelled, c.Result.Status)
	assert.Equal(t, estimator.StopCancelled, c.Result.StopReason)
}

func TestRunnerContextCancellation(t *testing.T) {
	cfg := runnerConfig()
	cfg.UseStopAfterEvals = false

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	est := estimator.NewSwarm(progress.Discard{})
	r := Start(ctx, est, cfg)
	c := waitDone(t, r)

	require.NoError(t, c.Err)
	require.NotNil(t, c.Result)
	assert.Equal(t, estimator.StatusCancelled, c.Result.Status)
}
