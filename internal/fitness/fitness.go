// Package fitness scores a simulated trajectory against observed biomass
// under one of three objective criteria. The score is always oriented for
// minimization.
package fitness

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/seastate/biomassfit/internal/model"
	"github.com/seastate/biomassfit/internal/rescale"
	"github.com/seastate/biomassfit/internal/sim"
)

// InfeasibleFitness is the sentinel returned for any infeasible
// trajectory, regardless of criterion. It acts as a penalty barrier that
// gradient-free optimizers can move away from without crashing.
const InfeasibleFitness = 99999.0

// Score converts a simulation result into the scalar the optimizer
// minimizes. Rescaling applies to Least Squares and Model Efficiency;
// Maximum Likelihood needs original-scale magnitudes and skips it.
func Score(st *sim.State, observed *mat.Dense, criterion model.ObjectiveCriterion, scaling model.ScalingMethod) float64 {
	if !st.Feasible {
		return InfeasibleFitness
	}

	switch criterion {
	case model.CriterionMaximumLikelihood:
		return negLogLikelihood(st.Units, observed)
	case model.CriterionModelEfficiency:
		est := rescale.Rescale(st.Units, scaling)
		obs := rescale.Rescale(observed, scaling)
		// MEF ranges over (-inf, 1] with 1 best. The search minimizes,
		// so the statistic is negated here; display code negates back.
		return -modelEfficiency(est, obs)
	case model.CriterionLeastSquares:
		fallthrough
	default:
		est := rescale.Rescale(st.Units, scaling)
		obs := rescale.Rescale(observed, scaling)
		return sumOfSquares(est, obs)
	}
}

// AdjustForDisplay undoes the Model Efficiency negation so reported
// values approach +1. Other criteria pass through.
func AdjustForDisplay(fitness float64, criterion model.ObjectiveCriterion) float64 {
	if criterion == model.CriterionModelEfficiency {
		return -fitness
	}
	return fitness
}

func sumOfSquares(est, obs *mat.Dense) float64 {
	rows, cols := est.Dims()
	var sum float64
	for t := 0; t < rows; t++ {
		for j := 0; j < cols; j++ {
			d := est.At(t, j) - obs.At(t, j)
			sum += d * d
		}
	}
	return sum
}

// modelEfficiency is 1 - SSE/SSD where SSD is the squared deviation of
// the observations from their overall mean.
func modelEfficiency(est, obs *mat.Dense) float64 {
	rows, cols := obs.Dims()
	mean := stat.Mean(obs.RawMatrix().Data, nil)

	var sse, ssd float64
	for t := 0; t < rows; t++ {
		for j := 0; j < cols; j++ {
			o := obs.At(t, j)
			d := o - est.At(t, j)
			sse += d * d
			dev := o - mean
			ssd += dev * dev
		}
	}
	if ssd == 0 {
		return math.Inf(-1)
	}
	return 1.0 - sse/ssd
}

// negLogLikelihood is the negated Gaussian log-likelihood, computed per
// series with the residual variance estimated from that series.
func negLogLikelihood(est, obs *mat.Dense) float64 {
	rows, cols := obs.Dims()
	var nll float64
	for j := 0; j < cols; j++ {
		var ss float64
		for t := 0; t < rows; t++ {
			r := obs.At(t, j) - est.At(t, j)
			ss += r * r
		}
		sigma2 := ss / float64(rows)
		if sigma2 <= 0 {
			// Perfect fit on this series contributes nothing.
			continue
		}
		nll += 0.5 * float64(rows) * (math.Log(2.0*math.Pi*sigma2) + 1.0)
	}
	return nll
}
