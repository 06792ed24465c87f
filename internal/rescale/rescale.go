// Package rescale normalizes [year][series] biomass matrices so that
// series with very different magnitudes contribute comparably to the
// fitness score. Each column is rescaled independently.
package rescale

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/seastate/biomassfit/internal/model"
)

// Rescale applies the named method per column. Unrecognized method names
// silently fall back to min-max.
//
// A degenerate column (max == min) would divide by zero; the fallback is
// deterministic: the whole column rescales to 0.
func Rescale(m mat.Matrix, method model.ScalingMethod) *mat.Dense {
	switch method {
	case model.ScalingMean:
		return rescaleColumns(m, func(col []float64) (center, den float64) {
			return stat.Mean(col, nil), floats.Max(col) - floats.Min(col)
		})
	case model.ScalingMinMax:
		return minMax(m)
	default:
		return minMax(m)
	}
}

func minMax(m mat.Matrix) *mat.Dense {
	return rescaleColumns(m, func(col []float64) (center, den float64) {
		min := floats.Min(col)
		return min, floats.Max(col) - min
	})
}

// rescaleColumns computes (x - center) / den per column. The mean method
// deliberately divides by the min-max range rather than the standard
// deviation; that range normalization is the specified behavior.
func rescaleColumns(m mat.Matrix, stats func(col []float64) (center, den float64)) *mat.Dense {
	rows, cols := m.Dims()
	out := mat.NewDense(rows, cols, nil)
	col := make([]float64, rows)

	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)
		center, den := stats(col)
		if den == 0 {
			// Degenerate series: zero-fill instead of dividing by zero.
			continue
		}
		for t := 0; t < rows; t++ {
			out.Set(t, j, (col[t]-center)/den)
		}
	}
	return out
}
