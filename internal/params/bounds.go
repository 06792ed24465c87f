package params

import (
	"fmt"
	"math"

	"github.com/seastate/biomassfit/internal/forms"
	"github.com/seastate/biomassfit/internal/model"
)

// Bounds holds one lower/upper pair per scalar parameter, flattened in
// the codec's block order.
type Bounds struct {
	Lower []float64
	Upper []float64
}

// BuildBounds asks each active form for its block's ranges, in the fixed
// block order growth, harvest, competition, predation. The resulting
// length must match the codec layout; anything else is a configuration
// inconsistency and fails fast.
func BuildBounds(cfg *model.EstimationConfig) (*Bounds, error) {
	set, err := forms.NewSet(cfg)
	if err != nil {
		return nil, err
	}

	var ranges []forms.Range
	ranges = append(ranges, set.Growth.ParameterRanges(cfg)...)
	ranges = append(ranges, set.Harvest.ParameterRanges(cfg)...)
	ranges = append(ranges, set.Competition.ParameterRanges(cfg)...)
	ranges = append(ranges, set.Predation.ParameterRanges(cfg)...)

	if want := NewLayout(cfg).Len(); len(ranges) != want {
		return nil, fmt.Errorf("bounds: forms contributed %d ranges, layout wants %d", len(ranges), want)
	}
	if cfg.TotalNumParameters > 0 && len(ranges) != cfg.TotalNumParameters {
		return nil, fmt.Errorf("bounds: %d ranges derived but config declares %d parameters",
			len(ranges), cfg.TotalNumParameters)
	}

	b := &Bounds{
		Lower: make([]float64, len(ranges)),
		Upper: make([]float64, len(ranges)),
	}
	for i, r := range ranges {
		if r.Lower > r.Upper {
			return nil, fmt.Errorf("bounds: parameter %d has lower %g > upper %g", i, r.Lower, r.Upper)
		}
		b.Lower[i] = r.Lower
		b.Upper[i] = r.Upper
	}
	return b, nil
}

// Len is the number of bounded parameters.
func (b *Bounds) Len() int { return len(b.Lower) }

// StartPoint is the optimizer's starting vector: the midpoint of each
// pair, except that a pinned parameter (lower == upper) starts at the
// shared bound value exactly.
func (b *Bounds) StartPoint() []float64 {
	x := make([]float64, len(b.Lower))
	for i := range x {
		if b.Lower[i] == b.Upper[i] {
			x[i] = b.Lower[i]
		} else {
			x[i] = b.Lower[i] + (b.Upper[i]-b.Lower[i])/2.0
		}
	}
	return x
}

// Clamp projects a candidate into the bound box, returning a new slice.
func (b *Bounds) Clamp(x []float64) []float64 {
	clamped := make([]float64, len(x))
	for i := range x {
		clamped[i] = math.Max(b.Lower[i], math.Min(b.Upper[i], x[i]))
	}
	return clamped
}

// FromUnit maps a point in the unit box onto the bounds. Used by drivers
// whose underlying library only supports uniform scalar bounds.
func (b *Bounds) FromUnit(u []float64) []float64 {
	x := make([]float64, len(u))
	for i := range u {
		x[i] = b.Lower[i] + u[i]*(b.Upper[i]-b.Lower[i])
	}
	return x
}
