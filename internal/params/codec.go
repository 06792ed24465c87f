// Package params maps between the optimizer's flat parameter vector and
// the named biological parameter blocks. Block presence is determined
// only by the active functional forms; decode and flatten use the same
// fixed block order so a round trip is lossless.
package params

import (
	"fmt"

	"github.com/seastate/biomassfit/internal/forms"
	"github.com/seastate/biomassfit/internal/model"
	"gonum.org/v1/gonum/mat"
)

// Layout describes which blocks are present for a config and how large
// each one is, in decode order.
type Layout struct {
	// N is the per-block dimension: guild count under AGG-PROD, species
	// count otherwise.
	N int
	G int

	HasCarryingCapacity bool
	HasCatchability     bool
	HasAlpha            bool
	HasBetaSpecies      bool
	HasBetaGuilds       bool
	HasPredation        bool
	HasHandling         bool
	HasExponent         bool
}

// NewLayout derives the block layout from the config's form names.
func NewLayout(cfg *model.EstimationConfig) Layout {
	isRho := cfg.PredationForm == model.PredationTypeI ||
		cfg.PredationForm == model.PredationTypeII ||
		cfg.PredationForm == model.PredationTypeIII
	isHandling := cfg.PredationForm == model.PredationTypeII ||
		cfg.PredationForm == model.PredationTypeIII

	return Layout{
		N:                   cfg.NumUnits(),
		G:                   cfg.NumGuilds,
		HasCarryingCapacity: cfg.GrowthForm == model.GrowthLogistic,
		HasCatchability:     cfg.HarvestForm == model.HarvestEffort,
		HasAlpha:            cfg.CompetitionForm == model.CompetitionNoK,
		HasBetaSpecies:      cfg.CompetitionForm == model.CompetitionMSProd,
		HasBetaGuilds: cfg.CompetitionForm == model.CompetitionMSProd ||
			cfg.CompetitionForm == model.CompetitionAggProd,
		HasPredation: isRho,
		HasHandling:  isHandling,
		HasExponent:  cfg.PredationForm == model.PredationTypeIII,
	}
}

// Len is the total flattened parameter count across present blocks.
func (l Layout) Len() int {
	n := l.N // growth rate, always present
	if l.HasCarryingCapacity {
		n += l.N
	}
	if l.HasCatchability {
		n += l.N
	}
	if l.HasAlpha {
		n += l.N * l.N
	}
	if l.HasBetaSpecies {
		n += l.N * l.N
	}
	if l.HasBetaGuilds {
		n += l.N * l.G
	}
	if l.HasPredation {
		n += l.N * l.N
	}
	if l.HasHandling {
		n += l.N * l.N
	}
	if l.HasExponent {
		n += l.N
	}
	return n
}

// Decode consumes the flat vector strictly left to right into named
// blocks. Values are passed through untouched; bound membership is the
// optimizer's concern. A length mismatch is a contract violation.
func Decode(x []float64, cfg *model.EstimationConfig) (*forms.ParameterSet, error) {
	l := NewLayout(cfg)
	if len(x) != l.Len() {
		return nil, fmt.Errorf("decode: vector has %d parameters, layout wants %d", len(x), l.Len())
	}

	ps := &forms.ParameterSet{}
	offset := 0

	takeVector := func() []float64 {
		v := make([]float64, l.N)
		copy(v, x[offset:offset+l.N])
		offset += l.N
		return v
	}
	takeMatrix := func(cols int) *mat.Dense {
		m := mat.NewDense(l.N, cols, nil)
		for i := 0; i < l.N; i++ {
			for j := 0; j < cols; j++ {
				m.Set(i, j, x[offset])
				offset++
			}
		}
		return m
	}

	ps.GrowthRate = takeVector()
	if l.HasCarryingCapacity {
		ps.CarryingCapacity = takeVector()
	}
	if l.HasCatchability {
		ps.Catchability = takeVector()
	}
	if l.HasAlpha {
		ps.CompetitionAlpha = takeMatrix(l.N)
	}
	if l.HasBetaSpecies {
		ps.CompetitionBetaSpecies = takeMatrix(l.N)
	}
	if l.HasBetaGuilds {
		ps.CompetitionBetaGuilds = takeMatrix(l.G)
	}
	if l.HasPredation {
		ps.Predation = takeMatrix(l.N)
	}
	if l.HasHandling {
		ps.Handling = takeMatrix(l.N)
	}
	if l.HasExponent {
		ps.Exponent = takeVector()
	}

	return ps, nil
}

// Flatten is the inverse of Decode, emitting blocks in the same order.
func Flatten(ps *forms.ParameterSet, cfg *model.EstimationConfig) []float64 {
	l := NewLayout(cfg)
	x := make([]float64, 0, l.Len())

	putMatrix := func(m *mat.Dense) {
		r, c := m.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				x = append(x, m.At(i, j))
			}
		}
	}

	x = append(x, ps.GrowthRate...)
	if l.HasCarryingCapacity {
		x = append(x, ps.CarryingCapacity...)
	}
	if l.HasCatchability {
		x = append(x, ps.Catchability...)
	}
	if l.HasAlpha {
		putMatrix(ps.CompetitionAlpha)
	}
	if l.HasBetaSpecies {
		putMatrix(ps.CompetitionBetaSpecies)
	}
	if l.HasBetaGuilds {
		putMatrix(ps.CompetitionBetaGuilds)
	}
	if l.HasPredation {
		putMatrix(ps.Predation)
	}
	if l.HasHandling {
		putMatrix(ps.Handling)
	}
	if l.HasExponent {
		x = append(x, ps.Exponent...)
	}

	return x
}
