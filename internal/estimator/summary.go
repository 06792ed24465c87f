package estimator

import (
	"fmt"
	"strings"

	"github.com/seastate/biomassfit/internal/fitness"
	"github.com/seastate/biomassfit/internal/model"
)

// formatSummary builds the human-readable best-fitness report shown to
// the caller and written to the run-stop record. Blocks appear only for
// the forms that estimated them.
func formatSummary(cfg *model.EstimationConfig, res *Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Est'd Parameters: %d\n", len(res.BestVector))
	fmt.Fprintf(&b, "Total Parameters: %d\n", cfg.TotalNumParameters)
	fmt.Fprintf(&b, "Number of Runs: %d\n", res.SubRuns)
	fmt.Fprintf(&b, "Best Fitness value of all runs: %s\n",
		sci(fitness.AdjustForDisplay(res.BestFitness, cfg.ObjectiveCriterion)))
	fmt.Fprintf(&b, "Std dev of Best Fitness values from all runs: %s\n", sci(res.FitnessStdDev))

	ps := res.Best
	if ps == nil {
		b.WriteString("No parameters estimated.\n")
		return b.String()
	}

	b.WriteString("Estimated Parameters:\n")
	writeVector(&b, "Growth Rate", ps.GrowthRate, false)
	if cfg.GrowthForm == model.GrowthLogistic {
		writeVector(&b, "Carrying Capacity", ps.CarryingCapacity, true)
	}
	if cfg.HarvestForm == model.HarvestEffort {
		writeVector(&b, "Catchability", ps.Catchability, false)
	}
	switch cfg.CompetitionForm {
	case model.CompetitionNoK:
		writeMatrix(&b, "Competition (alpha)", res.CompetitionAlpha())
	case model.CompetitionMSProd:
		writeMatrix(&b, "Competition (beta::species)", res.CompetitionBetaSpecies())
		writeMatrix(&b, "Competition (beta::guilds)", res.CompetitionBetaGuilds())
	case model.CompetitionAggProd:
		writeMatrix(&b, "Competition (beta::guilds)", res.CompetitionBetaGuilds())
	}
	switch cfg.PredationForm {
	case model.PredationTypeI:
		writeMatrix(&b, "Predation (rho)", res.Predation())
	case model.PredationTypeII:
		writeMatrix(&b, "Predation (rho)", res.Predation())
		writeMatrix(&b, "Handling", res.Handling())
	case model.PredationTypeIII:
		writeMatrix(&b, "Predation (rho)", res.Predation())
		writeMatrix(&b, "Handling", res.Handling())
		writeVector(&b, "Predation Exponent", ps.Exponent, false)
	}

	return b.String()
}

// Matrix accessors on Result mirror the driver getters for summaries
// built before the result is installed on the driver.

func (r *Result) CompetitionAlpha() [][]float64 {
	if r.Best == nil {
		return nil
	}
	return matrixRows(r.Best.CompetitionAlpha)
}

func (r *Result) CompetitionBetaSpecies() [][]float64 {
	if r.Best == nil {
		return nil
	}
	return matrixRows(r.Best.CompetitionBetaSpecies)
}

func (r *Result) CompetitionBetaGuilds() [][]float64 {
	if r.Best == nil {
		return nil
	}
	return matrixRows(r.Best.CompetitionBetaGuilds)
}

func (r *Result) Predation() [][]float64 {
	if r.Best == nil {
		return nil
	}
	return matrixRows(r.Best.Predation)
}

func (r *Result) Handling() [][]float64 {
	if r.Best == nil {
		return nil
	}
	return matrixRows(r.Best.Handling)
}

func writeVector(b *strings.Builder, label string, values []float64, includeTotal bool) {
	fmt.Fprintf(b, "  %s: ", label)
	var total float64
	for i, v := range values {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(sci(v))
		total += v
	}
	b.WriteString("\n")
	if includeTotal {
		fmt.Fprintf(b, "  Total %s: %s\n", label, sci(total))
	}
}

func writeMatrix(b *strings.Builder, label string, rows [][]float64) {
	fmt.Fprintf(b, "  %s:\n", label)
	for _, row := range rows {
		b.WriteString("   ")
		for _, v := range row {
			b.WriteString(" " + sci(v))
		}
		b.WriteString("\n")
	}
}

func sci(v float64) string {
	return fmt.Sprintf("%.3e", v)
}
