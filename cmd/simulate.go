package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/seastate/biomassfit/internal/config"
	"github.com/seastate/biomassfit/internal/forms"
	"github.com/seastate/biomassfit/internal/params"
	"github.com/seastate/biomassfit/internal/sim"
)

var (
	simScenarioPath string
	simOutPath      string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Forward-run the population model",
	Long: `Simulates the biomass trajectory for the scenario's explicit parameter
vector (or the bounds midpoint when none is given) and writes it as CSV.`,
	RunE: runSimulation,
}

func init() {
	simulateCmd.Flags().StringVar(&simScenarioPath, "scenario", "", "Scenario YAML path (required)")
	simulateCmd.Flags().StringVar(&simOutPath, "out", "", "Output CSV path (default stdout)")

	simulateCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	scenario, err := config.Load(simScenarioPath)
	if err != nil {
		return err
	}
	cfg := scenario.Config

	vector := scenario.Parameters
	if len(vector) == 0 {
		bounds, err := params.BuildBounds(cfg)
		if err != nil {
			return err
		}
		vector = bounds.StartPoint()
	}

	ps, err := params.Decode(vector, cfg)
	if err != nil {
		return err
	}
	set, err := forms.NewSet(cfg)
	if err != nil {
		return err
	}

	st := sim.Run(ps, set, cfg)
	if !st.Feasible {
		return fmt.Errorf("trajectory is infeasible: biomass went negative or non-finite")
	}

	out := os.Stdout
	if simOutPath != "" {
		f, err := os.Create(simOutPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	years, units := st.Units.Dims()
	for t := 0; t < years; t++ {
		fmt.Fprintf(out, "%d", t)
		for i := 0; i < units; i++ {
			fmt.Fprintf(out, ", %g", st.Units.At(t, i))
		}
		fmt.Fprintln(out)
	}
	return nil
}
