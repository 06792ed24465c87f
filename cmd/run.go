package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/seastate/biomassfit/internal/config"
	"github.com/seastate/biomassfit/internal/estimator"
	"github.com/seastate/biomassfit/internal/fitness"
	"github.com/seastate/biomassfit/internal/progress"
	"github.com/seastate/biomassfit/internal/runner"
)

var (
	scenarioPath string
	outDir       string
	algorithm    string
	swarmIters   int
	swarmPop     int
	swarmSeed    int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a parameter estimation",
	Long: `Loads a scenario, searches parameter space with the configured
algorithm and writes progress and run-stop files to the output directory.`,
	RunE: runEstimation,
}

func init() {
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML path (required)")
	runCmd.Flags().StringVar(&outDir, "out", "data", "Output directory for progress files")
	runCmd.Flags().StringVar(&algorithm, "algorithm", "", "Override the scenario's algorithm")
	runCmd.Flags().IntVar(&swarmIters, "iters", 500, "Swarm iterations per sub-run")
	runCmd.Flags().IntVar(&swarmPop, "pop", 20, "Swarm population size")
	runCmd.Flags().Int64Var(&swarmSeed, "seed", 1, "Swarm random seed")

	runCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(runCmd)
}

func runEstimation(cmd *cobra.Command, args []string) error {
	scenario, err := config.Load(scenarioPath)
	if err != nil {
		return err
	}
	cfg := scenario.Config
	if algorithm != "" {
		cfg.Minimizer = algorithm
	}

	sink, err := progress.NewFileSink(outDir)
	if err != nil {
		return err
	}

	est, err := estimator.New(cfg, sink)
	if err != nil {
		return err
	}
	if swarm, ok := est.(*estimator.Swarm); ok {
		swarm.MaxIterations = swarmIters
		swarm.PopulationSize = swarmPop
		swarm.Seed = swarmSeed
	}

	slog.Info("Starting estimation run",
		"scenario", scenario.Name,
		"algorithm", cfg.Minimizer,
		"species", cfg.NumSpecies,
		"guilds", cfg.NumGuilds,
		"years", cfg.RunLength+1,
	)

	// Interrupt maps onto cooperative cancellation; the run ends in
	// Cancelled with the best point found so far.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	completion := <-runner.Start(ctx, est, cfg).Done()
	if completion.Err != nil {
		return completion.Err
	}

	res := completion.Result
	fmt.Println(completion.Summary)
	fmt.Printf("Status: %s (%s)\n", res.Status, res.StopReason)
	fmt.Printf("Evaluations: %d\n", res.Evaluations)
	fmt.Printf("Best fitness: %g\n", fitness.AdjustForDisplay(res.BestFitness, cfg.ObjectiveCriterion))
	fmt.Printf("Elapsed: %s\n", res.Elapsed.Round(1e6))
	return nil
}
