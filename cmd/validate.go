package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seastate/biomassfit/internal/config"
	"github.com/seastate/biomassfit/internal/params"
)

var validateScenarioPath string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a scenario file",
	Long:  `Loads a scenario, validates it and reports the derived parameter layout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scenario, err := config.Load(validateScenarioPath)
		if err != nil {
			return err
		}
		cfg := scenario.Config

		bounds, err := params.BuildBounds(cfg)
		if err != nil {
			return err
		}

		fmt.Printf("Scenario %q is valid.\n", scenario.Name)
		fmt.Printf("Species: %d, guilds: %d, years: %d\n", cfg.NumSpecies, cfg.NumGuilds, cfg.RunLength+1)
		fmt.Printf("Forms: growth=%s harvest=%s competition=%s predation=%s\n",
			cfg.GrowthForm, cfg.HarvestForm, cfg.CompetitionForm, cfg.PredationForm)
		fmt.Printf("Estimated parameters: %d\n", bounds.Len())
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateScenarioPath, "scenario", "", "Scenario YAML path (required)")
	validateCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(validateCmd)
}
