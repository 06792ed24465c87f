// Package config loads estimation scenarios from YAML files, with an
// optional per-species CSV table for guild assignment and parameter
// ranges. The loader produces a fully populated, validated
// model.EstimationConfig; the engine itself never touches storage.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/seastate/biomassfit/internal/model"
)

// Scenario is one loaded estimation request.
type Scenario struct {
	Name   string
	Config *model.EstimationConfig
	// Parameters is an optional explicit flat vector used by the
	// forward-simulation command; empty for estimation runs.
	Parameters []float64
}

type scalarRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type guildSpec struct {
	Name    string `yaml:"name"`
	Species []int  `yaml:"species"`
}

type scenarioFile struct {
	Name string `yaml:"name"`

	Model struct {
		GrowthForm      string `yaml:"growthForm"`
		HarvestForm     string `yaml:"harvestForm"`
		CompetitionForm string `yaml:"competitionForm"`
		PredationForm   string `yaml:"predationForm"`
	} `yaml:"model"`

	Objective struct {
		Criterion            string   `yaml:"criterion"`
		Scaling              string   `yaml:"scaling"`
		Minimizer            string   `yaml:"minimizer"`
		StopValue            *float64 `yaml:"stopValue"`
		StopAfterSeconds     *float64 `yaml:"stopAfterSeconds"`
		StopAfterEvaluations *int     `yaml:"stopAfterEvaluations"`
		SubRuns              int      `yaml:"subRuns"`
		ShowDiagnosticChart  bool     `yaml:"showDiagnosticChart"`
	} `yaml:"objective"`

	Guilds []guildSpec `yaml:"guilds"`

	Ranges struct {
		GrowthRateMin       []float64   `yaml:"growthRateMin"`
		GrowthRateMax       []float64   `yaml:"growthRateMax"`
		CarryingCapacityMin []float64   `yaml:"carryingCapacityMin"`
		CarryingCapacityMax []float64   `yaml:"carryingCapacityMax"`
		CatchabilityMin     []float64   `yaml:"catchabilityMin"`
		CatchabilityMax     []float64   `yaml:"catchabilityMax"`
		CompetitionAlpha    scalarRange `yaml:"competitionAlpha"`
		CompetitionBeta     scalarRange `yaml:"competitionBeta"`
		Predation           scalarRange `yaml:"predation"`
		Handling            scalarRange `yaml:"handling"`
		Exponent            scalarRange `yaml:"exponent"`
	} `yaml:"ranges"`

	Data struct {
		ObservedBiomassSpecies [][]float64 `yaml:"observedBiomassSpecies"`
		ObservedBiomassGuilds  [][]float64 `yaml:"observedBiomassGuilds"`
		Catch                  [][]float64 `yaml:"catch"`
		Effort                 [][]float64 `yaml:"effort"`
		Exploitation           [][]float64 `yaml:"exploitation"`
	} `yaml:"data"`

	TotalParameters int       `yaml:"totalParameters"`
	Parameters      []float64 `yaml:"parameters"`

	// SpeciesTable optionally names a CSV file (relative to the
	// scenario) whose rows override guild assignment and the per-species
	// ranges above.
	SpeciesTable string `yaml:"speciesTable"`
}

// SpeciesRow is one line of the optional species table.
type SpeciesRow struct {
	Name                string  `csv:"name"`
	Guild               string  `csv:"guild"`
	GrowthRateMin       float64 `csv:"growth_rate_min"`
	GrowthRateMax       float64 `csv:"growth_rate_max"`
	CarryingCapacityMin float64 `csv:"carrying_capacity_min"`
	CarryingCapacityMax float64 `csv:"carrying_capacity_max"`
	CatchabilityMin     float64 `csv:"catchability_min"`
	CatchabilityMax     float64 `csv:"catchability_max"`
}

// Load reads, assembles and validates a scenario file.
func Load(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}

	var sf scenarioFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	cfg, err := sf.build(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Scenario{Name: sf.Name, Config: cfg, Parameters: sf.Parameters}, nil
}

func (sf *scenarioFile) build(baseDir string) (*model.EstimationConfig, error) {
	if len(sf.Data.ObservedBiomassSpecies) == 0 {
		return nil, fmt.Errorf("scenario has no observed species biomass")
	}
	years := len(sf.Data.ObservedBiomassSpecies)
	numSpecies := len(sf.Data.ObservedBiomassSpecies[0])

	cfg := &model.EstimationConfig{
		NumSpecies: numSpecies,
		RunLength:  years - 1,

		GrowthForm:      sf.Model.GrowthForm,
		HarvestForm:     sf.Model.HarvestForm,
		CompetitionForm: sf.Model.CompetitionForm,
		PredationForm:   sf.Model.PredationForm,

		ObjectiveCriterion: model.ObjectiveCriterion(sf.Objective.Criterion),
		Scaling:            model.ScalingMethod(sf.Objective.Scaling),
		Minimizer:          sf.Objective.Minimizer,
		NumSubRuns:         sf.Objective.SubRuns,

		ShowDiagnosticChart: sf.Objective.ShowDiagnosticChart,
		TotalNumParameters:  sf.TotalParameters,

		GrowthRateMin:       sf.Ranges.GrowthRateMin,
		GrowthRateMax:       sf.Ranges.GrowthRateMax,
		CarryingCapacityMin: sf.Ranges.CarryingCapacityMin,
		CarryingCapacityMax: sf.Ranges.CarryingCapacityMax,
		CatchabilityMin:     sf.Ranges.CatchabilityMin,
		CatchabilityMax:     sf.Ranges.CatchabilityMax,
		CompetitionAlphaMin: sf.Ranges.CompetitionAlpha.Min,
		CompetitionAlphaMax: sf.Ranges.CompetitionAlpha.Max,
		CompetitionBetaMin:  sf.Ranges.CompetitionBeta.Min,
		CompetitionBetaMax:  sf.Ranges.CompetitionBeta.Max,
		PredationMin:        sf.Ranges.Predation.Min,
		PredationMax:        sf.Ranges.Predation.Max,
		HandlingMin:         sf.Ranges.Handling.Min,
		HandlingMax:         sf.Ranges.Handling.Max,
		ExponentMin:         sf.Ranges.Exponent.Min,
		ExponentMax:         sf.Ranges.Exponent.Max,
	}

	if v := sf.Objective.StopValue; v != nil {
		cfg.UseStopVal = true
		cfg.StopVal = *v
	}
	if v := sf.Objective.StopAfterSeconds; v != nil {
		cfg.UseStopAfterTime = true
		cfg.StopAfterTime = time.Duration(*v * float64(time.Second))
	}
	if v := sf.Objective.StopAfterEvaluations; v != nil {
		cfg.UseStopAfterEvals = true
		cfg.StopAfterEvals = *v
	}

	for _, g := range sf.Guilds {
		cfg.GuildMembership = append(cfg.GuildMembership, g.Species)
	}

	if sf.SpeciesTable != "" {
		rows, err := loadSpeciesTable(filepath.Join(baseDir, sf.SpeciesTable))
		if err != nil {
			return nil, err
		}
		applySpeciesTable(cfg, rows)
	}
	cfg.NumGuilds = len(cfg.GuildMembership)

	var err error
	if cfg.ObservedBiomassSpecies, err = toDense("observedBiomassSpecies", sf.Data.ObservedBiomassSpecies); err != nil {
		return nil, err
	}
	if len(sf.Data.ObservedBiomassGuilds) > 0 {
		if cfg.ObservedBiomassGuilds, err = toDense("observedBiomassGuilds", sf.Data.ObservedBiomassGuilds); err != nil {
			return nil, err
		}
	} else {
		cfg.ObservedBiomassGuilds = aggregateGuilds(cfg.ObservedBiomassSpecies, cfg.GuildMembership)
	}
	for name, spec := range map[string]struct {
		rows [][]float64
		dst  **mat.Dense
	}{
		"catch":        {sf.Data.Catch, &cfg.Catch},
		"effort":       {sf.Data.Effort, &cfg.Effort},
		"exploitation": {sf.Data.Exploitation, &cfg.Exploitation},
	} {
		if len(spec.rows) == 0 {
			continue
		}
		if *spec.dst, err = toDense(name, spec.rows); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func loadSpeciesTable(path string) ([]SpeciesRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open species table: %w", err)
	}
	defer f.Close()

	var rows []SpeciesRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse species table: %w", err)
	}
	return rows, nil
}

// applySpeciesTable rebuilds guild membership (guilds ordered by first
// appearance) and the per-species ranges from the table, replacing any
// inline values.
func applySpeciesTable(cfg *model.EstimationConfig, rows []SpeciesRow) {
	guildIndex := make(map[string]int)
	var membership [][]int

	n := len(rows)
	cfg.GrowthRateMin = make([]float64, n)
	cfg.GrowthRateMax = make([]float64, n)
	cfg.CarryingCapacityMin = make([]float64, n)
	cfg.CarryingCapacityMax = make([]float64, n)
	cfg.CatchabilityMin = make([]float64, n)
	cfg.CatchabilityMax = make([]float64, n)

	for s, row := range rows {
		g, ok := guildIndex[row.Guild]
		if !ok {
			g = len(membership)
			guildIndex[row.Guild] = g
			membership = append(membership, nil)
		}
		membership[g] = append(membership[g], s)

		cfg.GrowthRateMin[s] = row.GrowthRateMin
		cfg.GrowthRateMax[s] = row.GrowthRateMax
		cfg.CarryingCapacityMin[s] = row.CarryingCapacityMin
		cfg.CarryingCapacityMax[s] = row.CarryingCapacityMax
		cfg.CatchabilityMin[s] = row.CatchabilityMin
		cfg.CatchabilityMax[s] = row.CatchabilityMax
	}
	cfg.GuildMembership = membership
}

func toDense(name string, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("matrix %s is empty", name)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("matrix %s row %d has %d values, want %d", name, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// aggregateGuilds derives the guild matrix by summing member species
// columns when the scenario does not provide one.
func aggregateGuilds(species *mat.Dense, membership [][]int) *mat.Dense {
	years, _ := species.Dims()
	guilds := mat.NewDense(years, len(membership), nil)
	for t := 0; t < years; t++ {
		for g, members := range membership {
			var total float64
			for _, s := range members {
				total += species.At(t, s)
			}
			guilds.Set(t, g, total)
		}
	}
	return guilds
}
