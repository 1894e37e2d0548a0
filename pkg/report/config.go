package report

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BoxCoxGrid bounds the lambda search of the Box-Cox transform.
type BoxCoxGrid struct {
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
	Step float64 `yaml:"step" json:"step"`
}

// Config holds the analysis parameters. Defaults reproduce the published
// report; a YAML file may override individual fields.
type Config struct {
	Regions               []string   `yaml:"regions" json:"regions"`
	SignificanceLevel     float64    `yaml:"significanceLevel" json:"significanceLevel"`
	HistogramBins         int        `yaml:"histogramBins" json:"histogramBins"`
	ResidualFlagThreshold float64    `yaml:"residualFlagThreshold" json:"residualFlagThreshold"`
	BoxCox                BoxCoxGrid `yaml:"boxCox" json:"boxCox"`
	// MinAdjR2Gain is the smallest adjusted-R2 improvement that justifies
	// a larger model; below it the tie-break prefers fewer parameters.
	MinAdjR2Gain float64 `yaml:"minAdjR2Gain" json:"minAdjR2Gain"`
	OutputDir    string  `yaml:"outputDir" json:"outputDir"`
}

// DefaultConfig returns the parameters of the published analysis.
func DefaultConfig() Config {
	return Config{
		Regions:               []string{"Dresden", "Chemnitz", "Leipzig", "Halle"},
		SignificanceLevel:     0.05,
		HistogramBins:         20,
		ResidualFlagThreshold: 0.2,
		BoxCox:                BoxCoxGrid{Min: -2, Max: 2, Step: 0.05},
		MinAdjR2Gain:          0.005,
		OutputDir:             "report",
	}
}

// LoadConfig reads a YAML override file on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if len(c.Regions) == 0 {
		return fmt.Errorf("no target regions")
	}
	if c.SignificanceLevel <= 0 || c.SignificanceLevel >= 1 {
		return fmt.Errorf("significance level %g out of (0,1)", c.SignificanceLevel)
	}
	if c.BoxCox.Step <= 0 || c.BoxCox.Min >= c.BoxCox.Max {
		return fmt.Errorf("box-cox grid [%g,%g] step %g is invalid", c.BoxCox.Min, c.BoxCox.Max, c.BoxCox.Step)
	}
	if c.HistogramBins < 2 {
		return fmt.Errorf("histogram bins %d too small", c.HistogramBins)
	}
	return nil
}
