package training

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/celiguard/pkg/errors"
)

// LogisticConfig holds the logistic regression hyperparameters.
type LogisticConfig struct {
	C       float64 `yaml:"c"`
	MaxIter int     `yaml:"max_iter"`
	Tol     float64 `yaml:"tol"`
}

// ForestConfig holds the random forest hyperparameters.
type ForestConfig struct {
	NEstimators    int `yaml:"n_estimators"`
	MaxDepth       int `yaml:"max_depth"`
	MinSamplesLeaf int `yaml:"min_samples_leaf"`
}

// Config drives a full training run: how much synthetic data to draw, how to
// split it, the candidate hyperparameters, and where the published artifact
// and run registry live.
type Config struct {
	Samples      int       `yaml:"samples"`
	Seed         int64     `yaml:"seed"`
	ClassWeights []float64 `yaml:"class_weights,omitempty"`

	SplitRatio float64 `yaml:"split_ratio"`
	SplitSeed  int64   `yaml:"split_seed"`

	Logistic LogisticConfig `yaml:"logistic_regression"`
	Forest   ForestConfig   `yaml:"random_forest"`

	ParamsPath     string `yaml:"params_path"`
	MetadataPath   string `yaml:"metadata_path"`
	RegistryPath   string `yaml:"registry_path"`
	ImportancePlot string `yaml:"importance_plot,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Samples:    1500,
		Seed:       42,
		SplitRatio: 0.2,
		SplitSeed:  42,
		Logistic: LogisticConfig{
			C:       1.0,
			MaxIter: 1000,
			Tol:     1e-4,
		},
		Forest: ForestConfig{
			NEstimators:    100,
			MaxDepth:       10,
			MinSamplesLeaf: 1,
		},
		ParamsPath:   "artifacts/model_params.json",
		MetadataPath: "artifacts/model_metadata.json",
		RegistryPath: "artifacts/runs.db",
	}
}

// LoadConfig reads a YAML config file, layering it over the defaults so a
// partial file only overrides what it names.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot produce a usable model.
func (c Config) Validate() error {
	if c.Samples < 10 {
		return errors.NewValueError("Config.Validate",
			fmt.Sprintf("samples must be at least 10, got %d", c.Samples))
	}
	if c.SplitRatio <= 0 || c.SplitRatio >= 1 {
		return errors.NewValueError("Config.Validate",
			fmt.Sprintf("split_ratio must be in (0, 1), got %g", c.SplitRatio))
	}
	if c.Logistic.C <= 0 {
		return errors.NewValueError("Config.Validate", "logistic_regression.c must be positive")
	}
	if c.Logistic.MaxIter < 1 {
		return errors.NewValueError("Config.Validate", "logistic_regression.max_iter must be at least 1")
	}
	if c.Forest.NEstimators < 1 {
		return errors.NewValueError("Config.Validate", "random_forest.n_estimators must be at least 1")
	}
	if c.ParamsPath == "" || c.MetadataPath == "" {
		return errors.NewValueError("Config.Validate", "artifact output paths must be set")
	}
	return nil
}
