// Package config holds the run settings of the housetree job. Values come
// from Default, optionally overlaid by a YAML file, then by command-line
// flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned by Validate and Load.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Input       string `yaml:"input"`
	OutputDir   string `yaml:"output_dir"`
	DropLeading int    `yaml:"drop_leading"`

	Split  SplitConfig  `yaml:"split"`
	Model  ModelConfig  `yaml:"model"`
	Render RenderConfig `yaml:"render"`
	Chart  ChartConfig  `yaml:"chart"`
	Log    LogConfig    `yaml:"log"`
}

type SplitConfig struct {
	Ratio float64 `yaml:"ratio"`
	Seed  int64   `yaml:"seed"`
}

type ModelConfig struct {
	Estimator       string  `yaml:"estimator"` // "tree" or "forest"
	MaxDepth        int     `yaml:"max_depth"`
	MinSamplesSplit int     `yaml:"min_samples_split"`
	MinSamplesLeaf  int     `yaml:"min_samples_leaf"`
	Criterion       string  `yaml:"criterion"`
	MaxFeatures     int     `yaml:"max_features"`
	MinImpurityGain float64 `yaml:"min_impurity_decrease"`
	NEstimators     int     `yaml:"n_estimators"`
	Seed            int64   `yaml:"seed"`
}

type RenderConfig struct {
	Enabled   bool          `yaml:"enabled"`
	DotBinary string        `yaml:"dot_binary"`
	Format    string        `yaml:"format"`
	Timeout   time.Duration `yaml:"timeout"`
}

type ChartConfig struct {
	Enabled      bool    `yaml:"enabled"`
	WidthInches  float64 `yaml:"width_inches"`
	HeightInches float64 `yaml:"height_inches"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the settings of the reference run: a 90/10 split of the
// cleaned house price file, a single unrestricted gini tree, and PNG output.
func Default() Config {
	return Config{
		Input:       "./data/House-Price-Prediction-clean.csv",
		OutputDir:   "./outputs",
		DropLeading: 0,
		Split: SplitConfig{
			Ratio: 0.9,
			Seed:  42,
		},
		Model: ModelConfig{
			Estimator:       "tree",
			MinSamplesSplit: 2,
			MinSamplesLeaf:  1,
			Criterion:       "gini",
			NEstimators:     100,
			Seed:            1,
		},
		Render: RenderConfig{
			Enabled:   true,
			DotBinary: "dot",
			Format:    "png",
			Timeout:   30 * time.Second,
		},
		Chart: ChartConfig{
			Enabled:      true,
			WidthInches:  10,
			HeightInches: 6,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load returns Default overlaid with the YAML file at path. An empty path
// yields the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("%w: read %s: %v", ErrInvalidConfig, path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.Input == "" {
		errs = append(errs, errors.New("input is empty"))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir is empty"))
	}
	if c.DropLeading < 0 {
		errs = append(errs, fmt.Errorf("drop_leading %d < 0", c.DropLeading))
	}
	if math.IsNaN(c.Split.Ratio) || c.Split.Ratio <= 0 || c.Split.Ratio >= 1 {
		errs = append(errs, fmt.Errorf("split.ratio %v not in (0,1)", c.Split.Ratio))
	}
	switch c.Model.Estimator {
	case "tree", "forest":
	default:
		errs = append(errs, fmt.Errorf("model.estimator %q: want tree or forest", c.Model.Estimator))
	}
	switch c.Model.Criterion {
	case "gini", "entropy":
	default:
		errs = append(errs, fmt.Errorf("model.criterion %q: want gini or entropy", c.Model.Criterion))
	}
	if c.Model.MaxDepth < 0 || c.Model.MaxFeatures < 0 || c.Model.MinSamplesSplit < 0 || c.Model.MinSamplesLeaf < 0 {
		errs = append(errs, errors.New("model limits must be >= 0"))
	}
	if c.Model.Estimator == "forest" && c.Model.NEstimators < 1 {
		errs = append(errs, fmt.Errorf("model.n_estimators %d < 1", c.Model.NEstimators))
	}
	if c.Render.Enabled && strings.TrimSpace(c.Render.Format) == "" {
		errs = append(errs, errors.New("render.format is empty"))
	}
	if c.Render.Enabled && c.Render.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("render.timeout %s must be positive", c.Render.Timeout))
	}
	if c.Chart.Enabled && (c.Chart.WidthInches <= 0 || c.Chart.HeightInches <= 0) {
		errs = append(errs, errors.New("chart size must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// OutputPath joins name onto the output directory.
func (c Config) OutputPath(name string) string {
	return filepath.Join(c.OutputDir, name)
}
