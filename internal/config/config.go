package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/pkbridge/erlab/internal/mcmc"
	"github.com/pkbridge/erlab/internal/model"
)

// Config holds one study analysis: where the data comes from, the model (or
// candidate models) to fit, sampler settings, and output destinations.
type Config struct {
	LogLevel string `toml:"log_level"`
	FitDir   string `toml:"fit_dir"`

	Dataset DatasetConfig `toml:"dataset"`
	Model   model.Spec    `toml:"model"`
	Models  []model.Spec  `toml:"models"` // candidates for compare
	Sampler mcmc.Config   `toml:"sampler"`
	Output  OutputConfig  `toml:"output"`
	Report  ReportConfig  `toml:"report"`
}

// DatasetConfig holds dataset source settings.
type DatasetConfig struct {
	Source   string             `toml:"source"` // registered source name
	Path     string             `toml:"path"`
	IDColumn string             `toml:"id_column"`
	Subjects int                `toml:"subjects"`
	Seed     uint64             `toml:"seed"`
	Params   map[string]float64 `toml:"params"`
}

// OutputConfig holds table destination settings.
type OutputConfig struct {
	Format   string  `toml:"format"` // "markdown", "csv", "json"
	Path     string  `toml:"path"`   // empty = stdout
	Detail   string  `toml:"detail"` // "minimal", "standard", "full"
	Interval float64 `toml:"interval"`
}

// ReportConfig holds book rendering settings.
type ReportConfig struct {
	Dir   string `toml:"dir"`
	Title string `toml:"title"`
}

// Default returns the configuration used when no study file is given.
func Default() Config {
	return Config{
		LogLevel: getenv("ERLAB_LOG_LEVEL", "info"),
		FitDir:   getenv("ERLAB_FIT_DIR", "fits"),
		Dataset:  DatasetConfig{Source: "csv", IDColumn: "id"},
		Sampler:  mcmc.DefaultConfig(),
		Output: OutputConfig{
			Format:   "markdown",
			Detail:   "standard",
			Interval: 0.9,
		},
		Report: ReportConfig{
			Dir:   "book",
			Title: "Bayesian Exposure-Response Analysis",
		},
	}
}

// Load reads a TOML study file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if c.Output.Interval <= 0 || c.Output.Interval >= 1 {
		return fmt.Errorf("output.interval %g outside (0,1)", c.Output.Interval)
	}
	if c.Dataset.Source == "" {
		return fmt.Errorf("dataset.source not set")
	}
	if c.Model.Family != "" {
		if err := c.Model.Validate(); err != nil {
			return err
		}
	}
	for i, m := range c.Models {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("models[%d]: %w", i, err)
		}
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
