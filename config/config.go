// Package config loads the service configuration from a JSON or YAML file
// with optional K_ environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ndelcourt/optidispatch/core/metrics"
	"github.com/ndelcourt/optidispatch/core/optimizer"
	infrasource "github.com/ndelcourt/optidispatch/infra/source"
)

// PredictionConfig selects the estimator implementation.
type PredictionConfig struct {
	// Mode is "rules" or "blend". Blend mixes the rule estimator with a
	// static per-technician table loaded from StaticPath.
	Mode       string  `json:"mode"`
	RuleWeight float64 `json:"rule_weight"`
	StaticPath string  `json:"static_path"`
}

// SetDefaults applies the standard estimator settings.
func (c *PredictionConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = "rules"
	}
	if c.RuleWeight == 0 {
		c.RuleWeight = 0.7
	}
}

// Validate checks the estimator selection.
func (c PredictionConfig) Validate() error {
	switch c.Mode {
	case "rules", "blend":
	default:
		return fmt.Errorf("prediction: unknown mode %q", c.Mode)
	}
	if c.RuleWeight < 0 || c.RuleWeight > 1 {
		return fmt.Errorf("prediction: rule weight must be in [0,1]")
	}
	if c.Mode == "blend" && c.StaticPath == "" {
		return fmt.Errorf("prediction: blend mode requires static_path")
	}
	return nil
}

// SourceConfig selects where input collections are read from.
type SourceConfig struct {
	// Kind is "csv" or "postgres".
	Kind     string                     `json:"kind"`
	CSVDir   string                     `json:"csv_dir"`
	Postgres infrasource.PostgresConfig `json:"postgres"`
}

// SetDefaults applies the local-run source.
func (c *SourceConfig) SetDefaults() {
	if c.Kind == "" {
		c.Kind = "csv"
	}
	c.Postgres.SetDefaults()
}

// Validate checks the source selection.
func (c SourceConfig) Validate() error {
	switch c.Kind {
	case "csv":
		if c.CSVDir == "" {
			return fmt.Errorf("source: csv kind requires csv_dir")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("source: postgres kind requires a dsn")
		}
	default:
		return fmt.Errorf("source: unknown kind %q", c.Kind)
	}
	return nil
}

// RunLogConfig selects the run record store.
type RunLogConfig struct {
	// Kind is "none", "jsonl" or "sqlite".
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// SetDefaults disables run logging unless configured.
func (c *RunLogConfig) SetDefaults() {
	if c.Kind == "" {
		c.Kind = "none"
	}
}

// Validate checks the store selection.
func (c RunLogConfig) Validate() error {
	switch c.Kind {
	case "none":
	case "jsonl", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("runlog: %s kind requires a path", c.Kind)
		}
	default:
		return fmt.Errorf("runlog: unknown kind %q", c.Kind)
	}
	return nil
}

// ExportConfig controls result files written after a run.
type ExportConfig struct {
	AssignmentsCSV  string `json:"assignments_csv"`
	AssignmentsJSON string `json:"assignments_json"`
	WarningsCSV     string `json:"warnings_csv"`
}

// Config is the root configuration document.
type Config struct {
	Optimizer  optimizer.Config `json:"optimizer"`
	Prediction PredictionConfig `json:"prediction"`
	Source     SourceConfig     `json:"source"`
	Metrics    metrics.Config   `json:"metrics"`
	RunLog     RunLogConfig     `json:"runlog"`
	Export     ExportConfig     `json:"export"`
}

// Load reads the configuration file, applies K_ environment overrides,
// defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Optimizer.SetDefaults()
	c.Prediction.SetDefaults()
	c.Source.SetDefaults()
	c.Metrics.SetDefaults()
	c.RunLog.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}
	if err := c.Prediction.Validate(); err != nil {
		return err
	}
	if err := c.Source.Validate(); err != nil {
		return err
	}
	return c.RunLog.Validate()
}
