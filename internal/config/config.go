// Package config provides configuration management.
package config

import (
	"sync"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"capwedge/internal/errors"
	"capwedge/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `hcl:"version,optional"`

	// Data contains parameter file locations
	Data *DataConfig `hcl:"data,block"`

	// Output contains output configuration
	Output *OutputConfig `hcl:"output,block"`

	// Logging contains logging configuration
	Logging *logging.Config `hcl:"logging,block"`
}

// DataConfig locates the parameter file tree
type DataConfig struct {
	// Dir is the root of the parameter file tree
	Dir string `hcl:"dir,optional"`

	// EnvironmentDir holds environment parameter files, relative to Dir
	EnvironmentDir string `hcl:"environment_dir,optional"`

	// PolicyDir holds policy parameter files, relative to Dir
	PolicyDir string `hcl:"policy_dir,optional"`

	// ScenarioFile is the YAML file listing scenarios to run
	ScenarioFile string `hcl:"scenario_file,optional"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// Dir is the directory result tables are written to
	Dir string `hcl:"dir,optional"`

	// RatePrecision is the number of decimal places for rate columns
	RatePrecision int `hcl:"rate_precision,optional"`
}

// Default returns a default configuration
func Default() *Config {
	lc := logging.DefaultConfig()
	return &Config{
		Version: "1.0",
		Data: &DataConfig{
			Dir:            "data",
			EnvironmentDir: "environment_parameters",
			PolicyDir:      "policy_parameters",
			ScenarioFile:   "policies.yml",
		},
		Output: &OutputConfig{
			Dir:           "output",
			RatePrecision: 6,
		},
		Logging: &lc,
	}
}

// Load reads configuration from an HCL file, filling unset blocks with defaults
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "decoding config file", err).
			WithContext("path", path)
	}

	def := Default()
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.Data == nil {
		cfg.Data = def.Data
	} else {
		if cfg.Data.Dir == "" {
			cfg.Data.Dir = def.Data.Dir
		}
		if cfg.Data.EnvironmentDir == "" {
			cfg.Data.EnvironmentDir = def.Data.EnvironmentDir
		}
		if cfg.Data.PolicyDir == "" {
			cfg.Data.PolicyDir = def.Data.PolicyDir
		}
		if cfg.Data.ScenarioFile == "" {
			cfg.Data.ScenarioFile = def.Data.ScenarioFile
		}
	}
	if cfg.Output == nil {
		cfg.Output = def.Output
	} else if cfg.Output.RatePrecision == 0 {
		cfg.Output.RatePrecision = def.Output.RatePrecision
	}
	if cfg.Logging == nil {
		cfg.Logging = def.Logging
	}

	return cfg, nil
}

var (
	mu      sync.RWMutex
	current = Default()
)

// Get returns the current configuration
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Set replaces the current configuration
func Set(cfg *Config) {
	mu.Lock()
	defer mu.Unlock()
	current = cfg
}
