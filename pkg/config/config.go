// Package config loads the compile-time configuration: DIMA's growth curve
// and a handful of compiler toggles, read from an optional YAML document
// overlaid on documented defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DIMA defaults. GrowthFactor is an integer over 10, so block capacities
// grow as ceil(cap*GF/10).
const (
	DefaultBaseCapacity    uint64 = 64
	DefaultGrowthFactor    uint64 = 15 // interpreted as GF/10 == 1.5x growth
	DefaultEmitBranchHints bool   = true
)

// Config is the full set of values that influence DIMA and IR generation
// behavior without changing their specified semantics.
type Config struct {
	// DIMA.BaseCapacity is the capacity of the first block of every head.
	DIMA struct {
		BaseCapacity uint64 `yaml:"base_capacity"`
		GrowthFactor uint64 `yaml:"growth_factor"`
	} `yaml:"dima"`

	// EmitBranchHints controls whether IRGen attaches the (1,100) branch
	// weight annotation marking a catch's error path cold.
	EmitBranchHints bool `yaml:"emit_branch_hints"`
}

// Default returns the documented defaults, used whenever no configuration
// file is supplied.
func Default() Config {
	c := Config{EmitBranchHints: DefaultEmitBranchHints}
	c.DIMA.BaseCapacity = DefaultBaseCapacity
	c.DIMA.GrowthFactor = DefaultGrowthFactor
	return c
}

// Load reads a YAML configuration file, overlaying it on top of Default().
// A missing file is not an error: it just means the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: unable to read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unable to parse %q: %w", path, err)
	}

	if cfg.DIMA.BaseCapacity == 0 {
		cfg.DIMA.BaseCapacity = DefaultBaseCapacity
	}
	if cfg.DIMA.GrowthFactor == 0 {
		cfg.DIMA.GrowthFactor = DefaultGrowthFactor
	}

	return cfg, nil
}
