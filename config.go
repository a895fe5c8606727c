package profilez

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config carries the aggregation policy toggles. Values are consulted at
// span close and at aggregation-node child creation; they do not change for
// a profiler's lifetime.
type Config struct {
	// RequireFrames defers root-span aggregation to the next frame close,
	// batching the roots emitted within one logical tick.
	RequireFrames bool `yaml:"require_frames"`

	// MaxChildren bounds each aggregation node's fan-out; sections beyond
	// the bound merge into the "(other)" child. Zero or negative disables
	// the bound.
	MaxChildren int `yaml:"max_children"`
}

// DefaultConfig returns the stock policy: immediate aggregation, fan-out
// bounded at 256.
func DefaultConfig() Config {
	return Config{
		RequireFrames: false,
		MaxChildren:   256,
	}
}

// LoadConfig reads a YAML policy file over DefaultConfig, so missing keys
// keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
