// Package config loads the simulation configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/crowdflow/crowdflow/internal/core/crowd"
)

// Config describes a full simulation run: where the control server
// listens, how fast the host loop ticks, the arena, and the crowd
// parameters.
type Config struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`

	// TickRate is the host loop frequency in ticks per second.
	TickRate float64 `json:"tick_rate" yaml:"tick_rate"`

	// Scenario names the run; it seeds the deterministic RNG.
	Scenario string `json:"scenario" yaml:"scenario"`

	Arena  Arena        `json:"arena" yaml:"arena"`
	Params crowd.Params `json:"params" yaml:"params"`
}

// Arena is the simulation area in world units.
type Arena struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Default returns the configuration used when no file is supplied.
func Default() Config {
	return Config{
		Host:     "127.0.0.1",
		Port:     8090,
		TickRate: 40,
		Scenario: "default",
		Arena:    Arena{Width: 800, Height: 600},
		Params:   crowd.DefaultParams(),
	}
}

// Validate rejects configurations the engine or server cannot run.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in (0, 65535], got %d", c.Port)
	}
	if c.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be > 0, got %g", c.TickRate)
	}
	if c.Scenario == "" {
		return fmt.Errorf("scenario name is required")
	}
	if c.Arena.Width <= 0 || c.Arena.Height <= 0 {
		return fmt.Errorf("arena dimensions must be > 0, got %gx%g", c.Arena.Width, c.Arena.Height)
	}
	if err := c.Params.Validate(); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	return nil
}

// LoadYAML decodes a config from YAML, on top of defaults.
func LoadYAML(r io.Reader) (*Config, error) {
	c := Default()
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding yaml config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadJSON decodes a config from JSON, on top of defaults.
func LoadJSON(r io.Reader) (*Config, error) {
	c := Default()
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("decoding json config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadFile loads a config file, picking the decoder by extension.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		return LoadYAML(f)
	case ".json":
		return LoadJSON(f)
	default:
		return nil, fmt.Errorf("unsupported config extension %q", ext)
	}
}
