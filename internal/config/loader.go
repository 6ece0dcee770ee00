package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/imamik/estopo/internal/topology"
)

// DefaultConfigFilename is the default configuration filename.
const DefaultConfigFilename = "estopo.yaml"

// Load loads, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadWithoutValidation loads and defaults a configuration file without
// validating it.
func LoadWithoutValidation(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// LoadFromBytes loads, defaults and validates a configuration from bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// parse decodes YAML into a Config. Unknown fields are rejected so that
// misspelled topology keys do not silently fall back to defaults.
func parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ResolveTopology returns the validated topology of the config.
func (c *Config) ResolveTopology() (*topology.Topology, error) {
	if c.TopologyFile == "" {
		return c.Topology.Resolve()
	}
	path := c.TopologyFile
	if !filepath.IsAbs(path) && c.dir != "" {
		path = filepath.Join(c.dir, path)
	}
	return topology.Load(path)
}

// FindConfigFile searches for a config file in common locations.
// It checks: current directory, then walks up to find estopo.yaml.
func FindConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	return findConfigFileFrom(cwd)
}

func findConfigFileFrom(dir string) (string, error) {
	for {
		path := filepath.Join(dir, DefaultConfigFilename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("config file %s not found", DefaultConfigFilename)
}

// Save writes a configuration to a file.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
