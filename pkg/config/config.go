// Package config loads and validates the cmdhist.yaml configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the validated service configuration.
type Config struct {
	// LoadRoot is the root of the review filesystem the load directories
	// live under.
	LoadRoot string `yaml:"load_root"`
	// NLETPath is the non-load event tracking file.
	NLETPath string `yaml:"nlet_path"`
	// OutputPath is the default destination for assembled histories.
	OutputPath string `yaml:"output_path"`
	// MaxChainLinks caps backward continuity walks.
	MaxChainLinks int `yaml:"max_chain_links"`
	// HTTPPort is the API listen port in serve mode.
	HTTPPort int `yaml:"http_port"`
	// ArchiveEnabled toggles the PostgreSQL archive store.
	ArchiveEnabled bool `yaml:"archive_enabled"`
}

// Stats summarizes the effective configuration for startup logging.
type Stats struct {
	LoadRoot       string
	MaxChainLinks  int
	ArchiveEnabled bool
}

// Stats returns a summary of the configuration.
func (c *Config) Stats() Stats {
	return Stats{
		LoadRoot:       c.LoadRoot,
		MaxChainLinks:  c.MaxChainLinks,
		ArchiveEnabled: c.ArchiveEnabled,
	}
}

// Initialize loads, validates, and returns ready-to-use configuration.
//
// Steps performed:
//  1. Load cmdhist.yaml from configDir
//  2. Apply default values
//  3. Validate
//  4. Return Config ready for use
func Initialize(configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"load_root", stats.LoadRoot,
		"max_chain_links", stats.MaxChainLinks,
		"archive_enabled", stats.ArchiveEnabled)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	path := filepath.Join(configDir, "cmdhist.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("No cmdhist.yaml found, using defaults", "path", path)
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LoadRoot == "" {
		cfg.LoadRoot = "/data/acis/LoadReviews"
	}
	if cfg.NLETPath == "" {
		cfg.NLETPath = filepath.Join(cfg.LoadRoot, "NonLoadTrackedEvents.txt")
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "CR_backstop_history.txt"
	}
	if cfg.MaxChainLinks == 0 {
		cfg.MaxChainLinks = 15
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 8080
	}
}

func validate(cfg *Config) error {
	if cfg.MaxChainLinks < 1 {
		return fmt.Errorf("max_chain_links must be positive, got %d", cfg.MaxChainLinks)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return fmt.Errorf("http_port %d out of range", cfg.HTTPPort)
	}
	if cfg.LoadRoot == "" {
		return fmt.Errorf("load_root must not be empty")
	}
	return nil
}
