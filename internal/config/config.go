// Package config handles configuration loading and validation for netvault.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/netvault/netvault/pkg/bytesize"
)

// MetricsConfig holds configuration for the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config holds configuration for the upload server.
type Config struct {
	Listen        string        `yaml:"listen"`
	StoreDir      string        `yaml:"store_dir"`       // Directory for stored artifacts (default: /var/lib/netvault/nn)
	AuthToken     string        `yaml:"auth_token"`      // Bearer token for uploads (optional; empty disables auth)
	MaxUploadSize string        `yaml:"max_upload_size"` // Size string, e.g. "256MB"; "0" disables the limit
	LogLevel      string        `yaml:"log_level"`
	Metrics       MetricsConfig `yaml:"metrics"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	return &Config{
		Listen:        ":8080",
		StoreDir:      "/var/lib/netvault/nn",
		MaxUploadSize: "256MB",
		LogLevel:      "info",
		Metrics:       MetricsConfig{Enabled: true},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	// Apply defaults
	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.StoreDir == "" {
		cfg.StoreDir = "/var/lib/netvault/nn"
	}
	if cfg.MaxUploadSize == "" {
		cfg.MaxUploadSize = "256MB"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	// Expand home directory in store dir
	if strings.HasPrefix(cfg.StoreDir, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			cfg.StoreDir = filepath.Join(homeDir, cfg.StoreDir[2:])
		}
	}

	return cfg, nil
}

// MaxUploadBytes parses the configured upload size limit. Zero means no
// limit.
func (c *Config) MaxUploadBytes() (int64, error) {
	if c.MaxUploadSize == "" {
		return 0, nil
	}
	n, err := bytesize.Parse(c.MaxUploadSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max_upload_size: %w", err)
	}
	return n, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.StoreDir == "" {
		return fmt.Errorf("store_dir is required")
	}
	if _, err := c.MaxUploadBytes(); err != nil {
		return err
	}
	return nil
}
