// Package config loads sheetsql settings from sheetsql.yaml, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/nao1215/sheetsql"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ConfigFileName is the config file looked up in the working directory.
const ConfigFileName = "sheetsql.yaml"

// Environment variables overriding the config file.
const (
	EnvSource     = "SHEETSQL_SOURCE"
	EnvDatabase   = "SHEETSQL_DATABASE"
	EnvNullPolicy = "SHEETSQL_NULL_POLICY"
)

// Config holds the settings of a sheetsql run. An empty DatabasePath means the
// database sits next to the workbook; Keys maps a table to its natural key columns.
type Config struct {
	SourcePath   string              `yaml:"source_path"`
	DatabasePath string              `yaml:"database_path,omitempty"`
	NullPolicy   string              `yaml:"null_policy,omitempty"`
	Keys         map[string][]string `yaml:"keys,omitempty"`
	Verbose      bool                `yaml:"verbose,omitempty"`
}

// Default returns the built-in settings. An empty DatabasePath means
// "next to the workbook".
func Default() *Config {
	return &Config{
		SourcePath: sheetsql.DefaultSourcePath,
		NullPolicy: sheetsql.NullEqual.String(),
	}
}

// Load reads a config file. Fields absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is chosen by the operator
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve builds the effective configuration: defaults, then the config file,
// then .env and environment variables. An explicit path must exist; the
// default sheetsql.yaml is optional. The result is not validated: callers
// apply their own overrides first and then call Validate.
func Resolve(explicitPath string) (*Config, error) {
	path := explicitPath
	if path == "" {
		path = ConfigFileName
	}

	cfg, err := Load(path)
	switch {
	case errors.Is(err, ErrConfigNotFound) && explicitPath == "":
		cfg = Default()
	case errors.Is(err, ErrConfigNotFound):
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, explicitPath)
	case err != nil:
		return nil, err
	}

	_ = godotenv.Load()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// ApplyEnv overrides fields from non-empty environment variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSource); ok && strings.TrimSpace(v) != "" {
		c.SourcePath = v
	}
	if v, ok := lookup(EnvDatabase); ok && strings.TrimSpace(v) != "" {
		c.DatabasePath = v
	}
	if v, ok := lookup(EnvNullPolicy); ok && strings.TrimSpace(v) != "" {
		c.NullPolicy = v
	}
}

// Validate checks values the YAML decoder cannot.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SourcePath) == "" {
		return errors.New("source_path cannot be empty")
	}
	if _, err := sheetsql.ParseNullPolicy(c.NullPolicy); err != nil {
		return fmt.Errorf("invalid null_policy: %w", err)
	}
	for table, key := range c.Keys {
		if len(key) == 0 {
			return fmt.Errorf("keys.%s: at least one column is required", table)
		}
	}
	return nil
}
