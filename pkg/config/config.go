package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DBPath     string `yaml:"db_path"`
	Format     string `yaml:"format"`
	Pretty     bool   `yaml:"pretty"`
	StrictLoad bool   `yaml:"strict_load"`
	HTTPAddr   string `yaml:"http_addr"`
	GRPCAddr   string `yaml:"grpc_addr"`
	LogLevel   string `yaml:"log_level"`
}

// LoadConfig loads configuration from a YAML file if path is provided,
// otherwise from environment variables. Environment variables override
// values read from the file.
func LoadConfig(path string) (*Config, error) {
	cfg := Config{Pretty: true}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}

	// Set defaults if not provided
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.GRPCAddr == "" {
		cfg.GRPCAddr = ":9090"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	// Validate required fields
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("KEYBASE_DB is required (set via environment or config file)")
	}
	switch cfg.Format {
	case "", "json", "yaml":
	default:
		return nil, fmt.Errorf("invalid format %q (want json or yaml)", cfg.Format)
	}

	return &cfg, nil
}

// applyEnvOverrides allows environment variables to override YAML config values
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("KEYBASE_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("KEYBASE_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("GRPC_ADDR"); v != "" {
		cfg.GRPCAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if v := os.Getenv("KEYBASE_PRETTY"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid KEYBASE_PRETTY value: %w", err)
		}
		cfg.Pretty = pretty
	}
	if v := os.Getenv("KEYBASE_STRICT"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid KEYBASE_STRICT value: %w", err)
		}
		cfg.StrictLoad = strict
	}
	return nil
}
