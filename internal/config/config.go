package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GRPCAddr         string `yaml:"grpc_addr"`
	HTTPAddr         string `yaml:"http_addr"`
	StoreDriver      string `yaml:"store_driver"`
	DataDir          string `yaml:"data_dir"`
	DatabaseURL      string `yaml:"database_url"`
	AuthToken        string `yaml:"auth_token"`
	RetentionDays    int    `yaml:"retention_days"`
	EnableReflection bool   `yaml:"enable_reflection"`
}

// Load builds the config from the optional YAML file named by DESKHUB_CONFIG,
// then applies environment overrides on top. Environment always wins.
func Load() (Config, error) {
	cfg := Config{
		GRPCAddr:      "127.0.0.1:50051",
		HTTPAddr:      "127.0.0.1:8080",
		StoreDriver:   "file",
		DataDir:       "./data",
		RetentionDays: 90,
	}

	if path := os.Getenv("DESKHUB_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.GRPCAddr = envOrDefault("GRPC_ADDR", cfg.GRPCAddr)
	cfg.HTTPAddr = envOrDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.StoreDriver = envOrDefault("STORE_DRIVER", cfg.StoreDriver)
	cfg.DataDir = envOrDefault("DATA_DIR", cfg.DataDir)
	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.AuthToken = envOrDefault("AUTH_TOKEN", cfg.AuthToken)
	cfg.RetentionDays = envIntOrDefault("RETENTION_DAYS", cfg.RetentionDays)
	cfg.EnableReflection = envBoolOrDefault("ENABLE_REFLECTION", cfg.EnableReflection)

	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 90
	}
	return cfg, nil
}

// ProvidersPath is where the user-owned provider credential file lives.
func (c Config) ProvidersPath() string {
	return filepath.Join(c.DataDir, "providers.jsonc")
}

// ThemesDir is the root directory extracted icon themes are stored under.
func (c Config) ThemesDir() string {
	return filepath.Join(c.DataDir, "icon-themes")
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func envBoolOrDefault(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}
