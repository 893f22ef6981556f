package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DESKHUB_CONFIG", "")
	t.Setenv("GRPC_ADDR", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("RETENTION_DAYS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GRPCAddr != "127.0.0.1:50051" || cfg.StoreDriver != "file" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.RetentionDays != 90 {
		t.Fatalf("retention default wrong: %d", cfg.RetentionDays)
	}
}

func TestLoadYAMLFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deskhub.yaml")
	content := "grpc_addr: 10.0.0.1:9999\ndata_dir: /var/lib/deskhub\nretention_days: 30\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DESKHUB_CONFIG", path)
	t.Setenv("GRPC_ADDR", "127.0.0.1:7777")
	t.Setenv("DATA_DIR", "")
	t.Setenv("RETENTION_DAYS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GRPCAddr != "127.0.0.1:7777" {
		t.Fatalf("env should override yaml, got %s", cfg.GRPCAddr)
	}
	if cfg.DataDir != "/var/lib/deskhub" {
		t.Fatalf("yaml value lost: %s", cfg.DataDir)
	}
	if cfg.RetentionDays != 30 {
		t.Fatalf("yaml retention lost: %d", cfg.RetentionDays)
	}
	if cfg.ProvidersPath() != "/var/lib/deskhub/providers.jsonc" {
		t.Fatalf("providers path wrong: %s", cfg.ProvidersPath())
	}
}

func TestLoadBadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deskhub.yaml")
	if err := os.WriteFile(path, []byte(":\n bad yaml ["), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("DESKHUB_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}
