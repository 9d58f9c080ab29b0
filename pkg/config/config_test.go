package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFromEnvPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "menuscript.json")
	content := `{
	  "bus": {"kind": "memory", "menu_path": "/org/example/menu"},
	  "script": {"scenario": "model"},
	  "gateway": {"enabled": true, "host": "0.0.0.0", "port": 18800},
	  "logging": {"format": "json", "level": "debug", "add_source": true}
	}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("MENUSCRIPT_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Path != path {
		t.Fatalf("path = %q, want %q", cfg.Path, path)
	}
	if cfg.Bus.Kind != BusMemory {
		t.Fatalf("bus.kind = %q, want %q", cfg.Bus.Kind, BusMemory)
	}
	if cfg.Bus.MenuPath != "/org/example/menu" {
		t.Fatalf("bus.menu_path = %q, want /org/example/menu", cfg.Bus.MenuPath)
	}
	if cfg.Bus.MenuService != "com.canonical.test.menu" {
		t.Fatalf("bus.menu_service = %q, want default to survive", cfg.Bus.MenuService)
	}
	if cfg.Script.Scenario != "model" {
		t.Fatalf("script.scenario = %q, want model", cfg.Script.Scenario)
	}
	if got := cfg.Gateway.Addr(); got != "0.0.0.0:18800" {
		t.Fatalf("gateway addr = %q, want 0.0.0.0:18800", got)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging.format = %q, want %q", cfg.Logging.Format, "json")
	}
	if !cfg.Logging.AddSource {
		t.Fatal("logging.add_source = false, want true")
	}
}

func TestLoadConfigInvalidEnvPath(t *testing.T) {
	t.Setenv("MENUSCRIPT_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing config path")
	}
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	t.Setenv("MENUSCRIPT_CONFIG", "")
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Path != "" {
		t.Fatalf("path = %q, want empty", cfg.Path)
	}
	if cfg.Bus.Kind != BusSession {
		t.Fatalf("bus.kind = %q, want %q", cfg.Bus.Kind, BusSession)
	}
	if got := cfg.Gateway.Addr(); got != "127.0.0.1:18790" {
		t.Fatalf("gateway addr = %q, want 127.0.0.1:18790", got)
	}
}

func TestLoadConfigFallsBackToConfigDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, "config", "menuscript.json")
	if err := os.WriteFile(path, []byte(`{"bus": {"kind": "memory"}}`), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("MENUSCRIPT_CONFIG", "")
	t.Chdir(dir)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Bus.Kind != BusMemory {
		t.Fatalf("bus.kind = %q, want %q", cfg.Bus.Kind, BusMemory)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MENUSCRIPT_CONFIG", "")
	t.Chdir(t.TempDir())
	t.Setenv("MENUSCRIPT_BUS", "Memory")
	t.Setenv("MENUSCRIPT_SCENARIO", "menuchanges")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Bus.Kind != BusMemory {
		t.Fatalf("bus.kind = %q, want %q", cfg.Bus.Kind, BusMemory)
	}
	if cfg.Script.Scenario != "menuchanges" || cfg.Script.Path != "" {
		t.Fatalf("script = %+v, want scenario menuchanges only", cfg.Script)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown bus", mutate: func(c *Config) { c.Bus.Kind = "system" }},
		{name: "two script sources", mutate: func(c *Config) { c.Script = ScriptConfig{Path: "a.yaml", Scenario: "model"} }},
		{name: "port out of range", mutate: func(c *Config) { c.Gateway.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
}
