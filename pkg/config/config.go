package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envConfig   = "MENUSCRIPT_CONFIG"
	envBus      = "MENUSCRIPT_BUS"
	envScript   = "MENUSCRIPT_SCRIPT"
	envScenario = "MENUSCRIPT_SCENARIO"

	BusSession = "session"
	BusMemory  = "memory"

	DefaultGatewayHost = "127.0.0.1"
	DefaultGatewayPort = 18790
)

// errNoConfigFile marks that no candidate file exists, which is not an error
// for callers: defaults apply.
var errNoConfigFile = errors.New("no config file found")

// Config is the root runtime configuration loaded from menuscript.json.
type Config struct {
	Bus     BusConfig     `json:"bus"`
	Script  ScriptConfig  `json:"script"`
	Gateway GatewayConfig `json:"gateway"`
	Logging LoggingConfig `json:"logging,omitempty"`

	// Path is the file the config was read from, empty when defaults were used.
	Path string `json:"-"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// BusConfig selects the message bus and the names the fixture uses on it.
type BusConfig struct {
	Kind           string `json:"kind"`
	ControlService string `json:"control_service"`
	MenuService    string `json:"menu_service"`
	MenuPath       string `json:"menu_path"`
}

// ScriptConfig names the operations to replay: a file, or a built-in
// scenario when no file is given.
type ScriptConfig struct {
	Path     string `json:"path,omitempty"`
	Scenario string `json:"scenario,omitempty"`
}

// GatewayConfig configures the HTTP control gateway.
type GatewayConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// Addr returns host:port with defaults filled in.
func (g GatewayConfig) Addr() string {
	host := strings.TrimSpace(g.Host)
	if host == "" {
		host = DefaultGatewayHost
	}
	port := g.Port
	if port <= 0 {
		port = DefaultGatewayPort
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Bus: BusConfig{
			Kind:           BusSession,
			ControlService: "com.canonical.test",
			MenuService:    "com.canonical.test.menu",
			MenuPath:       "/com/canonical/test/menuscript/menu",
		},
		Gateway: GatewayConfig{Host: DefaultGatewayHost, Port: DefaultGatewayPort},
	}
}

// LoadConfig resolves menuscript.json, unmarshals it over the defaults, and
// applies environment overrides. A missing file is not an error.
func LoadConfig() (*Config, error) {
	cfg := Default()

	configPath, err := findConfigPath()
	switch {
	case errors.Is(err, errNoConfigFile):
	case err != nil:
		return nil, err
	default:
		content, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := json.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		cfg.Path = configPath
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the fixture cannot run with.
func (c *Config) Validate() error {
	switch c.Bus.Kind {
	case BusSession, BusMemory:
	default:
		return fmt.Errorf("bus.kind must be %q or %q, got %q", BusSession, BusMemory, c.Bus.Kind)
	}
	if c.Script.Path != "" && c.Script.Scenario != "" {
		return errors.New("script.path and script.scenario are mutually exclusive")
	}
	if c.Gateway.Port < 0 || c.Gateway.Port > 65535 {
		return fmt.Errorf("gateway.port out of range: %d", c.Gateway.Port)
	}
	return nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if kind := strings.TrimSpace(os.Getenv(envBus)); kind != "" {
		cfg.Bus.Kind = strings.ToLower(kind)
	}

	// Either script source replaces the other.
	if path := strings.TrimSpace(os.Getenv(envScript)); path != "" {
		cfg.Script = ScriptConfig{Path: path}
	}
	if scenario := strings.TrimSpace(os.Getenv(envScenario)); scenario != "" {
		cfg.Script = ScriptConfig{Scenario: scenario}
	}
}

// findConfigPath resolves the active config file location.
//
// Precedence is MENUSCRIPT_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfig)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfig, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "menuscript.json"),
		filepath.Join(cwd, "config", "menuscript.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", errNoConfigFile
}
