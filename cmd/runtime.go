package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"menuscript/pkg/bus"
	"menuscript/pkg/config"
	"menuscript/pkg/dbusconn"
	"menuscript/pkg/logger"
	"menuscript/pkg/script"
)

// loadRuntime loads config, applies command-line overrides and installs the
// process logger.
func loadRuntime(cmd *cobra.Command, component string, logOut io.Writer) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, nil, err
	}

	appLogger, err := logger.NewWriter(cfg.Logging, logOut)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	slog.SetDefault(appLogger)

	log := appLogger.With("component", component)
	if cfg.Path != "" {
		log.Debug("Loaded config", "path", cfg.Path)
	}
	return cfg, log, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("bus") {
		cfg.Bus.Kind, _ = flags.GetString("bus")
	}
	if flags.Changed("script") {
		path, _ := flags.GetString("script")
		cfg.Script = config.ScriptConfig{Path: path}
	}
	if flags.Changed("scenario") {
		name, _ := flags.GetString("scenario")
		cfg.Script = config.ScriptConfig{Scenario: name}
	}
	return cfg.Validate()
}

// loadScript resolves the configured script source. With neither a file nor
// a scenario the fixture starts with nothing to replay.
func loadScript(cfg config.ScriptConfig) (*script.Script, error) {
	switch {
	case cfg.Path != "":
		return script.LoadFile(cfg.Path)
	case cfg.Scenario != "":
		return script.Scenario(cfg.Scenario)
	default:
		return &script.Script{Name: "empty"}, nil
	}
}

// connection is the bus a fixture runs on. dbus is nil on the memory bus.
type connection struct {
	bus.Connection
	dbus   *dbusconn.Conn
	memory *bus.MessageBus
}

func (c connection) Close() error {
	if c.dbus != nil {
		return c.dbus.Close()
	}
	c.memory.Close()
	return nil
}

func openConnection(cfg *config.Config, log *slog.Logger) (connection, error) {
	if cfg.Bus.Kind == config.BusMemory {
		mb := bus.NewMessageBus()
		return connection{Connection: mb, memory: mb}, nil
	}

	conn, err := dbusconn.ConnectSession(log)
	if err != nil {
		return connection{}, err
	}
	return connection{Connection: conn, dbus: conn}, nil
}
