package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"menuscript/pkg/dbusconn"
)

var (
	ctlService string
	ctlTimeout time.Duration
)

var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Call the control surface of a running fixture",
}

// remoteCommand builds a ctl subcommand that calls fn on the fixture.
func remoteCommand(use, short string, args cobra.PositionalArgs, fn func(ctx context.Context, rc *dbusconn.RemoteControl, cmd *cobra.Command, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadRuntime(cmd, "cmd.ctl", os.Stderr)
			if err != nil {
				return err
			}
			service := ctlService
			if service == "" {
				service = cfg.Bus.ControlService
			}

			conn, err := dbusconn.ConnectSession(log)
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(context.Background(), ctlTimeout)
			defer cancel()
			return fn(ctx, conn.RemoteControl(service), cmd, args)
		},
	}
}

// parseSteps accepts a step count for walk; no argument means one step.
func parseSteps(args []string) (int32, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("steps must be an int32: %w", err)
	}
	return int32(steps), nil
}

func init() {
	rootCmd.AddCommand(ctlCmd)
	ctlCmd.PersistentFlags().StringVar(&ctlService, "service", "", "control service name (default from config)")
	ctlCmd.PersistentFlags().DurationVar(&ctlTimeout, "timeout", 10*time.Second, "call timeout")

	ctlCmd.AddCommand(
		remoteCommand("publish", "Publish the menu", cobra.NoArgs,
			func(ctx context.Context, rc *dbusconn.RemoteControl, _ *cobra.Command, _ []string) error {
				return rc.PublishMenu(ctx)
			}),
		remoteCommand("unpublish", "Withdraw the menu and rewind the script", cobra.NoArgs,
			func(ctx context.Context, rc *dbusconn.RemoteControl, _ *cobra.Command, _ []string) error {
				return rc.UnpublishMenu(ctx)
			}),
		remoteCommand("quit", "Stop the fixture", cobra.NoArgs,
			func(ctx context.Context, rc *dbusconn.RemoteControl, _ *cobra.Command, _ []string) error {
				return rc.Quit(ctx)
			}),
		remoteCommand("walk [steps]", "Apply the next operations; -1 applies all", cobra.MaximumNArgs(1),
			func(ctx context.Context, rc *dbusconn.RemoteControl, _ *cobra.Command, args []string) error {
				steps, err := parseSteps(args)
				if err != nil {
					return err
				}
				return rc.Walk(ctx, steps)
			}),
		remoteCommand("pop", "Print the oldest unread action activation", cobra.NoArgs,
			func(ctx context.Context, rc *dbusconn.RemoteControl, cmd *cobra.Command, _ []string) error {
				name, err := rc.PopActivatedAction(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), name)
				return nil
			}),
	)
}
