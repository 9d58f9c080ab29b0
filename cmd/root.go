package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "menuscript",
	Short: "Scriptable menu fixture for org.gtk.Menus clients",
	Long: "menuscript exports a menu and its actions on the session bus and replays a script of " +
		"append/remove operations against them on request, so menu clients can be tested step by step.",
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("bus", "", "message bus: session or memory (overrides config)")
	flags.String("script", "", "script file to replay (YAML or JSON)")
	flags.String("scenario", "", "built-in scenario to replay")
	rootCmd.MarkFlagsMutuallyExclusive("script", "scenario")
}
