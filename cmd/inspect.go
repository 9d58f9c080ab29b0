package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"menuscript/pkg/dbusconn"
	"menuscript/pkg/ui/render"
)

var (
	inspectService    string
	inspectPath       string
	inspectJSON       bool
	inspectAttributes bool
	inspectTimeout    time.Duration
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a menu and its actions as exported on the session bus",
	Long: "Subscribes to every group of the org.gtk.Menus model at --path, following section and " +
		"submenu links, and lists the org.gtk.Actions exported at the same path.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime(cmd, "cmd.inspect", os.Stderr)
		if err != nil {
			return err
		}
		service := inspectService
		if service == "" {
			service = cfg.Bus.MenuService
		}
		path := inspectPath
		if path == "" {
			path = cfg.Bus.MenuPath
		}

		conn, err := dbusconn.ConnectSession(log)
		if err != nil {
			return err
		}
		defer conn.Close()

		ctx, cancel := context.WithTimeout(context.Background(), inspectTimeout)
		defer cancel()

		in, err := conn.Inspect(ctx, service, path)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if inspectJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(in)
		}

		styles := render.DefaultStyles()
		fmt.Fprintln(out, render.Tree(in.Snapshot(), render.Options{
			Title:      service + " " + path,
			Attributes: inspectAttributes,
			Styles:     styles,
		}))
		fmt.Fprintln(out)
		fmt.Fprintln(out, render.Actions(in.Actions, styles))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectService, "service", "", "bus name exporting the menu (default from config)")
	inspectCmd.Flags().StringVar(&inspectPath, "path", "", "object path of the menu (default from config)")
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the raw menus and actions as JSON")
	inspectCmd.Flags().BoolVar(&inspectAttributes, "attributes", true, "include item attributes")
	inspectCmd.Flags().DurationVar(&inspectTimeout, "timeout", 5*time.Second, "how long to wait for the exporter")
}
