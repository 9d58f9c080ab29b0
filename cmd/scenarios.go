package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"menuscript/pkg/script"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios [name]",
	Short: "List built-in scenarios, or print the steps of one",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			sc, err := script.Scenario(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %s\n", sc.Name, sc.Description)
			for i, op := range sc.Steps {
				fmt.Fprintf(out, "%3d  %s\n", i+1, op)
			}
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, name := range script.Scenarios() {
			sc, err := script.Scenario(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d steps\t%s\n", name, len(sc.Steps), sc.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}
