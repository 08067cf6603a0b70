// ABOUTME: Visualization command
// ABOUTME: Renders the dependents of an entity as a Graphviz graph or a terminal dashboard
package cli

import (
	"fmt"
	"os"

	"github.com/harperreed/kinship/viz"
	"github.com/spf13/cobra"
)

// NewVizCommand creates the viz command.
func NewVizCommand(opts *RootOptions) *cobra.Command {
	var (
		output    string
		dashboard bool
	)

	cmd := &cobra.Command{
		Use:   "viz <user|relationship> <id>",
		Short: "Visualize what references an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := parseRoot(args[0], args[1])
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if dashboard {
				stats, err := viz.GenerateDashboardStats(ctx, a.cascade, a.strength, root)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), viz.RenderDashboard(stats))
				return nil
			}

			dot, err := viz.NewGraphGenerator(a.cascade).GenerateDependentsGraph(ctx, root)
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), dot)
				return nil
			}
			if err := os.WriteFile(output, []byte(dot), 0644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("✓ Graph written to "+output))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write DOT to file instead of stdout")
	cmd.Flags().BoolVar(&dashboard, "dashboard", false, "show a terminal dashboard instead of a graph")
	return cmd
}
