// ABOUTME: Cascading delete commands
// ABOUTME: delete removes a user or relationship with its dependents; plan previews the cascade
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/viz"
	"github.com/spf13/cobra"
)

// parseRoot turns "<type> <id>" arguments into a cascade root.
func parseRoot(kind, id string) (models.Ref, error) {
	switch models.Kind(kind) {
	case models.KindUser, models.KindRelationship:
		return models.Ref{ID: id, Type: models.Kind(kind)}, nil
	default:
		return models.Ref{}, fmt.Errorf("cannot delete a %q: must be user or relationship", kind)
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "delete <user|relationship> <id>",
		Short: "Delete an entity and everything that references it",
		Long: `Delete removes the bookmarks, adjustments, and actions that reference the
entity, then the entity itself. If any step fails the entity is kept and the
command can be re-run to finish the job.`,
		Args: cobra.ExactArgs(2),
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

			if dryRun {
				stats, err := viz.GenerateDashboardStats(ctx, a.cascade, a.strength, root)
				if err != nil {
					return err
				}
				return opts.emit(cmd, stats, viz.RenderDashboard(stats))
			}

			result, err := a.cascade.DeleteCascade(ctx, root)
			if err != nil {
				var stepErr *cascade.StepError
				if errors.As(err, &stepErr) && stepErr.TimedOut() {
					return fmt.Errorf("%w (re-run to finish)", err)
				}
				return err
			}
			return opts.emit(cmd, result, renderResult(result))
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted")
	return cmd
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <user|relationship> <id>",
		Short: "List the documents a delete would remove",
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
			plan, err := a.cascade.Plan(cmd.Context(), root)
			if err != nil {
				return err
			}

			ids := map[cascade.Step][]string{}
			var out strings.Builder
			out.WriteString(titleStyle.Render(fmt.Sprintf("Delete %s %s", root.Type, root.ID)))
			for _, step := range []cascade.Step{cascade.StepBookmarks, cascade.StepAdjustments, cascade.StepActions, cascade.StepChangeActions} {
				docs, ok := plan.Dependents[step]
				if !ok {
					continue
				}
				out.WriteString(fmt.Sprintf("\n  %s (%d)", step, len(docs)))
				for _, doc := range docs {
					ids[step] = append(ids[step], doc.ID())
					out.WriteString("\n" + dimStyle.Render("    "+doc.ID()))
				}
			}
			return opts.emit(cmd, map[string]any{"root": root, "dependents": ids}, out.String())
		},
	}
}

func renderResult(result *cascade.Result) string {
	var out strings.Builder
	out.WriteString(okStyle.Render(fmt.Sprintf("✓ Deleted %s %s", result.Root.Type, result.Root.ID)))
	if result.Deleted[cascade.StepRoot] == 0 {
		out.WriteString(dimStyle.Render(" (already gone)"))
	}
	out.WriteString(fmt.Sprintf("\n  %d dependent documents removed", result.Total()))
	return out.String()
}
