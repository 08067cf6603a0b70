// ABOUTME: User and relationship commands
// ABOUTME: Creates users, links them, and edits relationship fields through the audit layer
package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/revision"
	"github.com/spf13/cobra"
)

// NewUserCommand creates the user command group.
func NewUserCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	cmd.AddCommand(newUserCreateCommand(opts))
	return cmd
}

func newUserCreateCommand(opts *RootOptions) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			user, err := a.db.CreateUser(cmd.Context(), args[0], name)
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			return opts.emit(cmd, user, okStyle.Render(fmt.Sprintf("✓ Created user %s", user.ID)))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

// NewLinkCommand creates the link command.
func NewLinkCommand(opts *RootOptions) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "link <from-user> <to-user>",
		Short: "Create a relationship between two users",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := opts.actor()
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}

			fields := map[string]any{}
			if label != "" {
				fields["label"] = label
			}
			res, err := a.audit.CreateLink(cmd.Context(), models.UserRef(actor), models.UserRef(args[0]), models.UserRef(args[1]), fields)
			if err != nil {
				return fmt.Errorf("link users: %w", err)
			}
			return opts.emit(cmd, res, okStyle.Render(fmt.Sprintf("✓ Linked %s and %s as %s", args[0], args[1], res.ID)))
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "kind of relationship (friend, colleague, ...)")
	return cmd
}

// NewRelationshipCommand creates the relationship command group.
func NewRelationshipCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "relationship",
		Aliases: []string{"rel"},
		Short:   "Inspect and edit relationships",
	}
	cmd.AddCommand(newRelationshipShowCommand(opts))
	for _, op := range []models.ChangeOp{models.OpSet, models.OpUnset, models.OpChange, models.OpAdd, models.OpRemove} {
		cmd.AddCommand(newRelationshipEditCommand(opts, op))
	}
	return cmd
}

func newRelationshipShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a relationship with its strength and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			rel, err := a.db.GetRelationship(ctx, args[0])
			if err != nil {
				return err
			}
			total, err := a.strength.Current(ctx, rel.ID)
			if err != nil {
				return err
			}
			changes, err := a.db.Revisions.Changes(ctx, rel.ID)
			if err != nil {
				return err
			}

			var out strings.Builder
			out.WriteString(titleStyle.Render("Relationship "+rel.ID) + "\n")
			if rel.From != nil && rel.To != nil {
				out.WriteString(fmt.Sprintf("  %s ↔ %s\n", rel.From.ID, rel.To.ID))
			}
			out.WriteString(fmt.Sprintf("  Strength: %d\n", total))
			for k, v := range rel.Fields {
				out.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
			}
			if len(changes) > 0 {
				out.WriteString(dimStyle.Render("\n  History:") + "\n")
				for _, c := range changes {
					line := fmt.Sprintf("    %s %s", c.CreatedAt.Format("2006-01-02 15:04"), c.Op)
					if c.Field != "" {
						line += " " + c.Field
					}
					out.WriteString(dimStyle.Render(line) + "\n")
				}
			}

			return opts.emit(cmd, map[string]any{
				"relationship": rel,
				"strength":     total,
				"changes":      changes,
			}, strings.TrimRight(out.String(), "\n"))
		},
	}
}

func newRelationshipEditCommand(opts *RootOptions, op models.ChangeOp) *cobra.Command {
	use := fmt.Sprintf("%s <id> <field> <value>", op)
	nargs := 3
	if op == models.OpUnset {
		use = fmt.Sprintf("%s <id> <field>", op)
		nargs = 2
	}

	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Audited %s of a relationship field", op),
		Long:  "Values are parsed as JSON when possible and stored as strings otherwise.",
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := opts.actor()
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}

			m := a.audit.With(models.UserRef(actor), a.db.Revisions.Open(models.RelationshipRef(args[0])))
			var value any
			if len(args) == 3 {
				value = parseValue(args[2])
			}
			res, err := applyOp(cmd, m, op, args[1], value)
			if err != nil {
				return err
			}
			return opts.emit(cmd, res, okStyle.Render(fmt.Sprintf("✓ %s %s.%s (change %s)", op, args[0], args[1], res.ChangeID)))
		},
	}
}

func applyOp(cmd *cobra.Command, m revision.Mutator, op models.ChangeOp, field string, value any) (revision.Result, error) {
	ctx := cmd.Context()
	switch op {
	case models.OpSet:
		return m.Set(ctx, field, value)
	case models.OpUnset:
		return m.Unset(ctx, field)
	case models.OpChange:
		return m.Change(ctx, field, value)
	case models.OpAdd:
		return m.Add(ctx, field, value)
	case models.OpRemove:
		return m.Remove(ctx, field, value)
	default:
		return revision.Result{}, fmt.Errorf("unsupported op %q", op)
	}
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
