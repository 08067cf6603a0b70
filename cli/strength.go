// ABOUTME: Strength commands
// ABOUTME: strengthen, weaken, unstrength, and strength over a relationship
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/kinship/models"
	"github.com/spf13/cobra"
)

type adjustFunc func(ctx context.Context, actor, target models.Ref) (*models.Adjustment, error)

type strengthResult struct {
	RelationshipID string `json:"relationship_id"`
	Strength       int64  `json:"strength"`
	Changed        bool   `json:"changed"`
}

// NewStrengthenCommand creates the strengthen command.
func NewStrengthenCommand(opts *RootOptions) *cobra.Command {
	return newAdjustCommand(opts, "strengthen", "Record +1 strength for a relationship", func(a *app) adjustFunc {
		return a.strength.Strengthen
	})
}

// NewWeakenCommand creates the weaken command.
func NewWeakenCommand(opts *RootOptions) *cobra.Command {
	return newAdjustCommand(opts, "weaken", "Record -1 strength for a relationship", func(a *app) adjustFunc {
		return a.strength.Weaken
	})
}

func newAdjustCommand(opts *RootOptions, use, short string, pick func(*app) adjustFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <relationship-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := opts.actor()
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			target := models.RelationshipRef(args[0])

			if _, err := a.db.GetRelationship(ctx, target.ID); err != nil {
				return err
			}

			res := strengthResult{RelationshipID: target.ID, Changed: true}
			_, err = pick(a)(ctx, models.UserRef(actor), target)
			switch {
			case errors.Is(err, models.ErrAlreadyAdjusted):
				res.Changed = false
			case err != nil:
				return fmt.Errorf("%s: %w", use, err)
			}

			if res.Strength, err = a.strength.Current(ctx, target.ID); err != nil {
				return err
			}

			text := okStyle.Render(fmt.Sprintf("✓ %s: strength is now %d", target.ID, res.Strength))
			if !res.Changed {
				text = warningStyle.Render(fmt.Sprintf("%s already recorded; strength is %d", use, res.Strength))
			}
			return opts.emit(cmd, res, text)
		},
	}
}

// NewUnstrengthCommand creates the unstrength command.
func NewUnstrengthCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unstrength <relationship-id>",
		Short: "Withdraw your strength adjustment from a relationship",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := opts.actor()
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if err := a.strength.Unstrength(ctx, models.UserRef(actor), models.RelationshipRef(args[0])); err != nil {
				return fmt.Errorf("unstrength: %w", err)
			}
			total, err := a.strength.Current(ctx, args[0])
			if err != nil {
				return err
			}
			res := strengthResult{RelationshipID: args[0], Strength: total, Changed: true}
			return opts.emit(cmd, res, okStyle.Render(fmt.Sprintf("✓ %s: strength is now %d", args[0], total)))
		},
	}
}

// NewStrengthCommand creates the strength command.
func NewStrengthCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "strength <relationship-id>",
		Short: "Show the current strength of a relationship",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			total, err := a.strength.Current(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return opts.emit(cmd, strengthResult{RelationshipID: args[0], Strength: total}, fmt.Sprintf("%d", total))
		},
	}
}
