// ABOUTME: Root command and global flags for the kinship CLI
// ABOUTME: Opens the configured store once per invocation and closes it afterwards
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Backend    string
	StorePath  string
	Actor      string
	Format     string // "json" | "text"

	app *app
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the kinship CLI.
func NewRootCommand(version string) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "kinship",
		Short:   "Social graph with audited changes and cascading deletes",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return opts.close()
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML config file (default: $KINSHIP_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "store backend: badger, sqlite, or memory")
	cmd.PersistentFlags().StringVar(&opts.StorePath, "store-path", "", "store location (default: XDG data dir)")
	cmd.PersistentFlags().StringVar(&opts.Actor, "as", "", "acting user ID")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewUserCommand(opts))
	cmd.AddCommand(NewLinkCommand(opts))
	cmd.AddCommand(NewRelationshipCommand(opts))
	cmd.AddCommand(NewStrengthenCommand(opts))
	cmd.AddCommand(NewWeakenCommand(opts))
	cmd.AddCommand(NewUnstrengthCommand(opts))
	cmd.AddCommand(NewStrengthCommand(opts))
	cmd.AddCommand(NewBookmarkCommand(opts))
	cmd.AddCommand(NewUnbookmarkCommand(opts))
	cmd.AddCommand(NewBookmarksCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewVizCommand(opts))
	cmd.AddCommand(NewTUICommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMCPCommand(opts, version))

	return cmd
}

func (o *RootOptions) actor() (string, error) {
	if o.Actor == "" {
		return "", fmt.Errorf("--as is required")
	}
	return o.Actor, nil
}
