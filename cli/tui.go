// ABOUTME: Interactive terminal UI command
// ABOUTME: Launches the bubbletea browser over the acting user's bookmarks
package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/kinship/tui"
	"github.com/spf13/cobra"
)

// NewTUICommand creates the tui command.
func NewTUICommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse your bookmarked relationships interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := opts.actor()
			if err != nil {
				return err
			}
			a, err := opts.open()
			if err != nil {
				return err
			}
			model := tui.NewModel(cmd.Context(), a.db, a.strength, a.cascade, actor)
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}
