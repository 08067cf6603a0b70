// ABOUTME: Bookmark commands
// ABOUTME: bookmark, unbookmark, and bookmarks listing for a user
package cli

import (
	"fmt"
	"strings"

	"github.com/harperreed/kinship/models"
	"github.com/spf13/cobra"
)

// NewBookmarkCommand creates the bookmark command.
func NewBookmarkCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bookmark <relationship-id>",
		Short: "Bookmark a relationship",
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
			b, err := a.db.Bookmark(cmd.Context(), models.UserRef(actor), models.RelationshipRef(args[0]))
			if err != nil {
				return fmt.Errorf("bookmark: %w", err)
			}
			return opts.emit(cmd, b, okStyle.Render("✓ Bookmarked "+args[0]))
		},
	}
}

// NewUnbookmarkCommand creates the unbookmark command.
func NewUnbookmarkCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unbookmark <relationship-id>",
		Short: "Remove a bookmark",
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
			if err := a.db.Unbookmark(cmd.Context(), actor, args[0]); err != nil {
				return fmt.Errorf("unbookmark: %w", err)
			}
			return opts.emit(cmd, map[string]string{"removed": args[0]}, okStyle.Render("✓ Removed bookmark "+args[0]))
		},
	}
}

// NewBookmarksCommand creates the bookmarks listing command.
func NewBookmarksCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "bookmarks",
		Short: "List your bookmarks",
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
			bookmarks, err := a.db.BookmarksByUser(cmd.Context(), actor)
			if err != nil {
				return err
			}

			if len(bookmarks) == 0 {
				return opts.emit(cmd, bookmarks, dimStyle.Render("No bookmarks"))
			}
			var out strings.Builder
			out.WriteString(titleStyle.Render(fmt.Sprintf("Bookmarks (%d)", len(bookmarks))))
			for _, b := range bookmarks {
				out.WriteString(fmt.Sprintf("\n  %s %s", b.Bookmarked.Type, b.Bookmarked.ID))
			}
			return opts.emit(cmd, bookmarks, out.String())
		},
	}
}
