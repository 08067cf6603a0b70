// ABOUTME: Bookmark operations
// ABOUTME: One bookmark per user/target pair, enforced by its composed id
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/kinship/docstore"
	"github.com/harperreed/kinship/models"
)

// Bookmark records that user bookmarked target. A second bookmark of the same
// target fails with models.ErrStoreConflict.
func (d *DB) Bookmark(ctx context.Context, user, target models.Ref) (*models.Bookmark, error) {
	if user.ID == "" || target.ID == "" {
		return nil, fmt.Errorf("bookmark: %w", models.ErrInvalidRef)
	}

	bookmark := &models.Bookmark{
		ID:         models.BookmarkID(user.ID, target.ID),
		Type:       models.KindBookmark,
		User:       models.UserRef(user.ID),
		Bookmarked: target,
		CreatedAt:  time.Now().UTC(),
	}
	doc, err := docstore.Encode(bookmark)
	if err != nil {
		return nil, err
	}
	rev, err := d.Store.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("bookmark %s: %w", bookmark.ID, err)
	}
	bookmark.Rev = rev
	return bookmark, nil
}

// Unbookmark removes user's bookmark of targetID.
func (d *DB) Unbookmark(ctx context.Context, userID, targetID string) error {
	id := models.BookmarkID(userID, targetID)
	if err := d.Store.Delete(ctx, id, ""); err != nil {
		return fmt.Errorf("unbookmark %s: %w", id, err)
	}
	return nil
}

// BookmarksByUser lists the bookmarks a user made.
func (d *DB) BookmarksByUser(ctx context.Context, userID string) ([]models.Bookmark, error) {
	return d.bookmarks(ctx, ByUser, userID)
}

// BookmarksOf lists the bookmarks pointing at target.
func (d *DB) BookmarksOf(ctx context.Context, targetID string) ([]models.Bookmark, error) {
	return d.bookmarks(ctx, ByBookmarked, targetID)
}

func (d *DB) bookmarks(ctx context.Context, view, id string) ([]models.Bookmark, error) {
	docs, err := d.Dependents(ctx, BookmarksDesign, view, id)
	if err != nil {
		return nil, err
	}
	bookmarks := make([]models.Bookmark, 0, len(docs))
	for _, doc := range docs {
		var b models.Bookmark
		if err := docstore.Decode(doc, &b); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, nil
}
