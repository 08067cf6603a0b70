// ABOUTME: Bookmark MCP tool handlers
// ABOUTME: Implements bookmark, unbookmark, and list_bookmarks tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type BookmarkHandlers struct {
	db *db.DB
}

func NewBookmarkHandlers(database *db.DB) *BookmarkHandlers {
	return &BookmarkHandlers{db: database}
}

type BookmarkInput struct {
	UserID     string `json:"user_id" jsonschema:"User making the bookmark (required)"`
	TargetID   string `json:"target_id" jsonschema:"Bookmarked entity ID (required)"`
	TargetType string `json:"target_type,omitempty" jsonschema:"Bookmarked entity type (default relationship)"`
}

type BookmarkOutput struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	TargetID   string `json:"target_id"`
	TargetType string `json:"target_type"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func (h *BookmarkHandlers) Bookmark(ctx context.Context, request *mcp.CallToolRequest, input BookmarkInput) (*mcp.CallToolResult, BookmarkOutput, error) {
	if input.UserID == "" {
		return nil, BookmarkOutput{}, fmt.Errorf("user_id is required")
	}
	if input.TargetID == "" {
		return nil, BookmarkOutput{}, fmt.Errorf("target_id is required")
	}

	kind := models.KindRelationship
	if input.TargetType != "" {
		kind = models.Kind(input.TargetType)
		if !kind.Valid() {
			return nil, BookmarkOutput{}, fmt.Errorf("invalid target_type: %s", input.TargetType)
		}
	}

	bookmark, err := h.db.Bookmark(ctx, models.UserRef(input.UserID), models.Ref{ID: input.TargetID, Type: kind})
	if err != nil {
		return nil, BookmarkOutput{}, fmt.Errorf("failed to bookmark: %w", err)
	}
	return nil, bookmarkToOutput(*bookmark), nil
}

type UnbookmarkInput struct {
	UserID   string `json:"user_id" jsonschema:"User who made the bookmark (required)"`
	TargetID string `json:"target_id" jsonschema:"Bookmarked entity ID (required)"`
}

type UnbookmarkOutput struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed"`
}

func (h *BookmarkHandlers) Unbookmark(ctx context.Context, request *mcp.CallToolRequest, input UnbookmarkInput) (*mcp.CallToolResult, UnbookmarkOutput, error) {
	if input.UserID == "" || input.TargetID == "" {
		return nil, UnbookmarkOutput{}, fmt.Errorf("user_id and target_id are required")
	}

	if err := h.db.Unbookmark(ctx, input.UserID, input.TargetID); err != nil {
		return nil, UnbookmarkOutput{}, fmt.Errorf("failed to unbookmark: %w", err)
	}
	return nil, UnbookmarkOutput{ID: models.BookmarkID(input.UserID, input.TargetID), Removed: true}, nil
}

type ListBookmarksInput struct {
	UserID   string `json:"user_id,omitempty" jsonschema:"List bookmarks made by this user"`
	TargetID string `json:"target_id,omitempty" jsonschema:"List bookmarks pointing at this entity"`
}

type ListBookmarksOutput struct {
	Bookmarks []BookmarkOutput `json:"bookmarks"`
}

func (h *BookmarkHandlers) ListBookmarks(ctx context.Context, request *mcp.CallToolRequest, input ListBookmarksInput) (*mcp.CallToolResult, ListBookmarksOutput, error) {
	var (
		bookmarks []models.Bookmark
		err       error
	)
	switch {
	case input.UserID != "":
		bookmarks, err = h.db.BookmarksByUser(ctx, input.UserID)
	case input.TargetID != "":
		bookmarks, err = h.db.BookmarksOf(ctx, input.TargetID)
	default:
		return nil, ListBookmarksOutput{}, fmt.Errorf("user_id or target_id is required")
	}
	if err != nil {
		return nil, ListBookmarksOutput{}, fmt.Errorf("failed to list bookmarks: %w", err)
	}

	out := ListBookmarksOutput{Bookmarks: make([]BookmarkOutput, len(bookmarks))}
	for i, b := range bookmarks {
		out.Bookmarks[i] = bookmarkToOutput(b)
	}
	return nil, out, nil
}

func bookmarkToOutput(b models.Bookmark) BookmarkOutput {
	return BookmarkOutput{
		ID:         b.ID,
		UserID:     b.User.ID,
		TargetID:   b.Bookmarked.ID,
		TargetType: string(b.Bookmarked.Type),
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
	}
}
