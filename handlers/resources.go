// ABOUTME: MCP resource handlers for exposing graph data
// ABOUTME: Provides read-only access to relationships and user bookmarks via kinship:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/kinship/audit"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/strength"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "kinship://"

type ResourceHandlers struct {
	db    *db.DB
	audit *audit.Layer
	agg   *strength.Aggregator
}

func NewResourceHandlers(database *db.DB, layer *audit.Layer, agg *strength.Aggregator) *ResourceHandlers {
	return &ResourceHandlers{db: database, audit: layer, agg: agg}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	if len(parts) < 2 || parts[1] == "" {
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}

	switch {
	case parts[0] == "relationships" && len(parts) == 2:
		return h.readRelationship(ctx, uri, parts[1])
	case parts[0] == "users" && len(parts) == 3 && parts[2] == "bookmarks":
		return h.readUserBookmarks(ctx, uri, parts[1])
	case parts[0] == "users" && len(parts) == 3 && parts[2] == "actions":
		return h.readUserActions(ctx, uri, parts[1])
	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}
}

type relationshipResource struct {
	Relationship any   `json:"relationship"`
	Strength     int64 `json:"strength"`
	Changes      any   `json:"changes"`
	Bookmarks    any   `json:"bookmarks"`
}

func (h *ResourceHandlers) readRelationship(ctx context.Context, uri, id string) (*mcp.ReadResourceResult, error) {
	rel, err := h.db.GetRelationship(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch relationship: %w", err)
	}
	n, err := h.agg.Current(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read strength: %w", err)
	}
	changes, err := h.db.Revisions.Changes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch changes: %w", err)
	}
	bookmarks, err := h.db.BookmarksOf(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookmarks: %w", err)
	}

	return jsonResource(uri, relationshipResource{
		Relationship: rel,
		Strength:     n,
		Changes:      changes,
		Bookmarks:    bookmarks,
	})
}

func (h *ResourceHandlers) readUserBookmarks(ctx context.Context, uri, userID string) (*mcp.ReadResourceResult, error) {
	bookmarks, err := h.db.BookmarksByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookmarks: %w", err)
	}
	return jsonResource(uri, bookmarks)
}

func (h *ResourceHandlers) readUserActions(ctx context.Context, uri, userID string) (*mcp.ReadResourceResult, error) {
	actions, err := h.audit.ActionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch actions: %w", err)
	}
	return jsonResource(uri, actions)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
