// ABOUTME: Tests for MCP tool, resource, and prompt handlers
// ABOUTME: Calls handlers directly against an in-memory graph
package handlers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/harperreed/kinship/audit"
	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/logging"
	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/strength"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServices(t *testing.T) Services {
	t.Helper()
	database := db.NewTestDB(t)
	return Services{
		DB:       database,
		Audit:    audit.New(database.Revisions, logging.Discard(), nil),
		Strength: strength.New(database.Store, logging.Discard(), nil),
		Cascade:  cascade.New(database, time.Minute, logging.Discard(), nil),
	}
}

func linkAliceAndBob(t *testing.T, svc Services) string {
	t.Helper()
	_, out, err := NewRelationshipHandlers(svc.DB, svc.Audit, svc.Strength).LinkUsers(context.Background(), nil, LinkUsersInput{
		ActorID: "alice",
		FromID:  "alice",
		ToID:    "bob",
		Label:   "friend",
	})
	require.NoError(t, err)
	return out.ID
}

func TestNewServerRegisters(t *testing.T) {
	assert.NotNil(t, NewServer(setupServices(t), "test"))
}

func TestLinkAndUpdateRelationship(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)
	h := NewRelationshipHandlers(svc.DB, svc.Audit, svc.Strength)

	relID := linkAliceAndBob(t, svc)

	_, upd, err := h.UpdateRelationship(ctx, nil, UpdateRelationshipInput{
		ActorID:        "alice",
		RelationshipID: relID,
		Op:             "set",
		Field:          "met_at",
		Value:          "conference",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, upd.ChangeID)

	_, got, err := h.GetRelationship(ctx, nil, GetRelationshipInput{RelationshipID: relID})
	require.NoError(t, err)
	assert.Equal(t, "alice", got.FromID)
	assert.Equal(t, "bob", got.ToID)
	assert.Equal(t, "conference", got.Fields["met_at"])
	assert.Equal(t, "friend", got.Fields["label"])

	actions, err := svc.Audit.ActionsByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, actions, 2, "creation and update are both audited")

	_, _, err = h.UpdateRelationship(ctx, nil, UpdateRelationshipInput{
		ActorID: "alice", RelationshipID: relID, Op: "explode", Field: "x",
	})
	assert.Error(t, err)
}

func TestStrengthTools(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)
	h := NewStrengthHandlers(svc.Strength)
	relID := linkAliceAndBob(t, svc)

	_, out, err := h.Strengthen(ctx, nil, AdjustStrengthInput{ActorID: "alice", RelationshipID: relID})
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, int64(1), out.Strength)

	_, out, err = h.Strengthen(ctx, nil, AdjustStrengthInput{ActorID: "alice", RelationshipID: relID})
	require.NoError(t, err, "a repeated adjustment is a no-op for tools")
	assert.False(t, out.Changed)
	assert.Equal(t, int64(1), out.Strength)

	_, out, err = h.Weaken(ctx, nil, AdjustStrengthInput{ActorID: "bob", RelationshipID: relID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.Strength)

	_, out, err = h.Unstrength(ctx, nil, AdjustStrengthInput{ActorID: "bob", RelationshipID: relID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Strength)

	_, out, err = h.GetStrength(ctx, nil, GetStrengthInput{RelationshipID: relID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Strength)

	_, _, err = h.Strengthen(ctx, nil, AdjustStrengthInput{ActorID: "alice"})
	assert.Error(t, err)
}

func TestBookmarkTools(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)
	h := NewBookmarkHandlers(svc.DB)
	relID := linkAliceAndBob(t, svc)

	_, b, err := h.Bookmark(ctx, nil, BookmarkInput{UserID: "carol", TargetID: relID})
	require.NoError(t, err)
	assert.Equal(t, "relationship", b.TargetType)

	_, list, err := h.ListBookmarks(ctx, nil, ListBookmarksInput{TargetID: relID})
	require.NoError(t, err)
	assert.Len(t, list.Bookmarks, 1)

	_, _, err = h.Bookmark(ctx, nil, BookmarkInput{UserID: "carol", TargetID: relID, TargetType: "spaceship"})
	assert.Error(t, err)

	_, un, err := h.Unbookmark(ctx, nil, UnbookmarkInput{UserID: "carol", TargetID: relID})
	require.NoError(t, err)
	assert.True(t, un.Removed)
}

func TestDeleteEntityTool(t *testing.T) {
	ctx := context.Background()
	svc := setupServices(t)
	h := NewEntityHandlers(svc.DB, svc.Cascade)
	relID := linkAliceAndBob(t, svc)

	_, err := svc.DB.Bookmark(ctx, models.UserRef("carol"), models.RelationshipRef(relID))
	require.NoError(t, err)

	_, plan, err := h.DeleteEntity(ctx, nil, DeleteEntityInput{ID: relID, Type: "relationship", DryRun: true})
	require.NoError(t, err)
	assert.False(t, plan.Deleted)
	assert.Equal(t, 1, plan.Dependents["bookmarks"])
	assert.Equal(t, 1, plan.Dependents["actions"])

	_, done, err := h.DeleteEntity(ctx, nil, DeleteEntityInput{ID: relID, Type: "relationship"})
	require.NoError(t, err)
	assert.True(t, done.Deleted)

	_, err = svc.DB.GetRelationship(ctx, relID)
	assert.Error(t, err)

	_, _, err = h.DeleteEntity(ctx, nil, DeleteEntityInput{ID: "x", Type: "bookmark"})
	assert.Error(t, err)
}

func TestGenerateGraphTool(t *testing.T) {
	svc := setupServices(t)
	relID := linkAliceAndBob(t, svc)

	_, out, err := NewVizHandlers(svc.Cascade).GenerateGraph(context.Background(), nil, GenerateGraphInput{EntityID: relID, Type: "relationship"})
	require.NoError(t, err)
	assert.Contains(t, out.DOTSource, relID)
	assert.Equal(t, 1, out.EdgeCount)
}

func TestReadRelationshipResource(t *testing.T) {
	svc := setupServices(t)
	relID := linkAliceAndBob(t, svc)
	h := NewResourceHandlers(svc.DB, svc.Audit, svc.Strength)

	res, err := h.ReadResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "kinship://relationships/" + relID},
	})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &body))
	assert.Contains(t, body, "relationship")
	assert.Contains(t, body, "changes")

	_, err = h.ReadResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "crm://contacts"},
	})
	assert.Error(t, err)
}

func TestRelationshipReviewPrompt(t *testing.T) {
	svc := setupServices(t)
	relID := linkAliceAndBob(t, svc)
	h := NewPromptHandlers(svc.DB, svc.Strength, svc.Cascade)

	res, err := h.GetPrompt(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Name: "relationship-review", Arguments: map[string]string{"relationship_id": relID}},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)

	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "between alice and bob")
	assert.Contains(t, text, "label: friend")
}
