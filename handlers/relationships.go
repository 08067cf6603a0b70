// ABOUTME: Relationship MCP tool handlers
// ABOUTME: Implements link_users, update_relationship, and get_relationship tools with audited writes
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/kinship/audit"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/revision"
	"github.com/harperreed/kinship/strength"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type RelationshipHandlers struct {
	db    *db.DB
	audit *audit.Layer
	agg   *strength.Aggregator
}

func NewRelationshipHandlers(database *db.DB, layer *audit.Layer, agg *strength.Aggregator) *RelationshipHandlers {
	return &RelationshipHandlers{db: database, audit: layer, agg: agg}
}

type LinkUsersInput struct {
	ActorID string `json:"actor_id" jsonschema:"User recording the relationship (required)"`
	FromID  string `json:"from_id" jsonschema:"First user ID (required)"`
	ToID    string `json:"to_id" jsonschema:"Second user ID (required)"`
	Label   string `json:"label,omitempty" jsonschema:"Kind of relationship (e.g., friend, colleague)"`
}

type RelationshipOutput struct {
	ID        string         `json:"id"`
	FromID    string         `json:"from_id,omitempty"`
	ToID      string         `json:"to_id,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	Strength  int64          `json:"strength"`
	CreatedAt string         `json:"created_at,omitempty"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

func (h *RelationshipHandlers) LinkUsers(ctx context.Context, request *mcp.CallToolRequest, input LinkUsersInput) (*mcp.CallToolResult, RelationshipOutput, error) {
	if input.ActorID == "" {
		return nil, RelationshipOutput{}, fmt.Errorf("actor_id is required")
	}
	if input.FromID == "" || input.ToID == "" {
		return nil, RelationshipOutput{}, fmt.Errorf("from_id and to_id are required")
	}

	fields := map[string]any{}
	if input.Label != "" {
		fields["label"] = input.Label
	}

	res, err := h.audit.CreateLink(ctx, models.UserRef(input.ActorID), models.UserRef(input.FromID), models.UserRef(input.ToID), fields)
	if err != nil {
		return nil, RelationshipOutput{}, fmt.Errorf("failed to create relationship: %w", err)
	}
	return h.load(ctx, res.ID)
}

type UpdateRelationshipInput struct {
	ActorID        string `json:"actor_id" jsonschema:"User making the change (required)"`
	RelationshipID string `json:"relationship_id" jsonschema:"Relationship ID (required)"`
	Op             string `json:"op" jsonschema:"One of set, unset, change, add, remove (required)"`
	Field          string `json:"field" jsonschema:"Field name (required)"`
	Value          any    `json:"value,omitempty" jsonschema:"New value, or list item for add/remove"`
}

type UpdateRelationshipOutput struct {
	RelationshipID string `json:"relationship_id"`
	ChangeID       string `json:"change_id"`
}

func (h *RelationshipHandlers) UpdateRelationship(ctx context.Context, request *mcp.CallToolRequest, input UpdateRelationshipInput) (*mcp.CallToolResult, UpdateRelationshipOutput, error) {
	if input.ActorID == "" || input.RelationshipID == "" || input.Field == "" {
		return nil, UpdateRelationshipOutput{}, fmt.Errorf("actor_id, relationship_id, and field are required")
	}

	m := h.audit.With(models.UserRef(input.ActorID), h.db.Revisions.Open(models.RelationshipRef(input.RelationshipID)))

	var (
		res revision.Result
		err error
	)
	switch models.ChangeOp(input.Op) {
	case models.OpSet:
		res, err = m.Set(ctx, input.Field, input.Value)
	case models.OpUnset:
		res, err = m.Unset(ctx, input.Field)
	case models.OpChange:
		res, err = m.Change(ctx, input.Field, input.Value)
	case models.OpAdd:
		res, err = m.Add(ctx, input.Field, input.Value)
	case models.OpRemove:
		res, err = m.Remove(ctx, input.Field, input.Value)
	default:
		return nil, UpdateRelationshipOutput{}, fmt.Errorf("invalid op: %q", input.Op)
	}
	if err != nil {
		return nil, UpdateRelationshipOutput{}, fmt.Errorf("failed to update relationship: %w", err)
	}

	return nil, UpdateRelationshipOutput{RelationshipID: input.RelationshipID, ChangeID: res.ChangeID}, nil
}

type GetRelationshipInput struct {
	RelationshipID string `json:"relationship_id" jsonschema:"Relationship ID (required)"`
}

func (h *RelationshipHandlers) GetRelationship(ctx context.Context, request *mcp.CallToolRequest, input GetRelationshipInput) (*mcp.CallToolResult, RelationshipOutput, error) {
	if input.RelationshipID == "" {
		return nil, RelationshipOutput{}, fmt.Errorf("relationship_id is required")
	}
	return h.load(ctx, input.RelationshipID)
}

func (h *RelationshipHandlers) load(ctx context.Context, id string) (*mcp.CallToolResult, RelationshipOutput, error) {
	rel, err := h.db.GetRelationship(ctx, id)
	if err != nil {
		return nil, RelationshipOutput{}, fmt.Errorf("failed to fetch relationship: %w", err)
	}
	n, err := h.agg.Current(ctx, id)
	if err != nil {
		return nil, RelationshipOutput{}, fmt.Errorf("failed to read strength: %w", err)
	}

	out := relationshipToOutput(rel)
	out.Strength = n
	return nil, out, nil
}

func relationshipToOutput(rel *models.Entity) RelationshipOutput {
	out := RelationshipOutput{
		ID:        rel.ID,
		Fields:    rel.Fields,
		CreatedAt: rel.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rel.UpdatedAt.Format(time.RFC3339),
	}
	if rel.From != nil {
		out.FromID = rel.From.ID
	}
	if rel.To != nil {
		out.ToID = rel.To.ID
	}
	return out
}
