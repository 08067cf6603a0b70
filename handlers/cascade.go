// ABOUTME: Entity deletion MCP tool handlers
// ABOUTME: Implements create_user and delete_entity, the latter with an optional dry run
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type EntityHandlers struct {
	db     *db.DB
	engine *cascade.Engine
}

func NewEntityHandlers(database *db.DB, engine *cascade.Engine) *EntityHandlers {
	return &EntityHandlers{db: database, engine: engine}
}

type CreateUserInput struct {
	ID   string `json:"id,omitempty" jsonschema:"User ID (generated when empty)"`
	Name string `json:"name" jsonschema:"Display name (required)"`
}

type UserOutput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *EntityHandlers) CreateUser(ctx context.Context, request *mcp.CallToolRequest, input CreateUserInput) (*mcp.CallToolResult, UserOutput, error) {
	if input.Name == "" {
		return nil, UserOutput{}, fmt.Errorf("name is required")
	}

	user, err := h.db.CreateUser(ctx, input.ID, input.Name)
	if err != nil {
		return nil, UserOutput{}, fmt.Errorf("failed to create user: %w", err)
	}
	name, _ := user.Fields["name"].(string)
	return nil, UserOutput{ID: user.ID, Name: name}, nil
}

type DeleteEntityInput struct {
	ID     string `json:"id" jsonschema:"Entity ID (required)"`
	Type   string `json:"type" jsonschema:"user or relationship (required)"`
	DryRun bool   `json:"dry_run,omitempty" jsonschema:"Only list what would be deleted"`
}

type DeleteEntityOutput struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	DryRun     bool           `json:"dry_run"`
	Dependents map[string]int `json:"dependents"`
	Deleted    bool           `json:"deleted"`
}

func (h *EntityHandlers) DeleteEntity(ctx context.Context, request *mcp.CallToolRequest, input DeleteEntityInput) (*mcp.CallToolResult, DeleteEntityOutput, error) {
	if input.ID == "" {
		return nil, DeleteEntityOutput{}, fmt.Errorf("id is required")
	}
	root := models.Ref{ID: input.ID, Type: models.Kind(input.Type)}
	if root.Type != models.KindUser && root.Type != models.KindRelationship {
		return nil, DeleteEntityOutput{}, fmt.Errorf("type must be user or relationship")
	}

	out := DeleteEntityOutput{
		ID:         input.ID,
		Type:       input.Type,
		DryRun:     input.DryRun,
		Dependents: map[string]int{},
	}

	if input.DryRun {
		plan, err := h.engine.Plan(ctx, root)
		if err != nil {
			return nil, DeleteEntityOutput{}, fmt.Errorf("failed to plan delete: %w", err)
		}
		for step, docs := range plan.Dependents {
			out.Dependents[string(step)] = len(docs)
		}
		return nil, out, nil
	}

	result, err := h.engine.DeleteCascade(ctx, root)
	if err != nil {
		return nil, DeleteEntityOutput{}, fmt.Errorf("failed to delete %s: %w", input.ID, err)
	}
	for step, n := range result.Deleted {
		if step != cascade.StepRoot {
			out.Dependents[string(step)] = n
		}
	}
	out.Deleted = true
	return nil, out, nil
}
