// ABOUTME: Strength MCP tool handlers
// ABOUTME: Implements strengthen, weaken, unstrength, and get_strength tools
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/strength"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type StrengthHandlers struct {
	agg *strength.Aggregator
}

func NewStrengthHandlers(agg *strength.Aggregator) *StrengthHandlers {
	return &StrengthHandlers{agg: agg}
}

type AdjustStrengthInput struct {
	ActorID        string `json:"actor_id" jsonschema:"User making the adjustment (required)"`
	RelationshipID string `json:"relationship_id" jsonschema:"Relationship being adjusted (required)"`
}

type StrengthOutput struct {
	RelationshipID string `json:"relationship_id"`
	Strength       int64  `json:"strength"`
	Changed        bool   `json:"changed"`
	Note           string `json:"note,omitempty"`
}

func (in AdjustStrengthInput) validate() error {
	if in.ActorID == "" {
		return fmt.Errorf("actor_id is required")
	}
	if in.RelationshipID == "" {
		return fmt.Errorf("relationship_id is required")
	}
	return nil
}

func (h *StrengthHandlers) Strengthen(ctx context.Context, request *mcp.CallToolRequest, input AdjustStrengthInput) (*mcp.CallToolResult, StrengthOutput, error) {
	return h.adjust(ctx, input, h.agg.Strengthen)
}

func (h *StrengthHandlers) Weaken(ctx context.Context, request *mcp.CallToolRequest, input AdjustStrengthInput) (*mcp.CallToolResult, StrengthOutput, error) {
	return h.adjust(ctx, input, h.agg.Weaken)
}

type adjustFunc func(ctx context.Context, actor, target models.Ref) (*models.Adjustment, error)

// adjust reports a repeated adjustment as an unchanged result rather than a
// tool error.
func (h *StrengthHandlers) adjust(ctx context.Context, input AdjustStrengthInput, fn adjustFunc) (*mcp.CallToolResult, StrengthOutput, error) {
	if err := input.validate(); err != nil {
		return nil, StrengthOutput{}, err
	}

	out := StrengthOutput{RelationshipID: input.RelationshipID, Changed: true}
	_, err := fn(ctx, models.UserRef(input.ActorID), models.RelationshipRef(input.RelationshipID))
	switch {
	case errors.Is(err, models.ErrAlreadyAdjusted):
		out.Changed = false
		out.Note = "already adjusted by this user"
	case err != nil:
		return nil, StrengthOutput{}, fmt.Errorf("failed to adjust strength: %w", err)
	}

	out.Strength, err = h.agg.Current(ctx, input.RelationshipID)
	if err != nil {
		return nil, StrengthOutput{}, fmt.Errorf("failed to read strength: %w", err)
	}
	return nil, out, nil
}

func (h *StrengthHandlers) Unstrength(ctx context.Context, request *mcp.CallToolRequest, input AdjustStrengthInput) (*mcp.CallToolResult, StrengthOutput, error) {
	if err := input.validate(); err != nil {
		return nil, StrengthOutput{}, err
	}

	out := StrengthOutput{RelationshipID: input.RelationshipID, Changed: true}
	err := h.agg.Unstrength(ctx, models.UserRef(input.ActorID), models.RelationshipRef(input.RelationshipID))
	switch {
	case errors.Is(err, models.ErrNotFound):
		out.Changed = false
		out.Note = "no adjustment by this user"
	case err != nil:
		return nil, StrengthOutput{}, fmt.Errorf("failed to remove adjustment: %w", err)
	}

	out.Strength, err = h.agg.Current(ctx, input.RelationshipID)
	if err != nil {
		return nil, StrengthOutput{}, fmt.Errorf("failed to read strength: %w", err)
	}
	return nil, out, nil
}

type GetStrengthInput struct {
	RelationshipID string `json:"relationship_id" jsonschema:"Relationship ID (required)"`
}

func (h *StrengthHandlers) GetStrength(ctx context.Context, request *mcp.CallToolRequest, input GetStrengthInput) (*mcp.CallToolResult, StrengthOutput, error) {
	if input.RelationshipID == "" {
		return nil, StrengthOutput{}, fmt.Errorf("relationship_id is required")
	}

	n, err := h.agg.Current(ctx, input.RelationshipID)
	if err != nil {
		return nil, StrengthOutput{}, fmt.Errorf("failed to read strength: %w", err)
	}
	return nil, StrengthOutput{RelationshipID: input.RelationshipID, Strength: n}, nil
}
