// ABOUTME: MCP prompt handlers for reusable graph review templates
// ABOUTME: Provides relationship-review and cleanup-plan prompts built from live data
package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/strength"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	db     *db.DB
	agg    *strength.Aggregator
	engine *cascade.Engine
}

func NewPromptHandlers(database *db.DB, agg *strength.Aggregator, engine *cascade.Engine) *PromptHandlers {
	return &PromptHandlers{db: database, agg: agg, engine: engine}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	arguments := request.Params.Arguments
	switch name {
	case "relationship-review":
		return h.getRelationshipReviewPrompt(ctx, arguments)
	case "cleanup-plan":
		return h.getCleanupPlanPrompt(ctx, arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", name)
	}
}

func (h *PromptHandlers) getRelationshipReviewPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["relationship_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("relationship_id is required")
	}

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

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Review the relationship %s", rel.ID))
	if rel.From != nil && rel.To != nil {
		promptText.WriteString(fmt.Sprintf(" between %s and %s", rel.From.ID, rel.To.ID))
	}
	promptText.WriteString(".\n\n")
	promptText.WriteString(fmt.Sprintf("Current strength: %+d\n", n))

	if len(rel.Fields) > 0 {
		promptText.WriteString("\nFields:\n")
		keys := make([]string, 0, len(rel.Fields))
		for k := range rel.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			promptText.WriteString(fmt.Sprintf("- %s: %v\n", k, rel.Fields[k]))
		}
	}

	if len(changes) > 0 {
		promptText.WriteString("\nHistory:\n")
		for _, c := range changes {
			line := fmt.Sprintf("- %s %s", c.CreatedAt.Format("2006-01-02"), c.Op)
			if c.Field != "" {
				line += " " + c.Field
			}
			if c.Value != nil {
				line += fmt.Sprintf(" = %v", c.Value)
			}
			promptText.WriteString(line + "\n")
		}
	}

	promptText.WriteString("\nSummarize how this relationship has evolved and whether its strength matches its history.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Review of relationship %s", rel.ID),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}

func (h *PromptHandlers) getCleanupPlanPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id := args["id"]
	kind := models.Kind(args["type"])
	if id == "" || kind == "" {
		return nil, fmt.Errorf("id and type are required")
	}

	plan, err := h.engine.Plan(ctx, models.Ref{ID: id, Type: kind})
	if err != nil {
		return nil, fmt.Errorf("failed to plan delete: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString(fmt.Sprintf("Deleting %s %s would also remove:\n\n", kind, id))
	steps := make([]string, 0, len(plan.Dependents))
	for step := range plan.Dependents {
		steps = append(steps, string(step))
	}
	sort.Strings(steps)
	for _, step := range steps {
		docs := plan.Dependents[cascade.Step(step)]
		promptText.WriteString(fmt.Sprintf("- %s: %d\n", step, len(docs)))
		for _, doc := range docs {
			promptText.WriteString(fmt.Sprintf("  - %s\n", doc.ID()))
		}
	}
	promptText.WriteString("\nExplain what information would be lost and confirm whether the delete should proceed.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Cleanup plan for %s %s", kind, id),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}
