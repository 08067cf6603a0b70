// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph tool for agents
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	engine *cascade.Engine
}

func NewVizHandlers(engine *cascade.Engine) *VizHandlers {
	return &VizHandlers{engine: engine}
}

type GenerateGraphInput struct {
	EntityID string `json:"entity_id" jsonschema:"Root entity ID (required)"`
	Type     string `json:"type" jsonschema:"Root type: user or relationship (required)"`
}

type GenerateGraphOutput struct {
	EntityID  string `json:"entity_id"`
	DOTSource string `json:"dot_source"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, request *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.EntityID == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("entity_id is required")
	}
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	root := models.Ref{ID: input.EntityID, Type: models.Kind(input.Type)}
	dot, err := viz.NewGraphGenerator(h.engine).GenerateDependentsGraph(ctx, root)
	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		EntityID:  input.EntityID,
		DOTSource: dot,
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}
