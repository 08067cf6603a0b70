// ABOUTME: Dependents graph generation for aggregate roots
// ABOUTME: Renders what a cascading delete would reach as a graphviz digraph
package viz

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/models"
)

// GraphGenerator renders cascade plans.
type GraphGenerator struct {
	engine *cascade.Engine
}

func NewGraphGenerator(engine *cascade.Engine) *GraphGenerator {
	return &GraphGenerator{engine: engine}
}

// GenerateDependentsGraph plans a cascade of root and returns it as DOT source,
// one edge per dependent labelled with the step that would delete it.
func (g *GraphGenerator) GenerateDependentsGraph(ctx context.Context, root models.Ref) (string, error) {
	plan, err := g.engine.Plan(ctx, root)
	if err != nil {
		return "", fmt.Errorf("failed to plan cascade: %w", err)
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetLabel(fmt.Sprintf("Dependents of %s %s", root.Type, root.ID))
	graph.SetRankDir(cgraph.LRRank)

	rootNode, err := graph.CreateNodeByName(root.ID)
	if err != nil {
		return "", fmt.Errorf("failed to create root node: %w", err)
	}
	rootNode.SetShape("doublecircle")

	for _, step := range sortedSteps(plan) {
		for _, doc := range plan.Dependents[step] {
			node, err := graph.CreateNodeByName(doc.ID())
			if err != nil {
				return "", fmt.Errorf("failed to create node %s: %w", doc.ID(), err)
			}
			node.SetShape("box")
			node.SetLabel(fmt.Sprintf("%s\n%s", doc.String("type"), doc.ID()))

			edge, err := graph.CreateEdgeByName("", rootNode, node)
			if err != nil {
				return "", fmt.Errorf("failed to create edge to %s: %w", doc.ID(), err)
			}
			edge.SetLabel(string(step))
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}

	return buf.String(), nil
}

func sortedSteps(plan *cascade.Plan) []cascade.Step {
	steps := make([]cascade.Step, 0, len(plan.Dependents))
	for step := range plan.Dependents {
		steps = append(steps, step)
	}
	sort.Slice(steps, func(i, j int) bool { return steps[i] < steps[j] })
	return steps
}
