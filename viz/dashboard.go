// ABOUTME: Terminal summary of an aggregate root and its dependents
// ABOUTME: Shows strength and a bar per cascade step
package viz

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/strength"
)

var stepOrder = []cascade.Step{
	cascade.StepBookmarks,
	cascade.StepAdjustments,
	cascade.StepActions,
	cascade.StepChangeActions,
}

type DashboardStats struct {
	Root       models.Ref
	Strength   int64
	Dependents map[cascade.Step]int
}

// GenerateDashboardStats gathers the dependents of root and, for
// relationships, their current strength.
func GenerateDashboardStats(ctx context.Context, engine *cascade.Engine, agg *strength.Aggregator, root models.Ref) (*DashboardStats, error) {
	plan, err := engine.Plan(ctx, root)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		Root:       root,
		Dependents: make(map[cascade.Step]int, len(plan.Dependents)),
	}
	for step, docs := range plan.Dependents {
		stats.Dependents[step] = len(docs)
	}

	if root.Type == models.KindRelationship {
		stats.Strength, err = agg.Current(ctx, root.ID)
		if err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString(fmt.Sprintf("  %s %s\n", strings.ToUpper(string(stats.Root.Type)), stats.Root.ID))
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	if stats.Root.Type == models.KindRelationship {
		out.WriteString(fmt.Sprintf("STRENGTH  %+d\n\n", stats.Strength))
	}

	out.WriteString("DEPENDENTS\n")
	renderSteps(&out, stats.Dependents)

	return out.String()
}

func renderSteps(out *strings.Builder, dependents map[cascade.Step]int) {
	maxCount := 0
	for _, n := range dependents {
		if n > maxCount {
			maxCount = n
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, step := range stepOrder {
		n, exists := dependents[step]
		if !exists {
			continue
		}

		barLength := (n * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)

		out.WriteString(fmt.Sprintf("  %-15s %s  %3d\n", step, bar, n))
	}
}
