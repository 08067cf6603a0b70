// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Shows what a cascading delete would remove and runs it on confirmation
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/models"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := "Are you sure you want to delete this relationship?"

	var counts strings.Builder
	counts.WriteString(fmt.Sprintf("\nRELATIONSHIP: %s\n", m.selectedID))
	if m.plan != nil {
		for _, step := range []cascade.Step{cascade.StepBookmarks, cascade.StepAdjustments, cascade.StepActions, cascade.StepChangeActions} {
			if n := len(m.plan.Dependents[step]); n > 0 {
				counts.WriteString(fmt.Sprintf("%d %s\n", n, strings.ReplaceAll(string(step), "_", " ")))
			}
		}
	}
	warning := "\nThis action cannot be undone!"

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		counts.String(),
		warning,
		"",
		buttons,
	)

	box := confirmBoxStyle.Render(content)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		result, err := m.engine.DeleteCascade(m.ctx, models.RelationshipRef(m.selectedID))
		m.plan = nil
		if err != nil {
			// The relationship survives a failed cascade; stay on it.
			m.err = err
			m.viewMode = ViewDetail
			return m, nil
		}
		m.message = fmt.Sprintf("Deleted with %d dependents", result.Total())
		m.viewMode = ViewList
		m.selectedID = ""
		m.selectedRow = 0
		m.err = m.refresh()
	case "n", "N", "esc":
		m.plan = nil
		m.viewMode = ViewDetail
	}

	return m, nil
}
