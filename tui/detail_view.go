package tui

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/harperreed/kinship/models"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("RELATIONSHIP"))
	s.WriteString("\n\n")
	s.WriteString(m.renderRelationshipDetail())
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	} else if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}

	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderRelationshipDetail() string {
	rel, err := m.db.GetRelationship(m.ctx, m.selectedID)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	total, err := m.agg.Current(m.ctx, rel.ID)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}

	var s strings.Builder

	if rel.From != nil && rel.To != nil {
		s.WriteString(m.renderField("Between", rel.From.ID+" ↔ "+rel.To.ID))
	}
	s.WriteString(m.renderField("Strength", fmt.Sprintf("%+d", total)))

	keys := make([]string, 0, len(rel.Fields))
	for k := range rel.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s.WriteString(m.renderField(k, fmt.Sprint(rel.Fields[k])))
	}

	// History
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render("HISTORY"))
	s.WriteString("\n")

	changes, _ := m.db.Revisions.Changes(m.ctx, rel.ID)
	for _, c := range changes {
		line := fmt.Sprintf("  • [%s] %s", c.CreatedAt.Format("2006-01-02"), c.Op)
		if c.Field != "" {
			line += " " + c.Field
		}
		s.WriteString(line + "\n")
	}

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"Esc: Back",
		"+: Strengthen",
		"-: Weaken",
		"0: Withdraw",
		"d: Delete",
		"g: View graph",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	actor := models.UserRef(m.actor)
	target := models.RelationshipRef(m.selectedID)
	m.err = nil

	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.message = ""
		m.err = m.refresh()
	case "+":
		_, err := m.agg.Strengthen(m.ctx, actor, target)
		m.message, m.err = adjustMessage("Strengthened", err)
	case "-":
		_, err := m.agg.Weaken(m.ctx, actor, target)
		m.message, m.err = adjustMessage("Weakened", err)
	case "0":
		err := m.agg.Unstrength(m.ctx, actor, target)
		m.message, m.err = adjustMessage("Withdrew adjustment", err)
	case "d":
		plan, err := m.engine.Plan(m.ctx, target)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.plan = plan
		m.viewMode = ViewConfirmDelete
	case "g":
		if err := m.generateGraph(); err != nil {
			m.err = err
			return m, nil
		}
		m.viewMode = ViewGraph
	}

	return m, nil
}

func adjustMessage(done string, err error) (string, error) {
	switch {
	case errors.Is(err, models.ErrAlreadyAdjusted):
		return "Already recorded", nil
	case err != nil:
		return "", err
	default:
		return done, nil
	}
}
