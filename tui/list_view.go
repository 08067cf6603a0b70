package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/kinship/models"
)

type relationshipRow struct {
	ID       string
	From     string
	To       string
	Label    string
	Strength int64
}

func (r relationshipRow) matches(query string) bool {
	if query == "" {
		return true
	}
	query = strings.ToLower(query)
	for _, s := range []string{r.From, r.To, r.Label} {
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

// refresh reloads the relationships the actor has bookmarked.
func (m *Model) refresh() error {
	bookmarks, err := m.db.BookmarksByUser(m.ctx, m.actor)
	if err != nil {
		return err
	}

	m.rows = nil
	for _, b := range bookmarks {
		if b.Bookmarked.Type != models.KindRelationship {
			continue
		}
		rel, err := m.db.GetRelationship(m.ctx, b.Bookmarked.ID)
		if err != nil {
			// Bookmark of a relationship that is mid-delete.
			continue
		}
		total, err := m.agg.Current(m.ctx, rel.ID)
		if err != nil {
			return err
		}
		row := relationshipRow{ID: rel.ID, Strength: total}
		if rel.From != nil {
			row.From = rel.From.ID
		}
		if rel.To != nil {
			row.To = rel.To.ID
		}
		row.Label, _ = rel.Fields["label"].(string)
		m.rows = append(m.rows, row)
	}
	return nil
}

func (m Model) visibleRows() []relationshipRow {
	var rows []relationshipRow
	for _, r := range m.rows {
		if r.matches(m.search.Value()) {
			rows = append(rows, r)
		}
	}
	return rows
}

func (m Model) renderListView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("KINSHIP · " + m.actor))
	s.WriteString("\n\n")

	if m.searching || m.search.Value() != "" {
		s.WriteString(m.search.View())
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderTable())
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		s.WriteString("\n")
	} else if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}

	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTable() string {
	columns := []table.Column{
		{Title: "From", Width: 20},
		{Title: "To", Width: 20},
		{Title: "Label", Width: 16},
		{Title: "Strength", Width: 8},
	}

	var rows []table.Row
	for _, r := range m.visibleRows() {
		rows = append(rows, table.Row{
			r.From,
			r.To,
			r.Label,
			fmt.Sprintf("%+d", r.Strength),
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)

	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}

	return t.View()
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Enter: View details",
		"/: Filter",
		"r: Reload",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.visibleRows())-1 {
			m.selectedRow++
		}
	case "enter":
		if id := m.getSelectedID(); id != "" {
			m.viewMode = ViewDetail
			m.selectedID = id
			m.message = ""
		}
	case "/":
		m.searching = true
		return m, m.search.Focus()
	case "r":
		m.err = m.refresh()
	}

	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "esc":
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.selectedRow = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.selectedRow = 0
	return m, cmd
}

func (m Model) getSelectedID() string {
	rows := m.visibleRows()
	if m.selectedRow < len(rows) {
		return rows[m.selectedRow].ID
	}
	return ""
}
