// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Browses the acting user's bookmarked relationships and drives strength and deletes
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/strength"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewGraph
	ViewConfirmDelete
)

// Model is the main bubbletea model
type Model struct {
	ctx    context.Context
	db     *db.DB
	agg    *strength.Aggregator
	engine *cascade.Engine
	actor  string

	viewMode ViewMode

	// List view state
	rows        []relationshipRow
	selectedRow int
	search      textinput.Model
	searching   bool

	// Detail view state
	selectedID string

	// Graph view state
	graphDOT string

	// Delete confirmation state
	plan *cascade.Plan

	message string
	width   int
	height  int
	err     error
}

// NewModel creates a TUI model for actor and loads their bookmarks.
func NewModel(ctx context.Context, database *db.DB, agg *strength.Aggregator, engine *cascade.Engine, actor string) Model {
	search := textinput.New()
	search.Placeholder = "filter by user or label"
	search.CharLimit = 64

	m := Model{
		ctx:      ctx,
		db:       database,
		agg:      agg,
		engine:   engine,
		actor:    actor,
		viewMode: ViewList,
		search:   search,
		width:    80,
		height:   24,
	}
	m.err = m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.handleSearchKeys(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)
)
