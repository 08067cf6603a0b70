// ABOUTME: Tests for the TUI model
// ABOUTME: Drives key presses through Update against an in-memory graph
package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/kinship/cascade"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/logging"
	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/strength"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupModel(t *testing.T) (Model, *db.DB, string) {
	t.Helper()
	ctx := context.Background()
	database := db.NewTestDB(t)
	agg := strength.New(database.Store, logging.Discard(), nil)
	engine := cascade.New(database, time.Minute, logging.Discard(), nil)

	rel, err := database.CreateRelationship(ctx, models.UserRef("alice"), models.UserRef("bob"), map[string]any{"label": "climbing"})
	require.NoError(t, err)
	_, err = database.Bookmark(ctx, models.UserRef("carol"), models.RelationshipRef(rel.ID))
	require.NoError(t, err)

	m := NewModel(ctx, database, agg, engine, "carol")
	require.NoError(t, m.err)
	return m, database, rel.ID
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestListShowsBookmarkedRelationships(t *testing.T) {
	m, _, _ := setupModel(t)

	require.Len(t, m.rows, 1)
	out := m.View()
	assert.Contains(t, out, "KINSHIP · carol")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "climbing")
}

func TestSearchFiltersRows(t *testing.T) {
	m, _, _ := setupModel(t)

	m = press(t, m, "/", "z", "z")
	assert.True(t, m.searching)
	assert.Empty(t, m.visibleRows())

	m = press(t, m, "esc")
	assert.False(t, m.searching)
	assert.Len(t, m.visibleRows(), 1)
}

func TestDetailAdjustsStrength(t *testing.T) {
	m, _, relID := setupModel(t)

	m = press(t, m, "enter")
	require.Equal(t, ViewDetail, m.viewMode)
	assert.Equal(t, relID, m.selectedID)

	m = press(t, m, "+")
	require.NoError(t, m.err)
	assert.Equal(t, "Strengthened", m.message)

	m = press(t, m, "+")
	assert.Equal(t, "Already recorded", m.message)

	total, err := m.agg.Current(context.Background(), relID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	m = press(t, m, "esc")
	assert.Equal(t, ViewList, m.viewMode)
	assert.Equal(t, int64(1), m.rows[0].Strength)
}

func TestConfirmDeleteRunsCascade(t *testing.T) {
	m, database, relID := setupModel(t)

	m = press(t, m, "enter", "d")
	require.Equal(t, ViewConfirmDelete, m.viewMode)
	assert.Contains(t, m.View(), "1 bookmarks")

	m = press(t, m, "n")
	assert.Equal(t, ViewDetail, m.viewMode)

	m = press(t, m, "d", "y")
	require.NoError(t, m.err)
	assert.Equal(t, ViewList, m.viewMode)
	assert.Empty(t, m.rows)

	_, err := database.GetRelationship(context.Background(), relID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGraphView(t *testing.T) {
	m, _, _ := setupModel(t)

	m = press(t, m, "enter", "g")
	require.NoError(t, m.err)
	assert.Equal(t, ViewGraph, m.viewMode)
	assert.Contains(t, m.View(), "digraph")

	m = press(t, m, "esc")
	assert.Equal(t, ViewDetail, m.viewMode)
}
