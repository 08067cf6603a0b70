// ABOUTME: Tests for the revisable entity framework
// ABOUTME: Verifies journaled field mutations, causal links, and non-revisable refusal
package revision

import (
	"context"
	"testing"

	"github.com/harperreed/kinship/docstore"
	"github.com/harperreed/kinship/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	return New(docstore.NewTestStore(t, ChangesView))
}

func TestCreateJournalsRevisableKinds(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	rel, err := s.Create(ctx, models.KindRelationship, map[string]any{"label": "mentor"})
	require.NoError(t, err)
	assert.Equal(t, models.KindRelationship, rel.Type)
	assert.NotEmpty(t, rel.ChangeID, "revisable creation is journaled")

	user, err := s.Create(ctx, models.KindUser, nil)
	require.NoError(t, err)
	assert.Empty(t, user.ChangeID, "users are not journaled")

	changes, err := s.Changes(ctx, rel.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, models.OpCreate, changes[0].Op)
	assert.Equal(t, rel.ChangeID, changes[0].ID)
}

func TestFieldMutations(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	rel, err := s.Create(ctx, models.KindRelationship, nil)
	require.NoError(t, err)
	m := s.Open(models.RelationshipRef(rel.ID))
	require.True(t, m.Revisable())

	res, err := m.Set(ctx, "label", "friend")
	require.NoError(t, err)
	assert.Equal(t, models.KindChange, res.Type)
	assert.Equal(t, res.ID, res.ChangeID, "field mutations are subjects of their own change")

	_, err = m.Change(ctx, "label", "colleague")
	require.NoError(t, err)
	_, err = m.Change(ctx, "missing", "x")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = m.Add(ctx, "tags", "work")
	require.NoError(t, err)
	_, err = m.Add(ctx, "tags", "gym")
	require.NoError(t, err)
	_, err = m.Remove(ctx, "tags", "work")
	require.NoError(t, err)
	_, err = m.Remove(ctx, "tags", "absent")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = m.Unset(ctx, "label")
	require.NoError(t, err)

	got, err := s.Get(ctx, rel.ID)
	require.NoError(t, err)
	assert.NotContains(t, got.Fields, "label")
	assert.Equal(t, []any{"gym"}, got.Fields["tags"])

	changes, err := s.Changes(ctx, rel.ID)
	require.NoError(t, err)
	ops := make([]models.ChangeOp, len(changes))
	for i, c := range changes {
		ops[i] = c.Op
	}
	assert.Equal(t, []models.ChangeOp{
		models.OpCreate, models.OpSet, models.OpChange, models.OpAdd, models.OpAdd, models.OpRemove, models.OpUnset,
	}, ops, "failed mutations leave no journal entry")
}

func TestCausalLinks(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	storm, err := s.Create(ctx, models.KindSituation, map[string]any{"name": "storm"})
	require.NoError(t, err)
	outage, err := s.Create(ctx, models.KindSituation, map[string]any{"name": "outage"})
	require.NoError(t, err)

	res, err := s.Open(outage.Subject()).Because(ctx, storm.Subject())
	require.NoError(t, err)
	assert.Equal(t, models.KindRelationship, res.Type)
	assert.NotEmpty(t, res.ChangeID)

	link, err := s.Get(ctx, res.ID)
	require.NoError(t, err)
	require.NotNil(t, link.From)
	assert.Equal(t, storm.ID, link.From.ID)
	assert.Equal(t, outage.ID, link.To.ID)
	assert.Equal(t, "because", link.Fields["link"])

	changes, err := s.Changes(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, models.OpBecause, changes[0].Op)

	rel, err := s.Create(ctx, models.KindRelationship, nil)
	require.NoError(t, err)
	_, err = s.Open(rel.Subject()).Caused(ctx, storm.Subject())
	assert.ErrorIs(t, err, models.ErrNotRevisable, "only situations carry causal links")
}

func TestPlainMutatorRefuses(t *testing.T) {
	s := setupStore(t)
	m := s.Open(models.UserRef("u1"))

	assert.False(t, m.Revisable())
	_, err := m.Set(context.Background(), "name", "x")
	assert.ErrorIs(t, err, models.ErrNotRevisable)
}

func TestDeleteAndDeleteChange(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	rel, err := s.Create(ctx, models.KindRelationship, nil)
	require.NoError(t, err)

	require.NoError(t, s.DeleteChange(ctx, rel.ChangeID))
	changes, err := s.Changes(ctx, rel.ID)
	require.NoError(t, err)
	assert.Empty(t, changes)

	_, err = s.Open(rel.Subject()).Set(ctx, "label", "x")
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, rel.Subject()))
	changes, err = s.Changes(ctx, rel.ID)
	require.NoError(t, err)
	assert.Empty(t, changes, "delete removes the journal")
	_, err = s.Get(ctx, rel.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, rel.Subject()), models.ErrNotFound)
}
