// ABOUTME: Tests for the audit interception layer
// ABOUTME: Covers pass-through, action recording, duplicate rejection, and compensation
package audit

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/docstore"
	"github.com/harperreed/kinship/logging"
	"github.com/harperreed/kinship/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = models.UserRef("alice")

func setupLayer(t *testing.T) (*Layer, *db.DB, *docstore.FaultyBackend) {
	t.Helper()
	database, faulty := db.NewFaultyTestDB(t)
	return New(database.Revisions, logging.Discard(), nil), database, faulty
}

func failActionWrites(id string) error {
	if strings.HasPrefix(id, string(models.VerbCreated)+models.IDSeparator) {
		return docstore.ErrInjected
	}
	return nil
}

func TestWithPassesThroughNonRevisable(t *testing.T) {
	layer, database, _ := setupLayer(t)

	plain := database.Revisions.Open(models.UserRef("bob"))
	wrapped := layer.With(alice, plain)

	assert.Equal(t, plain, wrapped)
	assert.False(t, wrapped.Revisable())
}

func TestFieldMutationRecordsAction(t *testing.T) {
	ctx := context.Background()
	layer, database, _ := setupLayer(t)

	rel, err := database.CreateRelationship(ctx, alice, models.UserRef("bob"), nil)
	require.NoError(t, err)

	m := layer.With(alice, database.Revisions.Open(rel.Subject()))
	res, err := m.Set(ctx, "label", "friend")
	require.NoError(t, err)
	assert.Equal(t, models.KindChange, res.Type)

	actions, err := layer.ActionsBySubject(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "created:"+res.ChangeID, actions[0].ID)
	assert.Equal(t, models.VerbCreated, actions[0].Verb)
	assert.Equal(t, alice.ID, actions[0].User.ID)
	assert.Equal(t, models.KindChange, actions[0].Subject.Type)

	mine, err := layer.ActionsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestCausalLinkRecordsRelationshipAction(t *testing.T) {
	ctx := context.Background()
	layer, database, _ := setupLayer(t)

	storm, err := database.CreateSituation(ctx, map[string]any{"name": "storm"})
	require.NoError(t, err)
	outage, err := database.CreateSituation(ctx, map[string]any{"name": "outage"})
	require.NoError(t, err)

	res, err := layer.With(alice, database.Revisions.Open(outage.Subject())).Because(ctx, storm.Subject())
	require.NoError(t, err)
	assert.Equal(t, models.KindRelationship, res.Type)

	actions, err := layer.ActionsBySubject(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, models.KindRelationship, actions[0].Subject.Type)
}

func TestCreateRecordsAction(t *testing.T) {
	ctx := context.Background()
	layer, _, _ := setupLayer(t)

	res, err := layer.CreateLink(ctx, alice, alice, models.UserRef("bob"), map[string]any{"label": "friend"})
	require.NoError(t, err)

	actions, err := layer.ActionsBySubject(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "created:"+res.ID, actions[0].ID)
}

func TestRecordDuplicateConflicts(t *testing.T) {
	ctx := context.Background()
	layer, _, _ := setupLayer(t)
	subject := models.Ref{ID: "c1", Type: models.KindChange}

	_, err := layer.Record(ctx, alice, models.VerbCreated, subject)
	require.NoError(t, err)

	_, err = layer.Record(ctx, models.UserRef("bob"), models.VerbCreated, subject)
	assert.ErrorIs(t, err, models.ErrStoreConflict)

	actions, err := layer.ActionsBySubject(ctx, subject.ID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, alice.ID, actions[0].User.ID, "the first record wins")
}

func TestAuditFailureCompensates(t *testing.T) {
	ctx := context.Background()
	layer, database, faulty := setupLayer(t)

	rel, err := database.CreateRelationship(ctx, alice, models.UserRef("bob"), nil)
	require.NoError(t, err)

	faulty.FailPut(failActionWrites)
	_, err = layer.With(alice, database.Revisions.Open(rel.Subject())).Set(ctx, "label", "friend")
	require.Error(t, err)
	faulty.Heal()

	assert.ErrorIs(t, err, models.ErrAuditWriteFailed)
	assert.ErrorIs(t, err, docstore.ErrInjected)

	var auditErr *AuditWriteError
	require.True(t, errors.As(err, &auditErr))
	assert.True(t, auditErr.Compensated())

	_, err = database.Store.Get(ctx, auditErr.ChangeID)
	assert.ErrorIs(t, err, models.ErrNotFound, "the change is removed")

	changes, err := database.Revisions.Changes(ctx, rel.ID)
	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, models.OpCreate, changes[0].Op)

	actions, err := layer.ActionsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, actions)

	entity, err := database.Revisions.Get(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, "friend", entity.Fields["label"], "the field write itself stays")
}

func TestCompensationFailureIsReported(t *testing.T) {
	ctx := context.Background()
	layer, database, faulty := setupLayer(t)

	rel, err := database.CreateRelationship(ctx, alice, models.UserRef("bob"), nil)
	require.NoError(t, err)

	compErr := errors.New("delete refused")
	faulty.FailPut(failActionWrites)
	faulty.FailDelete(func(string) error { return compErr })

	_, err = layer.With(alice, database.Revisions.Open(rel.Subject())).Set(ctx, "label", "friend")
	faulty.Heal()

	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrAuditWriteFailed)
	assert.ErrorIs(t, err, docstore.ErrInjected)
	assert.ErrorIs(t, err, compErr)
	assert.Contains(t, err.Error(), "compensation")

	var auditErr *AuditWriteError
	require.True(t, errors.As(err, &auditErr))
	assert.False(t, auditErr.Compensated())
}

func TestPrimaryFailureIsNotCompensated(t *testing.T) {
	ctx := context.Background()
	layer, database, faulty := setupLayer(t)

	rel, err := database.CreateRelationship(ctx, alice, models.UserRef("bob"), nil)
	require.NoError(t, err)

	var deletes atomic.Int32
	faulty.FailDelete(func(string) error {
		deletes.Add(1)
		return nil
	})

	_, err = layer.With(alice, database.Revisions.Open(rel.Subject())).Change(ctx, "missing", "x")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NotErrorIs(t, err, models.ErrAuditWriteFailed)
	assert.Zero(t, deletes.Load())

	actions, err := layer.ActionsByUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, actions)
}
