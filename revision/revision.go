// ABOUTME: Revisable entity framework over the document store
// ABOUTME: Creates, mutates, and deletes entities while journaling every mutation as a Change
package revision

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/kinship/docstore"
	"github.com/harperreed/kinship/models"
	"github.com/oklog/ulid/v2"
)

// Result identifies what a mutation produced: the subject an audit record
// should point at and the Change journaling it.
type Result struct {
	ID       string
	Type     models.Kind
	ChangeID string
}

// Subject is the ref an audit record for this result points at.
func (r Result) Subject() models.Ref {
	return models.Ref{ID: r.ID, Type: r.Type}
}

// Mutator exposes the mutation operations of one entity instance.
type Mutator interface {
	Ref() models.Ref
	Revisable() bool

	Set(ctx context.Context, field string, value any) (Result, error)
	Unset(ctx context.Context, field string) (Result, error)
	Change(ctx context.Context, field string, value any) (Result, error)
	Add(ctx context.Context, field string, value any) (Result, error)
	Remove(ctx context.Context, field string, value any) (Result, error)

	// Because links a situation to the situation that caused it.
	Because(ctx context.Context, cause models.Ref) (Result, error)
	// Caused links a situation to a situation it caused.
	Caused(ctx context.Context, effect models.Ref) (Result, error)
}

// Store creates and opens revisable entities.
type Store struct {
	docs *docstore.Store
	now  func() time.Time
}

// New returns a Store writing through docs. docs must have ChangesView installed.
func New(docs *docstore.Store) *Store {
	return &Store{
		docs: docs,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Docs returns the underlying document store.
func (s *Store) Docs() *docstore.Store {
	return s.docs
}

// Create stores a new entity of kind with a fresh id. For revisable kinds the
// creation is journaled and the Change id returned.
func (s *Store) Create(ctx context.Context, kind models.Kind, fields map[string]any) (Result, error) {
	return s.CreateWithID(ctx, kind, newEntityID(), fields)
}

// CreateWithID is Create with a caller-chosen id.
func (s *Store) CreateWithID(ctx context.Context, kind models.Kind, id string, fields map[string]any) (Result, error) {
	return s.create(ctx, &models.Entity{ID: id, Type: kind, Fields: fields}, models.OpCreate)
}

// CreateLink stores a relationship between from and to.
func (s *Store) CreateLink(ctx context.Context, from, to models.Ref, fields map[string]any) (Result, error) {
	if from.ID == "" || to.ID == "" {
		return Result{}, fmt.Errorf("create relationship: %w", models.ErrInvalidRef)
	}
	return s.create(ctx, &models.Entity{
		ID:     newEntityID(),
		Type:   models.KindRelationship,
		From:   &from,
		To:     &to,
		Fields: fields,
	}, models.OpCreate)
}

func (s *Store) create(ctx context.Context, entity *models.Entity, op models.ChangeOp) (Result, error) {
	if !entity.Type.Valid() {
		return Result{}, fmt.Errorf("create %s: unknown kind", entity.Type)
	}
	if entity.Fields == nil {
		entity.Fields = map[string]any{}
	}
	now := s.now()
	entity.CreatedAt = now
	entity.UpdatedAt = now

	doc, err := docstore.Encode(entity)
	if err != nil {
		return Result{}, err
	}
	if _, err := s.docs.Create(ctx, doc); err != nil {
		return Result{}, fmt.Errorf("create %s %s: %w", entity.Type, entity.ID, err)
	}

	result := Result{ID: entity.ID, Type: entity.Type}
	if !entity.Type.Revisable() {
		return result, nil
	}

	result.ChangeID, err = s.journal(ctx, entity.Ref(), op, "", nil)
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func newEntityID() string {
	return uuid.New().String()
}

// Get loads an entity.
func (s *Store) Get(ctx context.Context, id string) (*models.Entity, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get entity %s: %w", id, err)
	}
	var entity models.Entity
	if err := docstore.Decode(doc, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// Open returns the mutator for ref. Non-revisable kinds get a mutator whose
// operations fail with models.ErrNotRevisable.
func (s *Store) Open(ref models.Ref) Mutator {
	if !ref.Type.Revisable() {
		return plain{ref: ref}
	}
	return &entity{store: s, ref: ref}
}

// Delete removes the entity's change journal and then the entity document.
// If any journal entry cannot be removed the entity is left in place.
func (s *Store) Delete(ctx context.Context, ref models.Ref) error {
	if ref.Type.Revisable() {
		changes, err := s.Changes(ctx, ref.ID)
		if err != nil {
			return fmt.Errorf("delete %s %s: %w", ref.Type, ref.ID, err)
		}
		if len(changes) > 0 {
			tombstones := make([]docstore.Doc, len(changes))
			for i, c := range changes {
				tombstones[i] = docstore.Doc{docstore.FieldID: c.ID, docstore.FieldRev: c.Rev, docstore.FieldDeleted: true}
			}
			results, err := s.docs.Bulk(ctx, tombstones)
			if err != nil {
				return fmt.Errorf("delete journal of %s: %w", ref.ID, err)
			}
			if err := docstore.BulkErrors(results); err != nil {
				return fmt.Errorf("delete journal of %s: %w", ref.ID, err)
			}
		}
	}
	if err := s.docs.Delete(ctx, ref.ID, ""); err != nil {
		return fmt.Errorf("delete %s %s: %w", ref.Type, ref.ID, err)
	}
	return nil
}

// DeleteChange removes one journal entry.
func (s *Store) DeleteChange(ctx context.Context, changeID string) error {
	if err := s.docs.Delete(ctx, changeID, ""); err != nil {
		return fmt.Errorf("delete change %s: %w", changeID, err)
	}
	return nil
}

// Changes lists the journal of an entity, oldest first.
func (s *Store) Changes(ctx context.Context, entityID string) ([]models.Change, error) {
	opts := docstore.RangeOf(entityID)
	opts.IncludeDocs = true

	rows, err := s.docs.Query(ctx, ChangesDesign, ChangesByEntity, opts)
	if err != nil {
		return nil, err
	}

	changes := make([]models.Change, 0, len(rows))
	for _, row := range rows {
		var c models.Change
		if err := docstore.Decode(row.Doc, &c); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, nil
}

func (s *Store) journal(ctx context.Context, ref models.Ref, op models.ChangeOp, field string, value any) (string, error) {
	change := models.Change{
		ID:        ulid.Make().String(),
		Type:      models.KindChange,
		Entity:    ref,
		Op:        op,
		Field:     field,
		Value:     value,
		CreatedAt: s.now(),
	}
	doc, err := docstore.Encode(change)
	if err != nil {
		return "", err
	}
	if _, err := s.docs.Create(ctx, doc); err != nil {
		return "", fmt.Errorf("record change for %s: %w", ref.ID, err)
	}
	return change.ID, nil
}
