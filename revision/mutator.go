// ABOUTME: Field-level mutations of revisable entities
// ABOUTME: Each operation updates the entity document then journals one Change
package revision

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/harperreed/kinship/docstore"
	"github.com/harperreed/kinship/models"
)

type entity struct {
	store *Store
	ref   models.Ref
}

func (e *entity) Ref() models.Ref { return e.ref }
func (e *entity) Revisable() bool { return true }

func (e *entity) Set(ctx context.Context, field string, value any) (Result, error) {
	value = normalize(value)
	return e.mutate(ctx, models.OpSet, field, value, func(fields map[string]any) error {
		fields[field] = value
		return nil
	})
}

func (e *entity) Unset(ctx context.Context, field string) (Result, error) {
	return e.mutate(ctx, models.OpUnset, field, nil, func(fields map[string]any) error {
		if _, ok := fields[field]; !ok {
			return fmt.Errorf("field %s: %w", field, models.ErrNotFound)
		}
		delete(fields, field)
		return nil
	})
}

// Change replaces the value of a field that must already be set.
func (e *entity) Change(ctx context.Context, field string, value any) (Result, error) {
	value = normalize(value)
	return e.mutate(ctx, models.OpChange, field, value, func(fields map[string]any) error {
		if _, ok := fields[field]; !ok {
			return fmt.Errorf("field %s: %w", field, models.ErrNotFound)
		}
		fields[field] = value
		return nil
	})
}

// Add appends value to a list field, creating the list if needed.
func (e *entity) Add(ctx context.Context, field string, value any) (Result, error) {
	value = normalize(value)
	return e.mutate(ctx, models.OpAdd, field, value, func(fields map[string]any) error {
		list, err := listField(fields, field)
		if err != nil {
			return err
		}
		for _, v := range list {
			if reflect.DeepEqual(v, value) {
				return nil
			}
		}
		fields[field] = append(list, value)
		return nil
	})
}

// Remove drops value from a list field.
func (e *entity) Remove(ctx context.Context, field string, value any) (Result, error) {
	value = normalize(value)
	return e.mutate(ctx, models.OpRemove, field, value, func(fields map[string]any) error {
		list, err := listField(fields, field)
		if err != nil {
			return err
		}
		for i, v := range list {
			if reflect.DeepEqual(v, value) {
				fields[field] = append(list[:i:i], list[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("field %s value %v: %w", field, value, models.ErrNotFound)
	})
}

func (e *entity) Because(ctx context.Context, cause models.Ref) (Result, error) {
	return e.link(ctx, models.OpBecause, cause, e.ref)
}

func (e *entity) Caused(ctx context.Context, effect models.Ref) (Result, error) {
	return e.link(ctx, models.OpCaused, e.ref, effect)
}

// link creates the causal relationship from -> to and journals it on the new
// relationship.
func (e *entity) link(ctx context.Context, op models.ChangeOp, from, to models.Ref) (Result, error) {
	if !e.ref.Type.Causal() {
		return Result{}, fmt.Errorf("%s on %s: %w", op, e.ref.Type, models.ErrNotRevisable)
	}
	if _, err := e.store.docs.Get(ctx, e.ref.ID); err != nil {
		return Result{}, fmt.Errorf("%s on %s: %w", op, e.ref.ID, err)
	}
	return e.store.create(ctx, &models.Entity{
		ID:     newEntityID(),
		Type:   models.KindRelationship,
		From:   &from,
		To:     &to,
		Fields: map[string]any{"link": string(op)},
	}, op)
}

func (e *entity) mutate(ctx context.Context, op models.ChangeOp, field string, value any, apply func(map[string]any) error) (Result, error) {
	_, err := e.store.docs.Update(ctx, e.ref.ID, func(doc docstore.Doc) (docstore.Doc, error) {
		if doc.String("type") != string(e.ref.Type) {
			return nil, fmt.Errorf("%s is a %s, not a %s: %w", e.ref.ID, doc.String("type"), e.ref.Type, models.ErrNotFound)
		}
		fields, _ := doc["fields"].(map[string]any)
		if fields == nil {
			fields = map[string]any{}
		}
		if err := apply(fields); err != nil {
			return nil, err
		}
		doc["fields"] = fields
		doc["updated_at"] = e.store.now()
		return doc, nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("%s %s.%s: %w", op, e.ref.ID, field, err)
	}

	changeID, err := e.store.journal(ctx, e.ref, op, field, value)
	if err != nil {
		return Result{}, err
	}
	return Result{ID: changeID, Type: models.KindChange, ChangeID: changeID}, nil
}

// plain is the mutator of entities outside the change journal.
type plain struct {
	ref models.Ref
}

func (p plain) Ref() models.Ref { return p.ref }
func (p plain) Revisable() bool { return false }

func (p plain) refuse(op models.ChangeOp) (Result, error) {
	return Result{}, fmt.Errorf("%s on %s %s: %w", op, p.ref.Type, p.ref.ID, models.ErrNotRevisable)
}

func (p plain) Set(context.Context, string, any) (Result, error)    { return p.refuse(models.OpSet) }
func (p plain) Unset(context.Context, string) (Result, error)       { return p.refuse(models.OpUnset) }
func (p plain) Change(context.Context, string, any) (Result, error) { return p.refuse(models.OpChange) }
func (p plain) Add(context.Context, string, any) (Result, error)    { return p.refuse(models.OpAdd) }
func (p plain) Remove(context.Context, string, any) (Result, error) { return p.refuse(models.OpRemove) }
func (p plain) Because(context.Context, models.Ref) (Result, error) { return p.refuse(models.OpBecause) }
func (p plain) Caused(context.Context, models.Ref) (Result, error)  { return p.refuse(models.OpCaused) }

func listField(fields map[string]any, field string) ([]any, error) {
	switch v := fields[field].(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	default:
		return nil, fmt.Errorf("field %s is not a list", field)
	}
}

// normalize gives value its JSON-decoded shape so comparisons against stored
// fields behave.
func normalize(value any) any {
	raw, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return value
	}
	return out
}
