// ABOUTME: User and relationship operations
// ABOUTME: Users are plain documents; relationships go through the revisable framework
package db

import (
	"context"
	"fmt"

	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/revision"
)

// CreateUser stores a user. An empty id gets a generated one.
func (d *DB) CreateUser(ctx context.Context, id, name string) (*models.Entity, error) {
	fields := map[string]any{"name": name}

	var (
		res revision.Result
		err error
	)
	if id == "" {
		res, err = d.Revisions.Create(ctx, models.KindUser, fields)
	} else {
		res, err = d.Revisions.CreateWithID(ctx, models.KindUser, id, fields)
	}
	if err != nil {
		return nil, err
	}
	return d.Revisions.Get(ctx, res.ID)
}

// GetUser loads a user, ErrNotFound if the id is missing or not a user.
func (d *DB) GetUser(ctx context.Context, id string) (*models.Entity, error) {
	return d.getKind(ctx, id, models.KindUser)
}

// GetRelationship loads a relationship.
func (d *DB) GetRelationship(ctx context.Context, id string) (*models.Entity, error) {
	return d.getKind(ctx, id, models.KindRelationship)
}

// CreateRelationship links from and to. The returned result carries the
// journal entry of the creation.
func (d *DB) CreateRelationship(ctx context.Context, from, to models.Ref, fields map[string]any) (revision.Result, error) {
	return d.Revisions.CreateLink(ctx, from, to, fields)
}

// CreateSituation stores a situation.
func (d *DB) CreateSituation(ctx context.Context, fields map[string]any) (revision.Result, error) {
	return d.Revisions.Create(ctx, models.KindSituation, fields)
}

// KindOf reports the stored type of id.
func (d *DB) KindOf(ctx context.Context, id string) (models.Kind, error) {
	doc, err := d.Store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return models.Kind(doc.String("type")), nil
}

func (d *DB) getKind(ctx context.Context, id string, kind models.Kind) (*models.Entity, error) {
	entity, err := d.Revisions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity.Type != kind {
		return nil, fmt.Errorf("%s is a %s, not a %s: %w", id, entity.Type, kind, models.ErrNotFound)
	}
	return entity, nil
}
