// ABOUTME: Document store connection management and initialization
// ABOUTME: Opens the configured backend at its XDG path and installs every view
package db

import (
	"context"
	"fmt"
	"os"

	"github.com/harperreed/kinship/config"
	"github.com/harperreed/kinship/docstore"
	"github.com/harperreed/kinship/revision"
)

// DB bundles the document store with the revisable entity framework over it.
type DB struct {
	Store     *docstore.Store
	Revisions *revision.Store
}

// Open opens the backend selected by cfg.
func Open(cfg config.StoreConfig) (*DB, error) {
	var (
		backend docstore.Backend
		err     error
	)

	switch cfg.Backend {
	case config.BackendMemory:
		backend, err = docstore.OpenBadgerInMemory()
	case config.BackendSQLite:
		backend, err = docstore.OpenSQLite(cfg.Path)
	case config.BackendBadger, "":
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, err
		}
		backend, err = docstore.OpenBadger(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	return New(docstore.Open(backend, Views()...)), nil
}

// New wraps an already opened store. The store must have Views installed.
func New(store *docstore.Store) *DB {
	return &DB{
		Store:     store,
		Revisions: revision.New(store),
	}
}

// Close releases the backend.
func (d *DB) Close() error {
	return d.Store.Close()
}

// Dependents lists the documents of design/view whose key starts with rootID.
func (d *DB) Dependents(ctx context.Context, design, view, rootID string) ([]docstore.Doc, error) {
	opts := docstore.RangeOf(rootID)
	opts.IncludeDocs = true

	rows, err := d.Store.Query(ctx, design, view, opts)
	if err != nil {
		return nil, err
	}

	docs := make([]docstore.Doc, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if seen[row.ID] {
			continue
		}
		seen[row.ID] = true
		docs = append(docs, row.Doc)
	}
	return docs, nil
}
