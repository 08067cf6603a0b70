// ABOUTME: Storage backend contract for the document store
// ABOUTME: Single-document compare-and-set writes; no multi-document transactions
package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document update conflict")
)

// Backend persists raw JSON documents keyed by id. Each call is atomic for one
// document only.
type Backend interface {
	// Get returns the stored body or ErrNotFound.
	Get(ctx context.Context, id string) ([]byte, error)
	// Put stores body when the current revision equals expectRev. An empty
	// expectRev means the id must not exist yet (ErrConflict otherwise).
	Put(ctx context.Context, id, expectRev string, body []byte) error
	// Delete removes the document when its revision equals rev. An empty rev
	// deletes unconditionally.
	Delete(ctx context.Context, id, rev string) error
	// Scan calls fn for every stored document in id order.
	Scan(ctx context.Context, fn func(id string, body []byte) error) error
	Close() error
}
