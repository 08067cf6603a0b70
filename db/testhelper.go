// ABOUTME: Test utilities for isolated graph databases
// ABOUTME: Every view is installed over an in-memory store
package db

import (
	"testing"

	"github.com/harperreed/kinship/docstore"
)

// NewTestDB returns a DB over an in-memory store closed when the test ends.
func NewTestDB(t *testing.T) *DB {
	t.Helper()
	return New(docstore.NewTestStore(t, Views()...))
}

// NewFaultyTestDB is NewTestDB with fault injection.
func NewFaultyTestDB(t *testing.T) (*DB, *docstore.FaultyBackend) {
	t.Helper()
	store, faulty := docstore.NewFaultyTestStore(t, Views()...)
	return New(store), faulty
}
