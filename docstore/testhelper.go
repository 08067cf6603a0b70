// ABOUTME: Test utilities for isolated document stores and injected failures
// ABOUTME: Uses in-memory BadgerDB so tests never touch disk or each other
package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// ErrInjected is returned by FaultyBackend for faults without their own error.
var ErrInjected = errors.New("injected failure")

// NewTestStore opens an in-memory badger store with views installed. The
// backend is closed when the test ends.
func NewTestStore(t *testing.T, views ...View) *Store {
	t.Helper()
	store, _ := NewFaultyTestStore(t, views...)
	return store
}

// NewFaultyTestStore is NewTestStore with a FaultyBackend between the store
// and badger so tests can force individual writes or scans to fail.
func NewFaultyTestStore(t *testing.T, views ...View) (*Store, *FaultyBackend) {
	t.Helper()

	backend, err := OpenBadgerInMemory()
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	faulty := &FaultyBackend{Backend: backend}

	t.Cleanup(func() {
		if err := backend.Close(); err != nil {
			t.Logf("Warning: failed to close test database: %v", err)
		}
	})

	return Open(faulty, views...), faulty
}

// FaultyBackend wraps a Backend and fails the operations its hooks select.
// A nil hook lets every call through.
type FaultyBackend struct {
	Backend

	mu         sync.RWMutex
	failPut    func(id string) error
	failDelete func(ctx context.Context, id string) error
	failScan   func() error
}

// FailPut makes writes of ids selected by fn return fn's error.
func (f *FaultyBackend) FailPut(fn func(id string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPut = fn
}

// FailDelete makes deletions of ids selected by fn return fn's error.
func (f *FaultyBackend) FailDelete(fn func(id string) error) {
	if fn == nil {
		f.InterceptDelete(nil)
		return
	}
	f.InterceptDelete(func(_ context.Context, id string) error { return fn(id) })
}

// InterceptDelete is FailDelete with the caller's context, so a hook can
// block until the operation is cancelled.
func (f *FaultyBackend) InterceptDelete(fn func(ctx context.Context, id string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDelete = fn
}

// FailScan makes every view query fail with fn's error.
func (f *FaultyBackend) FailScan(fn func() error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failScan = fn
}

// Heal removes all injected faults.
func (f *FaultyBackend) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPut, f.failDelete, f.failScan = nil, nil, nil
}

func (f *FaultyBackend) Put(ctx context.Context, id, expectRev string, body []byte) error {
	f.mu.RLock()
	hook := f.failPut
	f.mu.RUnlock()
	if hook != nil {
		if err := hook(id); err != nil {
			return err
		}
	}
	return f.Backend.Put(ctx, id, expectRev, body)
}

func (f *FaultyBackend) Delete(ctx context.Context, id, rev string) error {
	f.mu.RLock()
	hook := f.failDelete
	f.mu.RUnlock()
	if hook != nil {
		if err := hook(ctx, id); err != nil {
			return err
		}
	}
	return f.Backend.Delete(ctx, id, rev)
}

func (f *FaultyBackend) Scan(ctx context.Context, fn func(id string, body []byte) error) error {
	f.mu.RLock()
	hook := f.failScan
	f.mu.RUnlock()
	if hook != nil {
		if err := hook(); err != nil {
			return err
		}
	}
	return f.Backend.Scan(ctx, fn)
}
