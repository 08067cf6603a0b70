// ABOUTME: BadgerDB backend for the document store
// ABOUTME: One badger transaction per document write, keys prefixed with doc/
package docstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
)

var docPrefix = []byte("doc/")

func docKey(id string) []byte {
	return append(append([]byte{}, docPrefix...), id...)
}

// BadgerBackend stores documents in a BadgerDB.
type BadgerBackend struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a badger database in dir.
func OpenBadger(dir string) (*BadgerBackend, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	opts := badger.DefaultOptions(dir).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

// OpenBadgerInMemory opens a badger database that lives only in memory.
func OpenBadgerInMemory() (*BadgerBackend, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory badger: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

func (b *BadgerBackend) Get(_ context.Context, id string) ([]byte, error) {
	var result []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(id))
		if err != nil {
			return err
		}
		result, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return result, err
}

func (b *BadgerBackend) Put(_ context.Context, id, expectRev string, body []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		if err := checkRev(txn, id, expectRev, true); err != nil {
			return err
		}
		return txn.Set(docKey(id), body)
	})
	return mapBadgerErr(err)
}

func (b *BadgerBackend) Delete(_ context.Context, id, rev string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		if err := checkRev(txn, id, rev, false); err != nil {
			return err
		}
		return txn.Delete(docKey(id))
	})
	return mapBadgerErr(err)
}

func (b *BadgerBackend) Scan(ctx context.Context, fn func(id string, body []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = docPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			body, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			id := string(bytes.TrimPrefix(item.KeyCopy(nil), docPrefix))
			if err := fn(id, body); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

// checkRev verifies the stored revision inside txn. For creates (create=true
// with an empty expectRev) the key must be absent.
func checkRev(txn *badger.Txn, id, expectRev string, create bool) error {
	item, err := txn.Get(docKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		if create && expectRev == "" {
			return nil
		}
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if create && expectRev == "" {
		return ErrConflict
	}
	if expectRev == "" {
		return nil
	}

	current, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	if revOf(current) != expectRev {
		return ErrConflict
	}
	return nil
}

func mapBadgerErr(err error) error {
	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
