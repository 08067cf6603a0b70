// ABOUTME: Document store with revisions, secondary-index queries, bulk writes, and multi-get
// ABOUTME: Atomic per document only; bulk entries succeed or fail independently
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/oklog/ulid/v2"
)

// Store is a revisioned document store over a Backend.
type Store struct {
	backend Backend
	views   map[string]View
}

// Open wraps backend with the given views installed.
func Open(backend Backend, views ...View) *Store {
	s := &Store{
		backend: backend,
		views:   make(map[string]View, len(views)),
	}
	for _, v := range views {
		s.views[v.path()] = v
	}
	return s
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func newRev() string {
	return ulid.Make().String()
}

// Get returns the document with id or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (Doc, error) {
	raw, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return unmarshalDoc(raw)
}

// Exists reports whether a document with id is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.backend.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Create stores doc under its _id. It fails with ErrConflict when the id is
// taken. The new revision is written into doc and returned.
func (s *Store) Create(ctx context.Context, doc Doc) (string, error) {
	id := doc.ID()
	if id == "" {
		return "", fmt.Errorf("create document: missing %s", FieldID)
	}
	return s.write(ctx, doc, "")
}

// Put replaces doc, which must carry the current _rev.
func (s *Store) Put(ctx context.Context, doc Doc) (string, error) {
	if doc.ID() == "" || doc.Rev() == "" {
		return "", fmt.Errorf("put document: %s and %s are required", FieldID, FieldRev)
	}
	return s.write(ctx, doc, doc.Rev())
}

func (s *Store) write(ctx context.Context, doc Doc, expectRev string) (string, error) {
	rev := newRev()
	next := make(Doc, len(doc))
	for k, v := range doc {
		next[k] = v
	}
	next[FieldRev] = rev

	body, err := marshalDoc(next)
	if err != nil {
		return "", err
	}
	if err := s.backend.Put(ctx, doc.ID(), expectRev, body); err != nil {
		return "", err
	}
	doc[FieldRev] = rev
	return rev, nil
}

// Delete removes the document. An empty rev deletes whatever is stored.
func (s *Store) Delete(ctx context.Context, id, rev string) error {
	return s.backend.Delete(ctx, id, rev)
}

// Update applies fn to the current document and stores the result, retrying
// once per conflicting concurrent write up to a small bound.
func (s *Store) Update(ctx context.Context, id string, fn func(Doc) (Doc, error)) (Doc, error) {
	const attempts = 3

	var lastErr error
	for i := 0; i < attempts; i++ {
		current, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		next[FieldID] = id
		next[FieldRev] = current.Rev()
		if _, err := s.Put(ctx, next); err != nil {
			if errors.Is(err, ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return next, nil
	}
	return nil, lastErr
}

// Query reads rows of design/view whose keys fall in [StartKey, EndKey].
func (s *Store) Query(ctx context.Context, design, view string, opts QueryOptions) ([]Row, error) {
	v, ok := s.views[design+"/"+view]
	if !ok {
		return nil, fmt.Errorf("query %s/%s: %w", design, view, ErrNotFound)
	}

	var rows []Row
	err := s.backend.Scan(ctx, func(id string, body []byte) error {
		doc, err := unmarshalDoc(body)
		if err != nil {
			return fmt.Errorf("decode %s: %w", id, err)
		}
		v.Map(doc, func(key []any, value any) {
			if opts.StartKey != nil && Compare(key, opts.StartKey) < 0 {
				return
			}
			if opts.EndKey != nil && Compare(key, opts.EndKey) > 0 {
				return
			}
			row := Row{Key: key, Value: value, ID: id}
			if opts.IncludeDocs && !opts.Reduce {
				row.Doc = doc
			}
			rows = append(rows, row)
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("query %s/%s: %w", design, view, err)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if c := Compare(rows[i].Key, rows[j].Key); c != 0 {
			return c < 0
		}
		return rows[i].ID < rows[j].ID
	})

	if opts.Reduce && v.Reduce != nil {
		if len(rows) == 0 {
			return nil, nil
		}
		values := make([]any, len(rows))
		for i, r := range rows {
			values[i] = r.Value
		}
		return []Row{{Value: v.Reduce(values)}}, nil
	}
	return rows, nil
}

// BulkResult is the outcome of one entry in a bulk write.
type BulkResult struct {
	ID  string
	Rev string
	Err error
}

// Bulk applies each document independently: deletions for docs marked with
// _deleted, creates for docs without _rev, replacements otherwise. The batch
// is not atomic; inspect every result.
func (s *Store) Bulk(ctx context.Context, docs []Doc) ([]BulkResult, error) {
	results := make([]BulkResult, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		res := BulkResult{ID: doc.ID()}
		switch {
		case doc.Deleted():
			res.Err = s.Delete(ctx, doc.ID(), doc.Rev())
		case doc.Rev() == "":
			res.Rev, res.Err = s.Create(ctx, doc)
		default:
			res.Rev, res.Err = s.Put(ctx, doc)
		}
		results = append(results, res)
	}
	return results, nil
}

// FetchRow is one multi-get result; Err is ErrNotFound for missing ids.
type FetchRow struct {
	ID  string
	Doc Doc
	Err error
}

// Fetch loads ids in request order.
func (s *Store) Fetch(ctx context.Context, ids []string) ([]FetchRow, error) {
	rows := make([]FetchRow, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := s.Get(ctx, id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("fetch %s: %w", id, err)
		}
		rows = append(rows, FetchRow{ID: id, Doc: doc, Err: err})
	}
	return rows, nil
}

// BulkErrors joins the failures of a bulk write, nil when all succeeded.
func BulkErrors(results []BulkResult) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.ID, r.Err))
		}
	}
	return errors.Join(errs...)
}
