// ABOUTME: Secondary index definitions for the document store
// ABOUTME: A view maps each document to zero or more keyed rows, optionally reduced
package docstore

import "math"

// EmitFunc records one index row for the document being mapped.
type EmitFunc func(key []any, value any)

// MapFunc projects a document into index rows.
type MapFunc func(doc Doc, emit EmitFunc)

// ReduceFunc aggregates the values of all rows matched by a query.
type ReduceFunc func(values []any) any

// View is a named, range-queryable projection.
type View struct {
	Design string
	Name   string
	Map    MapFunc
	Reduce ReduceFunc
}

func (v View) path() string {
	return v.Design + "/" + v.Name
}

// Sum adds numeric values; non-numeric values count as zero.
func Sum(values []any) any {
	var total float64
	for _, v := range values {
		f := toFloat(v)
		if math.IsNaN(f) {
			continue
		}
		total += f
	}
	return total
}

// QueryOptions selects a key range from a view.
type QueryOptions struct {
	StartKey    []any
	EndKey      []any
	IncludeDocs bool
	Reduce      bool
}

// RangeOf selects every row whose key begins with prefix.
func RangeOf(prefix ...any) QueryOptions {
	end := append(append([]any{}, prefix...), HighKey)
	return QueryOptions{StartKey: prefix, EndKey: end}
}

// Row is one index entry. Doc is set only with IncludeDocs. A reduced query
// returns a single row with a nil Key.
type Row struct {
	Key   []any
	Value any
	ID    string
	Doc   Doc
}
