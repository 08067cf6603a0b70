// ABOUTME: Document bodies as decoded JSON maps with envelope accessors
// ABOUTME: Converts typed structs to and from documents via JSON
package docstore

import (
	"encoding/json"
	"fmt"
)

// Envelope field names.
const (
	FieldID      = "_id"
	FieldRev     = "_rev"
	FieldDeleted = "_deleted"
)

// Doc is a JSON document. Every stored doc carries _id and _rev.
type Doc map[string]any

// ID returns the document id.
func (d Doc) ID() string {
	s, _ := d[FieldID].(string)
	return s
}

// Rev returns the document revision, empty for unsaved documents.
func (d Doc) Rev() string {
	s, _ := d[FieldRev].(string)
	return s
}

// Deleted reports whether the doc is marked for deletion in a bulk write.
func (d Doc) Deleted() bool {
	b, _ := d[FieldDeleted].(bool)
	return b
}

// MarkDeleted flags the doc for deletion in a bulk write.
func (d Doc) MarkDeleted() Doc {
	d[FieldDeleted] = true
	return d
}

// Value walks nested objects along path and returns the value found, or nil.
func (d Doc) Value(path ...string) any {
	var cur any = map[string]any(d)
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}

// String is Value coerced to a string, empty when absent or not a string.
func (d Doc) String(path ...string) string {
	s, _ := d.Value(path...).(string)
	return s
}

// Encode converts v into a Doc through its JSON form.
func Encode(v any) (Doc, error) {
	if d, ok := v.(Doc); ok {
		return d, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var d Doc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return d, nil
}

// Decode fills v from the doc's JSON form.
func Decode(d Doc, v any) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID(), err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode document %s: %w", d.ID(), err)
	}
	return nil
}

func marshalDoc(d Doc) ([]byte, error) {
	clean := make(Doc, len(d))
	for k, v := range d {
		if k == FieldDeleted {
			continue
		}
		clean[k] = v
	}
	return json.Marshal(clean)
}

func unmarshalDoc(raw []byte) (Doc, error) {
	var d Doc
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

func revOf(raw []byte) string {
	var env struct {
		Rev string `json:"_rev"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	return env.Rev
}
