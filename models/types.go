// ABOUTME: Data models for the social graph documents
// ABOUTME: Defines entity kinds, refs, Action, Adjustment, Bookmark, and Change bodies
package models

import (
	"time"
)

// Kind names a document type. The set is closed.
type Kind string

const (
	KindUser         Kind = "user"
	KindRelationship Kind = "relationship"
	KindSituation    Kind = "situation"
	KindBookmark     Kind = "bookmark"
	KindAdjustment   Kind = "adjustment"
	KindAction       Kind = "action"
	KindChange       Kind = "change"
)

// Revisable reports whether mutations of this kind go through the change journal.
func (k Kind) Revisable() bool {
	switch k {
	case KindRelationship, KindSituation:
		return true
	default:
		return false
	}
}

// Causal reports whether the kind supports because/caused links.
func (k Kind) Causal() bool {
	return k == KindSituation
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindUser, KindRelationship, KindSituation, KindBookmark, KindAdjustment, KindAction, KindChange:
		return true
	}
	return false
}

// Verb is the action performed on a subject.
type Verb string

const (
	VerbCreated Verb = "created"
	VerbUpdated Verb = "updated"
	VerbDeleted Verb = "deleted"
)

// FieldStrength is the adjustable field summed into a relationship's strength.
const FieldStrength = "strength"

// Ref points at another document by id and type.
type Ref struct {
	ID   string `json:"_id"`
	Type Kind   `json:"type,omitempty"`
}

// UserRef builds a ref to a user.
func UserRef(id string) Ref {
	return Ref{ID: id, Type: KindUser}
}

// RelationshipRef builds a ref to a relationship.
func RelationshipRef(id string) Ref {
	return Ref{ID: id, Type: KindRelationship}
}

// Action is the immutable audit record of a mutation.
type Action struct {
	ID        string    `json:"_id"`
	Rev       string    `json:"_rev,omitempty"`
	Type      Kind      `json:"type"`
	User      Ref       `json:"user"`
	Verb      Verb      `json:"verb"`
	Subject   Ref       `json:"subject"`
	CreatedAt time.Time `json:"created_at"`
}

// Adjustment is one actor's current contribution to a field of a target.
type Adjustment struct {
	ID       string   `json:"_id"`
	Rev      string   `json:"_rev,omitempty"`
	Type     Kind     `json:"type"`
	User     Ref      `json:"user"`
	Adjusted Adjusted `json:"adjusted"`
}

// Adjusted identifies the target document and field of an adjustment.
type Adjusted struct {
	Doc   Ref        `json:"doc"`
	Field FieldDelta `json:"field"`
}

// FieldDelta is the signed amount applied to a named field.
type FieldDelta struct {
	Name string `json:"name"`
	By   int64  `json:"by"`
}

// Bookmark is a user's reference to another entity.
type Bookmark struct {
	ID         string    `json:"_id"`
	Rev        string    `json:"_rev,omitempty"`
	Type       Kind      `json:"type"`
	User       Ref       `json:"user"`
	Bookmarked Ref       `json:"bookmarked"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChangeOp names the mutation recorded by a Change.
type ChangeOp string

const (
	OpCreate  ChangeOp = "create"
	OpSet     ChangeOp = "set"
	OpUnset   ChangeOp = "unset"
	OpChange  ChangeOp = "change"
	OpAdd     ChangeOp = "add"
	OpRemove  ChangeOp = "remove"
	OpBecause ChangeOp = "because"
	OpCaused  ChangeOp = "caused"
)

// Change is a mutation-journal entry for a revisable entity.
type Change struct {
	ID        string    `json:"_id"`
	Rev       string    `json:"_rev,omitempty"`
	Type      Kind      `json:"type"`
	Entity    Ref       `json:"entity"`
	Op        ChangeOp  `json:"op"`
	Field     string    `json:"field,omitempty"`
	Value     any       `json:"value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Entity is the stored body of a user, relationship, or situation.
type Entity struct {
	ID        string         `json:"_id"`
	Rev       string         `json:"_rev,omitempty"`
	Type      Kind           `json:"type"`
	From      *Ref           `json:"from,omitempty"`
	To        *Ref           `json:"to,omitempty"`
	Fields    map[string]any `json:"fields"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Ref returns a ref to the entity.
func (e *Entity) Ref() Ref {
	return Ref{ID: e.ID, Type: e.Type}
}
