// ABOUTME: Deterministic document identity built from actor, verb, and subject
// ABOUTME: Equal facts always compose to the same id so the store rejects duplicates
package models

import "strings"

// IDSeparator joins the parts of a composed id.
const IDSeparator = ":"

// ComposeID joins parts in order with IDSeparator.
func ComposeID(parts ...string) string {
	return strings.Join(parts, IDSeparator)
}

// ActionID is the id of the action recording verb on subjectID.
func ActionID(verb Verb, subjectID string) string {
	return ComposeID(string(verb), subjectID)
}

// AdjustmentID is the id of actorID's adjustment of field on targetID.
func AdjustmentID(actorID, targetID, field string) string {
	return ComposeID(actorID, "adjusted", targetID, field)
}

// BookmarkID is the id of userID's bookmark of targetID.
func BookmarkID(userID, targetID string) string {
	return ComposeID(userID, "bookmarked", targetID)
}
