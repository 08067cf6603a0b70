// ABOUTME: Secondary index definitions for every document kind
// ABOUTME: Each view keys rows by the aggregate root id first so [id]..[id, {}] scopes one root
package db

import (
	"github.com/harperreed/kinship/docstore"
	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/revision"
)

const (
	BookmarksDesign   = "bookmarks"
	AdjustmentsDesign = "adjustments"
	ActionsDesign     = "actions"

	ByUser           = "by_user"
	ByBookmarked     = "by_bookmarked"
	ByAdjustedField  = "by_adjusted_field"
	BySubject        = "by_subject"
	ByUserVerbAndDoc = "by_user_verb_and_doc"
	ChangesDesign    = revision.ChangesDesign
	ChangesByEntity  = revision.ChangesByEntity
)

func ofKind(doc docstore.Doc, kind models.Kind) bool {
	return doc.String("type") == string(kind)
}

// BookmarksByUserView: [user, bookmarked].
var BookmarksByUserView = docstore.View{
	Design: BookmarksDesign,
	Name:   ByUser,
	Map: func(doc docstore.Doc, emit docstore.EmitFunc) {
		if !ofKind(doc, models.KindBookmark) {
			return
		}
		emit(docstore.Key(doc.String("user", "_id"), doc.String("bookmarked", "_id")), nil)
	},
}

// BookmarksByBookmarkedView: [bookmarked, user].
var BookmarksByBookmarkedView = docstore.View{
	Design: BookmarksDesign,
	Name:   ByBookmarked,
	Map: func(doc docstore.Doc, emit docstore.EmitFunc) {
		if !ofKind(doc, models.KindBookmark) {
			return
		}
		emit(docstore.Key(doc.String("bookmarked", "_id"), doc.String("user", "_id")), nil)
	},
}

// AdjustmentsByUserView: [user, target, field] -> amount.
var AdjustmentsByUserView = docstore.View{
	Design: AdjustmentsDesign,
	Name:   ByUser,
	Map: func(doc docstore.Doc, emit docstore.EmitFunc) {
		if !ofKind(doc, models.KindAdjustment) {
			return
		}
		emit(docstore.Key(
			doc.String("user", "_id"),
			doc.String("adjusted", "doc", "_id"),
			doc.String("adjusted", "field", "name"),
		), doc.Value("adjusted", "field", "by"))
	},
}

// AdjustmentsByAdjustedFieldView: [target, field, user] -> amount, reduced by sum.
var AdjustmentsByAdjustedFieldView = docstore.View{
	Design: AdjustmentsDesign,
	Name:   ByAdjustedField,
	Map: func(doc docstore.Doc, emit docstore.EmitFunc) {
		if !ofKind(doc, models.KindAdjustment) {
			return
		}
		emit(docstore.Key(
			doc.String("adjusted", "doc", "_id"),
			doc.String("adjusted", "field", "name"),
			doc.String("user", "_id"),
		), doc.Value("adjusted", "field", "by"))
	},
	Reduce: docstore.Sum,
}

// ActionsBySubjectView: [subject, verb, user].
var ActionsBySubjectView = docstore.View{
	Design: ActionsDesign,
	Name:   BySubject,
	Map: func(doc docstore.Doc, emit docstore.EmitFunc) {
		if !ofKind(doc, models.KindAction) {
			return
		}
		emit(docstore.Key(doc.String("subject", "_id"), doc.String("verb"), doc.String("user", "_id")), nil)
	},
}

// ActionsByUserVerbAndDocView: [user, verb, subject].
var ActionsByUserVerbAndDocView = docstore.View{
	Design: ActionsDesign,
	Name:   ByUserVerbAndDoc,
	Map: func(doc docstore.Doc, emit docstore.EmitFunc) {
		if !ofKind(doc, models.KindAction) {
			return
		}
		emit(docstore.Key(doc.String("user", "_id"), doc.String("verb"), doc.String("subject", "_id")), nil)
	},
}

// Views returns every index the graph needs.
func Views() []docstore.View {
	return []docstore.View{
		BookmarksByUserView,
		BookmarksByBookmarkedView,
		AdjustmentsByUserView,
		AdjustmentsByAdjustedFieldView,
		ActionsBySubjectView,
		ActionsByUserVerbAndDocView,
		revision.ChangesView,
	}
}
