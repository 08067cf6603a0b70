// ABOUTME: Change journal index definition
// ABOUTME: changes/by_entity keys each Change by owning entity id then its ULID
package revision

import (
	"github.com/harperreed/kinship/docstore"
	"github.com/harperreed/kinship/models"
)

const (
	ChangesDesign   = "changes"
	ChangesByEntity = "by_entity"
)

// ChangesView indexes Change documents by [entity id, change id]. Change ids
// are ULIDs, so rows for one entity come back oldest first.
var ChangesView = docstore.View{
	Design: ChangesDesign,
	Name:   ChangesByEntity,
	Map: func(doc docstore.Doc, emit docstore.EmitFunc) {
		if doc.String("type") != string(models.KindChange) {
			return
		}
		entityID := doc.String("entity", "_id")
		if entityID == "" {
			return
		}
		emit(docstore.Key(entityID, doc.ID()), doc.String("op"))
	},
}
