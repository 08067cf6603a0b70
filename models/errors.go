// ABOUTME: Sentinel errors shared by every layer of the graph
// ABOUTME: Callers match with errors.Is; typed errors in audit and cascade unwrap to these
package models

import (
	"errors"

	"github.com/harperreed/kinship/docstore"
)

var (
	// Store-level sentinels, so store errors match without translation.
	ErrNotFound      = docstore.ErrNotFound
	ErrStoreConflict = docstore.ErrConflict

	ErrAlreadyAdjusted   = errors.New("this adjustment has already been made")
	ErrAuditWriteFailed  = errors.New("audit write failed")
	ErrCascadeStepFailed = errors.New("cascade step failed")
	ErrNotRevisable      = errors.New("entity is not revisable")
	ErrInvalidRef        = errors.New("invalid reference")
)
