// ABOUTME: Composite error for audit writes that failed after a mutation committed
// ABOUTME: Carries the audit cause and, when compensation also failed, that error too
package audit

import (
	"fmt"

	"github.com/harperreed/kinship/models"
)

// AuditWriteError reports a mutation whose action could not be recorded.
// Compensation is nil when the mutation's change was removed.
type AuditWriteError struct {
	Subject      models.Ref
	ChangeID     string
	Cause        error
	Compensation error
}

func (e *AuditWriteError) Error() string {
	msg := fmt.Sprintf("%s for %s %s: %v", models.ErrAuditWriteFailed, e.Subject.Type, e.Subject.ID, e.Cause)
	if e.Compensation != nil {
		msg += fmt.Sprintf("; compensation for change %s failed: %v", e.ChangeID, e.Compensation)
	}
	return msg
}

// Unwrap exposes models.ErrAuditWriteFailed, the cause, and any compensation error.
func (e *AuditWriteError) Unwrap() []error {
	errs := []error{models.ErrAuditWriteFailed, e.Cause}
	if e.Compensation != nil {
		errs = append(errs, e.Compensation)
	}
	return errs
}

// Compensated reports whether the orphaned change was cleaned up.
func (e *AuditWriteError) Compensated() bool {
	return e.Compensation == nil
}
