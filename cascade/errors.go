// ABOUTME: Error reported when one step of a cascading delete fails
// ABOUTME: Names the root and the step so callers can retry or report precisely
package cascade

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/kinship/models"
)

// StepError is a failed discovery, bulk delete, or root delete.
type StepError struct {
	Root models.Ref
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("cascade %s %s: step %s: %v", e.Root.Type, e.Root.ID, e.Step, e.Err)
}

// Unwrap exposes models.ErrCascadeStepFailed and the underlying error.
func (e *StepError) Unwrap() []error {
	return []error{models.ErrCascadeStepFailed, e.Err}
}

// TimedOut reports whether the cascade deadline expired during the step.
func (e *StepError) TimedOut() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}
