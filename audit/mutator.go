// ABOUTME: Mutator wrapper routing every operation through the audit sequence
// ABOUTME: Field operations audit their change; causal links audit the new relationship
package audit

import (
	"context"

	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/revision"
)

type audited struct {
	layer  *Layer
	actor  models.Ref
	target revision.Mutator
}

func (a *audited) Ref() models.Ref { return a.target.Ref() }
func (a *audited) Revisable() bool { return true }

func (a *audited) run(ctx context.Context, op models.ChangeOp, fn func(context.Context) (revision.Result, error)) (revision.Result, error) {
	return a.layer.audit(ctx, a.actor, string(op), a.target.Ref(), fn)
}

func (a *audited) Set(ctx context.Context, field string, value any) (revision.Result, error) {
	return a.run(ctx, models.OpSet, func(ctx context.Context) (revision.Result, error) {
		return a.target.Set(ctx, field, value)
	})
}

func (a *audited) Unset(ctx context.Context, field string) (revision.Result, error) {
	return a.run(ctx, models.OpUnset, func(ctx context.Context) (revision.Result, error) {
		return a.target.Unset(ctx, field)
	})
}

func (a *audited) Change(ctx context.Context, field string, value any) (revision.Result, error) {
	return a.run(ctx, models.OpChange, func(ctx context.Context) (revision.Result, error) {
		return a.target.Change(ctx, field, value)
	})
}

func (a *audited) Add(ctx context.Context, field string, value any) (revision.Result, error) {
	return a.run(ctx, models.OpAdd, func(ctx context.Context) (revision.Result, error) {
		return a.target.Add(ctx, field, value)
	})
}

func (a *audited) Remove(ctx context.Context, field string, value any) (revision.Result, error) {
	return a.run(ctx, models.OpRemove, func(ctx context.Context) (revision.Result, error) {
		return a.target.Remove(ctx, field, value)
	})
}

func (a *audited) Because(ctx context.Context, cause models.Ref) (revision.Result, error) {
	return a.run(ctx, models.OpBecause, func(ctx context.Context) (revision.Result, error) {
		return a.target.Because(ctx, cause)
	})
}

func (a *audited) Caused(ctx context.Context, effect models.Ref) (revision.Result, error) {
	return a.run(ctx, models.OpCaused, func(ctx context.Context) (revision.Result, error) {
		return a.target.Caused(ctx, effect)
	})
}
