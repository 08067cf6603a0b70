// ABOUTME: Audit interception layer for revisable entities
// ABOUTME: Records a created:<id> action per mutation and removes the change if that write fails
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/docstore"
	"github.com/harperreed/kinship/logging"
	"github.com/harperreed/kinship/metrics"
	"github.com/harperreed/kinship/models"
	"github.com/harperreed/kinship/revision"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("kinship/audit")

// Layer writes actions for mutations made through the mutators it wraps.
type Layer struct {
	revisions *revision.Store
	store     *docstore.Store
	logger    *log.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// New returns a Layer over revisions. logger and m may be nil.
func New(revisions *revision.Store, logger *log.Logger, m *metrics.Metrics) *Layer {
	return &Layer{
		revisions: revisions,
		store:     revisions.Docs(),
		logger:    logging.OrDefault(logger),
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// With attributes every mutation of target to actor. Mutators of
// non-revisable kinds are returned unchanged.
func (l *Layer) With(actor models.Ref, target revision.Mutator) revision.Mutator {
	if !target.Revisable() {
		return target
	}
	return &audited{layer: l, actor: actor, target: target}
}

// Create stores a new entity and records its creation.
func (l *Layer) Create(ctx context.Context, actor models.Ref, kind models.Kind, fields map[string]any) (revision.Result, error) {
	return l.audit(ctx, actor, "create", models.Ref{Type: kind}, func(ctx context.Context) (revision.Result, error) {
		return l.revisions.Create(ctx, kind, fields)
	})
}

// CreateLink stores a relationship from -> to and records its creation.
func (l *Layer) CreateLink(ctx context.Context, actor, from, to models.Ref, fields map[string]any) (revision.Result, error) {
	return l.audit(ctx, actor, "create", models.Ref{Type: models.KindRelationship}, func(ctx context.Context) (revision.Result, error) {
		return l.revisions.CreateLink(ctx, from, to, fields)
	})
}

// Record writes the action verb:subject attributed to actor. A second record
// of the same verb and subject fails with models.ErrStoreConflict.
func (l *Layer) Record(ctx context.Context, actor models.Ref, verb models.Verb, subject models.Ref) (*models.Action, error) {
	if actor.ID == "" || subject.ID == "" {
		return nil, fmt.Errorf("record action: %w", models.ErrInvalidRef)
	}

	action := &models.Action{
		ID:        models.ActionID(verb, subject.ID),
		Type:      models.KindAction,
		User:      models.UserRef(actor.ID),
		Verb:      verb,
		Subject:   subject,
		CreatedAt: l.now(),
	}
	doc, err := docstore.Encode(action)
	if err != nil {
		return nil, err
	}
	rev, err := l.store.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("record action %s: %w", action.ID, err)
	}
	action.Rev = rev

	l.metrics.IncrementActionsRecorded()
	return action, nil
}

// ActionsByUser lists the actions attributed to userID.
func (l *Layer) ActionsByUser(ctx context.Context, userID string) ([]models.Action, error) {
	return l.actions(ctx, db.ByUserVerbAndDoc, userID)
}

// ActionsBySubject lists the actions recorded about subjectID.
func (l *Layer) ActionsBySubject(ctx context.Context, subjectID string) ([]models.Action, error) {
	return l.actions(ctx, db.BySubject, subjectID)
}

func (l *Layer) actions(ctx context.Context, view, id string) ([]models.Action, error) {
	opts := docstore.RangeOf(id)
	opts.IncludeDocs = true

	rows, err := l.store.Query(ctx, db.ActionsDesign, view, opts)
	if err != nil {
		return nil, err
	}
	actions := make([]models.Action, 0, len(rows))
	for _, row := range rows {
		var a models.Action
		if err := docstore.Decode(row.Doc, &a); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, nil
}

// audit runs mutate, then records its action. A failed mutation is returned
// as is. A failed record deletes the mutation's change and returns an
// *AuditWriteError.
func (l *Layer) audit(ctx context.Context, actor models.Ref, op string, target models.Ref, mutate func(context.Context) (revision.Result, error)) (revision.Result, error) {
	ctx, span := tracer.Start(ctx, "audit."+op,
		trace.WithAttributes(
			attribute.String("actor", actor.ID),
			attribute.String("target.id", target.ID),
			attribute.String("target.type", string(target.Type)),
		),
	)
	defer span.End()

	result, err := mutate(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mutation failed")
		return revision.Result{}, err
	}

	if _, err := l.Record(ctx, actor, models.VerbCreated, result.Subject()); err != nil {
		auditErr := l.compensate(ctx, result, err)
		span.RecordError(auditErr)
		span.SetStatus(codes.Error, "audit write failed")
		return revision.Result{}, auditErr
	}

	span.SetAttributes(attribute.String("subject.id", result.ID))
	return result, nil
}

func (l *Layer) compensate(ctx context.Context, result revision.Result, cause error) *AuditWriteError {
	auditErr := &AuditWriteError{
		Subject:  result.Subject(),
		ChangeID: result.ChangeID,
		Cause:    cause,
	}

	if result.ChangeID != "" {
		// The caller may have given up; the orphaned change still has to go.
		err := l.revisions.DeleteChange(context.WithoutCancel(ctx), result.ChangeID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			auditErr.Compensation = err
		}
	}

	l.metrics.IncrementCompensation(auditErr.Compensated())
	if auditErr.Compensated() {
		l.logger.Warn("audit write failed, change removed", "subject", result.ID, "change", result.ChangeID, "err", cause)
	} else {
		l.logger.Error("audit write failed, change left behind", "subject", result.ID, "change", result.ChangeID, "err", cause, "compensation", auditErr.Compensation)
	}
	return auditErr
}
