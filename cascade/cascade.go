// ABOUTME: Cascading delete engine for aggregate roots
// ABOUTME: Fans out one discovery-and-bulk-delete branch per index, joins, then deletes the root
package cascade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/docstore"
	"github.com/harperreed/kinship/logging"
	"github.com/harperreed/kinship/metrics"
	"github.com/harperreed/kinship/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("kinship/cascade")

// Step names one unit of a cascade.
type Step string

const (
	StepBookmarks     Step = "bookmarks"
	StepAdjustments   Step = "adjustments"
	StepActions       Step = "actions"
	StepChangeActions Step = "change_actions"
	StepRoot          Step = "root"
)

// DefaultTimeout bounds a cascade when the engine is built without one.
const DefaultTimeout = 30 * time.Second

type discoverFunc func(ctx context.Context, rootID string) ([]docstore.Doc, error)

type branch struct {
	step     Step
	discover discoverFunc
}

// Engine deletes aggregate roots with everything that references them.
type Engine struct {
	db      *db.DB
	timeout time.Duration
	logger  *log.Logger
	metrics *metrics.Metrics
}

// New returns an Engine. A non-positive timeout means DefaultTimeout; logger
// and m may be nil.
func New(database *db.DB, timeout time.Duration, logger *log.Logger, m *metrics.Metrics) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		db:      database,
		timeout: timeout,
		logger:  logging.OrDefault(logger),
		metrics: m,
	}
}

// Result counts the documents each step removed.
type Result struct {
	Root    models.Ref
	Deleted map[Step]int
}

// Total is the number of dependents removed, excluding the root.
func (r *Result) Total() int {
	n := 0
	for step, c := range r.Deleted {
		if step != StepRoot {
			n += c
		}
	}
	return n
}

// Plan is the set of dependents a cascade would currently remove.
type Plan struct {
	Root       models.Ref
	Dependents map[Step][]docstore.Doc
}

func (e *Engine) branches(root models.Ref) ([]branch, error) {
	switch root.Type {
	case models.KindRelationship:
		return []branch{
			{StepBookmarks, e.index(db.BookmarksDesign, db.ByBookmarked)},
			{StepAdjustments, e.index(db.AdjustmentsDesign, db.ByAdjustedField)},
			{StepActions, e.index(db.ActionsDesign, db.BySubject)},
			{StepChangeActions, e.changeActions},
		}, nil
	case models.KindUser:
		return []branch{
			{StepBookmarks, e.index(db.BookmarksDesign, db.ByUser)},
			{StepAdjustments, e.index(db.AdjustmentsDesign, db.ByUser)},
		}, nil
	default:
		return nil, fmt.Errorf("cascade %s %s: not an aggregate root: %w", root.Type, root.ID, models.ErrInvalidRef)
	}
}

func (e *Engine) index(design, view string) discoverFunc {
	return func(ctx context.Context, rootID string) ([]docstore.Doc, error) {
		return e.db.Dependents(ctx, design, view, rootID)
	}
}

// changeActions finds the created:<changeId> actions of the root's journal.
// No index links a root to them, so ids are derived and multi-fetched.
func (e *Engine) changeActions(ctx context.Context, rootID string) ([]docstore.Doc, error) {
	changes, err := e.db.Revisions.Changes(ctx, rootID)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, nil
	}

	ids := make([]string, len(changes))
	for i, c := range changes {
		ids[i] = models.ActionID(models.VerbCreated, c.ID)
	}
	rows, err := e.db.Store.Fetch(ctx, ids)
	if err != nil {
		return nil, err
	}

	docs := make([]docstore.Doc, 0, len(rows))
	for _, row := range rows {
		if row.Err != nil {
			continue
		}
		docs = append(docs, row.Doc)
	}
	return docs, nil
}

// DeleteCascade removes every dependent of root and then root itself. The
// root survives any branch failure. Re-running after a failure picks up
// whatever is left.
func (e *Engine) DeleteCascade(ctx context.Context, root models.Ref) (*Result, error) {
	start := time.Now()
	result := &Result{Root: root, Deleted: map[Step]int{}}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	ctx, span := tracer.Start(ctx, "cascade.delete",
		trace.WithAttributes(
			attribute.String("root.id", root.ID),
			attribute.String("root.type", string(root.Type)),
		),
	)
	defer span.End()

	err := e.deleteCascade(ctx, root, result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "cascade failed")
		e.metrics.ObserveCascade(string(root.Type), "failed", start)
		e.logger.Warn("cascade failed", "root", root.ID, "type", root.Type, "err", err)
		return result, err
	}

	e.metrics.ObserveCascade(string(root.Type), "ok", start)
	e.logger.Info("cascade complete", "root", root.ID, "type", root.Type, "dependents", result.Total())
	return result, nil
}

func (e *Engine) deleteCascade(ctx context.Context, root models.Ref, result *Result) error {
	branches, err := e.branches(root)
	if err != nil {
		return err
	}
	if err := e.checkRoot(ctx, root); err != nil {
		return err
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range branches {
		g.Go(func() error {
			n, err := e.runBranch(gctx, root, b)
			if err != nil {
				return &StepError{Root: root, Step: b.step, Err: err}
			}
			mu.Lock()
			result.Deleted[b.step] = n
			mu.Unlock()
			e.metrics.AddDependentsDeleted(string(b.step), n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return &StepError{Root: root, Step: StepRoot, Err: err}
	}
	deleted, err := e.deleteRoot(ctx, root)
	if err != nil {
		return &StepError{Root: root, Step: StepRoot, Err: err}
	}
	if deleted {
		result.Deleted[StepRoot] = 1
	}
	return nil
}

func (e *Engine) runBranch(ctx context.Context, root models.Ref, b branch) (int, error) {
	ctx, span := tracer.Start(ctx, "cascade."+string(b.step))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	docs, err := b.discover(ctx, root.ID)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("discover: %w", err)
	}
	span.SetAttributes(attribute.Int("dependents", len(docs)))
	if len(docs) == 0 {
		return 0, nil
	}

	tombstones := make([]docstore.Doc, len(docs))
	for i, doc := range docs {
		tombstones[i] = docstore.Doc{
			docstore.FieldID:  doc.ID(),
			docstore.FieldRev: doc.Rev(),
		}.MarkDeleted()
	}

	results, err := e.db.Store.Bulk(ctx, tombstones)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("bulk delete: %w", err)
	}

	deleted := 0
	var failed []docstore.BulkResult
	for _, r := range results {
		switch {
		case r.Err == nil:
			deleted++
		case errors.Is(r.Err, models.ErrNotFound):
			// Already gone.
		default:
			failed = append(failed, r)
		}
	}
	if err := docstore.BulkErrors(failed); err != nil {
		span.RecordError(err)
		return deleted, fmt.Errorf("bulk delete: %w", err)
	}
	return deleted, nil
}

// checkRoot fails when the stored root is of another kind than root.Type,
// since the branches of root.Type would miss its dependents. A missing root
// passes so a retry can sweep what an earlier run left.
func (e *Engine) checkRoot(ctx context.Context, root models.Ref) error {
	kind, err := e.db.KindOf(ctx, root.ID)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return &StepError{Root: root, Step: StepRoot, Err: fmt.Errorf("load: %w", err)}
	}
	if kind != root.Type {
		return fmt.Errorf("cascade %s %s: stored as %s: %w", root.Type, root.ID, kind, models.ErrInvalidRef)
	}
	return nil
}

// deleteRoot reports false when the root was already gone.
func (e *Engine) deleteRoot(ctx context.Context, root models.Ref) (bool, error) {
	var err error
	if root.Type.Revisable() {
		err = e.db.Revisions.Delete(ctx, root)
	} else {
		err = e.db.Store.Delete(ctx, root.ID, "")
	}
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Plan runs discovery only.
func (e *Engine) Plan(ctx context.Context, root models.Ref) (*Plan, error) {
	branches, err := e.branches(root)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.checkRoot(ctx, root); err != nil {
		return nil, err
	}

	plan := &Plan{Root: root, Dependents: map[Step][]docstore.Doc{}}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range branches {
		g.Go(func() error {
			docs, err := b.discover(gctx, root.ID)
			if err != nil {
				return &StepError{Root: root, Step: b.step, Err: fmt.Errorf("discover: %w", err)}
			}
			mu.Lock()
			plan.Dependents[b.step] = docs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return plan, nil
}
