// ABOUTME: Strength aggregator over per-actor adjustment documents
// ABOUTME: One adjustment per actor/target/field; the current value is a reduce-by-sum
package strength

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/harperreed/kinship/db"
	"github.com/harperreed/kinship/docstore"
	"github.com/harperreed/kinship/logging"
	"github.com/harperreed/kinship/metrics"
	"github.com/harperreed/kinship/models"
)

// Aggregator maintains adjustments and computes their sums.
type Aggregator struct {
	store   *docstore.Store
	logger  *log.Logger
	metrics *metrics.Metrics
}

// New returns an Aggregator over store, which must carry the adjustment views.
// logger and m may be nil.
func New(store *docstore.Store, logger *log.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{
		store:   store,
		logger:  logging.OrDefault(logger),
		metrics: m,
	}
}

// Strengthen sets actor's strength contribution to target to +1.
func (a *Aggregator) Strengthen(ctx context.Context, actor, target models.Ref) (*models.Adjustment, error) {
	return a.Adjust(ctx, actor, target, models.FieldStrength, 1)
}

// Weaken sets actor's strength contribution to target to -1.
func (a *Aggregator) Weaken(ctx context.Context, actor, target models.Ref) (*models.Adjustment, error) {
	return a.Adjust(ctx, actor, target, models.FieldStrength, -1)
}

// Unstrength removes actor's strength contribution to target.
func (a *Aggregator) Unstrength(ctx context.Context, actor, target models.Ref) error {
	return a.Remove(ctx, actor, target, models.FieldStrength)
}

// Current is the summed strength of target, 0 without adjustments.
func (a *Aggregator) Current(ctx context.Context, targetID string) (int64, error) {
	return a.Total(ctx, targetID, models.FieldStrength)
}

// Adjust sets actor's contribution to field of target to amount. Re-applying
// the current amount fails with models.ErrAlreadyAdjusted and writes nothing.
func (a *Aggregator) Adjust(ctx context.Context, actor, target models.Ref, field string, amount int64) (*models.Adjustment, error) {
	if actor.ID == "" || target.ID == "" || field == "" {
		return nil, fmt.Errorf("adjust: %w", models.ErrInvalidRef)
	}
	id := models.AdjustmentID(actor.ID, target.ID, field)

	doc, err := a.store.Get(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		created, createErr := a.create(ctx, id, actor, target, field, amount)
		if !errors.Is(createErr, models.ErrStoreConflict) {
			return created, createErr
		}
		// A concurrent first adjustment won; compare against it.
		doc, err = a.store.Get(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("adjust %s: %w", id, err)
	}

	var adj models.Adjustment
	if err := docstore.Decode(doc, &adj); err != nil {
		return nil, err
	}
	if adj.Adjusted.Field.By == amount {
		a.metrics.IncrementAdjustment("unchanged")
		return nil, fmt.Errorf("adjust %s by %d: %w", id, amount, models.ErrAlreadyAdjusted)
	}

	adj.Adjusted.Field.By = amount
	next, err := docstore.Encode(adj)
	if err != nil {
		return nil, err
	}
	rev, err := a.store.Put(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("adjust %s: %w", id, err)
	}
	adj.Rev = rev

	a.metrics.IncrementAdjustment("updated")
	a.logger.Debug("adjustment updated", "id", id, "by", amount)
	return &adj, nil
}

func (a *Aggregator) create(ctx context.Context, id string, actor, target models.Ref, field string, amount int64) (*models.Adjustment, error) {
	adj := models.Adjustment{
		ID:   id,
		Type: models.KindAdjustment,
		User: models.UserRef(actor.ID),
		Adjusted: models.Adjusted{
			Doc:   target,
			Field: models.FieldDelta{Name: field, By: amount},
		},
	}
	doc, err := docstore.Encode(adj)
	if err != nil {
		return nil, err
	}
	rev, err := a.store.Create(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("adjust %s: %w", id, err)
	}
	adj.Rev = rev

	a.metrics.IncrementAdjustment("created")
	a.logger.Debug("adjustment created", "id", id, "by", amount)
	return &adj, nil
}

// Remove deletes actor's adjustment of field on target regardless of amount.
func (a *Aggregator) Remove(ctx context.Context, actor, target models.Ref, field string) error {
	id := models.AdjustmentID(actor.ID, target.ID, field)
	if err := a.store.Delete(ctx, id, ""); err != nil {
		return fmt.Errorf("remove adjustment %s: %w", id, err)
	}
	a.metrics.IncrementAdjustment("removed")
	return nil
}

// Total sums every live adjustment of field on targetID.
func (a *Aggregator) Total(ctx context.Context, targetID, field string) (int64, error) {
	opts := docstore.RangeOf(targetID, field)
	opts.Reduce = true

	rows, err := a.store.Query(ctx, db.AdjustmentsDesign, db.ByAdjustedField, opts)
	if err != nil {
		return 0, fmt.Errorf("total %s.%s: %w", targetID, field, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	sum, ok := rows[0].Value.(float64)
	if !ok {
		return 0, fmt.Errorf("total %s.%s: unexpected reduce value %T", targetID, field, rows[0].Value)
	}
	return int64(sum), nil
}

// ByTarget lists the adjustments of every field on targetID.
func (a *Aggregator) ByTarget(ctx context.Context, targetID string) ([]models.Adjustment, error) {
	return a.list(ctx, db.ByAdjustedField, targetID)
}

// ByUser lists the adjustments userID has made.
func (a *Aggregator) ByUser(ctx context.Context, userID string) ([]models.Adjustment, error) {
	return a.list(ctx, db.ByUser, userID)
}

func (a *Aggregator) list(ctx context.Context, view, id string) ([]models.Adjustment, error) {
	opts := docstore.RangeOf(id)
	opts.IncludeDocs = true

	rows, err := a.store.Query(ctx, db.AdjustmentsDesign, view, opts)
	if err != nil {
		return nil, err
	}
	adjustments := make([]models.Adjustment, 0, len(rows))
	for _, row := range rows {
		var adj models.Adjustment
		if err := docstore.Decode(row.Doc, &adj); err != nil {
			return nil, err
		}
		adjustments = append(adjustments, adj)
	}
	return adjustments, nil
}
