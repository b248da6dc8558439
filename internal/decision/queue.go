// Package decision implements the advisory decision queue: analyzers raise
// suggestions, users approve, reject or snooze them, sweeps prune the rest.
package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"pipecrm/internal/model"
	"pipecrm/pkg/metrics"
)

// Store is the persistence surface the queue needs.
type Store interface {
	CreateDecision(ctx context.Context, d *model.Decision) error
	GetDecision(ctx context.Context, tenantID, id string) (*model.Decision, error)
	PendingDecisions(ctx context.Context, tenantID string) ([]model.Decision, error)
	PendingDecisionExists(ctx context.Context, tenantID, decisionType string, dealID, contactID, activityID *string) (bool, error)
	DecideDecision(ctx context.Context, tenantID, id string, status model.DecisionStatus, decidedAt time.Time) error
	SnoozeDecision(ctx context.Context, tenantID, id string, until time.Time) error
	DeleteExpiredDecisions(ctx context.Context, now time.Time) (int64, error)
	DeleteDecidedDecisionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Deduper suppresses re-raising a suggestion that was recently raised or
// already acted on.
type Deduper interface {
	AcquireOnce(ctx context.Context, tenantID, key string) bool
	MarkProcessed(ctx context.Context, tenantID, key string) error
}

// ActionExecutor carries out the suggested action of an approved decision.
type ActionExecutor interface {
	Execute(ctx context.Context, tenantID string, action model.SuggestedAction) error
}

// LogExecutor logs approved actions without side effects. Used until a real
// automation backend is attached.
type LogExecutor struct {
	Logger *zap.Logger
}

func (e *LogExecutor) Execute(ctx context.Context, tenantID string, action model.SuggestedAction) error {
	e.Logger.Info("Executing approved action",
		zap.String("tenant_id", tenantID),
		zap.String("action_type", action.Type),
		zap.ByteString("payload", action.Payload),
	)
	return nil
}

type Queue struct {
	store     Store
	deduper   Deduper
	executor  ActionExecutor
	logger    *zap.Logger
	retention time.Duration
}

func NewQueue(store Store, deduper Deduper, executor ActionExecutor, retention time.Duration, logger *zap.Logger) *Queue {
	return &Queue{
		store:     store,
		deduper:   deduper,
		executor:  executor,
		logger:    logger,
		retention: retention,
	}
}

// Add inserts a decision unless the same suggestion is already pending or was
// recently processed. Returns true when the decision was actually created.
func (q *Queue) Add(ctx context.Context, d *model.Decision) (bool, error) {
	if d.Type == "" {
		return false, fmt.Errorf("decision type is required")
	}
	d.Status = model.DecisionPending

	if !q.deduper.AcquireOnce(ctx, d.TenantID, d.DedupeKey()) {
		metrics.IncrementDecision(d.Type, "deduped")
		return false, nil
	}

	// The redis marker can expire while the decision is still pending, so
	// double-check the store.
	exists, err := q.store.PendingDecisionExists(ctx, d.TenantID, d.Type, d.DealID, d.ContactID, d.ActivityID)
	if err != nil {
		return false, err
	}
	if exists {
		metrics.IncrementDecision(d.Type, "deduped")
		return false, nil
	}

	if err := q.store.CreateDecision(ctx, d); err != nil {
		return false, err
	}
	metrics.IncrementDecision(d.Type, "created")
	return true, nil
}

// AddBatch adds each decision independently and returns how many were
// created. A failing decision does not block the rest.
func (q *Queue) AddBatch(ctx context.Context, decisions []model.Decision) int {
	added := 0
	for i := range decisions {
		ok, err := q.Add(ctx, &decisions[i])
		if err != nil {
			q.logger.Warn("Failed to add decision",
				zap.String("tenant_id", decisions[i].TenantID),
				zap.String("type", decisions[i].Type),
				zap.Error(err),
			)
			continue
		}
		if ok {
			added++
		}
	}
	return added
}

// Pending returns the actionable queue for a tenant: snoozed and expired
// items are hidden, the rest sorted by priority then newest first.
func (q *Queue) Pending(ctx context.Context, tenantID string) ([]model.Decision, error) {
	all, err := q.store.PendingDecisions(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := time.Now()

	visible := []model.Decision{}
	for _, d := range all {
		if d.Snoozing(now) || d.Expired(now) {
			continue
		}
		visible = append(visible, d)
	}
	sort.SliceStable(visible, func(i, j int) bool {
		ri, rj := visible[i].Priority.Rank(), visible[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		return visible[i].CreatedAt.After(visible[j].CreatedAt)
	})
	return visible, nil
}

// Approve executes the suggested action and, on success, marks the decision
// approved. An override payload, when given, is shallow-merged over the
// suggested one with override keys winning. A failed execution or an invalid
// override leaves the decision pending so approval can be retried.
func (q *Queue) Approve(ctx context.Context, tenantID, id string, override json.RawMessage) (*model.Decision, error) {
	d, err := q.store.GetDecision(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if d.Status != model.DecisionPending {
		return nil, fmt.Errorf("decision %s is not pending", id)
	}

	action := d.Action
	if len(override) > 0 {
		merged, err := mergePayload(action.Payload, override)
		if err != nil {
			return nil, fmt.Errorf("invalid payload override: %w", err)
		}
		action.Payload = merged
	}

	if err := q.executor.Execute(ctx, tenantID, action); err != nil {
		q.logger.Error("Approved action execution failed",
			zap.String("tenant_id", tenantID),
			zap.String("decision_id", id),
			zap.String("action_type", action.Type),
			zap.Error(err),
		)
		return nil, err
	}

	if err := q.store.DecideDecision(ctx, tenantID, id, model.DecisionApproved, time.Now().UTC()); err != nil {
		return nil, err
	}
	d.Status = model.DecisionApproved
	d.Action = action

	if err := q.deduper.MarkProcessed(ctx, tenantID, d.DedupeKey()); err != nil {
		q.logger.Warn("Failed to mark decision processed", zap.String("decision_id", id), zap.Error(err))
	}
	metrics.IncrementDecision(d.Type, "approved")
	return d, nil
}

// Reject marks the decision rejected without executing anything.
func (q *Queue) Reject(ctx context.Context, tenantID, id string) (*model.Decision, error) {
	d, err := q.store.GetDecision(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := q.store.DecideDecision(ctx, tenantID, id, model.DecisionRejected, time.Now().UTC()); err != nil {
		return nil, err
	}
	d.Status = model.DecisionRejected

	if err := q.deduper.MarkProcessed(ctx, tenantID, d.DedupeKey()); err != nil {
		q.logger.Warn("Failed to mark decision processed", zap.String("decision_id", id), zap.Error(err))
	}
	metrics.IncrementDecision(d.Type, "rejected")
	return d, nil
}

// Snooze hides a pending decision until the given time.
func (q *Queue) Snooze(ctx context.Context, tenantID, id string, until time.Time) error {
	if !until.After(time.Now()) {
		return fmt.Errorf("snooze time must be in the future")
	}
	d, err := q.store.GetDecision(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := q.store.SnoozeDecision(ctx, tenantID, id, until); err != nil {
		return err
	}
	metrics.IncrementDecision(d.Type, "snoozed")
	return nil
}

// Sweep removes expired pending decisions and decided decisions older than
// the retention window. Returns the total rows removed.
func (q *Queue) Sweep(ctx context.Context, now time.Time) (int64, error) {
	expired, err := q.store.DeleteExpiredDecisions(ctx, now)
	if err != nil {
		return 0, err
	}
	decided, err := q.store.DeleteDecidedDecisionsBefore(ctx, now.Add(-q.retention))
	if err != nil {
		return expired, err
	}
	if expired+decided > 0 {
		q.logger.Info("Decision sweep finished",
			zap.Int64("expired_removed", expired),
			zap.Int64("decided_removed", decided),
		)
	}
	return expired + decided, nil
}

func mergePayload(base, override json.RawMessage) (json.RawMessage, error) {
	merged := map[string]interface{}{}
	if len(base) > 0 {
		if err := json.Unmarshal(base, &merged); err != nil {
			return nil, err
		}
	}
	over := map[string]interface{}{}
	if err := json.Unmarshal(override, &over); err != nil {
		return nil, err
	}
	for k, v := range over {
		merged[k] = v
	}
	return json.Marshal(merged)
}
