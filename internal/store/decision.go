package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"pipecrm/internal/model"
	"pipecrm/internal/mq"
)

func (s *Store) CreateDecision(ctx context.Context, d *model.Decision) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.Decisions.Insert(ctx, tx, d); err != nil {
			return err
		}
		return s.emitChange(ctx, tx, mq.CollectionDecisions, mq.OpInsert, d.TenantID, d.ID)
	})
}

func (s *Store) GetDecision(ctx context.Context, tenantID, id string) (*model.Decision, error) {
	return s.Decisions.FindByID(ctx, tenantID, id)
}

func (s *Store) PendingDecisions(ctx context.Context, tenantID string) ([]model.Decision, error) {
	return s.Decisions.ListPending(ctx, tenantID)
}

func (s *Store) PendingDecisionExists(ctx context.Context, tenantID, decisionType string, dealID, contactID, activityID *string) (bool, error) {
	return s.Decisions.ExistsPending(ctx, tenantID, decisionType, dealID, contactID, activityID)
}

func (s *Store) DecideDecision(ctx context.Context, tenantID, id string, status model.DecisionStatus, decidedAt time.Time) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.Decisions.MarkDecided(ctx, tx, tenantID, id, status, decidedAt); err != nil {
			return err
		}
		return s.emitChange(ctx, tx, mq.CollectionDecisions, mq.OpUpdate, tenantID, id)
	})
}

func (s *Store) SnoozeDecision(ctx context.Context, tenantID, id string, until time.Time) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := s.Decisions.Snooze(ctx, tx, tenantID, id, until); err != nil {
			return err
		}
		return s.emitChange(ctx, tx, mq.CollectionDecisions, mq.OpUpdate, tenantID, id)
	})
}

// Sweep deletions cross tenants and skip per-row change events; observers
// converge on their next decisions fetch.
func (s *Store) DeleteExpiredDecisions(ctx context.Context, now time.Time) (int64, error) {
	return s.Decisions.DeleteExpiredPending(ctx, now)
}

func (s *Store) DeleteDecidedDecisionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.Decisions.DeleteDecidedBefore(ctx, cutoff)
}
