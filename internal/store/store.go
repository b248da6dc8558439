// Package store is the write path for CRM records. Every mutation runs the
// row change and an outbox change event in one transaction, so a committed
// write always reaches the change-event subscribers exactly once.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pipecrm/internal/mq"
	"pipecrm/internal/repository"
	"pipecrm/pkg/outbox"
)

type Store struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
	views  *Views

	Companies    *repository.CompanyRepository
	Contacts     *repository.ContactRepository
	Boards       *repository.BoardRepository
	Deals        *repository.DealRepository
	Activities   *repository.ActivityRepository
	CustomFields *repository.CustomFieldRepository
	Decisions    *repository.DecisionRepository
}

func New(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *Store {
	return &Store{
		db:           db,
		outbox:       outboxRepo,
		logger:       logger,
		Companies:    repository.NewCompanyRepository(db),
		Contacts:     repository.NewContactRepository(db),
		Boards:       repository.NewBoardRepository(db),
		Deals:        repository.NewDealRepository(db),
		Activities:   repository.NewActivityRepository(db),
		CustomFields: repository.NewCustomFieldRepository(db),
		Decisions:    repository.NewDecisionRepository(db),
	}
}

// AttachViews turns on cached reads and optimistic mutation. Without views
// the store writes straight through, which is what the worker wants.
func (s *Store) AttachViews(v *Views) {
	s.views = v
}

// withTx runs fn inside a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// emitChange appends a change notification to the outbox inside the caller's
// transaction.
func (s *Store) emitChange(ctx context.Context, tx pgx.Tx, collection, op, tenantID, recordID string) error {
	payload := mq.ChangePayload{
		Collection: collection,
		Op:         op,
		RecordID:   recordID,
		TenantID:   tenantID,
		ChangedAt:  time.Now().UTC(),
	}
	return outbox.InsertEventInTx(ctx, tx, s.outbox, collection, &recordID, mq.RoutingKey(collection, op), payload)
}
