package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pipecrm/internal/model"
)

type DecisionRepository struct {
	db *pgxpool.Pool
}

func NewDecisionRepository(db *pgxpool.Pool) *DecisionRepository {
	return &DecisionRepository{db: db}
}

func (r *DecisionRepository) Insert(ctx context.Context, tx pgx.Tx, d *model.Decision) error {
	actionJSON, err := json.Marshal(d.Action)
	if err != nil {
		return err
	}
	query := `
        INSERT INTO decisions (id, tenant_id, type, category, priority, status,
                               deal_id, contact_id, activity_id,
                               expires_at, snooze_until, decided_at, suggested_action, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
        RETURNING created_at
    `
	return tx.QueryRow(ctx, query,
		d.ID, d.TenantID, d.Type, d.Category, d.Priority, d.Status,
		d.DealID, d.ContactID, d.ActivityID,
		d.ExpiresAt, d.SnoozeUntil, d.DecidedAt, actionJSON,
	).Scan(&d.CreatedAt)
}

func (r *DecisionRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Decision, error) {
	query := decisionSelect + ` WHERE tenant_id = $1 AND id = $2`
	row := r.db.QueryRow(ctx, query, tenantID, id)
	return scanDecisionRow(row)
}

// ListPending returns pending decisions for a tenant. Snoozed-until-later
// filtering and priority ordering happen in the queue layer.
func (r *DecisionRepository) ListPending(ctx context.Context, tenantID string) ([]model.Decision, error) {
	query := decisionSelect + ` WHERE tenant_id = $1 AND status = 'pending' ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDecisions(rows)
}

// ExistsPending reports whether a pending decision with the same type and
// primary related entity already exists. Backs the dedupe check when the
// redis-side marker has expired or redis is unavailable.
func (r *DecisionRepository) ExistsPending(ctx context.Context, tenantID, decisionType string, dealID, contactID, activityID *string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM decisions
            WHERE tenant_id = $1 AND type = $2 AND status = 'pending'
              AND deal_id IS NOT DISTINCT FROM $3
              AND contact_id IS NOT DISTINCT FROM $4
              AND activity_id IS NOT DISTINCT FROM $5
        )
    `
	var exists bool
	err := r.db.QueryRow(ctx, query, tenantID, decisionType, dealID, contactID, activityID).Scan(&exists)
	return exists, err
}

// MarkDecided moves a pending decision to approved or rejected. Returns
// pgx.ErrNoRows when the decision is missing or already decided.
func (r *DecisionRepository) MarkDecided(ctx context.Context, tx pgx.Tx, tenantID, id string, status model.DecisionStatus, decidedAt time.Time) error {
	query := `
        UPDATE decisions
        SET status = $3, decided_at = $4, snooze_until = NULL
        WHERE tenant_id = $1 AND id = $2 AND status = 'pending'
    `
	ct, err := tx.Exec(ctx, query, tenantID, id, status, decidedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// Snooze keeps the decision pending but hidden until the given time.
func (r *DecisionRepository) Snooze(ctx context.Context, tx pgx.Tx, tenantID, id string, until time.Time) error {
	query := `
        UPDATE decisions
        SET snooze_until = $3
        WHERE tenant_id = $1 AND id = $2 AND status = 'pending'
    `
	ct, err := tx.Exec(ctx, query, tenantID, id, until)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteExpiredPending removes pending decisions whose expiry has passed.
func (r *DecisionRepository) DeleteExpiredPending(ctx context.Context, now time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM decisions WHERE status = 'pending' AND expires_at IS NOT NULL AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// DeleteDecidedBefore prunes approved and rejected decisions older than the
// retention cutoff.
func (r *DecisionRepository) DeleteDecidedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM decisions WHERE status IN ('approved', 'rejected') AND decided_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

const decisionSelect = `
        SELECT id, tenant_id, type, category, priority, status,
               deal_id, contact_id, activity_id,
               expires_at, snooze_until, decided_at, suggested_action, created_at
        FROM decisions`

func scanDecisionRow(row pgx.Row) (*model.Decision, error) {
	var d model.Decision
	var actionJSON []byte
	err := row.Scan(
		&d.ID, &d.TenantID, &d.Type, &d.Category, &d.Priority, &d.Status,
		&d.DealID, &d.ContactID, &d.ActivityID,
		&d.ExpiresAt, &d.SnoozeUntil, &d.DecidedAt, &actionJSON, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(actionJSON, &d.Action); err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDecisions(rows pgx.Rows) ([]model.Decision, error) {
	decisions := []model.Decision{}
	for rows.Next() {
		d, err := scanDecisionRow(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, *d)
	}
	return decisions, rows.Err()
}
