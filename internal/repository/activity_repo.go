package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pipecrm/internal/model"
)

type ActivityRepository struct {
	db *pgxpool.Pool
}

func NewActivityRepository(db *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Insert(ctx context.Context, tx pgx.Tx, a *model.Activity) error {
	query := `
        INSERT INTO activities (id, tenant_id, deal_id, contact_id, kind, subject, body,
                                due_at, done_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
        RETURNING created_at, updated_at
    `
	return tx.QueryRow(ctx, query,
		a.ID, a.TenantID, a.DealID, a.ContactID, a.Kind, a.Subject, a.Body, a.DueAt, a.DoneAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *ActivityRepository) Update(ctx context.Context, tx pgx.Tx, a *model.Activity) error {
	query := `
        UPDATE activities
        SET deal_id = $3, contact_id = $4, kind = $5, subject = $6, body = $7,
            due_at = $8, done_at = $9, updated_at = NOW()
        WHERE tenant_id = $1 AND id = $2
        RETURNING created_at, updated_at
    `
	return tx.QueryRow(ctx, query,
		a.TenantID, a.ID, a.DealID, a.ContactID, a.Kind, a.Subject, a.Body, a.DueAt, a.DoneAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *ActivityRepository) Delete(ctx context.Context, tx pgx.Tx, tenantID, id string) error {
	ct, err := tx.Exec(ctx, `DELETE FROM activities WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ActivityRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Activity, error) {
	query := `
        SELECT id, tenant_id, deal_id, contact_id, kind, subject, body, due_at, done_at, created_at, updated_at
        FROM activities
        WHERE tenant_id = $1 AND id = $2
    `
	var a model.Activity
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&a.ID, &a.TenantID, &a.DealID, &a.ContactID, &a.Kind, &a.Subject, &a.Body,
		&a.DueAt, &a.DoneAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ActivityRepository) List(ctx context.Context, tenantID string) ([]model.Activity, error) {
	query := `
        SELECT id, tenant_id, deal_id, contact_id, kind, subject, body, due_at, done_at, created_at, updated_at
        FROM activities
        WHERE tenant_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []model.Activity{}
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(
			&a.ID, &a.TenantID, &a.DealID, &a.ContactID, &a.Kind, &a.Subject, &a.Body,
			&a.DueAt, &a.DoneAt, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// ListAll returns every activity across tenants for the cached view.
func (r *ActivityRepository) ListAll(ctx context.Context) ([]model.Activity, error) {
	query := `
        SELECT id, tenant_id, deal_id, contact_id, kind, subject, body, due_at, done_at, created_at, updated_at
        FROM activities
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []model.Activity{}
	for rows.Next() {
		var a model.Activity
		if err := rows.Scan(
			&a.ID, &a.TenantID, &a.DealID, &a.ContactID, &a.Kind, &a.Subject, &a.Body,
			&a.DueAt, &a.DoneAt, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
