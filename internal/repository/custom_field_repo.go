package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pipecrm/internal/model"
)

type CustomFieldRepository struct {
	db *pgxpool.Pool
}

func NewCustomFieldRepository(db *pgxpool.Pool) *CustomFieldRepository {
	return &CustomFieldRepository{db: db}
}

func (r *CustomFieldRepository) Insert(ctx context.Context, tx pgx.Tx, f *model.CustomFieldDef) error {
	query := `
        INSERT INTO custom_field_defs (id, tenant_id, entity_type, key, label, kind, options, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        RETURNING created_at
    `
	return tx.QueryRow(ctx, query,
		f.ID, f.TenantID, f.EntityType, f.Key, f.Label, f.Kind, f.Options,
	).Scan(&f.CreatedAt)
}

func (r *CustomFieldRepository) Delete(ctx context.Context, tx pgx.Tx, tenantID, id string) error {
	ct, err := tx.Exec(ctx, `DELETE FROM custom_field_defs WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CustomFieldRepository) FindByID(ctx context.Context, tenantID, id string) (*model.CustomFieldDef, error) {
	query := `
        SELECT id, tenant_id, entity_type, key, label, kind, options, created_at
        FROM custom_field_defs
        WHERE tenant_id = $1 AND id = $2
    `
	var f model.CustomFieldDef
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&f.ID, &f.TenantID, &f.EntityType, &f.Key, &f.Label, &f.Kind, &f.Options, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *CustomFieldRepository) List(ctx context.Context, tenantID string) ([]model.CustomFieldDef, error) {
	query := `
        SELECT id, tenant_id, entity_type, key, label, kind, options, created_at
        FROM custom_field_defs
        WHERE tenant_id = $1
        ORDER BY entity_type ASC, created_at ASC
    `
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs := []model.CustomFieldDef{}
	for rows.Next() {
		var f model.CustomFieldDef
		if err := rows.Scan(
			&f.ID, &f.TenantID, &f.EntityType, &f.Key, &f.Label, &f.Kind, &f.Options, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		defs = append(defs, f)
	}
	return defs, rows.Err()
}

// ListAll returns every field definition across tenants for the cached view.
func (r *CustomFieldRepository) ListAll(ctx context.Context) ([]model.CustomFieldDef, error) {
	query := `
        SELECT id, tenant_id, entity_type, key, label, kind, options, created_at
        FROM custom_field_defs
        ORDER BY entity_type ASC, created_at ASC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs := []model.CustomFieldDef{}
	for rows.Next() {
		var f model.CustomFieldDef
		if err := rows.Scan(
			&f.ID, &f.TenantID, &f.EntityType, &f.Key, &f.Label, &f.Kind, &f.Options, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		defs = append(defs, f)
	}
	return defs, rows.Err()
}
