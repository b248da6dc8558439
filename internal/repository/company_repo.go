package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pipecrm/internal/model"
)

type CompanyRepository struct {
	db *pgxpool.Pool
}

func NewCompanyRepository(db *pgxpool.Pool) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) Insert(ctx context.Context, tx pgx.Tx, c *model.Company) error {
	query := `
        INSERT INTO companies (id, tenant_id, name, domain, industry, custom, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
        RETURNING created_at, updated_at
    `
	return tx.QueryRow(ctx, query, c.ID, c.TenantID, c.Name, c.Domain, c.Industry, c.Custom).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *CompanyRepository) Update(ctx context.Context, tx pgx.Tx, c *model.Company) error {
	query := `
        UPDATE companies
        SET name = $3, domain = $4, industry = $5, custom = $6, updated_at = NOW()
        WHERE tenant_id = $1 AND id = $2
        RETURNING created_at, updated_at
    `
	return tx.QueryRow(ctx, query, c.TenantID, c.ID, c.Name, c.Domain, c.Industry, c.Custom).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *CompanyRepository) Delete(ctx context.Context, tx pgx.Tx, tenantID, id string) error {
	ct, err := tx.Exec(ctx, `DELETE FROM companies WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CompanyRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Company, error) {
	query := `
        SELECT id, tenant_id, name, domain, industry, custom, created_at, updated_at
        FROM companies
        WHERE tenant_id = $1 AND id = $2
    `
	var c model.Company
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&c.ID, &c.TenantID, &c.Name, &c.Domain, &c.Industry, &c.Custom, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CompanyRepository) List(ctx context.Context, tenantID string) ([]model.Company, error) {
	query := `
        SELECT id, tenant_id, name, domain, industry, custom, created_at, updated_at
        FROM companies
        WHERE tenant_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := []model.Company{}
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Domain, &c.Industry, &c.Custom, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// ListAll returns every company across tenants. Feeds the cached view the
// API serves; tenant filtering happens on read.
func (r *CompanyRepository) ListAll(ctx context.Context) ([]model.Company, error) {
	query := `
        SELECT id, tenant_id, name, domain, industry, custom, created_at, updated_at
        FROM companies
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := []model.Company{}
	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Domain, &c.Industry, &c.Custom, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}
