package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pipecrm/internal/model"
)

type ContactRepository struct {
	db *pgxpool.Pool
}

func NewContactRepository(db *pgxpool.Pool) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Insert(ctx context.Context, tx pgx.Tx, c *model.Contact) error {
	query := `
        INSERT INTO contacts (id, tenant_id, company_id, name, email, phone, title, custom, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING created_at, updated_at
    `
	return tx.QueryRow(ctx, query, c.ID, c.TenantID, c.CompanyID, c.Name, c.Email, c.Phone, c.Title, c.Custom).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *ContactRepository) Update(ctx context.Context, tx pgx.Tx, c *model.Contact) error {
	query := `
        UPDATE contacts
        SET company_id = $3, name = $4, email = $5, phone = $6, title = $7, custom = $8, updated_at = NOW()
        WHERE tenant_id = $1 AND id = $2
        RETURNING created_at, updated_at
    `
	return tx.QueryRow(ctx, query, c.TenantID, c.ID, c.CompanyID, c.Name, c.Email, c.Phone, c.Title, c.Custom).
		Scan(&c.CreatedAt, &c.UpdatedAt)
}

func (r *ContactRepository) Delete(ctx context.Context, tx pgx.Tx, tenantID, id string) error {
	ct, err := tx.Exec(ctx, `DELETE FROM contacts WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ContactRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Contact, error) {
	query := `
        SELECT id, tenant_id, company_id, name, email, phone, title, custom, created_at, updated_at
        FROM contacts
        WHERE tenant_id = $1 AND id = $2
    `
	var c model.Contact
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&c.ID, &c.TenantID, &c.CompanyID, &c.Name, &c.Email, &c.Phone, &c.Title, &c.Custom, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ContactRepository) List(ctx context.Context, tenantID string) ([]model.Contact, error) {
	query := `
        SELECT id, tenant_id, company_id, name, email, phone, title, custom, created_at, updated_at
        FROM contacts
        WHERE tenant_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.TenantID, &c.CompanyID, &c.Name, &c.Email, &c.Phone, &c.Title, &c.Custom, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ListIdleSince returns contacts whose latest activity predates the cutoff
// (or who have no activity at all). Used by the churn-risk analyzer.
func (r *ContactRepository) ListIdleSince(ctx context.Context, tenantID string, cutoff time.Time) ([]model.Contact, error) {
	query := `
        SELECT c.id, c.tenant_id, c.company_id, c.name, c.email, c.phone, c.title, c.custom, c.created_at, c.updated_at
        FROM contacts c
        LEFT JOIN LATERAL (
            SELECT MAX(a.created_at) AS last_activity_at
            FROM activities a
            WHERE a.tenant_id = c.tenant_id AND a.contact_id = c.id
        ) la ON true
        WHERE c.tenant_id = $1
        AND COALESCE(la.last_activity_at, c.created_at) < $2
        ORDER BY c.created_at DESC
    `
	rows, err := r.db.Query(ctx, query, tenantID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.TenantID, &c.CompanyID, &c.Name, &c.Email, &c.Phone, &c.Title, &c.Custom, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ListAll returns every contact across tenants for the cached view.
func (r *ContactRepository) ListAll(ctx context.Context) ([]model.Contact, error) {
	query := `
        SELECT id, tenant_id, company_id, name, email, phone, title, custom, created_at, updated_at
        FROM contacts
        ORDER BY created_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.TenantID, &c.CompanyID, &c.Name, &c.Email, &c.Phone, &c.Title, &c.Custom, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}
