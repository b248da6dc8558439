package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pipecrm/internal/model"
)

type DealRepository struct {
	db *pgxpool.Pool
}

func NewDealRepository(db *pgxpool.Pool) *DealRepository {
	return &DealRepository{db: db}
}

func (r *DealRepository) Insert(ctx context.Context, tx pgx.Tx, d *model.Deal) error {
	query := `
        INSERT INTO deals (id, tenant_id, board_id, stage_id, contact_id, company_id, owner_id,
                           title, amount, currency, position, custom, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
        RETURNING created_at, updated_at
    `
	return tx.QueryRow(ctx, query,
		d.ID, d.TenantID, d.BoardID, d.StageID, d.ContactID, d.CompanyID, d.OwnerID,
		d.Title, d.Amount, d.Currency, d.Position, d.Custom,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *DealRepository) Update(ctx context.Context, tx pgx.Tx, d *model.Deal) error {
	query := `
        UPDATE deals
        SET board_id = $3, stage_id = $4, contact_id = $5, company_id = $6, owner_id = $7,
            title = $8, amount = $9, currency = $10, position = $11, custom = $12, updated_at = NOW()
        WHERE tenant_id = $1 AND id = $2
        RETURNING created_at, updated_at
    `
	return tx.QueryRow(ctx, query,
		d.TenantID, d.ID, d.BoardID, d.StageID, d.ContactID, d.CompanyID, d.OwnerID,
		d.Title, d.Amount, d.Currency, d.Position, d.Custom,
	).Scan(&d.CreatedAt, &d.UpdatedAt)
}

func (r *DealRepository) Delete(ctx context.Context, tx pgx.Tx, tenantID, id string) error {
	ct, err := tx.Exec(ctx, `DELETE FROM deals WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *DealRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Deal, error) {
	query := `
        SELECT id, tenant_id, board_id, stage_id, contact_id, company_id, owner_id,
               title, amount, currency, position, custom, created_at, updated_at
        FROM deals
        WHERE tenant_id = $1 AND id = $2
    `
	var d model.Deal
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&d.ID, &d.TenantID, &d.BoardID, &d.StageID, &d.ContactID, &d.CompanyID, &d.OwnerID,
		&d.Title, &d.Amount, &d.Currency, &d.Position, &d.Custom, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DealRepository) List(ctx context.Context, tenantID string) ([]model.Deal, error) {
	query := `
        SELECT id, tenant_id, board_id, stage_id, contact_id, company_id, owner_id,
               title, amount, currency, position, custom, created_at, updated_at
        FROM deals
        WHERE tenant_id = $1
        ORDER BY position ASC, created_at DESC
    `
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeals(rows)
}

func (r *DealRepository) ListByBoard(ctx context.Context, tenantID, boardID string) ([]model.Deal, error) {
	query := `
        SELECT id, tenant_id, board_id, stage_id, contact_id, company_id, owner_id,
               title, amount, currency, position, custom, created_at, updated_at
        FROM deals
        WHERE tenant_id = $1 AND board_id = $2
        ORDER BY position ASC, created_at DESC
    `
	rows, err := r.db.Query(ctx, query, tenantID, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeals(rows)
}

// ListStaleDeals finds open deals untouched since the cutoff. Deals sitting in
// won or lost stages are already settled and never count as stale.
func (r *DealRepository) ListStaleDeals(ctx context.Context, tenantID string, cutoff time.Time) ([]model.Deal, error) {
	query := `
        SELECT d.id, d.tenant_id, d.board_id, d.stage_id, d.contact_id, d.company_id, d.owner_id,
               d.title, d.amount, d.currency, d.position, d.custom, d.created_at, d.updated_at
        FROM deals d
        JOIN board_stages s ON s.tenant_id = d.tenant_id AND s.id = d.stage_id
        WHERE d.tenant_id = $1
          AND s.is_won = FALSE AND s.is_lost = FALSE
          AND d.updated_at < $2
        ORDER BY d.updated_at ASC
    `
	rows, err := r.db.Query(ctx, query, tenantID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeals(rows)
}

func scanDeals(rows pgx.Rows) ([]model.Deal, error) {
	deals := []model.Deal{}
	for rows.Next() {
		var d model.Deal
		if err := rows.Scan(
			&d.ID, &d.TenantID, &d.BoardID, &d.StageID, &d.ContactID, &d.CompanyID, &d.OwnerID,
			&d.Title, &d.Amount, &d.Currency, &d.Position, &d.Custom, &d.CreatedAt, &d.UpdatedAt,
		); err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

// ListAll returns every deal across tenants for the cached view.
func (r *DealRepository) ListAll(ctx context.Context) ([]model.Deal, error) {
	query := `
        SELECT id, tenant_id, board_id, stage_id, contact_id, company_id, owner_id,
               title, amount, currency, position, custom, created_at, updated_at
        FROM deals
        ORDER BY position ASC, created_at DESC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDeals(rows)
}
