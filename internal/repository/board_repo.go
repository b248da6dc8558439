package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pipecrm/internal/model"
)

type BoardRepository struct {
	db *pgxpool.Pool
}

func NewBoardRepository(db *pgxpool.Pool) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) Insert(ctx context.Context, tx pgx.Tx, b *model.Board) error {
	query := `
        INSERT INTO boards (id, tenant_id, name, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING created_at, updated_at
    `
	return tx.QueryRow(ctx, query, b.ID, b.TenantID, b.Name).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *BoardRepository) Update(ctx context.Context, tx pgx.Tx, b *model.Board) error {
	query := `
        UPDATE boards
        SET name = $3, updated_at = NOW()
        WHERE tenant_id = $1 AND id = $2
        RETURNING created_at, updated_at
    `
	return tx.QueryRow(ctx, query, b.TenantID, b.ID, b.Name).Scan(&b.CreatedAt, &b.UpdatedAt)
}

func (r *BoardRepository) Delete(ctx context.Context, tx pgx.Tx, tenantID, id string) error {
	ct, err := tx.Exec(ctx, `DELETE FROM boards WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *BoardRepository) List(ctx context.Context, tenantID string) ([]model.Board, error) {
	query := `
        SELECT id, tenant_id, name, created_at, updated_at
        FROM boards
        WHERE tenant_id = $1
        ORDER BY created_at ASC
    `
	rows, err := r.db.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boards := []model.Board{}
	for rows.Next() {
		var b model.Board
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

func (r *BoardRepository) InsertStage(ctx context.Context, tx pgx.Tx, s *model.BoardStage) error {
	query := `
        INSERT INTO board_stages (id, tenant_id, board_id, name, position, is_won, is_lost)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err := tx.Exec(ctx, query, s.ID, s.TenantID, s.BoardID, s.Name, s.Position, s.IsWon, s.IsLost)
	return err
}

func (r *BoardRepository) UpdateStage(ctx context.Context, tx pgx.Tx, s *model.BoardStage) error {
	query := `
        UPDATE board_stages
        SET name = $3, position = $4, is_won = $5, is_lost = $6
        WHERE tenant_id = $1 AND id = $2
    `
	ct, err := tx.Exec(ctx, query, s.TenantID, s.ID, s.Name, s.Position, s.IsWon, s.IsLost)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *BoardRepository) DeleteStage(ctx context.Context, tx pgx.Tx, tenantID, id string) error {
	ct, err := tx.Exec(ctx, `DELETE FROM board_stages WHERE tenant_id = $1 AND id = $2`, tenantID, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ListStages returns the stages of one board in kanban column order.
func (r *BoardRepository) ListStages(ctx context.Context, tenantID, boardID string) ([]model.BoardStage, error) {
	query := `
        SELECT id, tenant_id, board_id, name, position, is_won, is_lost
        FROM board_stages
        WHERE tenant_id = $1 AND board_id = $2
        ORDER BY position ASC
    `
	rows, err := r.db.Query(ctx, query, tenantID, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := []model.BoardStage{}
	for rows.Next() {
		var s model.BoardStage
		if err := rows.Scan(&s.ID, &s.TenantID, &s.BoardID, &s.Name, &s.Position, &s.IsWon, &s.IsLost); err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (r *BoardRepository) FindStageByID(ctx context.Context, tenantID, id string) (*model.BoardStage, error) {
	query := `
        SELECT id, tenant_id, board_id, name, position, is_won, is_lost
        FROM board_stages
        WHERE tenant_id = $1 AND id = $2
    `
	var s model.BoardStage
	err := r.db.QueryRow(ctx, query, tenantID, id).Scan(
		&s.ID, &s.TenantID, &s.BoardID, &s.Name, &s.Position, &s.IsWon, &s.IsLost,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListAll returns every board across tenants for the cached view.
func (r *BoardRepository) ListAll(ctx context.Context) ([]model.Board, error) {
	query := `
        SELECT id, tenant_id, name, created_at, updated_at
        FROM boards
        ORDER BY created_at ASC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boards := []model.Board{}
	for rows.Next() {
		var b model.Board
		if err := rows.Scan(&b.ID, &b.TenantID, &b.Name, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// ListAllStages returns every stage across tenants in board column order.
func (r *BoardRepository) ListAllStages(ctx context.Context) ([]model.BoardStage, error) {
	query := `
        SELECT id, tenant_id, board_id, name, position, is_won, is_lost
        FROM board_stages
        ORDER BY board_id ASC, position ASC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stages := []model.BoardStage{}
	for rows.Next() {
		var s model.BoardStage
		if err := rows.Scan(&s.ID, &s.TenantID, &s.BoardID, &s.Name, &s.Position, &s.IsWon, &s.IsLost); err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}
