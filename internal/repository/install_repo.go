package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pipecrm/internal/model"
)

type InstallRepository struct {
	db *pgxpool.Pool
}

func NewInstallRepository(db *pgxpool.Pool) *InstallRepository {
	return &InstallRepository{db: db}
}

// Get returns the single install_state row, or a zero-value state when the
// table has never been written.
func (r *InstallRepository) Get(ctx context.Context) (*model.InstallState, error) {
	query := `
        SELECT id, schema_version, bootstrapped, project_ref, provisioned_at, created_at, updated_at
        FROM install_state
        WHERE id = 1
    `
	var s model.InstallState
	err := r.db.QueryRow(ctx, query).Scan(
		&s.ID, &s.SchemaVersion, &s.Bootstrapped, &s.ProjectRef, &s.ProvisionedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return &model.InstallState{ID: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// MarkBootstrapped upserts the install row after schema bootstrap. Calling it
// again with the same version is a no-op apart from updated_at.
func (r *InstallRepository) MarkBootstrapped(ctx context.Context, schemaVersion int) error {
	query := `
        INSERT INTO install_state (id, schema_version, bootstrapped, project_ref, created_at, updated_at)
        VALUES (1, $1, TRUE, '', NOW(), NOW())
        ON CONFLICT (id) DO UPDATE
        SET schema_version = EXCLUDED.schema_version, bootstrapped = TRUE, updated_at = NOW()
    `
	_, err := r.db.Exec(ctx, query, schemaVersion)
	return err
}

// SetProvisioned records the backend project reference after provisioning.
func (r *InstallRepository) SetProvisioned(ctx context.Context, projectRef string, at time.Time) error {
	query := `
        UPDATE install_state
        SET project_ref = $1, provisioned_at = $2, updated_at = NOW()
        WHERE id = 1
    `
	ct, err := r.db.Exec(ctx, query, projectRef, at)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
