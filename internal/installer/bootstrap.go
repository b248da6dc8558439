package installer

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SchemaVersion is bumped whenever bootstrapDDL changes shape.
const SchemaVersion = 1

// bootstrapDDL is idempotent; rerunning bootstrap on an installed database
// is safe.
var bootstrapDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id            UUID PRIMARY KEY,
        tenant_id     UUID NOT NULL,
        email         TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        name          TEXT NOT NULL DEFAULT '',
        role          TEXT NOT NULL DEFAULT 'member',
        created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_users_tenant ON users (tenant_id)`,

	`CREATE TABLE IF NOT EXISTS companies (
        id         UUID PRIMARY KEY,
        tenant_id  UUID NOT NULL,
        name       TEXT NOT NULL,
        domain     TEXT NOT NULL DEFAULT '',
        industry   TEXT NOT NULL DEFAULT '',
        custom     JSONB,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_companies_tenant ON companies (tenant_id)`,

	`CREATE TABLE IF NOT EXISTS contacts (
        id         UUID PRIMARY KEY,
        tenant_id  UUID NOT NULL,
        company_id UUID REFERENCES companies (id) ON DELETE SET NULL,
        name       TEXT NOT NULL,
        email      TEXT NOT NULL DEFAULT '',
        phone      TEXT NOT NULL DEFAULT '',
        title      TEXT NOT NULL DEFAULT '',
        custom     JSONB,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_tenant ON contacts (tenant_id)`,

	`CREATE TABLE IF NOT EXISTS boards (
        id         UUID PRIMARY KEY,
        tenant_id  UUID NOT NULL,
        name       TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_boards_tenant ON boards (tenant_id)`,

	`CREATE TABLE IF NOT EXISTS board_stages (
        id        UUID PRIMARY KEY,
        tenant_id UUID NOT NULL,
        board_id  UUID NOT NULL REFERENCES boards (id) ON DELETE CASCADE,
        name      TEXT NOT NULL,
        position  INT NOT NULL DEFAULT 0,
        is_won    BOOLEAN NOT NULL DEFAULT FALSE,
        is_lost   BOOLEAN NOT NULL DEFAULT FALSE
    )`,
	`CREATE INDEX IF NOT EXISTS idx_board_stages_board ON board_stages (tenant_id, board_id)`,

	`CREATE TABLE IF NOT EXISTS deals (
        id         UUID PRIMARY KEY,
        tenant_id  UUID NOT NULL,
        board_id   UUID NOT NULL REFERENCES boards (id) ON DELETE CASCADE,
        stage_id   UUID NOT NULL REFERENCES board_stages (id),
        contact_id UUID REFERENCES contacts (id) ON DELETE SET NULL,
        company_id UUID REFERENCES companies (id) ON DELETE SET NULL,
        owner_id   UUID REFERENCES users (id) ON DELETE SET NULL,
        title      TEXT NOT NULL,
        amount     NUMERIC NOT NULL DEFAULT 0,
        currency   TEXT NOT NULL DEFAULT 'USD',
        position   INT NOT NULL DEFAULT 0,
        custom     JSONB,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_deals_tenant_board ON deals (tenant_id, board_id)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_tenant_stage ON deals (tenant_id, stage_id)`,

	`CREATE TABLE IF NOT EXISTS activities (
        id         UUID PRIMARY KEY,
        tenant_id  UUID NOT NULL,
        deal_id    UUID REFERENCES deals (id) ON DELETE CASCADE,
        contact_id UUID REFERENCES contacts (id) ON DELETE CASCADE,
        kind       TEXT NOT NULL,
        subject    TEXT NOT NULL DEFAULT '',
        body       TEXT NOT NULL DEFAULT '',
        due_at     TIMESTAMPTZ,
        done_at    TIMESTAMPTZ,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_activities_tenant ON activities (tenant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_contact ON activities (tenant_id, contact_id)`,

	`CREATE TABLE IF NOT EXISTS custom_field_defs (
        id          UUID PRIMARY KEY,
        tenant_id   UUID NOT NULL,
        entity_type TEXT NOT NULL,
        key         TEXT NOT NULL,
        label       TEXT NOT NULL,
        kind        TEXT NOT NULL,
        options     TEXT[],
        created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        UNIQUE (tenant_id, entity_type, key)
    )`,

	`CREATE TABLE IF NOT EXISTS decisions (
        id               UUID PRIMARY KEY,
        tenant_id        UUID NOT NULL,
        type             TEXT NOT NULL,
        category         TEXT NOT NULL DEFAULT '',
        priority         TEXT NOT NULL DEFAULT 'medium',
        status           TEXT NOT NULL DEFAULT 'pending',
        deal_id          UUID,
        contact_id       UUID,
        activity_id      UUID,
        expires_at       TIMESTAMPTZ,
        snooze_until     TIMESTAMPTZ,
        decided_at       TIMESTAMPTZ,
        suggested_action JSONB NOT NULL DEFAULT '{}',
        created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_decisions_tenant_status ON decisions (tenant_id, status)`,

	`CREATE TABLE IF NOT EXISTS outbox_events (
        id             BIGSERIAL PRIMARY KEY,
        aggregate_type TEXT NOT NULL,
        aggregate_id   TEXT,
        routing_key    TEXT NOT NULL,
        payload        JSONB NOT NULL,
        status         TEXT NOT NULL DEFAULT 'pending',
        retry_count    INT NOT NULL DEFAULT 0,
        next_retry_at  TIMESTAMPTZ,
        created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
	`CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox_events (status, next_retry_at)`,

	`CREATE TABLE IF NOT EXISTS install_state (
        id             INT PRIMARY KEY,
        schema_version INT NOT NULL DEFAULT 0,
        bootstrapped   BOOLEAN NOT NULL DEFAULT FALSE,
        project_ref    TEXT NOT NULL DEFAULT '',
        provisioned_at TIMESTAMPTZ,
        created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
    )`,
}

// Bootstrap applies the schema. Statements run one by one so a failure
// reports the offending statement.
func Bootstrap(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range bootstrapDDL {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
