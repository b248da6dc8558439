package model

import "time"

// CustomFieldDef describes a tenant-defined field attached to an entity
// type. Values live in the entity's Custom JSONB column keyed by Key.
type CustomFieldDef struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	EntityType string    `json:"entity_type"` // deal, contact, company
	Key        string    `json:"key"`
	Label      string    `json:"label"`
	Kind       string    `json:"kind"` // text, number, date, select
	Options    []string  `json:"options,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
