package model

import "time"

// InstallState records the outcome of schema bootstrap and backend
// provisioning, one row per installation.
type InstallState struct {
	ID            int
	SchemaVersion int
	Bootstrapped  bool
	ProjectRef    string
	ProvisionedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
