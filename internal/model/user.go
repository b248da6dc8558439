package model

import "time"

type User struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
}
