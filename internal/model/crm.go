package model

import (
	"encoding/json"
	"time"
)

type Company struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Name      string          `json:"name"`
	Domain    string          `json:"domain"`
	Industry  string          `json:"industry"`
	Custom    json.RawMessage `json:"custom,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Contact struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	CompanyID *string         `json:"company_id,omitempty"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Title     string          `json:"title"`
	Custom    json.RawMessage `json:"custom,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Board struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoardStage is one kanban column. Position orders stages within a board;
// the terminal flags mark won/lost columns so analyzers skip closed deals.
type BoardStage struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	BoardID  string `json:"board_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	IsWon    bool   `json:"is_won"`
	IsLost   bool   `json:"is_lost"`
}

type Deal struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	BoardID   string          `json:"board_id"`
	StageID   string          `json:"stage_id"`
	ContactID *string         `json:"contact_id,omitempty"`
	CompanyID *string         `json:"company_id,omitempty"`
	OwnerID   *string         `json:"owner_id,omitempty"`
	Title     string          `json:"title"`
	Amount    float64         `json:"amount"`
	Currency  string          `json:"currency"`
	Position  int             `json:"position"`
	Custom    json.RawMessage `json:"custom,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Activity struct {
	ID        string     `json:"id"`
	TenantID  string     `json:"tenant_id"`
	DealID    *string    `json:"deal_id,omitempty"`
	ContactID *string    `json:"contact_id,omitempty"`
	Kind      string     `json:"kind"` // call, email, meeting, note, task
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	DoneAt    *time.Time `json:"done_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
