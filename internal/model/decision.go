package model

import (
	"encoding/json"
	"time"
)

type DecisionPriority string

const (
	PriorityCritical DecisionPriority = "critical"
	PriorityHigh     DecisionPriority = "high"
	PriorityMedium   DecisionPriority = "medium"
	PriorityLow      DecisionPriority = "low"
)

// priorityRank orders priorities for the pending queue; lower sorts first.
var priorityRank = map[DecisionPriority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// Rank returns the sort rank of a priority. Unknown priorities sort last.
func (p DecisionPriority) Rank() int {
	if r, ok := priorityRank[p]; ok {
		return r
	}
	return len(priorityRank)
}

type DecisionStatus string

const (
	DecisionPending  DecisionStatus = "pending"
	DecisionApproved DecisionStatus = "approved"
	DecisionRejected DecisionStatus = "rejected"
	DecisionSnoozed  DecisionStatus = "snoozed"
)

type SuggestedAction struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decision is one advisory item in the decision queue. Created by an
// analyzer, mutated by user action (approve/reject/snooze), pruned by
// maintenance sweeps.
type Decision struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenant_id"`
	Type        string           `json:"type"`
	Category    string           `json:"category"`
	Priority    DecisionPriority `json:"priority"`
	Status      DecisionStatus   `json:"status"`
	DealID      *string          `json:"deal_id,omitempty"`
	ContactID   *string          `json:"contact_id,omitempty"`
	ActivityID  *string          `json:"activity_id,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	SnoozeUntil *time.Time       `json:"snooze_until,omitempty"`
	DecidedAt   *time.Time       `json:"decided_at,omitempty"`
	Action      SuggestedAction  `json:"suggested_action"`
}

// DedupeKey identifies the situation a decision responds to: type plus the
// primary related entity. Two decisions with the same key describe the same
// suggestion.
func (d *Decision) DedupeKey() string {
	return d.Type + ":" + d.primaryEntityID()
}

func (d *Decision) primaryEntityID() string {
	switch {
	case d.DealID != nil && *d.DealID != "":
		return *d.DealID
	case d.ContactID != nil && *d.ContactID != "":
		return *d.ContactID
	case d.ActivityID != nil && *d.ActivityID != "":
		return *d.ActivityID
	}
	return ""
}

// Expired reports whether the decision has an expiry in the past.
func (d *Decision) Expired(now time.Time) bool {
	return d.ExpiresAt != nil && !d.ExpiresAt.After(now)
}

// Snoozing reports whether the decision is snoozed until after now.
func (d *Decision) Snoozing(now time.Time) bool {
	return d.SnoozeUntil != nil && d.SnoozeUntil.After(now)
}
