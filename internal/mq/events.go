package mq

import (
	"fmt"
	"strings"
	"time"
)

// Change operations, the suffix of every routing key.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Collections that emit change notifications.
const (
	CollectionCompanies   = "companies"
	CollectionContacts    = "contacts"
	CollectionBoards      = "boards"
	CollectionBoardStages = "board_stages"
	CollectionDeals       = "deals"
	CollectionActivities  = "activities"
	CollectionFieldDefs   = "custom_field_defs"
	CollectionDecisions   = "decisions"
)

// Collections lists every collection that emits change notifications.
func Collections() []string {
	return []string{
		CollectionCompanies,
		CollectionContacts,
		CollectionBoards,
		CollectionBoardStages,
		CollectionDeals,
		CollectionActivities,
		CollectionFieldDefs,
		CollectionDecisions,
	}
}

// RoutingKey builds "<collection>.<op>".
func RoutingKey(collection, op string) string {
	return collection + "." + op
}

// SplitRoutingKey parses "<collection>.<op>" back into its parts.
func SplitRoutingKey(key string) (collection, op string, err error) {
	idx := strings.LastIndex(key, ".")
	if idx <= 0 || idx == len(key)-1 {
		return "", "", fmt.Errorf("malformed routing key: %q", key)
	}
	collection, op = key[:idx], key[idx+1:]
	switch op {
	case OpInsert, OpUpdate, OpDelete:
		return collection, op, nil
	}
	return "", "", fmt.Errorf("unknown change op in routing key: %q", key)
}

// ChangePayload is the body of every change notification.
type ChangePayload struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	RecordID   string    `json:"record_id"`
	TenantID   string    `json:"tenant_id"`
	ChangedAt  time.Time `json:"changed_at"`
}
