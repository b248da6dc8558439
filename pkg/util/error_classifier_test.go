package util

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
)

func TestIsRetryableError(t *testing.T) {
	var syntaxErr error
	if err := json.Unmarshal([]byte("{"), &map[string]any{}); err != nil {
		syntaxErr = err
	}

	tests := []struct {
		name      string
		err       error
		retryable bool
		errType   string
	}{
		{"nil", nil, false, ""},
		{"json syntax", syntaxErr, false, "json_decode_error"},
		{"no rows", pgx.ErrNoRows, false, "record_not_found"},
		{"wrapped no rows", fmt.Errorf("load deal: %w", pgx.ErrNoRows), false, "record_not_found"},
		{"duplicate key", errors.New(`duplicate key value violates unique constraint "decisions_pkey"`), false, "duplicate_key"},
		{"db connection", errors.New("failed to connect to host"), true, "db_connection_error"},
		{"deadline", context.DeadlineExceeded, true, "timeout"},
		{"canceled", context.Canceled, false, "context_canceled"},
		{"provision error", errors.New("provisioning api returned error: status=502"), true, "provision_api_error"},
		{"provision unreachable", errors.New("failed to call provisioning api: dial tcp"), true, "provision_api_unavailable"},
		{"unknown", errors.New("something odd"), false, "unknown_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retryable, errType := IsRetryableError(tt.err)
			if retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", retryable, tt.retryable)
			}
			if errType != tt.errType {
				t.Errorf("errType = %q, want %q", errType, tt.errType)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	if ShouldRetry(1, 3, false) {
		t.Error("non-retryable error must not retry")
	}
	if !ShouldRetry(3, 3, true) {
		t.Error("retry count at limit should still retry")
	}
	if ShouldRetry(4, 3, true) {
		t.Error("retry count past limit must not retry")
	}
}
