package installer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"pipecrm/pkg/circuitbreaker"
	"pipecrm/pkg/util"
)

func TestProvisionSuccess(t *testing.T) {
	var gotAuth string
	var gotReq ProvisionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/projects" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(ProvisionResponse{ProjectRef: "proj-abc", Status: "active"})
	}))
	defer srv.Close()

	c := NewProvisionClient(srv.URL, "secret-token", 5*time.Second, zap.NewNop())
	resp, err := c.Provision(context.Background(), ProvisionRequest{Name: "acme", Region: "eu-west-1"})
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if resp.ProjectRef != "proj-abc" {
		t.Errorf("expected project_ref proj-abc, got %s", resp.ProjectRef)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotReq.Name != "acme" || gotReq.Region != "eu-west-1" {
		t.Errorf("unexpected request body: %+v", gotReq)
	}
}

func TestProvisionErrorStatusIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewProvisionClient(srv.URL, "tok", 5*time.Second, zap.NewNop())
	_, err := c.Provision(context.Background(), ProvisionRequest{Name: "acme"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "provisioning api returned error") {
		t.Errorf("unexpected error message: %v", err)
	}
	retryable, reason := util.IsRetryableError(err)
	if !retryable || reason != "provision_api_error" {
		t.Errorf("expected retryable provision_api_error, got %v %s", retryable, reason)
	}
}

func TestProvisionUnreachableIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from now on

	c := NewProvisionClient(srv.URL, "tok", time.Second, zap.NewNop())
	_, err := c.Provision(context.Background(), ProvisionRequest{Name: "acme"})
	if err == nil {
		t.Fatal("expected error")
	}
	retryable, reason := util.IsRetryableError(err)
	if !retryable || reason != "provision_api_unavailable" {
		t.Errorf("expected retryable provision_api_unavailable, got %v %s", retryable, reason)
	}
}

func TestProvisionBreakerOpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewProvisionClient(srv.URL, "tok", 5*time.Second, zap.NewNop())
	for i := 0; i < circuitbreaker.DefaultConfig().FailureThreshold; i++ {
		if _, err := c.Provision(context.Background(), ProvisionRequest{Name: "acme"}); err == nil {
			t.Fatal("expected failure")
		}
	}

	_, err := c.Provision(context.Background(), ProvisionRequest{Name: "acme"})
	if err != circuitbreaker.ErrOpen {
		t.Errorf("expected ErrOpen after repeated failures, got %v", err)
	}
	if c.BreakerState() != circuitbreaker.StateOpen {
		t.Errorf("expected breaker open, got %s", c.BreakerState())
	}
}

func TestProvisionMissingProjectRef(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ProvisionResponse{Status: "active"})
	}))
	defer srv.Close()

	c := NewProvisionClient(srv.URL, "tok", 5*time.Second, zap.NewNop())
	_, err := c.Provision(context.Background(), ProvisionRequest{Name: "acme"})
	if err == nil || !strings.Contains(err.Error(), "missing project_ref") {
		t.Errorf("expected missing project_ref error, got %v", err)
	}
}
