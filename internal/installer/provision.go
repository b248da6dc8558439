// Package installer bootstraps the database schema and provisions the
// backend project through the hosting provider's API.
package installer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pipecrm/pkg/circuitbreaker"
)

// ProvisionRequest is sent to the provider to create or attach a backend
// project for this installation.
type ProvisionRequest struct {
	Name   string `json:"name"`
	Region string `json:"region,omitempty"`
}

type ProvisionResponse struct {
	ProjectRef string `json:"project_ref"`
	Status     string `json:"status"`
}

// ProvisionClient calls the hosting provider's provisioning API behind a
// circuit breaker so a flapping provider does not hang installs.
type ProvisionClient struct {
	baseURL string
	token   string
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewProvisionClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *ProvisionClient {
	return &ProvisionClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
		breaker: circuitbreaker.New(circuitbreaker.DefaultConfig()),
		logger:  logger,
	}
}

// Provision creates the backend project. Returns circuitbreaker.ErrOpen when
// the provider has been failing and the breaker is open.
func (c *ProvisionClient) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResponse, error) {
	var resp *ProvisionResponse
	err := c.breaker.Execute(func() error {
		var callErr error
		resp, callErr = c.doProvision(ctx, req)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *ProvisionClient) doProvision(ctx context.Context, req ProvisionRequest) (*ProvisionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/projects", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call provisioning api: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to call provisioning api: %w", err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("provisioning api returned error: status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var out ProvisionResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("provisioning api returned error: invalid response body: %w", err)
	}
	if out.ProjectRef == "" {
		return nil, fmt.Errorf("provisioning api returned error: missing project_ref")
	}
	return &out, nil
}

// BreakerState exposes the breaker state for the meta endpoint.
func (c *ProvisionClient) BreakerState() circuitbreaker.State {
	return c.breaker.GetState()
}
