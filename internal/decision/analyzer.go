package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pipecrm/internal/model"
)

// Decision types raised by the built-in analyzers.
const (
	TypeStagnantDeal = "stagnant_deal"
	TypeChurnRisk    = "churn_risk"
)

// Amount thresholds scaling stagnant-deal priority.
const (
	criticalAmount = 100000
	highAmount     = 25000
	mediumAmount   = 5000
)

type TenantSource interface {
	ListTenantIDs(ctx context.Context) ([]string, error)
}

type DealSource interface {
	ListStaleDeals(ctx context.Context, tenantID string, cutoff time.Time) ([]model.Deal, error)
}

type ContactSource interface {
	ListIdleSince(ctx context.Context, tenantID string, cutoff time.Time) ([]model.Contact, error)
}

// Analyzer scans CRM data on a schedule and raises decisions for situations
// that deserve attention.
type Analyzer struct {
	queue    *Queue
	tenants  TenantSource
	deals    DealSource
	contacts ContactSource
	logger   *zap.Logger

	stagnantAfter time.Duration
	churnAfter    time.Duration
	expiry        time.Duration
}

func NewAnalyzer(
	queue *Queue,
	tenants TenantSource,
	deals DealSource,
	contacts ContactSource,
	stagnantAfter, churnAfter, expiry time.Duration,
	logger *zap.Logger,
) *Analyzer {
	return &Analyzer{
		queue:         queue,
		tenants:       tenants,
		deals:         deals,
		contacts:      contacts,
		logger:        logger,
		stagnantAfter: stagnantAfter,
		churnAfter:    churnAfter,
		expiry:        expiry,
	}
}

// Run analyzes every tenant. A failing tenant is logged and skipped.
func (a *Analyzer) Run(ctx context.Context) {
	tenantIDs, err := a.tenants.ListTenantIDs(ctx)
	if err != nil {
		a.logger.Error("Failed to list tenants for analysis", zap.Error(err))
		return
	}

	for _, tenantID := range tenantIDs {
		added, err := a.analyzeTenant(ctx, tenantID)
		if err != nil {
			a.logger.Warn("Tenant analysis failed", zap.String("tenant_id", tenantID), zap.Error(err))
			continue
		}
		if added > 0 {
			a.logger.Info("Analysis raised decisions",
				zap.String("tenant_id", tenantID),
				zap.Int("added", added),
			)
		}
	}
}

func (a *Analyzer) analyzeTenant(ctx context.Context, tenantID string) (int, error) {
	now := time.Now().UTC()

	decisions, err := a.stagnantDeals(ctx, tenantID, now)
	if err != nil {
		return 0, err
	}
	churn, err := a.churnRisks(ctx, tenantID, now)
	if err != nil {
		return 0, err
	}
	decisions = append(decisions, churn...)

	return a.queue.AddBatch(ctx, decisions), nil
}

// stagnantDeals raises a decision for every open deal untouched past the
// threshold, with priority scaled by deal amount.
func (a *Analyzer) stagnantDeals(ctx context.Context, tenantID string, now time.Time) ([]model.Decision, error) {
	stale, err := a.deals.ListStaleDeals(ctx, tenantID, now.Add(-a.stagnantAfter))
	if err != nil {
		return nil, err
	}

	decisions := make([]model.Decision, 0, len(stale))
	for i := range stale {
		d := stale[i]
		idleDays := int(now.Sub(d.UpdatedAt).Hours() / 24)
		payload, _ := json.Marshal(map[string]interface{}{
			"deal_id":   d.ID,
			"subject":   fmt.Sprintf("Follow up on %s", d.Title),
			"idle_days": idleDays,
		})
		expiresAt := now.Add(a.expiry)
		dealID := d.ID
		decisions = append(decisions, model.Decision{
			TenantID:  tenantID,
			Type:      TypeStagnantDeal,
			Category:  "pipeline",
			Priority:  amountPriority(d.Amount),
			DealID:    &dealID,
			ExpiresAt: &expiresAt,
			Action: model.SuggestedAction{
				Type:    "create_followup_activity",
				Payload: payload,
			},
		})
	}
	return decisions, nil
}

// churnRisks raises a decision for every contact with no activity past the
// threshold.
func (a *Analyzer) churnRisks(ctx context.Context, tenantID string, now time.Time) ([]model.Decision, error) {
	idle, err := a.contacts.ListIdleSince(ctx, tenantID, now.Add(-a.churnAfter))
	if err != nil {
		return nil, err
	}

	decisions := make([]model.Decision, 0, len(idle))
	for i := range idle {
		c := idle[i]
		payload, _ := json.Marshal(map[string]interface{}{
			"contact_id": c.ID,
			"subject":    fmt.Sprintf("Check in with %s", c.Name),
		})
		expiresAt := now.Add(a.expiry)
		contactID := c.ID
		priority := model.PriorityMedium
		if c.CompanyID != nil && *c.CompanyID != "" {
			priority = model.PriorityHigh
		}
		decisions = append(decisions, model.Decision{
			TenantID:  tenantID,
			Type:      TypeChurnRisk,
			Category:  "relationship",
			Priority:  priority,
			ContactID: &contactID,
			ExpiresAt: &expiresAt,
			Action: model.SuggestedAction{
				Type:    "schedule_checkin",
				Payload: payload,
			},
		})
	}
	return decisions, nil
}

func amountPriority(amount float64) model.DecisionPriority {
	switch {
	case amount >= criticalAmount:
		return model.PriorityCritical
	case amount >= highAmount:
		return model.PriorityHigh
	case amount >= mediumAmount:
		return model.PriorityMedium
	}
	return model.PriorityLow
}
