package decision

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"pipecrm/internal/model"
)

type fakeTenants struct{ ids []string }

func (f *fakeTenants) ListTenantIDs(ctx context.Context) ([]string, error) { return f.ids, nil }

type fakeDeals struct{ deals []model.Deal }

func (f *fakeDeals) ListStaleDeals(ctx context.Context, tenantID string, cutoff time.Time) ([]model.Deal, error) {
	return f.deals, nil
}

type fakeContacts struct{ contacts []model.Contact }

func (f *fakeContacts) ListIdleSince(ctx context.Context, tenantID string, cutoff time.Time) ([]model.Contact, error) {
	return f.contacts, nil
}

func TestAmountPriority(t *testing.T) {
	cases := []struct {
		amount float64
		want   model.DecisionPriority
	}{
		{250000, model.PriorityCritical},
		{100000, model.PriorityCritical},
		{50000, model.PriorityHigh},
		{25000, model.PriorityHigh},
		{10000, model.PriorityMedium},
		{5000, model.PriorityMedium},
		{1000, model.PriorityLow},
		{0, model.PriorityLow},
	}
	for _, c := range cases {
		if got := amountPriority(c.amount); got != c.want {
			t.Errorf("amountPriority(%v): expected %s, got %s", c.amount, c.want, got)
		}
	}
}

func TestAnalyzerRaisesStagnantDealDecisions(t *testing.T) {
	q, store, _, _ := newTestQueue()
	stale := time.Now().Add(-20 * 24 * time.Hour)
	deals := &fakeDeals{deals: []model.Deal{
		{ID: "deal-1", TenantID: "t1", Title: "Big contract", Amount: 150000, UpdatedAt: stale},
		{ID: "deal-2", TenantID: "t1", Title: "Small deal", Amount: 500, UpdatedAt: stale},
	}}
	a := NewAnalyzer(q, &fakeTenants{ids: []string{"t1"}}, deals, &fakeContacts{},
		14*24*time.Hour, 30*24*time.Hour, 7*24*time.Hour, zap.NewNop())

	a.Run(context.Background())

	if len(store.decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(store.decisions))
	}
	byDeal := map[string]model.Decision{}
	for _, d := range store.decisions {
		if d.Type != TypeStagnantDeal {
			t.Errorf("expected type %s, got %s", TypeStagnantDeal, d.Type)
		}
		if d.DealID == nil {
			t.Fatal("expected deal_id set")
		}
		byDeal[*d.DealID] = *d
	}
	if byDeal["deal-1"].Priority != model.PriorityCritical {
		t.Errorf("expected big deal critical, got %s", byDeal["deal-1"].Priority)
	}
	if byDeal["deal-2"].Priority != model.PriorityLow {
		t.Errorf("expected small deal low, got %s", byDeal["deal-2"].Priority)
	}
	if byDeal["deal-1"].ExpiresAt == nil {
		t.Error("expected expiry set on raised decisions")
	}
}

func TestAnalyzerRaisesChurnRiskDecisions(t *testing.T) {
	q, store, _, _ := newTestQueue()
	companyID := "co-1"
	contacts := &fakeContacts{contacts: []model.Contact{
		{ID: "c-1", TenantID: "t1", Name: "Ada", CompanyID: &companyID},
		{ID: "c-2", TenantID: "t1", Name: "Grace"},
	}}
	a := NewAnalyzer(q, &fakeTenants{ids: []string{"t1"}}, &fakeDeals{}, contacts,
		14*24*time.Hour, 30*24*time.Hour, 7*24*time.Hour, zap.NewNop())

	a.Run(context.Background())

	if len(store.decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(store.decisions))
	}
	byContact := map[string]model.Decision{}
	for _, d := range store.decisions {
		if d.Type != TypeChurnRisk {
			t.Errorf("expected type %s, got %s", TypeChurnRisk, d.Type)
		}
		if d.ContactID == nil {
			t.Fatal("expected contact_id set")
		}
		byContact[*d.ContactID] = *d
	}
	if byContact["c-1"].Priority != model.PriorityHigh {
		t.Errorf("expected company-linked contact high, got %s", byContact["c-1"].Priority)
	}
	if byContact["c-2"].Priority != model.PriorityMedium {
		t.Errorf("expected unlinked contact medium, got %s", byContact["c-2"].Priority)
	}
}

func TestAnalyzerRerunDoesNotDuplicate(t *testing.T) {
	q, store, _, _ := newTestQueue()
	stale := time.Now().Add(-20 * 24 * time.Hour)
	deals := &fakeDeals{deals: []model.Deal{
		{ID: "deal-1", TenantID: "t1", Title: "Contract", Amount: 1000, UpdatedAt: stale},
	}}
	a := NewAnalyzer(q, &fakeTenants{ids: []string{"t1"}}, deals, &fakeContacts{},
		14*24*time.Hour, 30*24*time.Hour, 7*24*time.Hour, zap.NewNop())

	a.Run(context.Background())
	a.Run(context.Background())

	if len(store.decisions) != 1 {
		t.Errorf("expected rerun to dedupe, got %d decisions", len(store.decisions))
	}
}
