package decision

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"pipecrm/internal/model"
)

type fakeStore struct {
	decisions map[string]*model.Decision
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{decisions: map[string]*model.Decision{}}
}

func (s *fakeStore) CreateDecision(ctx context.Context, d *model.Decision) error {
	if d.ID == "" {
		s.nextID++
		d.ID = fmt.Sprintf("dec-%d", s.nextID)
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	cp := *d
	s.decisions[d.ID] = &cp
	return nil
}

func (s *fakeStore) GetDecision(ctx context.Context, tenantID, id string) (*model.Decision, error) {
	d, ok := s.decisions[id]
	if !ok || d.TenantID != tenantID {
		return nil, fmt.Errorf("decision %s not found", id)
	}
	cp := *d
	return &cp, nil
}

func (s *fakeStore) PendingDecisions(ctx context.Context, tenantID string) ([]model.Decision, error) {
	out := []model.Decision{}
	for _, d := range s.decisions {
		if d.TenantID == tenantID && d.Status == model.DecisionPending {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (s *fakeStore) PendingDecisionExists(ctx context.Context, tenantID, decisionType string, dealID, contactID, activityID *string) (bool, error) {
	want := model.Decision{Type: decisionType, DealID: dealID, ContactID: contactID, ActivityID: activityID}
	for _, d := range s.decisions {
		if d.TenantID == tenantID && d.Status == model.DecisionPending && d.DedupeKey() == want.DedupeKey() {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) DecideDecision(ctx context.Context, tenantID, id string, status model.DecisionStatus, decidedAt time.Time) error {
	d, ok := s.decisions[id]
	if !ok || d.TenantID != tenantID || d.Status != model.DecisionPending {
		return fmt.Errorf("decision %s not pending", id)
	}
	d.Status = status
	d.DecidedAt = &decidedAt
	d.SnoozeUntil = nil
	return nil
}

func (s *fakeStore) SnoozeDecision(ctx context.Context, tenantID, id string, until time.Time) error {
	d, ok := s.decisions[id]
	if !ok || d.TenantID != tenantID || d.Status != model.DecisionPending {
		return fmt.Errorf("decision %s not pending", id)
	}
	d.SnoozeUntil = &until
	return nil
}

func (s *fakeStore) DeleteExpiredDecisions(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for id, d := range s.decisions {
		if d.Status == model.DecisionPending && d.Expired(now) {
			delete(s.decisions, id)
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) DeleteDecidedDecisionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, d := range s.decisions {
		if (d.Status == model.DecisionApproved || d.Status == model.DecisionRejected) &&
			d.DecidedAt != nil && d.DecidedAt.Before(cutoff) {
			delete(s.decisions, id)
			n++
		}
	}
	return n, nil
}

type fakeDeduper struct {
	acquired  map[string]bool
	processed map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{acquired: map[string]bool{}, processed: map[string]bool{}}
}

func (d *fakeDeduper) AcquireOnce(ctx context.Context, tenantID, key string) bool {
	k := tenantID + "/" + key
	if d.acquired[k] {
		return false
	}
	d.acquired[k] = true
	return true
}

func (d *fakeDeduper) MarkProcessed(ctx context.Context, tenantID, key string) error {
	d.processed[tenantID+"/"+key] = true
	return nil
}

type recordingExecutor struct {
	executed []model.SuggestedAction
	fail     bool
}

func (e *recordingExecutor) Execute(ctx context.Context, tenantID string, action model.SuggestedAction) error {
	if e.fail {
		return fmt.Errorf("executor down")
	}
	e.executed = append(e.executed, action)
	return nil
}

func ptr(s string) *string { return &s }

func newTestQueue() (*Queue, *fakeStore, *fakeDeduper, *recordingExecutor) {
	store := newFakeStore()
	dd := newFakeDeduper()
	exec := &recordingExecutor{}
	q := NewQueue(store, dd, exec, 7*24*time.Hour, zap.NewNop())
	return q, store, dd, exec
}

func TestAddDeduplicatesByTypeAndEntity(t *testing.T) {
	q, _, _, _ := newTestQueue()
	ctx := context.Background()

	first := model.Decision{TenantID: "t1", Type: TypeStagnantDeal, Priority: model.PriorityHigh, DealID: ptr("deal-1")}
	added, err := q.Add(ctx, &first)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !added {
		t.Fatal("expected first decision to be added")
	}

	dup := model.Decision{TenantID: "t1", Type: TypeStagnantDeal, Priority: model.PriorityLow, DealID: ptr("deal-1")}
	added, err = q.Add(ctx, &dup)
	if err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}
	if added {
		t.Error("expected duplicate type+entity to be suppressed")
	}

	other := model.Decision{TenantID: "t1", Type: TypeStagnantDeal, Priority: model.PriorityHigh, DealID: ptr("deal-2")}
	added, err = q.Add(ctx, &other)
	if err != nil {
		t.Fatalf("Add other deal: %v", err)
	}
	if !added {
		t.Error("expected decision for a different deal to be added")
	}
}

func TestAddChecksStoreWhenDedupeMarkerExpired(t *testing.T) {
	q, store, dd, _ := newTestQueue()
	ctx := context.Background()

	d := model.Decision{TenantID: "t1", Type: TypeChurnRisk, ContactID: ptr("c-1")}
	if _, err := q.Add(ctx, &d); err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Simulate the redis marker expiring while the decision is still pending.
	dd.acquired = map[string]bool{}

	dup := model.Decision{TenantID: "t1", Type: TypeChurnRisk, ContactID: ptr("c-1")}
	added, err := q.Add(ctx, &dup)
	if err != nil {
		t.Fatalf("Add after marker expiry: %v", err)
	}
	if added {
		t.Error("expected store-side pending check to suppress the duplicate")
	}
	if len(store.decisions) != 1 {
		t.Errorf("expected 1 stored decision, got %d", len(store.decisions))
	}
}

func TestPendingOrderingAndVisibility(t *testing.T) {
	q, store, _, _ := newTestQueue()
	ctx := context.Background()
	now := time.Now()

	later := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	seed := []model.Decision{
		{ID: "low-old", TenantID: "t1", Type: "a", Priority: model.PriorityLow, Status: model.DecisionPending, CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "crit", TenantID: "t1", Type: "b", Priority: model.PriorityCritical, Status: model.DecisionPending, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "high-new", TenantID: "t1", Type: "c", Priority: model.PriorityHigh, Status: model.DecisionPending, CreatedAt: now.Add(-time.Minute)},
		{ID: "high-old", TenantID: "t1", Type: "d", Priority: model.PriorityHigh, Status: model.DecisionPending, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "snoozed", TenantID: "t1", Type: "e", Priority: model.PriorityCritical, Status: model.DecisionPending, CreatedAt: now, SnoozeUntil: &later},
		{ID: "expired", TenantID: "t1", Type: "f", Priority: model.PriorityCritical, Status: model.DecisionPending, CreatedAt: now, ExpiresAt: &past},
		{ID: "other-tenant", TenantID: "t2", Type: "g", Priority: model.PriorityCritical, Status: model.DecisionPending, CreatedAt: now},
	}
	for i := range seed {
		cp := seed[i]
		store.decisions[cp.ID] = &cp
	}

	pending, err := q.Pending(ctx, "t1")
	if err != nil {
		t.Fatalf("Pending: %v", err)
	}

	got := make([]string, len(pending))
	for i, d := range pending {
		got[i] = d.ID
	}
	want := []string{"crit", "high-new", "high-old", "low-old"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestApproveExecutesMergedAction(t *testing.T) {
	q, store, dd, exec := newTestQueue()
	ctx := context.Background()

	d := model.Decision{
		TenantID: "t1",
		Type:     TypeStagnantDeal,
		Priority: model.PriorityHigh,
		DealID:   ptr("deal-1"),
		Action: model.SuggestedAction{
			Type:    "create_followup_activity",
			Payload: json.RawMessage(`{"deal_id":"deal-1","subject":"Follow up"}`),
		},
	}
	if _, err := q.Add(ctx, &d); err != nil {
		t.Fatalf("Add: %v", err)
	}

	approved, err := q.Approve(ctx, "t1", d.ID, json.RawMessage(`{"subject":"Call them today"}`))
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.Status != model.DecisionApproved {
		t.Errorf("expected status approved, got %s", approved.Status)
	}
	if store.decisions[d.ID].Status != model.DecisionApproved {
		t.Error("expected stored decision to be approved")
	}

	if len(exec.executed) != 1 {
		t.Fatalf("expected 1 executed action, got %d", len(exec.executed))
	}
	var payload map[string]string
	if err := json.Unmarshal(exec.executed[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal executed payload: %v", err)
	}
	if payload["subject"] != "Call them today" {
		t.Errorf("expected override to win, got subject %q", payload["subject"])
	}
	if payload["deal_id"] != "deal-1" {
		t.Errorf("expected base key preserved, got deal_id %q", payload["deal_id"])
	}

	if !dd.processed["t1/"+d.DedupeKey()] {
		t.Error("expected dedupe key marked processed after approve")
	}
}

func TestApproveExecutionFailureKeepsPending(t *testing.T) {
	q, store, dd, exec := newTestQueue()
	ctx := context.Background()

	d := model.Decision{TenantID: "t1", Type: TypeStagnantDeal, DealID: ptr("deal-1")}
	if _, err := q.Add(ctx, &d); err != nil {
		t.Fatalf("Add: %v", err)
	}

	exec.fail = true
	if _, err := q.Approve(ctx, "t1", d.ID, nil); err == nil {
		t.Fatal("expected approve to fail when the action cannot be executed")
	}
	if got := store.decisions[d.ID].Status; got != model.DecisionPending {
		t.Fatalf("expected decision to stay pending after failed execution, got %s", got)
	}
	if dd.processed["t1/"+d.DedupeKey()] {
		t.Error("expected dedupe key not marked processed after failed execution")
	}

	// The decision is still actionable: a later approve succeeds.
	exec.fail = false
	approved, err := q.Approve(ctx, "t1", d.ID, nil)
	if err != nil {
		t.Fatalf("retry Approve: %v", err)
	}
	if approved.Status != model.DecisionApproved {
		t.Errorf("expected status approved after retry, got %s", approved.Status)
	}
	if len(exec.executed) != 1 {
		t.Errorf("expected 1 executed action, got %d", len(exec.executed))
	}
}

func TestApproveInvalidOverrideKeepsPending(t *testing.T) {
	q, store, _, exec := newTestQueue()
	ctx := context.Background()

	d := model.Decision{TenantID: "t1", Type: TypeChurnRisk, ContactID: ptr("c-1")}
	if _, err := q.Add(ctx, &d); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := q.Approve(ctx, "t1", d.ID, json.RawMessage(`{not json`)); err == nil {
		t.Fatal("expected approve with a malformed override to fail")
	}
	if got := store.decisions[d.ID].Status; got != model.DecisionPending {
		t.Fatalf("expected decision to stay pending after invalid override, got %s", got)
	}
	if len(exec.executed) != 0 {
		t.Errorf("expected no executed actions, got %d", len(exec.executed))
	}
}

func TestApproveTwiceFails(t *testing.T) {
	q, _, _, _ := newTestQueue()
	ctx := context.Background()

	d := model.Decision{TenantID: "t1", Type: TypeChurnRisk, ContactID: ptr("c-1")}
	if _, err := q.Add(ctx, &d); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := q.Approve(ctx, "t1", d.ID, nil); err != nil {
		t.Fatalf("first Approve: %v", err)
	}
	if _, err := q.Approve(ctx, "t1", d.ID, nil); err == nil {
		t.Error("expected second approve of a decided decision to fail")
	}
}

func TestRejectSkipsExecution(t *testing.T) {
	q, store, _, exec := newTestQueue()
	ctx := context.Background()

	d := model.Decision{TenantID: "t1", Type: TypeChurnRisk, ContactID: ptr("c-1")}
	if _, err := q.Add(ctx, &d); err != nil {
		t.Fatalf("Add: %v", err)
	}
	rejected, err := q.Reject(ctx, "t1", d.ID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != model.DecisionRejected {
		t.Errorf("expected status rejected, got %s", rejected.Status)
	}
	if store.decisions[d.ID].Status != model.DecisionRejected {
		t.Error("expected stored decision to be rejected")
	}
	if len(exec.executed) != 0 {
		t.Errorf("expected no executed actions, got %d", len(exec.executed))
	}
}

func TestSnoozeRejectsPastTime(t *testing.T) {
	q, _, _, _ := newTestQueue()
	ctx := context.Background()

	d := model.Decision{TenantID: "t1", Type: TypeChurnRisk, ContactID: ptr("c-1")}
	if _, err := q.Add(ctx, &d); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := q.Snooze(ctx, "t1", d.ID, time.Now().Add(-time.Minute)); err == nil {
		t.Error("expected snooze into the past to fail")
	}
	if err := q.Snooze(ctx, "t1", d.ID, time.Now().Add(time.Hour)); err != nil {
		t.Errorf("Snooze: %v", err)
	}
}

func TestSweepRemovesExpiredAndOldDecided(t *testing.T) {
	q, store, _, _ := newTestQueue()
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Hour)
	oldDecided := now.Add(-8 * 24 * time.Hour)
	recentDecided := now.Add(-time.Hour)

	seed := []model.Decision{
		{ID: "expired", TenantID: "t1", Type: "a", Status: model.DecisionPending, ExpiresAt: &past},
		{ID: "old-approved", TenantID: "t1", Type: "b", Status: model.DecisionApproved, DecidedAt: &oldDecided},
		{ID: "recent-rejected", TenantID: "t1", Type: "c", Status: model.DecisionRejected, DecidedAt: &recentDecided},
		{ID: "live", TenantID: "t1", Type: "d", Status: model.DecisionPending},
	}
	for i := range seed {
		cp := seed[i]
		store.decisions[cp.ID] = &cp
	}

	removed, err := q.Sweep(ctx, now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if _, ok := store.decisions["expired"]; ok {
		t.Error("expected expired pending decision removed")
	}
	if _, ok := store.decisions["old-approved"]; ok {
		t.Error("expected old approved decision removed")
	}
	if _, ok := store.decisions["recent-rejected"]; !ok {
		t.Error("expected recently decided decision kept")
	}
	if _, ok := store.decisions["live"]; !ok {
		t.Error("expected live pending decision kept")
	}
}
