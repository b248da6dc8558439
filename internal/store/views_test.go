package store

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"pipecrm/internal/model"
	"pipecrm/internal/mq"
)

func emptyFetchers() viewFetchers {
	return viewFetchers{
		companies: func(ctx context.Context) ([]model.Company, error) { return nil, nil },
		contacts:  func(ctx context.Context) ([]model.Contact, error) { return nil, nil },
		boards:    func(ctx context.Context) ([]model.Board, error) { return nil, nil },
		stages:    func(ctx context.Context) ([]model.BoardStage, error) { return nil, nil },
		deals:     func(ctx context.Context) ([]model.Deal, error) { return nil, nil },
		activities: func(ctx context.Context) ([]model.Activity, error) {
			return nil, nil
		},
		fieldDefs: func(ctx context.Context) ([]model.CustomFieldDef, error) { return nil, nil },
	}
}

func viewStore(f viewFetchers) *Store {
	s := &Store{logger: zap.NewNop()}
	s.AttachViews(newViews(f))
	return s
}

func TestListCompaniesServesTenantFromView(t *testing.T) {
	fetches := 0
	f := emptyFetchers()
	f.companies = func(ctx context.Context) ([]model.Company, error) {
		fetches++
		return []model.Company{
			{ID: "c1", TenantID: "t1", Name: "Acme"},
			{ID: "c2", TenantID: "t2", Name: "Globex"},
			{ID: "c3", TenantID: "t1", Name: "Initech"},
		}, nil
	}
	s := viewStore(f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := s.ListCompanies(ctx, "t1")
		if err != nil {
			t.Fatalf("ListCompanies: %v", err)
		}
		if len(got) != 2 || got[0].ID != "c1" || got[1].ID != "c3" {
			t.Fatalf("companies = %v", got)
		}
		for _, c := range got {
			if c.TenantID != "t1" {
				t.Fatalf("leaked tenant %s record %s", c.TenantID, c.ID)
			}
		}
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1: repeated lists must be served from the view", fetches)
	}
}

func TestListDealsByBoardFiltersBoardAndTenant(t *testing.T) {
	f := emptyFetchers()
	f.deals = func(ctx context.Context) ([]model.Deal, error) {
		return []model.Deal{
			{ID: "d1", TenantID: "t1", BoardID: "b1"},
			{ID: "d2", TenantID: "t1", BoardID: "b2"},
			{ID: "d3", TenantID: "t2", BoardID: "b1"},
		}, nil
	}
	s := viewStore(f)

	got, err := s.ListDealsByBoard(context.Background(), "t1", "b1")
	if err != nil {
		t.Fatalf("ListDealsByBoard: %v", err)
	}
	if len(got) != 1 || got[0].ID != "d1" {
		t.Fatalf("deals = %v, want only d1", got)
	}
}

func TestListStagesFiltersBoard(t *testing.T) {
	f := emptyFetchers()
	f.stages = func(ctx context.Context) ([]model.BoardStage, error) {
		return []model.BoardStage{
			{ID: "s1", TenantID: "t1", BoardID: "b1", Position: 0},
			{ID: "s2", TenantID: "t1", BoardID: "b1", Position: 1},
			{ID: "s3", TenantID: "t1", BoardID: "b2", Position: 0},
		}, nil
	}
	s := viewStore(f)

	got, err := s.ListStages(context.Background(), "t1", "b1")
	if err != nil {
		t.Fatalf("ListStages: %v", err)
	}
	if len(got) != 2 || got[0].ID != "s1" || got[1].ID != "s2" {
		t.Fatalf("stages = %v", got)
	}
}

func TestRegistryInvalidateForcesViewRefetch(t *testing.T) {
	fetches := 0
	f := emptyFetchers()
	f.deals = func(ctx context.Context) ([]model.Deal, error) {
		fetches++
		return []model.Deal{{ID: "d1", TenantID: "t1"}}, nil
	}
	s := viewStore(f)
	ctx := context.Background()

	if _, err := s.ListDeals(ctx, "t1"); err != nil {
		t.Fatalf("ListDeals: %v", err)
	}
	s.views.Registry().Invalidate(mq.CollectionDeals)
	if _, err := s.ListDeals(ctx, "t1"); err != nil {
		t.Fatalf("ListDeals after invalidate: %v", err)
	}
	if fetches != 2 {
		t.Errorf("fetches = %d, want 2: invalidation must force a reload", fetches)
	}
}
