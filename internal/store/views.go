package store

import (
	"context"
	"time"

	"pipecrm/internal/cache"
	"pipecrm/internal/model"
	"pipecrm/internal/mq"
	"pipecrm/pkg/metrics"
)

// Views are the cached collection reads the API serves. The change-event
// subscriber invalidates or refetches them through the registry; mutations
// go through the optimistic cache helpers so the caller sees its own write
// immediately.
type Views struct {
	registry   *cache.Registry
	companies  *cache.Query[model.Company]
	contacts   *cache.Query[model.Contact]
	boards     *cache.Query[model.Board]
	stages     *cache.Query[model.BoardStage]
	deals      *cache.Query[model.Deal]
	activities *cache.Query[model.Activity]
	fieldDefs  *cache.Query[model.CustomFieldDef]
}

// viewFetchers are the list loaders behind each cached collection.
type viewFetchers struct {
	companies  cache.FetchFunc[model.Company]
	contacts   cache.FetchFunc[model.Contact]
	boards     cache.FetchFunc[model.Board]
	stages     cache.FetchFunc[model.BoardStage]
	deals      cache.FetchFunc[model.Deal]
	activities cache.FetchFunc[model.Activity]
	fieldDefs  cache.FetchFunc[model.CustomFieldDef]
}

func newViews(f viewFetchers) *Views {
	v := &Views{
		registry:   cache.NewRegistry(),
		companies:  cache.NewQuery(mq.CollectionCompanies, func(c model.Company) string { return c.ID }, f.companies),
		contacts:   cache.NewQuery(mq.CollectionContacts, func(c model.Contact) string { return c.ID }, f.contacts),
		boards:     cache.NewQuery(mq.CollectionBoards, func(b model.Board) string { return b.ID }, f.boards),
		stages:     cache.NewQuery(mq.CollectionBoardStages, func(s model.BoardStage) string { return s.ID }, f.stages),
		deals:      cache.NewQuery(mq.CollectionDeals, func(d model.Deal) string { return d.ID }, f.deals),
		activities: cache.NewQuery(mq.CollectionActivities, func(a model.Activity) string { return a.ID }, f.activities),
		fieldDefs:  cache.NewQuery(mq.CollectionFieldDefs, func(d model.CustomFieldDef) string { return d.ID }, f.fieldDefs),
	}
	v.registry.Register(v.companies)
	v.registry.Register(v.contacts)
	v.registry.Register(v.boards)
	v.registry.Register(v.stages)
	v.registry.Register(v.deals)
	v.registry.Register(v.activities)
	v.registry.Register(v.fieldDefs)
	return v
}

// NewViews builds the cached views over the store's repositories.
func NewViews(s *Store) *Views {
	return newViews(viewFetchers{
		companies:  timedFetch(mq.CollectionCompanies, s.Companies.ListAll),
		contacts:   timedFetch(mq.CollectionContacts, s.Contacts.ListAll),
		boards:     timedFetch(mq.CollectionBoards, s.Boards.ListAll),
		stages:     timedFetch(mq.CollectionBoardStages, s.Boards.ListAllStages),
		deals:      timedFetch(mq.CollectionDeals, s.Deals.ListAll),
		activities: timedFetch(mq.CollectionActivities, s.Activities.ListAll),
		fieldDefs:  timedFetch(mq.CollectionFieldDefs, s.CustomFields.ListAll),
	})
}

// Registry exposes the collection registry the change-event subscriber
// drives.
func (v *Views) Registry() *cache.Registry {
	return v.registry
}

func timedFetch[T any](collection string, list func(context.Context) ([]T, error)) cache.FetchFunc[T] {
	return func(ctx context.Context) ([]T, error) {
		start := time.Now()
		defer func() { metrics.RecordDBQueryDuration("list", collection, time.Since(start)) }()
		return list(ctx)
	}
}

// tempID marks the provisional record cached while its insert is in flight.
// The store never issues ids with this prefix, so the authoritative record
// can always be told apart from the optimistic one.
func tempID(id string) string {
	return "tmp-" + id
}

func filterView[T any](items []T, keep func(T) bool) []T {
	out := []T{}
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
