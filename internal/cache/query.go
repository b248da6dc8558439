// Package cache implements the in-process query cache that change events
// reconcile against the remote store. Each Query holds the last fetched
// snapshot of one collection and supports optimistic mutation with rollback.
//
// Ordering between a local optimistic edit and an incoming change
// notification is not strictly guaranteed: both are last-write-wins against
// the cached slice. Reconciliation is a heuristic, the final invalidate after
// every settled mutation is what guarantees convergence.
package cache

import (
	"context"
	"sync"
)

type FetchFunc[T any] func(ctx context.Context) ([]T, error)

// Query caches the fetched contents of one named collection.
type Query[T any] struct {
	mu         sync.Mutex
	collection string
	fetch      FetchFunc[T]
	id         func(T) string
	items      []T
	loaded     bool
	stale      bool
}

// NewQuery builds a query for a collection. id extracts a record's identity,
// fetch loads the authoritative list from the remote store.
func NewQuery[T any](collection string, id func(T) string, fetch FetchFunc[T]) *Query[T] {
	return &Query[T]{
		collection: collection,
		fetch:      fetch,
		id:         id,
	}
}

func (q *Query[T]) Collection() string {
	return q.collection
}

// Get returns the cached items, fetching when the query has never loaded or
// has been invalidated.
func (q *Query[T]) Get(ctx context.Context) ([]T, error) {
	q.mu.Lock()
	needsFetch := !q.loaded || q.stale
	q.mu.Unlock()

	if needsFetch {
		if err := q.Refetch(ctx); err != nil {
			return nil, err
		}
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	return copyItems(q.items), nil
}

// Refetch loads the collection from the remote store and replaces the cached
// items wholesale.
func (q *Query[T]) Refetch(ctx context.Context) error {
	items, err := q.fetch(ctx)
	if err != nil {
		return err
	}

	q.mu.Lock()
	q.items = items
	q.loaded = true
	q.stale = false
	q.mu.Unlock()
	return nil
}

// Invalidate marks the cached items stale; the next Get refetches.
func (q *Query[T]) Invalidate() {
	q.mu.Lock()
	q.stale = true
	q.mu.Unlock()
}

// Snapshot returns a copy of the current cached items.
func (q *Query[T]) Snapshot() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	return copyItems(q.items)
}

// Restore replaces the cached items with a previously taken snapshot. The
// stale flag is deliberately left untouched: an invalidation that arrived
// between the snapshot and the restore still forces a refetch on the next
// Get, so restoring never swallows a change notification.
func (q *Query[T]) Restore(snapshot []T) {
	q.mu.Lock()
	q.items = snapshot
	q.loaded = true
	q.mu.Unlock()
}

// upsertLocal applies an optimistic edit: replace the record with a matching
// id, or append when absent.
func (q *Query[T]) upsertLocal(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := q.id(item)
	for i := range q.items {
		if q.id(q.items[i]) == id {
			q.items[i] = item
			return
		}
	}
	q.items = append(q.items, item)
}

// removeLocal drops the record with the given id, if cached.
func (q *Query[T]) removeLocal(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.items {
		if q.id(q.items[i]) == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// spliceLocal replaces the optimistic temp record with the authoritative one
// returned by the remote write. When a change notification already delivered
// a record with the real id, the temp record is simply dropped so the real
// one is not duplicated.
func (q *Query[T]) spliceLocal(tempID string, real T) {
	q.mu.Lock()
	defer q.mu.Unlock()

	realID := q.id(real)
	realPresent := false
	for i := range q.items {
		if q.id(q.items[i]) == realID {
			realPresent = true
			break
		}
	}

	for i := range q.items {
		if q.id(q.items[i]) == tempID {
			if realPresent {
				q.items = append(q.items[:i], q.items[i+1:]...)
			} else {
				q.items[i] = real
			}
			return
		}
	}

	// Temp already gone (a refetch replaced the slice); make sure the real
	// record is cached.
	if !realPresent {
		q.items = append(q.items, real)
	}
}

func copyItems[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}
