package cache

import (
	"context"

	"pipecrm/pkg/metrics"
)

// Insert applies the optimistic insert protocol: snapshot, cache a temp
// record, issue the remote write, then splice the authoritative record over
// the temp one. On failure the snapshot is restored exactly. The collection
// is invalidated after settling either way, so any change notification
// missed during the write is reconciled by the next read.
func Insert[T any](ctx context.Context, q *Query[T], temp T, write func(ctx context.Context) (T, error)) (T, error) {
	snapshot := q.Snapshot()
	tempID := q.id(temp)
	q.upsertLocal(temp)

	real, err := write(ctx)
	if err != nil {
		q.Restore(snapshot)
		q.Invalidate()
		metrics.IncrementCacheInvalidate(q.collection, "rollback")
		var zero T
		return zero, err
	}

	q.spliceLocal(tempID, real)
	q.Invalidate()
	metrics.IncrementCacheInvalidate(q.collection, "mutation_settled")
	return real, nil
}

// Update optimistically applies an edit to the cached record, then issues
// the remote write and caches its result. Rollback and settling follow the
// same rules as Insert.
func Update[T any](ctx context.Context, q *Query[T], optimistic T, write func(ctx context.Context) (T, error)) (T, error) {
	snapshot := q.Snapshot()
	q.upsertLocal(optimistic)

	real, err := write(ctx)
	if err != nil {
		q.Restore(snapshot)
		q.Invalidate()
		metrics.IncrementCacheInvalidate(q.collection, "rollback")
		var zero T
		return zero, err
	}

	q.upsertLocal(real)
	q.Invalidate()
	metrics.IncrementCacheInvalidate(q.collection, "mutation_settled")
	return real, nil
}

// Delete optimistically removes the cached record, then issues the remote
// delete. On failure the snapshot is restored exactly.
func Delete[T any](ctx context.Context, q *Query[T], id string, write func(ctx context.Context) error) error {
	snapshot := q.Snapshot()
	q.removeLocal(id)

	if err := write(ctx); err != nil {
		q.Restore(snapshot)
		q.Invalidate()
		metrics.IncrementCacheInvalidate(q.collection, "rollback")
		return err
	}

	q.Invalidate()
	metrics.IncrementCacheInvalidate(q.collection, "mutation_settled")
	return nil
}
