package cache

import (
	"context"
	"fmt"
	"sync"
)

// Syncable is the view of a Query the change-event subscriber needs: it can be
// invalidated or refetched by collection name without knowing the item type.
type Syncable interface {
	Collection() string
	Invalidate()
	Refetch(ctx context.Context) error
}

// Registry maps collection names to their cached queries.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Syncable
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Syncable)}
}

func (r *Registry) Register(q Syncable) {
	r.mu.Lock()
	r.byName[q.Collection()] = q
	r.mu.Unlock()
}

// Lookup returns the query for a collection, or an error for collections
// the cache does not track.
func (r *Registry) Lookup(collection string) (Syncable, error) {
	r.mu.RLock()
	q, ok := r.byName[collection]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no cached query for collection %q", collection)
	}
	return q, nil
}

// Invalidate marks one collection stale. Unknown collections are ignored:
// a notification for an untracked collection is not an error.
func (r *Registry) Invalidate(collection string) {
	if q, err := r.Lookup(collection); err == nil {
		q.Invalidate()
	}
}

// Refetch reloads one collection now.
func (r *Registry) Refetch(ctx context.Context, collection string) error {
	q, err := r.Lookup(collection)
	if err != nil {
		return nil
	}
	return q.Refetch(ctx)
}
