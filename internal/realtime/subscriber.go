// Package realtime turns the change-notification stream into cache
// maintenance. Inserts are coalesced for a short window so one bursty
// multi-row insert does not trigger a refetch storm; updates and deletes are
// debounced per collection.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"pipecrm/internal/mq"
	"pipecrm/pkg/metrics"
)

// Target is the cache side of the subscriber, satisfied by *cache.Registry.
type Target interface {
	Invalidate(collection string)
	Refetch(ctx context.Context, collection string) error
}

type Subscriber struct {
	target   Target
	logger   *zap.Logger
	coalesce time.Duration
	debounce time.Duration

	mu      sync.Mutex
	inserts map[string]*insertWindow
	edits   map[string]*time.Timer
}

// insertWindow counts inserts for one collection during a coalescing
// window. The count distinguishes a single insert (safe to refetch
// immediately on flush) from a burst (invalidate only).
type insertWindow struct {
	count int
	timer *time.Timer
}

func NewSubscriber(target Target, coalesce, debounce time.Duration, logger *zap.Logger) *Subscriber {
	return &Subscriber{
		target:   target,
		logger:   logger,
		coalesce: coalesce,
		debounce: debounce,
		inserts:  make(map[string]*insertWindow),
		edits:    make(map[string]*time.Timer),
	}
}

// HandleChange is the mq.MessageHandler for the sync queue.
func (s *Subscriber) HandleChange(ctx context.Context, routingKey string, data json.RawMessage) error {
	collection, op, err := mq.SplitRoutingKey(routingKey)
	if err != nil {
		// Malformed keys are poison; redelivery won't fix them.
		s.logger.Error("Dropping malformed change notification",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
		return nil
	}

	var payload mq.ChangePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		s.logger.Error("Dropping undecodable change notification",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
		return nil
	}

	s.logger.Debug("Change notification received",
		zap.String("collection", collection),
		zap.String("op", op),
		zap.String("record_id", payload.RecordID),
	)

	switch op {
	case mq.OpInsert:
		s.noteInsert(collection)
	case mq.OpUpdate, mq.OpDelete:
		s.noteEdit(collection)
	}

	return nil
}

func (s *Subscriber) noteInsert(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.inserts[collection]
	if !ok {
		w = &insertWindow{}
		w.timer = time.AfterFunc(s.coalesce, func() { s.flushInserts(collection) })
		s.inserts[collection] = w
	}
	w.count++
}

func (s *Subscriber) noteEdit(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.edits[collection]; ok {
		// Another edit inside the quiet period: push the flush out.
		t.Reset(s.debounce)
		return
	}
	s.edits[collection] = time.AfterFunc(s.debounce, func() { s.flushEdits(collection) })
}

func (s *Subscriber) flushInserts(collection string) {
	s.mu.Lock()
	w, ok := s.inserts[collection]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.inserts, collection)
	count := w.count
	s.mu.Unlock()

	if count == 1 {
		// One new row: cheap to pull the authoritative list right away.
		s.refetch(collection, "single_insert")
		return
	}

	// A burst: refetching now would race the rest of the burst, so only
	// mark stale and let the next read reconcile.
	s.logger.Debug("Insert burst suppressed",
		zap.String("collection", collection),
		zap.Int("count", count),
	)
	s.target.Invalidate(collection)
	metrics.IncrementCacheInvalidate(collection, "insert_burst")
}

func (s *Subscriber) flushEdits(collection string) {
	s.mu.Lock()
	delete(s.edits, collection)
	s.mu.Unlock()

	s.refetch(collection, "debounce")
}

func (s *Subscriber) refetch(collection, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.target.Refetch(ctx, collection); err != nil {
		s.logger.Error("Refetch failed, leaving collection stale",
			zap.String("collection", collection),
			zap.Error(err),
		)
		s.target.Invalidate(collection)
		return
	}
	metrics.IncrementCacheRefetch(collection, reason)
}
