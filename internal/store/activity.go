package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pipecrm/internal/cache"
	"pipecrm/internal/model"
	"pipecrm/internal/mq"
)

// ListActivities serves the tenant's activities from the cached view when
// one is attached.
func (s *Store) ListActivities(ctx context.Context, tenantID string) ([]model.Activity, error) {
	if s.views != nil {
		all, err := s.views.activities.Get(ctx)
		if err == nil {
			return filterView(all, func(a model.Activity) bool { return a.TenantID == tenantID }), nil
		}
		s.logger.Warn("Cached activity read failed, using repository", zap.Error(err))
	}
	return s.Activities.List(ctx, tenantID)
}

func (s *Store) CreateActivity(ctx context.Context, a *model.Activity) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	write := func(ctx context.Context) (model.Activity, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Activities.Insert(ctx, tx, a); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionActivities, mq.OpInsert, a.TenantID, a.ID)
		})
		return *a, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	temp := *a
	temp.ID = tempID(a.ID)
	_, err := cache.Insert(ctx, s.views.activities, temp, write)
	return err
}

func (s *Store) UpdateActivity(ctx context.Context, a *model.Activity) error {
	write := func(ctx context.Context) (model.Activity, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Activities.Update(ctx, tx, a); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionActivities, mq.OpUpdate, a.TenantID, a.ID)
		})
		return *a, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	_, err := cache.Update(ctx, s.views.activities, *a, write)
	return err
}

func (s *Store) DeleteActivity(ctx context.Context, tenantID, id string) error {
	write := func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Activities.Delete(ctx, tx, tenantID, id); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionActivities, mq.OpDelete, tenantID, id)
		})
	}
	if s.views == nil {
		return write(ctx)
	}
	return cache.Delete(ctx, s.views.activities, id, write)
}
