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

// ListCustomFields serves the tenant's field definitions from the cached
// view when one is attached.
func (s *Store) ListCustomFields(ctx context.Context, tenantID string) ([]model.CustomFieldDef, error) {
	if s.views != nil {
		all, err := s.views.fieldDefs.Get(ctx)
		if err == nil {
			return filterView(all, func(f model.CustomFieldDef) bool { return f.TenantID == tenantID }), nil
		}
		s.logger.Warn("Cached field definition read failed, using repository", zap.Error(err))
	}
	return s.CustomFields.List(ctx, tenantID)
}

func (s *Store) CreateCustomField(ctx context.Context, f *model.CustomFieldDef) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	write := func(ctx context.Context) (model.CustomFieldDef, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.CustomFields.Insert(ctx, tx, f); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionFieldDefs, mq.OpInsert, f.TenantID, f.ID)
		})
		return *f, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	temp := *f
	temp.ID = tempID(f.ID)
	_, err := cache.Insert(ctx, s.views.fieldDefs, temp, write)
	return err
}

func (s *Store) DeleteCustomField(ctx context.Context, tenantID, id string) error {
	write := func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.CustomFields.Delete(ctx, tx, tenantID, id); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionFieldDefs, mq.OpDelete, tenantID, id)
		})
	}
	if s.views == nil {
		return write(ctx)
	}
	return cache.Delete(ctx, s.views.fieldDefs, id, write)
}
