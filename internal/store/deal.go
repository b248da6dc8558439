package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"pipecrm/internal/cache"
	"pipecrm/internal/model"
	"pipecrm/internal/mq"
)

// ListDeals serves the tenant's deals from the cached view when one is
// attached.
func (s *Store) ListDeals(ctx context.Context, tenantID string) ([]model.Deal, error) {
	if s.views != nil {
		all, err := s.views.deals.Get(ctx)
		if err == nil {
			return filterView(all, func(d model.Deal) bool { return d.TenantID == tenantID }), nil
		}
		s.logger.Warn("Cached deal read failed, using repository", zap.Error(err))
	}
	return s.Deals.List(ctx, tenantID)
}

// ListDealsByBoard serves one board's deals in kanban order.
func (s *Store) ListDealsByBoard(ctx context.Context, tenantID, boardID string) ([]model.Deal, error) {
	if s.views != nil {
		all, err := s.views.deals.Get(ctx)
		if err == nil {
			return filterView(all, func(d model.Deal) bool {
				return d.TenantID == tenantID && d.BoardID == boardID
			}), nil
		}
		s.logger.Warn("Cached deal read failed, using repository", zap.Error(err))
	}
	return s.Deals.ListByBoard(ctx, tenantID, boardID)
}

func (s *Store) CreateDeal(ctx context.Context, d *model.Deal) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	write := func(ctx context.Context) (model.Deal, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Deals.Insert(ctx, tx, d); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionDeals, mq.OpInsert, d.TenantID, d.ID)
		})
		return *d, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	temp := *d
	temp.ID = tempID(d.ID)
	_, err := cache.Insert(ctx, s.views.deals, temp, write)
	return err
}

func (s *Store) UpdateDeal(ctx context.Context, d *model.Deal) error {
	write := func(ctx context.Context) (model.Deal, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Deals.Update(ctx, tx, d); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionDeals, mq.OpUpdate, d.TenantID, d.ID)
		})
		return *d, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	_, err := cache.Update(ctx, s.views.deals, *d, write)
	return err
}

func (s *Store) DeleteDeal(ctx context.Context, tenantID, id string) error {
	write := func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Deals.Delete(ctx, tx, tenantID, id); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionDeals, mq.OpDelete, tenantID, id)
		})
	}
	if s.views == nil {
		return write(ctx)
	}
	return cache.Delete(ctx, s.views.deals, id, write)
}

// MoveDeal relocates a deal card to a stage and position. The target stage
// must belong to the deal's board.
func (s *Store) MoveDeal(ctx context.Context, tenantID, dealID, stageID string, position int) (*model.Deal, error) {
	d, err := s.Deals.FindByID(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}
	stage, err := s.Boards.FindStageByID(ctx, tenantID, stageID)
	if err != nil {
		return nil, err
	}
	if stage.BoardID != d.BoardID {
		return nil, fmt.Errorf("stage %s belongs to a different board", stageID)
	}

	d.StageID = stageID
	d.Position = position
	if err := s.UpdateDeal(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
