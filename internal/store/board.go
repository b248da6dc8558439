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

// ListBoards serves the tenant's boards from the cached view when one is
// attached.
func (s *Store) ListBoards(ctx context.Context, tenantID string) ([]model.Board, error) {
	if s.views != nil {
		all, err := s.views.boards.Get(ctx)
		if err == nil {
			return filterView(all, func(b model.Board) bool { return b.TenantID == tenantID }), nil
		}
		s.logger.Warn("Cached board read failed, using repository", zap.Error(err))
	}
	return s.Boards.List(ctx, tenantID)
}

// ListStages serves one board's stages in column order.
func (s *Store) ListStages(ctx context.Context, tenantID, boardID string) ([]model.BoardStage, error) {
	if s.views != nil {
		all, err := s.views.stages.Get(ctx)
		if err == nil {
			return filterView(all, func(st model.BoardStage) bool {
				return st.TenantID == tenantID && st.BoardID == boardID
			}), nil
		}
		s.logger.Warn("Cached stage read failed, using repository", zap.Error(err))
	}
	return s.Boards.ListStages(ctx, tenantID, boardID)
}

func (s *Store) CreateBoard(ctx context.Context, b *model.Board) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	write := func(ctx context.Context) (model.Board, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Boards.Insert(ctx, tx, b); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionBoards, mq.OpInsert, b.TenantID, b.ID)
		})
		return *b, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	temp := *b
	temp.ID = tempID(b.ID)
	_, err := cache.Insert(ctx, s.views.boards, temp, write)
	return err
}

func (s *Store) UpdateBoard(ctx context.Context, b *model.Board) error {
	write := func(ctx context.Context) (model.Board, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Boards.Update(ctx, tx, b); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionBoards, mq.OpUpdate, b.TenantID, b.ID)
		})
		return *b, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	_, err := cache.Update(ctx, s.views.boards, *b, write)
	return err
}

func (s *Store) DeleteBoard(ctx context.Context, tenantID, id string) error {
	write := func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Boards.Delete(ctx, tx, tenantID, id); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionBoards, mq.OpDelete, tenantID, id)
		})
	}
	if s.views == nil {
		return write(ctx)
	}
	return cache.Delete(ctx, s.views.boards, id, write)
}

func (s *Store) CreateStage(ctx context.Context, st *model.BoardStage) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	write := func(ctx context.Context) (model.BoardStage, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Boards.InsertStage(ctx, tx, st); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionBoardStages, mq.OpInsert, st.TenantID, st.ID)
		})
		return *st, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	temp := *st
	temp.ID = tempID(st.ID)
	_, err := cache.Insert(ctx, s.views.stages, temp, write)
	return err
}

func (s *Store) UpdateStage(ctx context.Context, st *model.BoardStage) error {
	write := func(ctx context.Context) (model.BoardStage, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Boards.UpdateStage(ctx, tx, st); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionBoardStages, mq.OpUpdate, st.TenantID, st.ID)
		})
		return *st, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	_, err := cache.Update(ctx, s.views.stages, *st, write)
	return err
}

func (s *Store) DeleteStage(ctx context.Context, tenantID, id string) error {
	write := func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Boards.DeleteStage(ctx, tx, tenantID, id); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionBoardStages, mq.OpDelete, tenantID, id)
		})
	}
	if s.views == nil {
		return write(ctx)
	}
	return cache.Delete(ctx, s.views.stages, id, write)
}
