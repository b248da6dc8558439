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

// ListCompanies serves the tenant's companies from the cached view when one
// is attached, falling back to the repository when the view cannot load.
func (s *Store) ListCompanies(ctx context.Context, tenantID string) ([]model.Company, error) {
	if s.views != nil {
		all, err := s.views.companies.Get(ctx)
		if err == nil {
			return filterView(all, func(c model.Company) bool { return c.TenantID == tenantID }), nil
		}
		s.logger.Warn("Cached company read failed, using repository", zap.Error(err))
	}
	return s.Companies.List(ctx, tenantID)
}

func (s *Store) CreateCompany(ctx context.Context, c *model.Company) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	write := func(ctx context.Context) (model.Company, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Companies.Insert(ctx, tx, c); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionCompanies, mq.OpInsert, c.TenantID, c.ID)
		})
		return *c, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	temp := *c
	temp.ID = tempID(c.ID)
	_, err := cache.Insert(ctx, s.views.companies, temp, write)
	return err
}

func (s *Store) UpdateCompany(ctx context.Context, c *model.Company) error {
	write := func(ctx context.Context) (model.Company, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Companies.Update(ctx, tx, c); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionCompanies, mq.OpUpdate, c.TenantID, c.ID)
		})
		return *c, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	_, err := cache.Update(ctx, s.views.companies, *c, write)
	return err
}

func (s *Store) DeleteCompany(ctx context.Context, tenantID, id string) error {
	write := func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Companies.Delete(ctx, tx, tenantID, id); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionCompanies, mq.OpDelete, tenantID, id)
		})
	}
	if s.views == nil {
		return write(ctx)
	}
	return cache.Delete(ctx, s.views.companies, id, write)
}
