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

// ListContacts serves the tenant's contacts from the cached view when one is
// attached.
func (s *Store) ListContacts(ctx context.Context, tenantID string) ([]model.Contact, error) {
	if s.views != nil {
		all, err := s.views.contacts.Get(ctx)
		if err == nil {
			return filterView(all, func(c model.Contact) bool { return c.TenantID == tenantID }), nil
		}
		s.logger.Warn("Cached contact read failed, using repository", zap.Error(err))
	}
	return s.Contacts.List(ctx, tenantID)
}

func (s *Store) CreateContact(ctx context.Context, c *model.Contact) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	write := func(ctx context.Context) (model.Contact, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Contacts.Insert(ctx, tx, c); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionContacts, mq.OpInsert, c.TenantID, c.ID)
		})
		return *c, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	temp := *c
	temp.ID = tempID(c.ID)
	_, err := cache.Insert(ctx, s.views.contacts, temp, write)
	return err
}

func (s *Store) UpdateContact(ctx context.Context, c *model.Contact) error {
	write := func(ctx context.Context) (model.Contact, error) {
		err := s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Contacts.Update(ctx, tx, c); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionContacts, mq.OpUpdate, c.TenantID, c.ID)
		})
		return *c, err
	}
	if s.views == nil {
		_, err := write(ctx)
		return err
	}
	_, err := cache.Update(ctx, s.views.contacts, *c, write)
	return err
}

func (s *Store) DeleteContact(ctx context.Context, tenantID, id string) error {
	write := func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			if err := s.Contacts.Delete(ctx, tx, tenantID, id); err != nil {
				return err
			}
			return s.emitChange(ctx, tx, mq.CollectionContacts, mq.OpDelete, tenantID, id)
		})
	}
	if s.views == nil {
		return write(ctx)
	}
	return cache.Delete(ctx, s.views.contacts, id, write)
}
