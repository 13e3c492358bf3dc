package service

import (
	"context"

	"github.com/edamame-dev/canteen/internal/core/domain"
	"go.uber.org/zap"
)

func (s *Service) CreateMenuItems(ctx context.Context, items []*domain.MenuItem) ([]*domain.MenuItem, error) {
	for _, item := range items {
		if item.Price.IsNeg() {
			return nil, domain.ErrBadRequest
		}
	}

	created, err := s.repo.CreateMenuItems(ctx, items)
	if err != nil {
		s.logger.Error("Create menu items", zap.Error(err))
		return nil, err
	}
	return created, nil
}

func (s *Service) GetMenu(ctx context.Context) ([]*domain.MenuItem, error) {
	list, err := s.repo.ListMenuItems(ctx)
	if err != nil {
		s.logger.Error("List menu", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) UpdateMenuItem(ctx context.Context, id uint64, upd domain.MenuItemUpdate) (*domain.MenuItem, error) {
	if upd.Price != nil && upd.Price.IsNeg() {
		return nil, domain.ErrBadRequest
	}

	item, err := s.repo.UpdateMenuItem(ctx, id, upd)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) DeleteMenuItem(ctx context.Context, id uint64) error {
	return s.repo.DeleteMenuItem(ctx, id)
}
