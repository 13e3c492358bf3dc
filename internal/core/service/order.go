package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/edamame-dev/canteen/internal/core/domain"
	"github.com/edamame-dev/canteen/internal/core/port"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

// resolveItems snapshots the requested dishes from the menu. Every
// requested id must resolve or the whole operation aborts; quantities
// below one default to one.
func resolveItems(ctx context.Context, tx port.Repository,
	requests []domain.OrderItemRequest) ([]domain.OrderItem, decimal.Decimal, error) {
	ids := make([]uint64, 0, len(requests))
	seen := make(map[uint64]bool, len(requests))
	for _, req := range requests {
		if !seen[req.DishID] {
			seen[req.DishID] = true
			ids = append(ids, req.DishID)
		}
	}

	menuItems, err := tx.ListMenuItemsByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}
	byID := make(map[uint64]*domain.MenuItem, len(menuItems))
	for _, m := range menuItems {
		byID[m.ID] = m
	}

	total := decimal.Zero
	items := make([]domain.OrderItem, 0, len(requests))
	for _, req := range requests {
		dish, ok := byID[req.DishID]
		if !ok {
			return nil, decimal.Zero, domain.ErrDishNotFound
		}

		quantity := req.Quantity
		if quantity < 1 {
			quantity = 1
		}

		qty, err := decimal.New(quantity, 0)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("math error: %w", err)
		}
		line, err := dish.Price.Mul(qty)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("math error: %w", err)
		}
		total, err = total.Add(line)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("math error: %w", err)
		}

		items = append(items, domain.OrderItem{
			DishID:     dish.ID,
			DishName:   dish.DishName,
			Price:      dish.Price,
			Quantity:   quantity,
			IsFreeSale: dish.IsFreeSale,
		})
	}

	return items, total, nil
}

func checkBeneficiaryItems(account *domain.Account, items []domain.OrderItem) error {
	if !account.IsBeneficiary {
		return nil
	}
	for _, item := range items {
		if !item.IsFreeSale {
			return domain.ErrRestrictedItems
		}
	}
	return nil
}

// CreateOrder places today's regular order: one per account per civil day,
// debited from the balance in the same transaction as the order insert.
func (s *Service) CreateOrder(ctx context.Context, accountID uint64,
	requests []domain.OrderItemRequest) (*domain.Order, error) {
	now := s.calendar.Now()
	dayStart, dayEnd := s.calendar.DayWindow(now)

	var created *domain.Order
	err := s.repo.WithinTransaction(ctx, func(tx port.Repository) error {
		account, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		_, err = tx.FindOrderInWindow(ctx, accountID, false, dayStart, dayEnd)
		if err == nil {
			return domain.ErrDuplicateOrder
		}
		if !errors.Is(err, domain.ErrDataNotFound) {
			return err
		}

		if len(requests) == 0 {
			return domain.ErrEmptyOrder
		}

		items, total, err := resolveItems(ctx, tx, requests)
		if err != nil {
			return err
		}
		if err := checkBeneficiaryItems(account, items); err != nil {
			return err
		}

		projected, err := account.Balance.Sub(total)
		if err != nil {
			return fmt.Errorf("math error: %w", err)
		}
		if projected.Cmp(domain.DebtCeiling) < 0 {
			return domain.ErrInsufficientFunds
		}

		reason := fmt.Sprintf("%s %s", domain.ReasonOrder, dayStart.Format("2006-01-02"))
		if err := s.applyBalanceChange(ctx, tx, account, total.Neg(), projected,
			accountID, reason, now); err != nil {
			return err
		}

		created, err = tx.CreateOrder(ctx, &domain.Order{
			AccountID: accountID,
			Items:     items,
			Total:     total,
			CreatedAt: now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.Uint64("account", accountID),
		zap.Uint64("order", created.ID),
		zap.String("total", created.Total.String()))

	s.pruneLedger(ctx, accountID, now)
	return created, nil
}

// CreateBeneficiaryOrder places today's beneficiary entitlement: a flat
// zero-cost order with no items and no ledger movement, in a slot
// independent of the regular order.
func (s *Service) CreateBeneficiaryOrder(ctx context.Context, accountID uint64) (*domain.Order, error) {
	now := s.calendar.Now()
	dayStart, dayEnd := s.calendar.DayWindow(now)

	var created *domain.Order
	err := s.repo.WithinTransaction(ctx, func(tx port.Repository) error {
		account, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		_, err = tx.FindOrderInWindow(ctx, accountID, true, dayStart, dayEnd)
		if err == nil {
			return domain.ErrDuplicateOrder
		}
		if !errors.Is(err, domain.ErrDataNotFound) {
			return err
		}

		if !account.IsBeneficiary {
			return domain.ErrNotEligible
		}

		created, err = tx.CreateOrder(ctx, &domain.Order{
			AccountID:     accountID,
			Items:         []domain.OrderItem{},
			Total:         decimal.Zero,
			IsBeneficiary: true,
			CreatedAt:     now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("beneficiary order created",
		zap.Uint64("account", accountID),
		zap.Uint64("order", created.ID))

	return created, nil
}

// UpdateOrder replaces the order's full item list. The previous debit is
// reversed and the new total debited in one transaction, so the net ledger
// movement is oldTotal-newTotal. Beneficiary orders are immutable.
func (s *Service) UpdateOrder(ctx context.Context, accountID uint64, orderID uint64,
	requests []domain.OrderItemRequest) (*domain.Order, error) {
	now := s.calendar.Now()
	dayStart, _ := s.calendar.DayWindow(now)

	var updated *domain.Order
	err := s.repo.WithinTransaction(ctx, func(tx port.Repository) error {
		account, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		order, err := tx.ReadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.AccountID != accountID {
			return domain.ErrForbidden
		}
		if order.IsBeneficiary {
			return domain.ErrImmutableOrder
		}

		filtered := make([]domain.OrderItemRequest, 0, len(requests))
		for _, req := range requests {
			if req.Quantity > 0 {
				filtered = append(filtered, req)
			}
		}
		if len(filtered) == 0 {
			return domain.ErrEmptyOrder
		}

		items, newTotal, err := resolveItems(ctx, tx, filtered)
		if err != nil {
			return err
		}
		if err := checkBeneficiaryItems(account, items); err != nil {
			return err
		}

		// Full reversal of the previous debit, then the new one.
		delta, err := order.Total.Sub(newTotal)
		if err != nil {
			return fmt.Errorf("math error: %w", err)
		}
		newBalance, err := account.Balance.Add(delta)
		if err != nil {
			return fmt.Errorf("math error: %w", err)
		}
		if newBalance.Cmp(domain.DebtCeiling) < 0 {
			return domain.ErrInsufficientFunds
		}

		reason := fmt.Sprintf("%s %s", domain.ReasonOrderEdit, dayStart.Format("2006-01-02"))
		if err := s.applyBalanceChange(ctx, tx, account, delta, newBalance,
			accountID, reason, now); err != nil {
			return err
		}

		order.Items = items
		order.Total = newTotal
		updated, err = tx.ReplaceOrderItems(ctx, order)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order updated",
		zap.Uint64("account", accountID),
		zap.Uint64("order", orderID),
		zap.String("total", updated.Total.String()))

	s.pruneLedger(ctx, accountID, now)
	return updated, nil
}

// DeleteOrder removes an order, refunding the original debit for regular
// orders. Beneficiary orders never debited anything, so nothing is
// refunded.
func (s *Service) DeleteOrder(ctx context.Context, accountID uint64, orderID uint64) error {
	now := s.calendar.Now()
	dayStart, _ := s.calendar.DayWindow(now)

	err := s.repo.WithinTransaction(ctx, func(tx port.Repository) error {
		account, err := tx.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}

		order, err := tx.ReadOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.AccountID != accountID {
			return domain.ErrForbidden
		}

		if !order.IsBeneficiary {
			newBalance, err := account.Balance.Add(order.Total)
			if err != nil {
				return fmt.Errorf("math error: %w", err)
			}

			reason := fmt.Sprintf("%s %s", domain.ReasonOrderCancel, dayStart.Format("2006-01-02"))
			if err := s.applyBalanceChange(ctx, tx, account, order.Total, newBalance,
				accountID, reason, now); err != nil {
				return err
			}
		}

		return tx.DeleteOrder(ctx, orderID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("order deleted",
		zap.Uint64("account", accountID),
		zap.Uint64("order", orderID))

	s.pruneLedger(ctx, accountID, now)
	return nil
}

func (s *Service) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	list, err := s.repo.ListOrders(ctx)
	if err != nil {
		s.logger.Error("List orders", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) ListOrdersByAccount(ctx context.Context, accountID uint64) ([]*domain.Order, error) {
	list, err := s.repo.ListOrdersByAccount(ctx, accountID)
	if err != nil {
		s.logger.Error("List orders for account", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *Service) ListTodayOrders(ctx context.Context, accountID uint64) ([]*domain.Order, error) {
	dayStart, dayEnd := s.calendar.DayWindow(s.calendar.Now())

	list, err := s.repo.ListOrdersByAccountBetween(ctx, accountID, dayStart, dayEnd)
	if err != nil {
		s.logger.Error("List today orders", zap.Error(err))
		return nil, err
	}
	return list, nil
}
