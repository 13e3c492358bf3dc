package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/edamame-dev/canteen/internal/core/domain"
	"github.com/govalues/decimal"
	"go.uber.org/zap"
)

// reportWindow resolves a report date range to a half-open [start, end)
// window of whole civil days. Both ends zero means today; a zero from
// means "since forever"; a zero to means "up to today".
func (s *Service) reportWindow(from, to time.Time) (time.Time, time.Time, error) {
	if from.IsZero() && to.IsZero() {
		start, end := s.calendar.DayWindow(s.calendar.Now())
		return start, end, nil
	}
	if to.IsZero() {
		to = s.calendar.Now()
	}

	var start time.Time
	if !from.IsZero() {
		start, _ = s.calendar.DayWindow(from)
	}
	_, end := s.calendar.DayWindow(to)

	if end.Before(start) {
		return time.Time{}, time.Time{}, domain.ErrBadRequest
	}
	return start, end, nil
}

// groupStudents loads a group's roster keyed by account id.
// ErrDataNotFound when the group has no students, matching the report
// semantics of "nothing to report on".
func (s *Service) groupStudents(ctx context.Context, group string) ([]*domain.Account, map[uint64]*domain.Account, error) {
	if group == "" {
		return nil, nil, domain.ErrBadRequest
	}

	students, err := s.repo.ListStudentsByGroup(ctx, group)
	if err != nil {
		s.logger.Error("List group students", zap.Error(err))
		return nil, nil, err
	}
	if len(students) == 0 {
		return nil, nil, domain.ErrDataNotFound
	}

	byID := make(map[uint64]*domain.Account, len(students))
	for _, student := range students {
		byID[student.ID] = student
	}
	return students, byID, nil
}

func accountIDs(accounts []*domain.Account) []uint64 {
	ids := make([]uint64, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.ID)
	}
	return ids
}

func (s *Service) GroupOrdersReport(ctx context.Context, group string,
	from, to time.Time) ([]domain.OrderReportRow, error) {
	start, end, err := s.reportWindow(from, to)
	if err != nil {
		return nil, err
	}

	students, byID, err := s.groupStudents(ctx, group)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListOrdersByAccountsBetween(ctx, accountIDs(students), start, end)
	if err != nil {
		s.logger.Error("List group orders", zap.Error(err))
		return nil, err
	}

	rows := make([]domain.OrderReportRow, 0, len(orders))
	for _, order := range orders {
		student := byID[order.AccountID]

		names := make([]string, 0, len(order.Items))
		for _, item := range order.Items {
			names = append(names, item.DishName)
		}

		rows = append(rows, domain.OrderReportRow{
			LastName:  student.LastName,
			FirstName: student.FirstName,
			Group:     student.Group,
			Date:      order.CreatedAt,
			Total:     order.Total,
			Dishes:    strings.Join(names, "; "),
		})
	}

	return rows, nil
}

func (s *Service) GroupCafeteriaReport(ctx context.Context, group string,
	from, to time.Time) (*domain.CafeteriaReport, error) {
	start, end, err := s.reportWindow(from, to)
	if err != nil {
		return nil, err
	}

	students, _, err := s.groupStudents(ctx, group)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListOrdersByAccountsBetween(ctx, accountIDs(students), start, end)
	if err != nil {
		s.logger.Error("List group orders", zap.Error(err))
		return nil, err
	}

	report := domain.CafeteriaReport{Total: decimal.Zero}
	freeSale := make(map[string]*domain.DishTally)
	paid := make(map[string]*domain.DishTally)

	for _, order := range orders {
		report.Total, err = report.Total.Add(order.Total)
		if err != nil {
			return nil, fmt.Errorf("math error: %w", err)
		}
		if order.IsBeneficiary {
			report.BeneficiaryOrders++
		}

		for _, item := range order.Items {
			target := paid
			if item.IsFreeSale {
				target = freeSale
			}

			tally, ok := target[item.DishName]
			if !ok {
				tally = &domain.DishTally{
					DishName:   item.DishName,
					Price:      item.Price,
					TotalPrice: decimal.Zero,
				}
				target[item.DishName] = tally
			}

			qty, err := decimal.New(item.Quantity, 0)
			if err != nil {
				return nil, fmt.Errorf("math error: %w", err)
			}
			line, err := item.Price.Mul(qty)
			if err != nil {
				return nil, fmt.Errorf("math error: %w", err)
			}

			tally.Quantity += item.Quantity
			tally.TotalPrice, err = tally.TotalPrice.Add(line)
			if err != nil {
				return nil, fmt.Errorf("math error: %w", err)
			}
		}
	}

	report.FreeSaleDishes = sortedTallies(freeSale)
	report.PaidDishes = sortedTallies(paid)
	return &report, nil
}

func sortedTallies(tallies map[string]*domain.DishTally) []domain.DishTally {
	names := make([]string, 0, len(tallies))
	for name := range tallies {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]domain.DishTally, 0, len(names))
	for _, name := range names {
		result = append(result, *tallies[name])
	}
	return result
}

func (s *Service) GroupBalanceSnapshot(ctx context.Context, group string) (*domain.BalanceReport, error) {
	return s.balanceReport(ctx, group, func(account *domain.Account) bool {
		return account.IsActive
	})
}

func (s *Service) GroupDebtorsReport(ctx context.Context, group string) (*domain.BalanceReport, error) {
	return s.balanceReport(ctx, group, func(account *domain.Account) bool {
		return account.IsActive && account.Balance.IsNeg()
	})
}

func (s *Service) balanceReport(ctx context.Context, group string,
	include func(*domain.Account) bool) (*domain.BalanceReport, error) {
	students, _, err := s.groupStudents(ctx, group)
	if err != nil {
		return nil, err
	}

	report := domain.BalanceReport{
		Rows:  make([]domain.BalanceReportRow, 0, len(students)),
		Total: decimal.Zero,
	}
	for _, student := range students {
		if !include(student) {
			continue
		}
		report.Rows = append(report.Rows, domain.BalanceReportRow{
			LastName:  student.LastName,
			FirstName: student.FirstName,
			Balance:   student.Balance,
		})
		report.Total, err = report.Total.Add(student.Balance)
		if err != nil {
			return nil, fmt.Errorf("math error: %w", err)
		}
	}

	return &report, nil
}

func (s *Service) GroupLedgerReport(ctx context.Context, group string,
	from, to time.Time) ([]domain.LedgerReportRow, error) {
	start, end, err := s.reportWindow(from, to)
	if err != nil {
		return nil, err
	}

	students, byID, err := s.groupStudents(ctx, group)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListLedgerEntriesByAccountsBetween(ctx, accountIDs(students), start, end)
	if err != nil {
		s.logger.Error("List group ledger entries", zap.Error(err))
		return nil, err
	}

	return s.ledgerReportRows(ctx, entries, byID)
}

func (s *Service) StudentOrdersReport(ctx context.Context, accountID uint64,
	from, to time.Time) ([]*domain.Order, error) {
	start, end, err := s.reportWindow(from, to)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListOrdersByAccountsBetween(ctx, []uint64{accountID}, start, end)
	if err != nil {
		s.logger.Error("List student orders", zap.Error(err))
		return nil, err
	}
	return orders, nil
}

func (s *Service) StudentLedgerReport(ctx context.Context, accountID uint64,
	from, to time.Time) ([]domain.LedgerReportRow, decimal.Decimal, error) {
	start, end, err := s.reportWindow(from, to)
	if err != nil {
		return nil, decimal.Zero, err
	}

	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	entries, err := s.repo.ListLedgerEntriesByAccountsBetween(ctx, []uint64{accountID}, start, end)
	if err != nil {
		s.logger.Error("List student ledger entries", zap.Error(err))
		return nil, decimal.Zero, err
	}

	rows, err := s.ledgerReportRows(ctx, entries,
		map[uint64]*domain.Account{account.ID: account})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return rows, account.Balance, nil
}

// ledgerReportRows expands ledger entries with the owner's and the
// actor's names. Actors no longer on file show as "unknown".
func (s *Service) ledgerReportRows(ctx context.Context, entries []*domain.LedgerEntry,
	owners map[uint64]*domain.Account) ([]domain.LedgerReportRow, error) {
	actorIDs := make([]uint64, 0)
	seen := make(map[uint64]bool)
	for _, entry := range entries {
		if entry.ChangedBy != 0 && !seen[entry.ChangedBy] {
			seen[entry.ChangedBy] = true
			actorIDs = append(actorIDs, entry.ChangedBy)
		}
	}

	actorNames := make(map[uint64]string, len(actorIDs))
	if len(actorIDs) > 0 {
		actors, err := s.repo.ListAccountsByIDs(ctx, actorIDs)
		if err != nil {
			s.logger.Error("List ledger actors", zap.Error(err))
			return nil, err
		}
		for _, actor := range actors {
			actorNames[actor.ID] = fmt.Sprintf("%s %s", actor.FirstName, actor.LastName)
		}
	}

	rows := make([]domain.LedgerReportRow, 0, len(entries))
	for _, entry := range entries {
		changedBy, ok := actorNames[entry.ChangedBy]
		if !ok {
			changedBy = "unknown"
		}

		row := domain.LedgerReportRow{
			Amount:     entry.Amount,
			NewBalance: entry.NewBalance,
			ChangedBy:  changedBy,
			Reason:     entry.Reason,
			Date:       entry.ChangedAt,
		}
		if owner, ok := owners[entry.AccountID]; ok {
			row.LastName = owner.LastName
			row.FirstName = owner.FirstName
		}
		rows = append(rows, row)
	}

	return rows, nil
}
