package port

import (
	"context"
	"time"

	"github.com/edamame-dev/canteen/internal/core/domain"
	"github.com/govalues/decimal"
)

type Service interface {
	LoginUser(ctx context.Context, login string, password string) (string, error)

	CreateAccount(ctx context.Context, actor TokenPayload, account *domain.Account, password string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]*domain.Account, error)
	UpdateAccount(ctx context.Context, actor TokenPayload, id uint64, upd domain.AccountUpdate) (*domain.Account, error)
	ChangePassword(ctx context.Context, actor TokenPayload, id uint64, oldPassword, newPassword string) error
	SetPassword(ctx context.Context, actor TokenPayload, id uint64, newPassword string) error
	GetAccount(ctx context.Context, actor TokenPayload, id uint64) (*domain.Account, error)
	AdjustBalance(ctx context.Context, actor TokenPayload, accountID uint64, amount decimal.Decimal, reason string) (*domain.Account, error)
	LedgerHistory(ctx context.Context, actor TokenPayload, accountID uint64) ([]*domain.LedgerEntry, error)

	CreateOrder(ctx context.Context, accountID uint64, items []domain.OrderItemRequest) (*domain.Order, error)
	CreateBeneficiaryOrder(ctx context.Context, accountID uint64) (*domain.Order, error)
	UpdateOrder(ctx context.Context, accountID uint64, orderID uint64, items []domain.OrderItemRequest) (*domain.Order, error)
	DeleteOrder(ctx context.Context, accountID uint64, orderID uint64) error
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	ListOrdersByAccount(ctx context.Context, accountID uint64) ([]*domain.Order, error)
	ListTodayOrders(ctx context.Context, accountID uint64) ([]*domain.Order, error)

	// Report windows: zero from/to means today's civil day; a zero from
	// with a set to means "everything up to to".
	GroupOrdersReport(ctx context.Context, group string, from, to time.Time) ([]domain.OrderReportRow, error)
	GroupCafeteriaReport(ctx context.Context, group string, from, to time.Time) (*domain.CafeteriaReport, error)
	GroupBalanceSnapshot(ctx context.Context, group string) (*domain.BalanceReport, error)
	GroupDebtorsReport(ctx context.Context, group string) (*domain.BalanceReport, error)
	GroupLedgerReport(ctx context.Context, group string, from, to time.Time) ([]domain.LedgerReportRow, error)
	StudentOrdersReport(ctx context.Context, accountID uint64, from, to time.Time) ([]*domain.Order, error)
	StudentLedgerReport(ctx context.Context, accountID uint64, from, to time.Time) ([]domain.LedgerReportRow, decimal.Decimal, error)

	CreateMenuItems(ctx context.Context, items []*domain.MenuItem) ([]*domain.MenuItem, error)
	GetMenu(ctx context.Context) ([]*domain.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id uint64, upd domain.MenuItemUpdate) (*domain.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uint64) error
}
