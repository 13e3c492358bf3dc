package port

import (
	"context"
	"time"

	"github.com/edamame-dev/canteen/internal/core/domain"
	"github.com/govalues/decimal"
)

//go:generate mockgen -source=repository.go -destination=mock/repository.go -package=mock

// Repository is the data-access contract of the core. WithinTransaction
// hands the callback a Repository bound to a single storage transaction;
// every read and write made through it commits or aborts as one unit.
type Repository interface {
	WithinTransaction(ctx context.Context, fn func(tx Repository) error) error

	// Account
	CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)
	GetAccountByID(ctx context.Context, id uint64) (*domain.Account, error)
	GetAccountByLogin(ctx context.Context, login string) (*domain.Account, error)
	// GetAccountForUpdate locks the account row for the rest of the
	// transaction, serializing concurrent balance and order mutations of
	// the same account.
	GetAccountForUpdate(ctx context.Context, id uint64) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]*domain.Account, error)
	ListAccountsByIDs(ctx context.Context, ids []uint64) ([]*domain.Account, error)
	// ListStudentsByGroup returns the group's student accounts ordered by
	// last name, active or not; report builders filter as needed.
	ListStudentsByGroup(ctx context.Context, group string) ([]*domain.Account, error)
	UpdateAccount(ctx context.Context, id uint64, upd domain.AccountUpdate) (*domain.Account, error)
	UpdateAccountPassword(ctx context.Context, id uint64, hashed string) error
	// SetAccountBalance is valid only inside a coordinator transaction and
	// only together with AppendLedgerEntry for the same delta.
	SetAccountBalance(ctx context.Context, id uint64, balance decimal.Decimal) error

	// Ledger
	AppendLedgerEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)
	ListLedgerEntries(ctx context.Context, accountID uint64) ([]*domain.LedgerEntry, error)
	ListLedgerEntriesByAccountsBetween(ctx context.Context, accountIDs []uint64, start, end time.Time) ([]*domain.LedgerEntry, error)
	PruneLedgerEntries(ctx context.Context, accountID uint64, before time.Time) error

	// Menu
	CreateMenuItems(ctx context.Context, items []*domain.MenuItem) ([]*domain.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]*domain.MenuItem, error)
	ListMenuItemsByIDs(ctx context.Context, ids []uint64) ([]*domain.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id uint64, upd domain.MenuItemUpdate) (*domain.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id uint64) error

	// Order
	CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error)
	ReadOrder(ctx context.Context, id uint64) (*domain.Order, error)
	// FindOrderInWindow reports the account's order of the given class with
	// createdAt in [start, end), or ErrDataNotFound.
	FindOrderInWindow(ctx context.Context, accountID uint64, beneficiary bool, start, end time.Time) (*domain.Order, error)
	ReplaceOrderItems(ctx context.Context, order *domain.Order) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id uint64) error
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	ListOrdersByAccount(ctx context.Context, accountID uint64) ([]*domain.Order, error)
	ListOrdersByAccountBetween(ctx context.Context, accountID uint64, start, end time.Time) ([]*domain.Order, error)
	ListOrdersByAccountsBetween(ctx context.Context, accountIDs []uint64, start, end time.Time) ([]*domain.Order, error)
}
