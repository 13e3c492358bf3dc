package domain

import (
	"time"

	"github.com/govalues/decimal"
)

// OrderItem is a snapshot of a menu item at order time. Later menu edits
// never change a committed order.
type OrderItem struct {
	DishID     uint64
	DishName   string
	Price      decimal.Decimal
	Quantity   int64
	IsFreeSale bool
}

// Order is one day's food selection for one account. An account holds at
// most one regular and at most one beneficiary order per civil day.
// Beneficiary orders carry no items and a zero total.
type Order struct {
	ID            uint64
	AccountID     uint64
	Items         []OrderItem
	Total         decimal.Decimal
	IsBeneficiary bool
	CreatedAt     time.Time
}

// OrderItemRequest is a caller-supplied order line, resolved against the
// menu before anything is written.
type OrderItemRequest struct {
	DishID   uint64
	Quantity int64
}
