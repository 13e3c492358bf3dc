package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type MenuItem struct {
	ID         uint64
	Date       time.Time
	DishName   string
	Price      decimal.Decimal
	IsFreeSale bool
}

// MenuItemUpdate lists the fields a curator may change on a dish.
type MenuItemUpdate struct {
	Date       *time.Time
	DishName   *string
	Price      *decimal.Decimal
	IsFreeSale *bool
}
