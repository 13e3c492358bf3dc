package domain

import (
	"time"

	"github.com/govalues/decimal"
)

// OrderReportRow is one order in a group report, flattened for the
// curator's printout.
type OrderReportRow struct {
	LastName  string
	FirstName string
	Group     string
	Date      time.Time
	Total     decimal.Decimal
	Dishes    string
}

// DishTally aggregates one dish across all orders in a report window.
type DishTally struct {
	DishName   string
	Price      decimal.Decimal
	Quantity   int64
	TotalPrice decimal.Decimal
}

// CafeteriaReport is the kitchen-side summary for a group: how much of
// each dish to cook, split by free-sale status, plus the money total.
type CafeteriaReport struct {
	BeneficiaryOrders int
	FreeSaleDishes    []DishTally
	PaidDishes        []DishTally
	Total             decimal.Decimal
}

type BalanceReportRow struct {
	LastName  string
	FirstName string
	Balance   decimal.Decimal
}

// BalanceReport lists per-student balances with a group total. Used for
// both the snapshot and the debtors report.
type BalanceReport struct {
	Rows  []BalanceReportRow
	Total decimal.Decimal
}

// LedgerReportRow is one balance movement with the actor resolved to a
// readable name.
type LedgerReportRow struct {
	LastName   string
	FirstName  string
	Amount     decimal.Decimal
	NewBalance decimal.Decimal
	ChangedBy  string
	Reason     string
	Date       time.Time
}
