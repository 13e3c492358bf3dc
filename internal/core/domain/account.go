package domain

import (
	"time"

	"github.com/govalues/decimal"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCurator Role = "curator"
	RoleStudent Role = "student"
)

// DebtCeiling is the most negative balance an account may hold after any
// committed operation.
var DebtCeiling = decimal.MustNew(-200, 0)

type Account struct {
	ID            uint64
	Login         string
	Password      string
	Role          Role
	LastName      string
	FirstName     string
	Group         string
	Balance       decimal.Decimal
	IsBeneficiary bool
	IsActive      bool
	CreatedBy     uint64
	CreatedAt     time.Time
}

// AccountUpdate carries the fields a curator may change on an account.
// Balance and password are excluded on purpose: balance moves only through
// the ledger, passwords through the dedicated password operations.
type AccountUpdate struct {
	Login         *string
	LastName      *string
	FirstName     *string
	Group         *string
	IsBeneficiary *bool
	IsActive      *bool
}
