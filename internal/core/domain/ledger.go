package domain

import (
	"time"

	"github.com/govalues/decimal"
)

// LedgerRetentionYears bounds how long balance history is kept. Entries
// older than the window are pruned opportunistically after appends.
const LedgerRetentionYears = 5

// LedgerEntry is an immutable audit record of a single balance change.
// NewBalance is the snapshot after applying Amount to the balance read in
// the same transaction.
type LedgerEntry struct {
	ID         uint64
	AccountID  uint64
	Amount     decimal.Decimal
	NewBalance decimal.Decimal
	ChangedBy  uint64
	Reason     string
	ChangedAt  time.Time
}

const (
	ReasonOrder            = "order"
	ReasonOrderEdit        = "order edit"
	ReasonOrderCancel      = "order cancellation"
	ReasonManualAdjustment = "manual adjustment"
)
