package port

import "time"

//go:generate mockgen -source=calendar.go -destination=mock/calendar.go -package=mock

// Calendar resolves civil time in the configured reference timezone.
// DayWindow returns the half-open [00:00, 24:00) range of the civil day
// containing t; the same window scopes daily-uniqueness checks and ledger
// timestamps.
type Calendar interface {
	Now() time.Time
	DayWindow(t time.Time) (start, end time.Time)
}
