package clock

import (
	"fmt"
	"time"
)

// CivilCalendar resolves "today" in a fixed reference timezone. The zone
// is configuration, never a per-request parameter, so the daily-uniqueness
// window and ledger timestamps always agree.
type CivilCalendar struct {
	loc *time.Location
}

func New(timezone string) (*CivilCalendar, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return &CivilCalendar{loc: loc}, nil
}

func (c *CivilCalendar) Now() time.Time {
	return time.Now().In(c.loc)
}

// DayWindow returns the half-open [00:00, 24:00) range of the civil day
// containing t.
func (c *CivilCalendar) DayWindow(t time.Time) (time.Time, time.Time) {
	lt := t.In(c.loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 0, 1)
}
