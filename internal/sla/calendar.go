package sla

import "time"

// Business window boundaries, hours of the day.
const (
	businessHourStart = 9
	businessHourEnd   = 18
)

// Calendar answers business-day and business-hour questions for SLA clocks.
// The window is fixed at 09:00-18:00 Monday through Friday; an optional
// holiday set (dates formatted YYYY-MM-DD) is treated like a weekend day.
type Calendar struct {
	holidays map[string]struct{}
}

// NewCalendar builds a calendar with the given holiday dates. Invalid or
// empty entries are ignored.
func NewCalendar(holidays ...string) *Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, day := range holidays {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			continue
		}
		set[day] = struct{}{}
	}
	return &Calendar{holidays: set}
}

// IsHoliday reports whether the date is in the configured holiday set.
func (c *Calendar) IsHoliday(t time.Time) bool {
	_, ok := c.holidays[t.Format("2006-01-02")]
	return ok
}

// IsBusinessDay reports whether the date is a non-holiday weekday.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !c.IsHoliday(t)
}

// IsBusinessHour reports whether the instant falls inside the daily window.
func (c *Calendar) IsBusinessHour(t time.Time) bool {
	hour := t.Hour()
	return hour >= businessHourStart && hour < businessHourEnd
}

// IsBusinessTime reports whether the instant is inside the window on a
// business day.
func (c *Calendar) IsBusinessTime(t time.Time) bool {
	return c.IsBusinessDay(t) && c.IsBusinessHour(t)
}

// nextWindowStart returns 09:00 on the first business day after t.
func (c *Calendar) nextWindowStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), businessHourStart, 0, 0, 0, t.Location())
	for {
		day = day.AddDate(0, 0, 1)
		if c.IsBusinessDay(day) {
			return day
		}
	}
}

// snapForward moves an out-of-window instant to the next window start. An
// instant before 09:00 on a business day snaps to 09:00 the same day;
// anything else snaps to the next business day's 09:00. In-window instants
// are returned unchanged.
func (c *Calendar) snapForward(t time.Time) time.Time {
	if !c.IsBusinessDay(t) {
		return c.nextWindowStart(t)
	}
	if c.IsBusinessHour(t) {
		return t
	}
	if t.Hour() < businessHourStart {
		return time.Date(t.Year(), t.Month(), t.Day(), businessHourStart, 0, 0, 0, t.Location())
	}
	return c.nextWindowStart(t)
}

// AddBusinessTime advances t by d, consuming time only inside the business
// window. Negative durations are treated as zero.
func (c *Calendar) AddBusinessTime(t time.Time, d time.Duration) time.Time {
	if d <= 0 {
		return c.snapForward(t)
	}

	cur := c.snapForward(t)
	remaining := d
	for {
		endOfDay := time.Date(cur.Year(), cur.Month(), cur.Day(), businessHourEnd, 0, 0, 0, cur.Location())
		untilClose := endOfDay.Sub(cur)
		if remaining <= untilClose {
			return cur.Add(remaining)
		}
		remaining -= untilClose
		cur = c.nextWindowStart(cur)
	}
}

// BusinessTimeBetween returns the business time elapsed between from and to.
// Returns zero when to is not after from.
func (c *Calendar) BusinessTimeBetween(from, to time.Time) time.Duration {
	if !to.After(from) {
		return 0
	}

	var total time.Duration
	cur := c.snapForward(from)
	for cur.Before(to) {
		endOfDay := time.Date(cur.Year(), cur.Month(), cur.Day(), businessHourEnd, 0, 0, 0, cur.Location())
		segmentEnd := endOfDay
		if to.Before(endOfDay) {
			segmentEnd = to
		}
		if segmentEnd.After(cur) {
			total += segmentEnd.Sub(cur)
		}
		cur = c.nextWindowStart(cur)
	}
	return total
}
