// Package calendar implements the Brazilian business-day calendar used for
// the 252-day compounding convention.
package calendar

import (
	"time"

	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/datetime"
)

// HolidaySet reports whether a date is a listed holiday.
type HolidaySet interface {
	Contains(t time.Time) bool
}

// Calendar is an immutable business-day calendar. Weekends and the injected
// holidays are non-business days.
type Calendar struct {
	holidays HolidaySet
}

// New builds a calendar over the given holiday set. A nil set means weekends only.
func New(holidays HolidaySet) *Calendar {
	if holidays == nil {
		holidays = Holidays{}
	}
	return &Calendar{holidays: holidays}
}

// NewANBIMA builds the national calendar for [firstYear, lastYear] plus any
// extra dates (for example municipal holidays relevant to settlement).
func NewANBIMA(firstYear, lastYear int, extra ...time.Time) *Calendar {
	if firstYear == 0 {
		firstYear = constants.DefaultCalendarFirstYear
	}
	if lastYear == 0 {
		lastYear = constants.DefaultCalendarLastYear
	}
	h := NationalHolidays(firstYear, lastYear)
	for _, d := range extra {
		h.Add(d)
	}
	return New(h)
}

// IsBusinessDay is false on weekends and listed holidays.
func (c *Calendar) IsBusinessDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !c.holidays.Contains(t)
}

// NextBusinessDay returns the smallest business day on or after t.
func (c *Calendar) NextBusinessDay(t time.Time) time.Time {
	t = datetime.Truncate(t)
	for !c.IsBusinessDay(t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// CountBusinessDays counts business days in [start, end). It returns 0 when
// end is not after start.
func (c *Calendar) CountBusinessDays(start, end time.Time) int {
	start, end = datetime.Truncate(start), datetime.Truncate(end)
	count := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if c.IsBusinessDay(d) {
			count++
		}
	}
	return count
}

// CountCalendarDays returns end - start in days.
func CountCalendarDays(start, end time.Time) int {
	return int(datetime.Truncate(end).Sub(datetime.Truncate(start)).Hours() / 24)
}
