package calendar

import (
	"time"

	"github.com/iwvelando/debenture-forecast/pkg/constants"
)

// Holidays is a set of non-business dates keyed by YYYY-MM-DD.
type Holidays map[string]struct{}

// Contains reports whether the date is listed.
func (h Holidays) Contains(t time.Time) bool {
	_, ok := h[t.Format(constants.DateLayout)]
	return ok
}

// Add lists the date as a holiday.
func (h Holidays) Add(t time.Time) {
	h[t.Format(constants.DateLayout)] = struct{}{}
}

// EasterSunday returns Western Easter for the given year (anonymous
// Gregorian algorithm).
func EasterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// NationalHolidays builds the ANBIMA national holiday set for the years
// [firstYear, lastYear].
func NationalHolidays(firstYear, lastYear int) Holidays {
	h := make(Holidays, (lastYear-firstYear+1)*14)
	for year := firstYear; year <= lastYear; year++ {
		fixed := []struct {
			month time.Month
			day   int
		}{
			{time.January, 1},   // Confraternização Universal
			{time.April, 21},    // Tiradentes
			{time.May, 1},       // Dia do Trabalho
			{time.September, 7}, // Independência
			{time.October, 12},  // Nossa Senhora Aparecida
			{time.November, 2},  // Finados
			{time.November, 15}, // Proclamação da República
			{time.December, 25}, // Natal
		}
		for _, f := range fixed {
			h.Add(time.Date(year, f.month, f.day, 0, 0, 0, 0, time.UTC))
		}
		if year >= 2024 {
			h.Add(time.Date(year, time.November, 20, 0, 0, 0, 0, time.UTC))
		}

		easter := EasterSunday(year)
		h.Add(easter.AddDate(0, 0, -48)) // Carnival Monday
		h.Add(easter.AddDate(0, 0, -47)) // Carnival Tuesday
		h.Add(easter.AddDate(0, 0, -2))  // Good Friday
		h.Add(easter.AddDate(0, 0, 60))  // Corpus Christi
	}
	return h
}
