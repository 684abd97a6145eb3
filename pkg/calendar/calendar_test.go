package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iwvelando/debenture-forecast/pkg/datetime"
)

func TestEasterSunday(t *testing.T) {
	tests := []struct {
		year     int
		expected string
	}{
		{2024, "2024-03-31"},
		{2025, "2025-04-20"},
		{2026, "2026-04-05"},
		{2030, "2030-04-21"},
	}

	for _, tt := range tests {
		if got := EasterSunday(tt.year).Format(datetime.DateLayout); got != tt.expected {
			t.Errorf("EasterSunday(%d) = %s, expected %s", tt.year, got, tt.expected)
		}
	}
}

func TestNationalHolidays(t *testing.T) {
	h := NationalHolidays(2023, 2025)

	for _, d := range []string{
		"2025-01-01", "2025-03-03", "2025-03-04", "2025-04-18", "2025-04-21",
		"2025-05-01", "2025-06-19", "2025-09-07", "2025-10-12", "2025-11-02",
		"2025-11-15", "2025-11-20", "2025-12-25", "2024-11-20",
	} {
		assert.True(t, h.Contains(datetime.MustDate(d)), "expected %s to be a holiday", d)
	}

	assert.False(t, h.Contains(datetime.MustDate("2023-11-20")), "Black Consciousness Day is national only from 2024")
	assert.False(t, h.Contains(datetime.MustDate("2026-01-01")), "outside the requested year range")
}

func TestIsBusinessDay(t *testing.T) {
	cal := NewANBIMA(2024, 2026)

	tests := []struct {
		name     string
		date     string
		expected bool
	}{
		{"Wednesday", "2025-01-15", true},
		{"Saturday", "2025-02-15", false},
		{"Sunday", "2025-03-16", false},
		{"Carnival Monday", "2025-03-03", false},
		{"Good Friday", "2025-04-18", false},
		{"Tiradentes", "2025-04-21", false},
		{"Regular Tuesday", "2025-04-15", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cal.IsBusinessDay(datetime.MustDate(tt.date)))
		})
	}
}

func TestNextBusinessDay(t *testing.T) {
	cal := NewANBIMA(2024, 2026)

	tests := []struct {
		name     string
		date     string
		expected string
	}{
		{"Already business day", "2025-01-15", "2025-01-15"},
		{"Saturday rolls to Monday", "2025-02-15", "2025-02-17"},
		{"Holiday then weekend", "2025-04-18", "2025-04-22"},
		{"Carnival", "2025-03-01", "2025-03-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.NextBusinessDay(datetime.MustDate(tt.date))
			assert.Equal(t, tt.expected, got.Format(datetime.DateLayout))
		})
	}
}

func TestCountBusinessDays(t *testing.T) {
	cal := NewANBIMA(2024, 2026)

	tests := []struct {
		name       string
		start, end string
		expected   int
	}{
		{"Empty interval", "2025-01-15", "2025-01-15", 0},
		{"Reversed interval", "2025-02-15", "2025-01-15", 0},
		{"One week", "2025-01-13", "2025-01-20", 5},
		{"Start included end excluded", "2025-01-15", "2025-01-16", 1},
		{"January to February anniversary", "2025-01-15", "2025-02-17", 23},
		{"Over Carnival", "2025-02-17", "2025-03-17", 18},
		{"Over Good Friday", "2025-04-14", "2025-04-22", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cal.CountBusinessDays(datetime.MustDate(tt.start), datetime.MustDate(tt.end))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCountCalendarDays(t *testing.T) {
	assert.Equal(t, 31, CountCalendarDays(datetime.MustDate("2025-01-15"), datetime.MustDate("2025-02-15")))
	assert.Equal(t, -31, CountCalendarDays(datetime.MustDate("2025-02-15"), datetime.MustDate("2025-01-15")))
	assert.Equal(t, 0, CountCalendarDays(datetime.MustDate("2025-02-15"), datetime.MustDate("2025-02-15")))
}

func TestCustomHolidaySet(t *testing.T) {
	extra := datetime.MustDate("2025-01-24")
	cal := NewANBIMA(2025, 2025, extra)
	assert.False(t, cal.IsBusinessDay(extra))

	weekendsOnly := New(nil)
	assert.True(t, weekendsOnly.IsBusinessDay(time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC)))
}
