// Package indexation updates the nominal value of IPCA-linked bonds (VNA).
//
// Accrual resets at every anniversary: a full month between two anniversaries
// multiplies the monthly factor, and a partial month accrues
// factor^(du elapsed / du in the month), where du counts business days from
// the last anniversary. The monthly factor is the observed index ratio when
// both levels are known, otherwise the projected monthly rate.
package indexation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/datetime"
)

// ErrMissingIndexData is returned when a month has neither an observed index
// ratio nor a projected rate.
var ErrMissingIndexData = errors.New("missing inflation index data")

// BusinessDayCounter counts business days in [start, end).
type BusinessDayCounter interface {
	CountBusinessDays(start, end time.Time) int
}

// MonthlyRateFromAnnual converts an annual percentage into a decimal monthly
// rate: (1 + annual/100)^(1/12) - 1.
func MonthlyRateFromAnnual(annualPercent float64) float64 {
	return math.Pow(1+annualPercent/constants.PercentageMultiplier, 1.0/constants.MonthsPerYear) - 1
}

// Engine computes VNA updates against a calendar and observed index levels.
type Engine struct {
	calendar BusinessDayCounter
	indices  IndexSeries
}

// NewEngine returns an engine. indices may be nil.
func NewEngine(calendar BusinessDayCounter, indices IndexSeries) *Engine {
	if indices == nil {
		indices = IndexSeries{}
	}
	return &Engine{calendar: calendar, indices: indices}
}

// CalculateVNA updates baseVNA from baseDate to currentDate. monthlyRate is
// the projected decimal monthly rate used when observed levels are missing;
// nil means no projection. It returns the new VNA and the accrued percentage.
func (e *Engine) CalculateVNA(baseVNA float64, baseDate, currentDate time.Time, anniversaryDay int, monthlyRate *float64) (float64, float64, error) {
	if anniversaryDay < 1 || anniversaryDay > 31 {
		return 0, 0, fmt.Errorf("anniversary day must be between 1 and 31, got %d", anniversaryDay)
	}
	baseDate, currentDate = datetime.Truncate(baseDate), datetime.Truncate(currentDate)
	if !currentDate.After(baseDate) {
		return baseVNA, 0, nil
	}

	anchor := anniversaryOnOrBefore(baseDate, anniversaryDay)
	baseLevel, err := e.level(anchor, baseDate, anniversaryDay, monthlyRate)
	if err != nil {
		return 0, 0, err
	}
	currentLevel, err := e.level(anchor, currentDate, anniversaryDay, monthlyRate)
	if err != nil {
		return 0, 0, err
	}

	factor := currentLevel / baseLevel
	return baseVNA * factor, (factor - 1) * constants.PercentageMultiplier, nil
}

// level is the accumulated factor from the anchor anniversary to d.
func (e *Engine) level(anchor, d time.Time, anniversaryDay int, monthlyRate *float64) (float64, error) {
	factor := 1.0
	last := anchor
	for {
		next := nextAnniversary(last, anniversaryDay)
		if !next.After(d) {
			ratio, err := e.monthlyFactor(next, monthlyRate)
			if err != nil {
				return 0, err
			}
			factor *= ratio
			last = next
			continue
		}

		elapsed := e.calendar.CountBusinessDays(last, d)
		if elapsed > 0 {
			total := e.calendar.CountBusinessDays(last, next)
			if total <= 0 {
				return factor, nil
			}
			ratio, err := e.monthlyFactor(next, monthlyRate)
			if err != nil {
				return 0, err
			}
			factor *= math.Pow(ratio, float64(elapsed)/float64(total))
		}
		return factor, nil
	}
}

// monthlyFactor is the factor for the period ending at the anniversary in
// the given month.
func (e *Engine) monthlyFactor(anniversary time.Time, monthlyRate *float64) (float64, error) {
	if ratio, ok := e.indices.Ratio(anniversary); ok {
		return ratio, nil
	}
	if monthlyRate != nil {
		return 1 + *monthlyRate, nil
	}
	return 0, fmt.Errorf("%w: no observed index for %s and no projected rate",
		ErrMissingIndexData, datetime.YearMonth(anniversary))
}

func anniversaryOnOrBefore(d time.Time, day int) time.Time {
	a := datetime.Anniversary(d.Year(), d.Month(), day)
	if a.After(d) {
		prev := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
		a = datetime.Anniversary(prev.Year(), prev.Month(), day)
	}
	return a
}

func nextAnniversary(a time.Time, day int) time.Time {
	next := time.Date(a.Year(), a.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	return datetime.Anniversary(next.Year(), next.Month(), day)
}
