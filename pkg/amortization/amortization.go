// Package amortization assigns principal repayment percentages to dates.
package amortization

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/datetime"
)

var (
	// ErrInvalidAmortizationMethod is returned for an unknown method.
	ErrInvalidAmortizationMethod = errors.New("invalid amortization method")
	// ErrInvalidAmortizationSchedule is returned when custom percentages do
	// not match the dates or do not sum to 100.
	ErrInvalidAmortizationSchedule = errors.New("invalid amortization schedule")
)

// Method is the principal repayment system.
type Method string

const (
	// Bullet repays 100% at the last amortization date.
	Bullet Method = "bullet"
	// EqualInstallment (SAC) repays 100/n at each amortization date.
	EqualInstallment Method = "equal-installment"
	// SimplifiedFrench reuses the equal-installment percentages. A level
	// payment schedule would need the interest rate; callers depend on the
	// simplified numbers, so this stays a known limitation.
	SimplifiedFrench Method = "simplified-french"
	// Custom takes caller-supplied percentages.
	Custom Method = "custom"
)

var methodAliases = map[string]Method{
	"bullet":            Bullet,
	"equal-installment": EqualInstallment,
	"sac":               EqualInstallment,
	"simplified-french": SimplifiedFrench,
	"price":             SimplifiedFrench,
	"french":            SimplifiedFrench,
	"custom":            Custom,
}

// ParseMethod accepts the canonical names and the SAC/Price shorthands.
func ParseMethod(s string) (Method, error) {
	m, ok := methodAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmortizationMethod, s)
	}
	return m, nil
}

// Schedule maps amortization dates (YYYY-MM-DD) to the percentage of the
// notional repaid on that date.
type Schedule struct {
	FaceValue   float64
	Method      Method
	Percentages map[string]float64
}

// Percent returns the percentage scheduled for the date, 0 when none.
func (s Schedule) Percent(t time.Time) float64 {
	return s.Percentages[t.Format(datetime.DateLayout)]
}

// Amount returns the currency amount scheduled for the date against the
// face value.
func (s Schedule) Amount(t time.Time) float64 {
	return s.FaceValue * s.Percent(t) / constants.PercentageMultiplier
}

// TotalPercent sums every scheduled percentage.
func (s Schedule) TotalPercent() float64 {
	total := decimal.Zero
	for _, pct := range s.Percentages {
		total = total.Add(decimal.NewFromFloat(pct))
	}
	return total.InexactFloat64()
}

// Build assigns percentages to the given amortization dates.
func Build(faceValue float64, dates []time.Time, method Method, customPercentages []float64) (Schedule, error) {
	if len(dates) == 0 {
		return Schedule{}, fmt.Errorf("%w: no amortization dates", ErrInvalidAmortizationSchedule)
	}
	if faceValue <= 0 {
		return Schedule{}, fmt.Errorf("%w: face value must be positive, got %v", ErrInvalidAmortizationSchedule, faceValue)
	}

	pcts := make(map[string]float64, len(dates))
	switch method {
	case Bullet:
		pcts[dates[len(dates)-1].Format(datetime.DateLayout)] = constants.PercentageMultiplier
	case EqualInstallment, SimplifiedFrench:
		each := constants.PercentageMultiplier / float64(len(dates))
		for _, d := range dates {
			pcts[d.Format(datetime.DateLayout)] = each
		}
	case Custom:
		if len(customPercentages) != len(dates) {
			return Schedule{}, fmt.Errorf("%w: %d custom percentages for %d amortization dates",
				ErrInvalidAmortizationSchedule, len(customPercentages), len(dates))
		}
		sum := decimal.Zero
		for _, p := range customPercentages {
			if p < 0 {
				return Schedule{}, fmt.Errorf("%w: negative percentage %v", ErrInvalidAmortizationSchedule, p)
			}
			sum = sum.Add(decimal.NewFromFloat(p))
		}
		diff := sum.Sub(decimal.NewFromInt(100)).Abs()
		if diff.GreaterThan(decimal.NewFromFloat(constants.CustomPercentageTolerance)) {
			return Schedule{}, fmt.Errorf("%w: percentages must sum to 100, got %s",
				ErrInvalidAmortizationSchedule, sum.StringFixed(2))
		}
		for i, d := range dates {
			pcts[d.Format(datetime.DateLayout)] = customPercentages[i]
		}
	default:
		return Schedule{}, fmt.Errorf("%w: %q", ErrInvalidAmortizationMethod, method)
	}

	return Schedule{FaceValue: faceValue, Method: method, Percentages: pcts}, nil
}
