// Package schedule generates interest and amortization payment dates.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/debenture-forecast/pkg/datetime"
)

var (
	// ErrInvalidFrequency is returned for an unknown interest frequency.
	ErrInvalidFrequency = errors.New("invalid interest frequency")
	// ErrInvalidDateOrder is returned when maturity is not after emission.
	ErrInvalidDateOrder = errors.New("maturity date must be after emission date")
)

// Frequency is the interest payment periodicity.
type Frequency string

const (
	Monthly    Frequency = "monthly"
	Quarterly  Frequency = "quarterly"
	Semiannual Frequency = "semiannual"
	Annual     Frequency = "annual"
	Bullet     Frequency = "bullet"
)

var frequencyAliases = map[string]Frequency{
	"monthly":     Monthly,
	"mensal":      Monthly,
	"quarterly":   Quarterly,
	"trimestral":  Quarterly,
	"semiannual":  Semiannual,
	"semi-annual": Semiannual,
	"semestral":   Semiannual,
	"annual":      Annual,
	"yearly":      Annual,
	"anual":       Annual,
	"bullet":      Bullet,
}

// ParseFrequency accepts the English names and the Portuguese ones used on
// B3 term sheets.
func ParseFrequency(s string) (Frequency, error) {
	f, ok := frequencyAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

// Months returns the step in months, or 0 for bullet.
func (f Frequency) Months() int {
	switch f {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case Semiannual:
		return 6
	case Annual:
		return 12
	default:
		return 0
	}
}

// BusinessDayRoller moves a date forward to a business day.
type BusinessDayRoller interface {
	NextBusinessDay(t time.Time) time.Time
}

// Dates holds the generated schedule. Amortization is a suffix of Interest.
type Dates struct {
	Interest     []time.Time
	Amortization []time.Time
	GraceCutoff  time.Time
}

// Generator builds payment dates against a business-day calendar.
type Generator struct {
	calendar BusinessDayRoller
}

// NewGenerator returns a generator rolling dates with the given calendar.
func NewGenerator(calendar BusinessDayRoller) *Generator {
	return &Generator{calendar: calendar}
}

// GeneratePaymentDates steps from emission by the frequency's months (each
// step from the previous generated date, clamping to month end), appends
// maturity when it is not the last step, rolls every date to the next
// business day and drops duplicates produced by rolling. Amortization dates
// are the interest dates strictly after emission + graceMonths.
func (g *Generator) GeneratePaymentDates(emission, maturity time.Time, frequency Frequency, graceMonths int) (Dates, error) {
	emission, maturity = datetime.Truncate(emission), datetime.Truncate(maturity)
	if !maturity.After(emission) {
		return Dates{}, fmt.Errorf("%w: emission %s, maturity %s", ErrInvalidDateOrder,
			emission.Format(datetime.DateLayout), maturity.Format(datetime.DateLayout))
	}
	if graceMonths < 0 {
		return Dates{}, fmt.Errorf("grace period must not be negative, got %d months", graceMonths)
	}

	var raw []time.Time
	switch frequency {
	case Bullet:
		raw = []time.Time{maturity}
	case Monthly, Quarterly, Semiannual, Annual:
		step := frequency.Months()
		for current := datetime.AddMonths(emission, step); !current.After(maturity); current = datetime.AddMonths(current, step) {
			raw = append(raw, current)
		}
		if len(raw) == 0 || !raw[len(raw)-1].Equal(maturity) {
			raw = append(raw, maturity)
		}
	default:
		return Dates{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, frequency)
	}

	interest := make([]time.Time, 0, len(raw))
	for _, d := range raw {
		rolled := g.calendar.NextBusinessDay(d)
		if n := len(interest); n > 0 && !rolled.After(interest[n-1]) {
			continue
		}
		interest = append(interest, rolled)
	}

	grace := emission
	if graceMonths > 0 {
		grace = datetime.AddMonths(emission, graceMonths)
	}
	var amortization []time.Time
	for i, d := range interest {
		if d.After(grace) {
			amortization = interest[i:]
			break
		}
	}
	// principal is never left outstanding past maturity
	if len(amortization) == 0 {
		amortization = interest[len(interest)-1:]
	}

	return Dates{Interest: interest, Amortization: amortization, GraceCutoff: grace}, nil
}
