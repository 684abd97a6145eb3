// Package interest computes per-period interest under the 252 business-day
// convention: J = balance x ((1+r/100)^(du/252) x (1+s/100)^(du/252) - 1).
package interest

import (
	"time"

	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/curve"
	"github.com/iwvelando/debenture-forecast/pkg/mathutil"
)

// BusinessDayCounter counts business days in [start, end).
type BusinessDayCounter interface {
	CountBusinessDays(start, end time.Time) int
}

// Result is the interest for one period and the rates actually applied.
type Result struct {
	Interest float64
	// FloatingRate is the annual floating component applied, in percent.
	FloatingRate float64
	// SpreadRate is the annual spread (or real rate) applied, in percent.
	SpreadRate float64
	// Vertex is the business-day distance from emission to payment.
	Vertex int
	// FloatingFromCurve and SpreadFromCurve report curve lookups.
	FloatingFromCurve bool
	SpreadFromCurve   bool
}

// Engine computes interest, consulting curves when they are loaded.
type Engine struct {
	calendar BusinessDayCounter
	floating curve.Curve
	spread   curve.Curve
}

// Option configures an Engine.
type Option func(*Engine)

// WithFloatingCurve makes the engine read the floating rate (CDI proxy) from c.
func WithFloatingCurve(c curve.Curve) Option {
	return func(e *Engine) { e.floating = c }
}

// WithSpreadCurve makes the engine read the spread (IPCA+ real rate) from c.
func WithSpreadCurve(c curve.Curve) Option {
	return func(e *Engine) { e.spread = c }
}

// NewEngine returns an engine using the calendar for vertex distances.
func NewEngine(calendar BusinessDayCounter, opts ...Option) *Engine {
	e := &Engine{calendar: calendar}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ComputeInterest returns the interest accrued on balance over businessDays.
// The floating and spread rates fall back to the given annual values when
// the matching curve is not loaded.
func (e *Engine) ComputeInterest(balance, floatingAnnual, spreadAnnual float64, businessDays int, paymentDate, emissionDate time.Time) Result {
	vertex := e.calendar.CountBusinessDays(emissionDate, paymentDate)
	res := Result{FloatingRate: floatingAnnual, SpreadRate: spreadAnnual, Vertex: vertex}

	// curve.ErrCurveUnavailable keeps the fixed rate
	if r, err := e.floating.Interpolate(vertex); err == nil {
		res.FloatingRate, res.FloatingFromCurve = r, true
	}
	if r, err := e.spread.Interpolate(vertex); err == nil {
		res.SpreadRate, res.SpreadFromCurve = r, true
	}

	factor := mathutil.CompoundFactor(res.FloatingRate, businessDays, constants.BusinessDaysPerYear) *
		mathutil.CompoundFactor(res.SpreadRate, businessDays, constants.BusinessDaysPerYear)
	res.Interest = balance * (factor - 1)
	return res
}
