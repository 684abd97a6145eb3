// Package metrics summarizes a debenture cash flow: totals, duration,
// average maturity, IRR and payback.
package metrics

import (
	"math"
	"time"

	"github.com/iwvelando/debenture-forecast/pkg/calendar"
	"github.com/iwvelando/debenture-forecast/pkg/cashflow"
	"github.com/iwvelando/debenture-forecast/pkg/constants"
)

// Metrics is the summary of one cash flow. Times are measured from emission
// in years of 365.25 days.
type Metrics struct {
	TotalInterest         float64 `json:"total_interest"`
	TotalAmortization     float64 `json:"total_amortization"`
	TotalPayments         float64 `json:"total_payments"`
	DurationYears         float64 `json:"duration_years"`
	DurationMonths        float64 `json:"duration_months"`
	ModifiedDuration      float64 `json:"modified_duration"`
	AverageMaturityYears  float64 `json:"avg_maturity_years"`
	AverageMaturityMonths float64 `json:"avg_maturity_months"`
	NumPayments           int     `json:"num_payments"`
	AveragePayment        float64 `json:"avg_payment"`

	// IRR is the per-period internal rate of return in percent.
	IRR           float64 `json:"irr"`
	IRRIterations int     `json:"irr_iterations"`
	IRRResidual   float64 `json:"irr_residual"`
	IRRConverged  bool    `json:"irr_converged"`

	// Payback fields are nil when the cumulative payments never reach the
	// face value.
	PaybackSimpleYears      *float64 `json:"payback_simple_years"`
	PaybackSimpleMonths     *float64 `json:"payback_simple_months"`
	PaybackDiscountedYears  *float64 `json:"payback_discounted_years"`
	PaybackDiscountedMonths *float64 `json:"payback_discounted_months"`
}

// yearsFrom returns the time in years between emission and d.
func yearsFrom(emission, d time.Time) float64 {
	return float64(calendar.CountCalendarDays(emission, d)) / constants.DaysPerYear
}

// Compute summarizes events against the face value. The discount rate is
// (floatingAnnual + spreadAnnual) / 100 per year.
func Compute(events []cashflow.Event, emission time.Time, faceValue, floatingAnnual, spreadAnnual float64) Metrics {
	var (
		m            Metrics
		totalPV      float64
		weightedTime float64
		weightedPmt  float64
	)
	d := (floatingAnnual + spreadAnnual) / constants.PercentageMultiplier

	for _, ev := range events {
		t := yearsFrom(emission, ev.Date)
		pv := ev.Payment / math.Pow(1+d, t)

		totalPV += pv
		weightedTime += pv * t
		weightedPmt += ev.Payment * t

		m.TotalInterest += ev.Interest
		m.TotalAmortization += ev.Amortization
		m.TotalPayments += ev.Payment
	}

	if totalPV > 0 {
		m.DurationYears = weightedTime / totalPV
	}
	if m.TotalPayments > 0 {
		m.AverageMaturityYears = weightedPmt / m.TotalPayments
	}
	m.DurationMonths = m.DurationYears * constants.MonthsPerYear
	m.ModifiedDuration = m.DurationYears / (1 + d)
	m.AverageMaturityMonths = m.AverageMaturityYears * constants.MonthsPerYear
	m.NumPayments = len(events)
	if len(events) > 0 {
		m.AveragePayment = m.TotalPayments / float64(len(events))
	}

	flows := make([]float64, 0, len(events)+1)
	flows = append(flows, -faceValue)
	for _, ev := range events {
		flows = append(flows, ev.Payment)
	}
	irr := IRR(flows)
	m.IRR = irr.Rate * constants.PercentageMultiplier
	m.IRRIterations = irr.Iterations
	m.IRRResidual = irr.Residual
	m.IRRConverged = irr.Converged

	pb := Payback(events, emission, faceValue, d)
	m.PaybackSimpleYears = pb.SimpleYears
	m.PaybackDiscountedYears = pb.DiscountedYears
	m.PaybackSimpleMonths = toMonths(pb.SimpleYears)
	m.PaybackDiscountedMonths = toMonths(pb.DiscountedYears)

	return m
}

func toMonths(years *float64) *float64 {
	if years == nil {
		return nil
	}
	months := *years * constants.MonthsPerYear
	return &months
}

// IRRResult is the Newton-Raphson outcome. Rate is a decimal per period.
type IRRResult struct {
	Rate       float64
	Iterations int
	Residual   float64
	Converged  bool
}

// NPV discounts flows at rate with unit spacing; flows[0] is undiscounted.
func NPV(rate float64, flows []float64) float64 {
	npv := 0.0
	for i, f := range flows {
		npv += f / math.Pow(1+rate, float64(i))
	}
	return npv
}

// IRR solves NPV(rate) = 0 by Newton-Raphson starting at 10%. It stops when
// |NPV| drops below the tolerance, when the derivative vanishes, or after the
// iteration cap; non-convergence is reported, not returned as an error.
func IRR(flows []float64) IRRResult {
	rate := constants.IRRInitialGuess
	iterations := 0
	for iterations < constants.IRRMaxIterations {
		npv, derivative := 0.0, 0.0
		for i, f := range flows {
			npv += f / math.Pow(1+rate, float64(i))
			if i > 0 {
				derivative -= float64(i) * f / math.Pow(1+rate, float64(i+1))
			}
		}
		if math.Abs(npv) < constants.IRRTolerance || derivative == 0 {
			break
		}
		iterations++
		rate -= npv / derivative
	}

	residual := NPV(rate, flows)
	return IRRResult{
		Rate:       rate,
		Iterations: iterations,
		Residual:   residual,
		Converged:  math.Abs(residual) < constants.IRRTolerance,
	}
}

// PaybackResult holds payback times in years; nil when never reached.
type PaybackResult struct {
	SimpleYears     *float64
	DiscountedYears *float64
}

// Payback finds the first events where cumulative payments, undiscounted and
// discounted at d per year, reach faceValue.
func Payback(events []cashflow.Event, emission time.Time, faceValue, d float64) PaybackResult {
	var (
		res                    PaybackResult
		cumSimple, cumDiscount float64
	)
	for _, ev := range events {
		t := yearsFrom(emission, ev.Date)
		cumSimple += ev.Payment
		cumDiscount += ev.Payment / math.Pow(1+d, t)

		if res.SimpleYears == nil && cumSimple >= faceValue {
			years := t
			res.SimpleYears = &years
		}
		if res.DiscountedYears == nil && cumDiscount >= faceValue {
			years := t
			res.DiscountedYears = &years
		}
	}
	return res
}
