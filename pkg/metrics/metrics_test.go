package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iwvelando/debenture-forecast/pkg/amortization"
	"github.com/iwvelando/debenture-forecast/pkg/calendar"
	"github.com/iwvelando/debenture-forecast/pkg/cashflow"
	"github.com/iwvelando/debenture-forecast/pkg/datetime"
	"github.com/iwvelando/debenture-forecast/pkg/schedule"
)

func event(date string, interest, amort float64) cashflow.Event {
	return cashflow.Event{
		Date:         datetime.MustDate(date),
		Interest:     interest,
		Amortization: amort,
		Payment:      interest + amort,
	}
}

func TestIRR(t *testing.T) {
	tests := []struct {
		name     string
		flows    []float64
		expected float64
	}{
		{"Par bond at guess", []float64{-1000, 100, 1100}, 0.10},
		{"Five percent coupon", []float64{-1000, 50, 50, 1050}, 0.05},
		{"Zero coupon", []float64{-1000, 1210}, 0.21},
		{"Amortizing", []float64{-1000, 540, 520}, 0.04},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := IRR(tt.flows)
			assert.True(t, res.Converged)
			assert.Less(t, math.Abs(NPV(res.Rate, tt.flows)), 1e-3)
			assert.InDelta(t, tt.expected, res.Rate, 1e-3)
		})
	}
}

func TestIRRStopsImmediatelyAtRoot(t *testing.T) {
	res := IRR([]float64{-1000, 100, 1100})
	assert.Equal(t, 0, res.Iterations)
	assert.InDelta(t, 0.0, res.Residual, 1e-9)
}

func TestIRRZeroDerivative(t *testing.T) {
	// only the initial flow: derivative is zero, the guess is returned
	res := IRR([]float64{-1000})
	assert.Equal(t, 0.10, res.Rate)
	assert.Equal(t, 0, res.Iterations)
	assert.False(t, res.Converged)
}

func TestComputeSinglePayment(t *testing.T) {
	emission := datetime.MustDate("2025-01-01")
	events := []cashflow.Event{event("2027-01-01", 210, 1000)}

	m := Compute(events, emission, 1000, 10, 0)
	years := 730.0 / 365.25

	assert.InDelta(t, years, m.DurationYears, 1e-12)
	assert.InDelta(t, years*12, m.DurationMonths, 1e-9)
	assert.InDelta(t, years/1.10, m.ModifiedDuration, 1e-12)
	assert.InDelta(t, years, m.AverageMaturityYears, 1e-12)
	assert.Equal(t, 1, m.NumPayments)
	assert.Equal(t, 1210.0, m.TotalPayments)
	assert.Equal(t, 1210.0, m.AveragePayment)
	assert.InDelta(t, 21.0, m.IRR, 1e-3)

	require.NotNil(t, m.PaybackSimpleYears)
	assert.InDelta(t, years, *m.PaybackSimpleYears, 1e-12)
	require.NotNil(t, m.PaybackSimpleMonths)
	assert.InDelta(t, years*12, *m.PaybackSimpleMonths, 1e-9)
	// 1210 / 1.1^1.998 is still above the face value
	require.NotNil(t, m.PaybackDiscountedYears)
}

func TestComputeTotalsAndAverages(t *testing.T) {
	emission := datetime.MustDate("2025-01-15")
	events := []cashflow.Event{
		event("2025-07-15", 60, 500),
		event("2026-01-15", 30, 500),
	}

	m := Compute(events, emission, 1000, 10, 2)
	assert.Equal(t, 90.0, m.TotalInterest)
	assert.Equal(t, 1000.0, m.TotalAmortization)
	assert.Equal(t, 1090.0, m.TotalPayments)
	assert.Equal(t, 545.0, m.AveragePayment)

	t1 := 181.0 / 365.25
	t2 := 365.0 / 365.25
	pv1 := 560 / math.Pow(1.12, t1)
	pv2 := 530 / math.Pow(1.12, t2)
	assert.InDelta(t, (pv1*t1+pv2*t2)/(pv1+pv2), m.DurationYears, 1e-12)
	assert.InDelta(t, m.DurationYears/1.12, m.ModifiedDuration, 1e-12)
	assert.InDelta(t, (560*t1+530*t2)/1090, m.AverageMaturityYears, 1e-12)
	assert.Less(t, m.DurationYears, m.AverageMaturityYears)
}

func TestPaybackNeverReached(t *testing.T) {
	emission := datetime.MustDate("2025-01-15")
	events := []cashflow.Event{event("2025-07-15", 200, 0), event("2026-01-15", 200, 0)}

	m := Compute(events, emission, 1000, 10, 0)
	assert.Nil(t, m.PaybackSimpleYears)
	assert.Nil(t, m.PaybackSimpleMonths)
	assert.Nil(t, m.PaybackDiscountedYears)
	assert.Nil(t, m.PaybackDiscountedMonths)
}

func TestPaybackSimpleBeforeDiscounted(t *testing.T) {
	emission := datetime.MustDate("2025-01-15")
	events := []cashflow.Event{
		event("2026-01-15", 100, 900),
		event("2027-01-15", 100, 0),
		event("2028-01-15", 100, 100),
	}

	pb := Payback(events, emission, 1000, 0.10)
	require.NotNil(t, pb.SimpleYears)
	require.NotNil(t, pb.DiscountedYears)
	assert.InDelta(t, 365.0/365.25, *pb.SimpleYears, 1e-12)
	assert.Greater(t, *pb.DiscountedYears, *pb.SimpleYears)
}

func TestComputeEmpty(t *testing.T) {
	m := Compute(nil, datetime.MustDate("2025-01-15"), 1000, 10, 1)
	assert.Equal(t, 0, m.NumPayments)
	assert.Equal(t, 0.0, m.AveragePayment)
	assert.Equal(t, 0.0, m.DurationYears)
	assert.Nil(t, m.PaybackSimpleYears)
}

func TestIRRRoundTripOnGeneratedCashFlow(t *testing.T) {
	builder := cashflow.NewBuilder(zap.NewNop(), calendar.NewANBIMA(2024, 2035))
	p := cashflow.Emission{
		EmissionDate:       datetime.MustDate("2025-01-15"),
		MaturityDate:       datetime.MustDate("2030-01-15"),
		UnitFaceValue:      1000,
		Quantity:           10,
		FloatingRateAnnual: 10.65,
		SpreadAnnual:       1.25,
		Frequency:          schedule.Semiannual,
		Method:             amortization.EqualInstallment,
		GraceMonths:        24,
		Indexer:            cashflow.CDI,
	}
	events, err := builder.Generate(p, cashflow.MarketCurves{})
	require.NoError(t, err)

	m := Compute(events, p.EmissionDate, p.Notional(), p.FloatingRateAnnual, p.SpreadAnnual)
	flows := []float64{-p.Notional()}
	for _, ev := range events {
		flows = append(flows, ev.Payment)
	}
	assert.True(t, m.IRRConverged)
	assert.Less(t, math.Abs(NPV(m.IRR/100, flows)), 1e-3)
	assert.InDelta(t, p.Notional(), m.TotalAmortization, 1e-6)
	assert.Greater(t, m.IRR, 0.0)
}
