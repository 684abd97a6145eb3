package cashflow

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iwvelando/debenture-forecast/pkg/amortization"
	"github.com/iwvelando/debenture-forecast/pkg/calendar"
	"github.com/iwvelando/debenture-forecast/pkg/curve"
	"github.com/iwvelando/debenture-forecast/pkg/datetime"
	"github.com/iwvelando/debenture-forecast/pkg/indexation"
	"github.com/iwvelando/debenture-forecast/pkg/schedule"
)

func newTestBuilder() *Builder {
	return NewBuilder(zap.NewNop(), calendar.NewANBIMA(2024, 2035))
}

func cdiEmission() Emission {
	return Emission{
		EmissionDate:       datetime.MustDate("2025-01-15"),
		MaturityDate:       datetime.MustDate("2028-01-15"),
		UnitFaceValue:      1000,
		Quantity:           1,
		FloatingRateAnnual: 10.65,
		SpreadAnnual:       1.5,
		Frequency:          schedule.Semiannual,
		Method:             amortization.EqualInstallment,
		Indexer:            CDI,
	}
}

func ipcaEmission() Emission {
	return Emission{
		EmissionDate:  datetime.MustDate("2025-01-15"),
		MaturityDate:  datetime.MustDate("2025-04-15"),
		UnitFaceValue: 1000,
		Quantity:      1,
		SpreadAnnual:  4.0,
		Frequency:     schedule.Monthly,
		Method:        amortization.EqualInstallment,
		Indexer:       IPCA,
		Inflation: Inflation{
			AnniversaryDay:  15,
			ProjectedAnnual: 6.0,
		},
	}
}

func TestParseIndexer(t *testing.T) {
	tests := []struct {
		input    string
		expected Indexer
		wantErr  bool
	}{
		{"CDI", CDI, false},
		{"cdi+", CDI, false},
		{"DI", CDI, false},
		{"IPCA+", IPCA, false},
		{" ipca ", IPCA, false},
		{"IGPM", "", true},
	}
	for _, tt := range tests {
		got, err := ParseIndexer(tt.input)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrInvalidIndexer))
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}
}

func TestGenerateTerminalBalanceIsZero(t *testing.T) {
	methods := []struct {
		method amortization.Method
		custom []float64
	}{
		{amortization.Bullet, nil},
		{amortization.EqualInstallment, nil},
		{amortization.SimplifiedFrench, nil},
		{amortization.Custom, []float64{10, 10, 10, 20, 20, 30}},
	}

	for _, indexer := range []Indexer{CDI, IPCA} {
		for _, m := range methods {
			t.Run(string(indexer)+"/"+string(m.method), func(t *testing.T) {
				p := cdiEmission()
				p.Indexer = indexer
				p.Inflation = Inflation{AnniversaryDay: 15, ProjectedAnnual: 4.5}
				p.Method = m.method
				p.CustomPercentages = m.custom

				events, err := newTestBuilder().Generate(p, MarketCurves{})
				require.NoError(t, err)
				require.Len(t, events, 6)

				last := events[len(events)-1]
				assert.InDelta(t, 0.0, last.BalanceAfter, 1e-6*p.Notional())
				for i, ev := range events {
					assert.Equal(t, i+1, ev.Sequence)
					assert.InDelta(t, ev.BalanceBefore-ev.Amortization, ev.BalanceAfter, 1e-9)
					assert.InDelta(t, ev.Interest+ev.Amortization, ev.Payment, 1e-9)
					if i > 0 {
						assert.InDelta(t, events[i-1].BalanceAfter, ev.BalanceBefore-inflationGain(ev, events[i-1]), 1e-9)
					}
				}
			})
		}
	}
}

// inflationGain is the part of the opening balance added by the IPCA refresh.
func inflationGain(ev, prev Event) float64 {
	if ev.VNA == nil {
		return 0
	}
	return *ev.VNA - prev.BalanceAfter
}

func TestGenerateEqualInstallmentAmounts(t *testing.T) {
	p := cdiEmission()
	events, err := newTestBuilder().Generate(p, MarketCurves{})
	require.NoError(t, err)

	n := float64(len(events))
	totalPct := 0.0
	for _, ev := range events {
		assert.InDelta(t, p.UnitFaceValue/n, ev.Amortization, 1e-9)
		totalPct += ev.AmortizationPercent
	}
	assert.InDelta(t, 100.0, totalPct, 1e-9)
}

func TestGenerateBulletShape(t *testing.T) {
	p := cdiEmission()
	p.Method = amortization.Bullet
	events, err := newTestBuilder().Generate(p, MarketCurves{})
	require.NoError(t, err)

	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, 0.0, ev.Amortization)
		assert.Equal(t, p.UnitFaceValue, ev.BalanceBefore)
	}
	assert.Equal(t, p.UnitFaceValue, events[len(events)-1].Amortization)
}

func TestGenerateCDIInterest(t *testing.T) {
	p := cdiEmission()
	p.Frequency = schedule.Annual
	p.Method = amortization.Bullet
	events, err := newTestBuilder().Generate(p, MarketCurves{})
	require.NoError(t, err)

	for _, ev := range events {
		expected := ev.BalanceBefore * (math.Pow(1.1065, float64(ev.BusinessDays)/252)*math.Pow(1.015, float64(ev.BusinessDays)/252) - 1)
		assert.InDelta(t, expected, ev.Interest, 1e-9)
		require.NotNil(t, ev.FloatingRate)
		assert.Equal(t, 10.65, *ev.FloatingRate)
		assert.False(t, ev.RateFromCurve)
		assert.Nil(t, ev.VNA)
		assert.Nil(t, ev.RealRate)
	}
}

func TestGenerateCDIWithMarketCurve(t *testing.T) {
	pre, err := curve.New(curve.Pre, []curve.Vertex{{BusinessDays: 100, Rate: 12.0}, {BusinessDays: 800, Rate: 14.0}})
	require.NoError(t, err)

	p := cdiEmission()
	p.UseMarketCurve = true
	events, err := newTestBuilder().Generate(p, MarketCurves{Pre: pre})
	require.NoError(t, err)

	for _, ev := range events {
		require.NotNil(t, ev.Vertex)
		expected, err := pre.Interpolate(*ev.Vertex)
		require.NoError(t, err)
		assert.True(t, ev.RateFromCurve)
		assert.InDelta(t, expected, *ev.FloatingRate, 1e-12)
	}

	// the curve is ignored unless requested
	p.UseMarketCurve = false
	events, err = newTestBuilder().Generate(p, MarketCurves{Pre: pre})
	require.NoError(t, err)
	assert.Equal(t, 10.65, *events[0].FloatingRate)
}

func TestGenerateQuantityScaling(t *testing.T) {
	for _, base := range []Emission{cdiEmission(), ipcaEmission()} {
		t.Run(string(base.Indexer), func(t *testing.T) {
			one, err := newTestBuilder().Generate(base, MarketCurves{})
			require.NoError(t, err)

			scaled := base
			scaled.Quantity = 3
			three, err := newTestBuilder().Generate(scaled, MarketCurves{})
			require.NoError(t, err)

			require.Len(t, three, len(one))
			for i := range one {
				assert.InDelta(t, one[i].BalanceBefore*3, three[i].BalanceBefore, 1e-6)
				assert.InDelta(t, one[i].Interest*3, three[i].Interest, 1e-6)
				assert.InDelta(t, one[i].Amortization*3, three[i].Amortization, 1e-6)
				assert.InDelta(t, one[i].Payment*3, three[i].Payment, 1e-6)
			}
		})
	}
}

func TestGenerateIPCAResetScenario(t *testing.T) {
	p := ipcaEmission()
	events, err := newTestBuilder().Generate(p, MarketCurves{})
	require.NoError(t, err)
	require.Greater(t, len(events), 1)

	monthly := indexation.MonthlyRateFromAnnual(6.0) * 100
	for _, ev := range events {
		require.NotNil(t, ev.InflationAccrual)
		assert.Greater(t, *ev.InflationAccrual, 0.0)
		assert.InDelta(t, monthly, *ev.InflationAccrual, 0.05)
		require.NotNil(t, ev.RealRate)
		assert.Equal(t, 4.0, *ev.RealRate)
		assert.Nil(t, ev.FloatingRate)
	}

	// amortization over opening balance matches a nominal equal-installment schedule
	nominalAmort := p.UnitFaceValue / float64(len(events))
	nominalBalance := p.UnitFaceValue
	for _, ev := range events {
		assert.InDelta(t, nominalAmort/nominalBalance, ev.Amortization/ev.BalanceBefore, 1e-6)
		nominalBalance -= nominalAmort
	}
}

func TestGenerateIPCAWithObservedIndices(t *testing.T) {
	p := ipcaEmission()
	p.Method = amortization.Bullet
	p.Inflation.Indices = indexation.IndexSeries{"2025-01": 100.0, "2025-02": 102.0}
	events, err := newTestBuilder().Generate(p, MarketCurves{})
	require.NoError(t, err)

	assert.InDelta(t, 1020.0, *events[0].VNA, 1e-6)
	assert.InDelta(t, 2.0, *events[0].InflationAccrual, 1e-6)
}

func TestGenerateIPCAWithRealRateCurve(t *testing.T) {
	ntnb, err := curve.New(curve.NTNB, []curve.Vertex{{BusinessDays: 10, Rate: 6.0}, {BusinessDays: 70, Rate: 7.0}})
	require.NoError(t, err)

	p := ipcaEmission()
	p.UseMarketCurve = true
	events, err := newTestBuilder().Generate(p, MarketCurves{NTNB: ntnb})
	require.NoError(t, err)

	for _, ev := range events {
		expected, err := ntnb.Interpolate(*ev.Vertex)
		require.NoError(t, err)
		assert.True(t, ev.RateFromCurve)
		assert.InDelta(t, expected, *ev.RealRate, 1e-12)
		assert.InDelta(t, ev.BalanceBefore*(math.Pow(1+expected/100, float64(ev.BusinessDays)/252)-1), ev.Interest, 1e-9)
	}
}

func TestGenerateGracePeriod(t *testing.T) {
	p := cdiEmission()
	p.GraceMonths = 12
	events, err := newTestBuilder().Generate(p, MarketCurves{})
	require.NoError(t, err)

	for _, ev := range events {
		if !ev.Date.After(datetime.MustDate("2026-01-15")) {
			assert.Equal(t, 0.0, ev.Amortization, "no amortization inside grace on %s", ev.Date)
		} else {
			assert.InDelta(t, 250.0, ev.Amortization, 1e-9)
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Emission)
		target error
	}{
		{"Date order", func(p *Emission) { p.MaturityDate = p.EmissionDate }, schedule.ErrInvalidDateOrder},
		{"Frequency", func(p *Emission) { p.Frequency = "weekly" }, schedule.ErrInvalidFrequency},
		{"Method", func(p *Emission) { p.Method = "german" }, amortization.ErrInvalidAmortizationMethod},
		{"Custom", func(p *Emission) {
			p.Method = amortization.Custom
			p.CustomPercentages = []float64{50, 40}
		}, amortization.ErrInvalidAmortizationSchedule},
		{"Indexer", func(p *Emission) { p.Indexer = "IGPM" }, ErrInvalidIndexer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := cdiEmission()
			tt.mutate(&p)
			_, err := newTestBuilder().Generate(p, MarketCurves{})
			assert.True(t, errors.Is(err, tt.target), "expected %v, got %v", tt.target, err)
		})
	}
}
