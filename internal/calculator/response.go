package calculator

import (
	"time"

	"github.com/google/uuid"

	"github.com/iwvelando/debenture-forecast/pkg/cashflow"
	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/curve"
	"github.com/iwvelando/debenture-forecast/pkg/metrics"
)

// Index data origins reported in IndexInfo.
const (
	originRequest   = "request"
	originFetched   = "bcb"
	originProjected = "projected"
)

// Rate sources reported per event.
const (
	rateSourceCurve = "curve"
	rateSourceFixed = "fixed"
)

// Response is the outcome of one calculation.
type Response struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name,omitempty"`
	CashFlow []EventView     `json:"cash_flow"`
	Metrics  metrics.Metrics `json:"metrics"`
	Inputs   Inputs          `json:"inputs"`
	// CurveInfo is set when the request asked for the market curve.
	CurveInfo *curve.Info `json:"curve_info"`
	// IndexInfo is set for IPCA+ bonds.
	IndexInfo *IndexInfo `json:"index_source,omitempty"`
	Notices   []string   `json:"notices,omitempty"`
}

// EventView is a cash-flow event with ISO dates.
type EventView struct {
	Sequence            int      `json:"sequence"`
	Date                string   `json:"date"`
	BusinessDays        int      `json:"business_days"`
	CalendarDays        int      `json:"calendar_days"`
	BalanceBefore       float64  `json:"balance_before"`
	Interest            float64  `json:"interest"`
	Amortization        float64  `json:"amortization"`
	Payment             float64  `json:"payment"`
	BalanceAfter        float64  `json:"balance_after"`
	AmortizationPercent float64  `json:"amortization_percent"`
	Indexer             string   `json:"indexer"`
	FloatingRate        *float64 `json:"floating_rate,omitempty"`
	RealRate            *float64 `json:"real_rate,omitempty"`
	Vertex              *int     `json:"vertex,omitempty"`
	RateSource          string   `json:"rate_source"`
	VNA                 *float64 `json:"vna,omitempty"`
	InflationAccrual    *float64 `json:"inflation_accrual,omitempty"`
}

// Inputs echoes the resolved request, defaults included.
type Inputs struct {
	EmissionDate             string    `json:"emission_date"`
	MaturityDate             string    `json:"maturity_date"`
	UnitFaceValue            float64   `json:"unit_face_value"`
	Quantity                 int       `json:"quantity"`
	Notional                 float64   `json:"notional"`
	Indexer                  string    `json:"indexer"`
	SpreadAnnual             float64   `json:"spread_annual"`
	FixedFloatingRateAnnual  float64   `json:"fixed_floating_rate_annual"`
	InterestFrequency        string    `json:"interest_frequency"`
	AmortizationMethod       string    `json:"amortization_method"`
	CustomPercentages        []float64 `json:"custom_percentages,omitempty"`
	GracePeriodMonths        int       `json:"grace_period_months"`
	UseMarketCurve           bool      `json:"use_market_curve"`
	CurveDate                string    `json:"curve_date,omitempty"`
	AnniversaryDay           *int      `json:"anniversary_day,omitempty"`
	ProjectedAnnualInflation *float64  `json:"projected_annual_inflation,omitempty"`
}

// IndexInfo describes the IPCA levels a calculation used.
type IndexInfo struct {
	Origin        string `json:"origin"`
	ObservedCount int    `json:"observed_count"`
	Normalized    string `json:"normalized,omitempty"`
}

func eventViews(indexer cashflow.Indexer, events []cashflow.Event) []EventView {
	views := make([]EventView, 0, len(events))
	for _, ev := range events {
		source := rateSourceFixed
		if ev.RateFromCurve {
			source = rateSourceCurve
		}
		views = append(views, EventView{
			Sequence:            ev.Sequence,
			Date:                ev.Date.Format(constants.DateLayout),
			BusinessDays:        ev.BusinessDays,
			CalendarDays:        ev.CalendarDays,
			BalanceBefore:       ev.BalanceBefore,
			Interest:            ev.Interest,
			Amortization:        ev.Amortization,
			Payment:             ev.Payment,
			BalanceAfter:        ev.BalanceAfter,
			AmortizationPercent: ev.AmortizationPercent,
			Indexer:             string(indexer),
			FloatingRate:        ev.FloatingRate,
			RealRate:            ev.RealRate,
			Vertex:              ev.Vertex,
			RateSource:          source,
			VNA:                 ev.VNA,
			InflationAccrual:    ev.InflationAccrual,
		})
	}
	return views
}

func echoInputs(p cashflow.Emission, curveDate time.Time) Inputs {
	in := Inputs{
		EmissionDate:            p.EmissionDate.Format(constants.DateLayout),
		MaturityDate:            p.MaturityDate.Format(constants.DateLayout),
		UnitFaceValue:           p.UnitFaceValue,
		Quantity:                p.Quantity,
		Notional:                p.Notional(),
		Indexer:                 string(p.Indexer),
		SpreadAnnual:            p.SpreadAnnual,
		FixedFloatingRateAnnual: p.FloatingRateAnnual,
		InterestFrequency:       string(p.Frequency),
		AmortizationMethod:      string(p.Method),
		CustomPercentages:       p.CustomPercentages,
		GracePeriodMonths:       p.GraceMonths,
		UseMarketCurve:          p.UseMarketCurve,
	}
	if p.UseMarketCurve {
		in.CurveDate = curveDate.Format(constants.DateLayout)
	}
	if p.Indexer == cashflow.IPCA {
		day, projected := p.Inflation.AnniversaryDay, p.Inflation.ProjectedAnnual
		in.AnniversaryDay = &day
		in.ProjectedAnnualInflation = &projected
	}
	return in
}
