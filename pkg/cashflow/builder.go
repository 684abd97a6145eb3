// Package cashflow folds the payment schedule of a debenture into a list of
// cash-flow events.
package cashflow

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iwvelando/debenture-forecast/pkg/amortization"
	"github.com/iwvelando/debenture-forecast/pkg/calendar"
	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/datetime"
	"github.com/iwvelando/debenture-forecast/pkg/indexation"
	"github.com/iwvelando/debenture-forecast/pkg/interest"
	"github.com/iwvelando/debenture-forecast/pkg/schedule"
)

// Calendar is the business-day calendar the builder needs.
type Calendar interface {
	NextBusinessDay(t time.Time) time.Time
	CountBusinessDays(start, end time.Time) int
}

// Builder generates cash flows.
type Builder struct {
	logger   *zap.Logger
	calendar Calendar
}

// NewBuilder creates a builder over the given calendar.
func NewBuilder(logger *zap.Logger, cal Calendar) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{logger: logger, calendar: cal}
}

// foldState is carried from one event to the next.
type foldState struct {
	previous     time.Time
	balance      float64
	remainingPct float64
}

// Generate builds one event per interest date. The balance is carried as
// fold state: each event starts from the previous post-amortization balance,
// and the last amortization repays the whole outstanding balance.
func (b *Builder) Generate(p Emission, curves MarketCurves) ([]Event, error) {
	dates, err := schedule.NewGenerator(b.calendar).GeneratePaymentDates(p.EmissionDate, p.MaturityDate, p.Frequency, p.GraceMonths)
	if err != nil {
		return nil, err
	}

	notional := p.Notional()
	amort, err := amortization.Build(notional, dates.Amortization, p.Method, p.CustomPercentages)
	if err != nil {
		return nil, err
	}
	lastAmortization := lastScheduled(amort, dates.Amortization)

	var (
		opts         []interest.Option
		indexer      *indexation.Engine
		monthlyRate  float64
		floatingRate = p.FloatingRateAnnual
	)
	switch p.Indexer {
	case CDI:
		if p.UseMarketCurve {
			opts = append(opts, interest.WithFloatingCurve(curves.Pre))
		}
	case IPCA:
		if p.UseMarketCurve {
			opts = append(opts, interest.WithSpreadCurve(curves.NTNB))
		}
		floatingRate = 0
		indexer = indexation.NewEngine(b.calendar, p.Inflation.Indices)
		monthlyRate = indexation.MonthlyRateFromAnnual(p.Inflation.ProjectedAnnual)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidIndexer, p.Indexer)
	}
	rates := interest.NewEngine(b.calendar, opts...)

	events := make([]Event, 0, len(dates.Interest))
	state := foldState{previous: p.EmissionDate, balance: notional, remainingPct: constants.PercentageMultiplier}
	for i, d := range dates.Interest {
		ev := Event{
			Sequence:     i + 1,
			Date:         d,
			BusinessDays: b.calendar.CountBusinessDays(state.previous, d),
			CalendarDays: calendar.CountCalendarDays(state.previous, d),
		}

		balance := state.balance
		if indexer != nil {
			vna, accrued, err := indexer.CalculateVNA(balance, state.previous, d, p.Inflation.AnniversaryDay, &monthlyRate)
			if err != nil {
				return nil, fmt.Errorf("event %d (%s): %w", ev.Sequence, d.Format(datetime.DateLayout), err)
			}
			balance = vna
			ev.VNA, ev.InflationAccrual = &vna, &accrued
		}

		res := rates.ComputeInterest(balance, floatingRate, p.SpreadAnnual, ev.BusinessDays, d, p.EmissionDate)
		vertex := res.Vertex
		ev.Vertex = &vertex
		if p.Indexer == IPCA {
			realRate := res.SpreadRate
			ev.RealRate, ev.RateFromCurve = &realRate, res.SpreadFromCurve
		} else {
			floating := res.FloatingRate
			ev.FloatingRate, ev.RateFromCurve = &floating, res.FloatingFromCurve
		}

		pct := amort.Percent(d)
		switch {
		case pct == 0:
		case d.Equal(lastAmortization):
			ev.Amortization = balance
		case p.Indexer == IPCA:
			// indexed principal amortizes in proportion to what is still owed
			ev.Amortization = balance * pct / state.remainingPct
		default:
			ev.Amortization = amort.Amount(d)
		}

		ev.BalanceBefore = balance
		ev.Interest = res.Interest
		ev.AmortizationPercent = pct
		ev.Payment = ev.Interest + ev.Amortization
		ev.BalanceAfter = balance - ev.Amortization

		b.logger.Debug(fmt.Sprintf("event %d on %s: balance %.2f interest %.2f amortization %.2f",
			ev.Sequence, d.Format(datetime.DateLayout), ev.BalanceBefore, ev.Interest, ev.Amortization),
			zap.String("op", "cashflow.Generate"),
		)

		events = append(events, ev)
		state = foldState{previous: d, balance: ev.BalanceAfter, remainingPct: state.remainingPct - pct}
	}

	return events, nil
}

// lastScheduled returns the latest date carrying a positive percentage.
func lastScheduled(s amortization.Schedule, dates []time.Time) time.Time {
	for i := len(dates) - 1; i >= 0; i-- {
		if s.Percent(dates[i]) > 0 {
			return dates[i]
		}
	}
	return dates[len(dates)-1]
}
