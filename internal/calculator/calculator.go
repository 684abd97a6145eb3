// Package calculator resolves debenture requests, gathers market data and
// runs the cash-flow and metrics engines.
package calculator

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iwvelando/debenture-forecast/internal/config"
	"github.com/iwvelando/debenture-forecast/internal/marketdata/anbima"
	"github.com/iwvelando/debenture-forecast/internal/marketdata/bcb"
	"github.com/iwvelando/debenture-forecast/pkg/amortization"
	"github.com/iwvelando/debenture-forecast/pkg/calendar"
	"github.com/iwvelando/debenture-forecast/pkg/cashflow"
	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/curve"
	"github.com/iwvelando/debenture-forecast/pkg/datetime"
	"github.com/iwvelando/debenture-forecast/pkg/indexation"
	"github.com/iwvelando/debenture-forecast/pkg/metrics"
	"github.com/iwvelando/debenture-forecast/pkg/schedule"
	"github.com/iwvelando/debenture-forecast/pkg/validation"
)

// CurveFetcher loads the ANBIMA term structure for a reference date.
type CurveFetcher interface {
	FetchCurves(ctx context.Context, referenceDate time.Time) (anbima.Curves, bool)
}

// IndexFetcher loads observed IPCA index levels.
type IndexFetcher interface {
	FetchIndexLevels(ctx context.Context, from, to time.Time) (indexation.IndexSeries, error)
}

// ErrMarketOffline is returned when no curve fetcher is configured.
var ErrMarketOffline = errors.New("market data is disabled")

// Calculator runs calculations. It is safe for concurrent use.
type Calculator struct {
	logger  *zap.Logger
	builder *cashflow.Builder
	curves  CurveFetcher
	indices IndexFetcher
	now     func() time.Time
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithCurveFetcher enables market curves for requests that ask for them.
func WithCurveFetcher(f CurveFetcher) Option {
	return func(c *Calculator) { c.curves = f }
}

// WithIndexFetcher enables fetched IPCA levels for requests without their
// own index text.
func WithIndexFetcher(f IndexFetcher) Option {
	return func(c *Calculator) { c.indices = f }
}

// WithClock overrides the clock used to cap curve and index reference dates.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) { c.now = now }
}

// NewCalculator creates a calculator over cal.
func NewCalculator(logger *zap.Logger, cal cashflow.Calendar, opts ...Option) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Calculator{
		logger:  logger,
		builder: cashflow.NewBuilder(logger, cal),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig wires the ANBIMA calendar and the market-data clients the
// configuration enables.
func NewFromConfig(logger *zap.Logger, conf *config.Configuration) (*Calculator, error) {
	extra, err := conf.ExtraHolidayDates()
	if err != nil {
		return nil, err
	}
	cal := calendar.NewANBIMA(conf.Calendar.FirstYear, conf.Calendar.LastYear, extra...)

	var opts []Option
	if !conf.Market.Offline {
		opts = append(opts, WithCurveFetcher(anbima.NewClient(logger, conf.Market.AnbimaURL, conf.Market.Timeout, conf.Market.MaxAttempts)))
		if conf.Market.FetchIndices {
			opts = append(opts, WithIndexFetcher(bcb.NewClient(logger, conf.Market.BcbURL, conf.Market.Timeout)))
		}
	}
	return NewCalculator(logger, cal, opts...), nil
}

// Calculate runs one request end to end.
func (c *Calculator) Calculate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	res, err := req.resolve()
	if err != nil {
		return nil, err
	}
	p := res.emission
	if err := validation.ValidateEmission(p); err != nil {
		return nil, err
	}

	var (
		curves    anbima.Curves
		curveOK   bool
		curveDate = c.curveReference(res)
		fetched   indexation.IndexSeries
		notices   []string
	)

	g, gctx := errgroup.WithContext(ctx)
	if p.UseMarketCurve && c.curves != nil {
		g.Go(func() error {
			curves, curveOK = c.curves.FetchCurves(gctx, curveDate)
			return gctx.Err()
		})
	}
	if p.Indexer == cashflow.IPCA && !res.userIndices && c.indices != nil {
		g.Go(func() error {
			from := datetime.AddMonths(p.EmissionDate, -2)
			to := c.now()
			if p.MaturityDate.Before(to) {
				to = p.MaturityDate
			}
			series, err := c.indices.FetchIndexLevels(gctx, from, to)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				c.logger.Warn(fmt.Sprintf("IPCA indices unavailable, using projected inflation: %v", err),
					zap.String("op", "calculator.Calculate"),
				)
				return nil
			}
			fetched = series
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if p.UseMarketCurve && !curveOK {
		notices = append(notices, "market curve unavailable; fixed rate used")
		c.logger.Warn("market curve unavailable, falling back to fixed rate",
			zap.String("op", "calculator.Calculate"),
			zap.String("curveDate", curveDate.Format(constants.DateLayout)),
		)
	}
	indexOrigin := originProjected
	switch {
	case res.userIndices:
		indexOrigin = originRequest
	case len(fetched) > 0:
		p.Inflation.Indices = fetched
		indexOrigin = originFetched
	}

	events, err := c.builder.Generate(p, curves.Market())
	if err != nil {
		return nil, err
	}

	floating := p.FloatingRateAnnual
	if p.Indexer == cashflow.IPCA {
		floating = 0
	}
	m := metrics.Compute(events, p.EmissionDate, p.Notional(), floating, p.SpreadAnnual)
	if !m.IRRConverged {
		notices = append(notices, fmt.Sprintf("IRR did not converge after %d iterations", m.IRRIterations))
	}

	resp := &Response{
		ID:       uuid.New(),
		Name:     req.Name,
		CashFlow: eventViews(p.Indexer, events),
		Metrics:  m,
		Inputs:   echoInputs(p, curveDate),
		Notices:  notices,
	}
	if p.UseMarketCurve {
		info := curves.Pre.Info()
		info.Kind = curve.Pre
		if p.Indexer == cashflow.IPCA {
			info = curves.NTNB.Info()
			info.Kind = curve.NTNB
		}
		resp.CurveInfo = &info
	}
	if p.Indexer == cashflow.IPCA {
		resp.IndexInfo = &IndexInfo{
			Origin:        indexOrigin,
			ObservedCount: len(p.Inflation.Indices),
			Normalized:    p.Inflation.Indices.String(),
		}
	}

	c.logger.Info("calculation completed",
		zap.String("op", "calculator.Calculate"),
		zap.String("id", resp.ID.String()),
		zap.String("indexer", string(p.Indexer)),
		zap.Int("events", len(events)),
		zap.Duration("duration", time.Since(start)),
	)
	return resp, nil
}

// curveReference is the pinned curve date, else the emission date capped at
// today.
func (c *Calculator) curveReference(res resolved) time.Time {
	if !res.curveDate.IsZero() {
		return res.curveDate
	}
	today := datetime.Truncate(c.now())
	if res.emission.EmissionDate.After(today) {
		return today
	}
	return res.emission.EmissionDate
}

// Curves loads the ANBIMA term structure for referenceDate, or for today when
// referenceDate is zero.
func (c *Calculator) Curves(ctx context.Context, referenceDate time.Time) (anbima.Curves, error) {
	if c.curves == nil {
		return anbima.Curves{}, ErrMarketOffline
	}
	if referenceDate.IsZero() {
		referenceDate = datetime.Truncate(c.now())
	}
	curves, ok := c.curves.FetchCurves(ctx, referenceDate)
	if !ok {
		if err := ctx.Err(); err != nil {
			return anbima.Curves{}, err
		}
		return anbima.Curves{}, curve.ErrCurveUnavailable
	}
	return curves, nil
}

// CalculateAll runs every active bond of the configuration concurrently and
// returns the responses in configuration order.
func (c *Calculator) CalculateAll(ctx context.Context, conf *config.Configuration) ([]*Response, error) {
	var bonds []config.Bond
	for _, b := range conf.Bonds {
		if !b.Active {
			c.logger.Debug(fmt.Sprintf("skipping bond %s because it is inactive", b.Name),
				zap.String("op", "calculator.CalculateAll"),
			)
			continue
		}
		bonds = append(bonds, b)
	}

	results := make([]*Response, len(bonds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, b := range bonds {
		i, b := i, b
		g.Go(func() error {
			resp, err := c.Calculate(gctx, RequestFromBond(b))
			if err != nil {
				return fmt.Errorf("bond %q: %w", b.Name, err)
			}
			results[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// IsClientError reports whether err was caused by the request rather than by
// the server.
func IsClientError(err error) bool {
	for _, target := range []error{
		ErrInvalidRequest,
		validation.ErrInvalidEmission,
		schedule.ErrInvalidDateOrder,
		schedule.ErrInvalidFrequency,
		amortization.ErrInvalidAmortizationMethod,
		amortization.ErrInvalidAmortizationSchedule,
		cashflow.ErrInvalidIndexer,
		indexation.ErrMissingIndexData,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
