package cashflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/debenture-forecast/pkg/amortization"
	"github.com/iwvelando/debenture-forecast/pkg/curve"
	"github.com/iwvelando/debenture-forecast/pkg/indexation"
	"github.com/iwvelando/debenture-forecast/pkg/schedule"
)

// ErrInvalidIndexer is returned for an unknown indexer.
var ErrInvalidIndexer = errors.New("invalid indexer")

// Indexer is the remuneration family of the bond.
type Indexer string

const (
	// CDI bonds pay the floating DI rate plus a spread.
	CDI Indexer = "CDI"
	// IPCA bonds have an inflation-indexed principal plus a real spread.
	IPCA Indexer = "IPCA"
)

// ParseIndexer accepts "CDI", "CDI+", "DI", "IPCA" and "IPCA+" in any case.
func ParseIndexer(s string) (Indexer, error) {
	switch strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), "+") {
	case "CDI", "DI":
		return CDI, nil
	case "IPCA":
		return IPCA, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidIndexer, s)
	}
}

// Inflation holds the IPCA+ parameters.
type Inflation struct {
	AnniversaryDay int
	// ProjectedAnnual is the projected annual IPCA in percent.
	ProjectedAnnual float64
	Indices         indexation.IndexSeries
}

// Emission describes one bond issue.
type Emission struct {
	EmissionDate  time.Time
	MaturityDate  time.Time
	UnitFaceValue float64
	Quantity      int
	// FloatingRateAnnual is the fixed CDI assumption in percent, used when no
	// curve is consulted. Ignored for IPCA+.
	FloatingRateAnnual float64
	// SpreadAnnual is the spread over CDI, or the real rate for IPCA+, in percent.
	SpreadAnnual      float64
	Frequency         schedule.Frequency
	Method            amortization.Method
	CustomPercentages []float64
	GraceMonths       int
	Indexer           Indexer
	UseMarketCurve    bool
	Inflation         Inflation
}

// Notional is the unit face value scaled by quantity.
func (e Emission) Notional() float64 {
	return e.UnitFaceValue * float64(e.Quantity)
}

// MarketCurves are the term structures available to the builder. Either may
// be empty.
type MarketCurves struct {
	Pre  curve.Curve
	NTNB curve.Curve
}

// Event is one payment date of the schedule.
type Event struct {
	Sequence     int
	Date         time.Time
	BusinessDays int
	CalendarDays int
	// BalanceBefore is the outstanding balance before amortization, after the
	// IPCA refresh for inflation-linked bonds.
	BalanceBefore float64
	Interest      float64
	Amortization  float64
	Payment       float64
	BalanceAfter  float64
	// AmortizationPercent is the share of the notional scheduled on this date.
	AmortizationPercent float64

	// FloatingRate is the effective CDI rate applied (CDI+ only).
	FloatingRate *float64
	// RealRate is the effective real rate applied (IPCA+ only).
	RealRate *float64
	// Vertex is the business-day distance from emission used for curve lookups.
	Vertex *int
	// RateFromCurve reports whether the applied rate came from a curve.
	RateFromCurve bool
	// VNA is the refreshed nominal value (IPCA+ only).
	VNA *float64
	// InflationAccrual is the IPCA accrual since the previous event, in percent.
	InflationAccrual *float64
}
