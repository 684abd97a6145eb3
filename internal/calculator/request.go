package calculator

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/debenture-forecast/internal/config"
	"github.com/iwvelando/debenture-forecast/pkg/amortization"
	"github.com/iwvelando/debenture-forecast/pkg/cashflow"
	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/datetime"
	"github.com/iwvelando/debenture-forecast/pkg/indexation"
	"github.com/iwvelando/debenture-forecast/pkg/schedule"
)

// ErrInvalidRequest marks a request field that could not be parsed.
var ErrInvalidRequest = errors.New("invalid request")

// Request is the calculation input as received over HTTP. Pointer fields are
// optional and take their documented defaults when nil.
type Request struct {
	Name                     string    `json:"name,omitempty"`
	EmissionDate             string    `json:"emission_date"`
	MaturityDate             string    `json:"maturity_date"`
	UnitFaceValue            *float64  `json:"unit_face_value,omitempty"`
	Quantity                 *int      `json:"quantity,omitempty"`
	SpreadAnnual             float64   `json:"spread_annual"`
	InterestFrequency        string    `json:"interest_frequency"`
	AmortizationMethod       string    `json:"amortization_method"`
	CustomPercentages        []float64 `json:"custom_percentages,omitempty"`
	GracePeriodMonths        int       `json:"grace_period_months"`
	Indexer                  string    `json:"indexer"`
	UseMarketCurve           bool      `json:"use_market_curve"`
	FixedFloatingRateAnnual  float64   `json:"fixed_floating_rate_annual"`
	CurveDate                string    `json:"curve_date,omitempty"`
	AnniversaryDay           *int      `json:"anniversary_day,omitempty"`
	ProjectedAnnualInflation *float64  `json:"projected_annual_inflation,omitempty"`
	IndexText                string    `json:"index_text,omitempty"`
}

// resolved is a request after parsing and defaulting.
type resolved struct {
	emission cashflow.Emission
	// curveDate is zero when the caller did not pin a reference date.
	curveDate time.Time
	// userIndices is true when the request carried its own index text.
	userIndices bool
}

func (r Request) resolve() (resolved, error) {
	var out resolved
	p := &out.emission

	var err error
	if p.EmissionDate, err = datetime.ParseDate(r.EmissionDate); err != nil {
		return out, fmt.Errorf("%w: emission_date: %v", ErrInvalidRequest, err)
	}
	if p.MaturityDate, err = datetime.ParseDate(r.MaturityDate); err != nil {
		return out, fmt.Errorf("%w: maturity_date: %v", ErrInvalidRequest, err)
	}
	if r.CurveDate != "" {
		if out.curveDate, err = datetime.ParseDate(r.CurveDate); err != nil {
			return out, fmt.Errorf("%w: curve_date: %v", ErrInvalidRequest, err)
		}
	}

	if p.Frequency, err = schedule.ParseFrequency(r.InterestFrequency); err != nil {
		return out, err
	}
	if p.Method, err = amortization.ParseMethod(r.AmortizationMethod); err != nil {
		return out, err
	}
	if p.Indexer, err = cashflow.ParseIndexer(r.Indexer); err != nil {
		return out, err
	}

	p.UnitFaceValue = constants.DefaultUnitFaceValue
	if r.UnitFaceValue != nil {
		p.UnitFaceValue = *r.UnitFaceValue
	}
	p.Quantity = constants.DefaultQuantity
	if r.Quantity != nil {
		p.Quantity = *r.Quantity
	}

	p.SpreadAnnual = r.SpreadAnnual
	p.FloatingRateAnnual = r.FixedFloatingRateAnnual
	p.CustomPercentages = r.CustomPercentages
	p.GraceMonths = r.GracePeriodMonths
	p.UseMarketCurve = r.UseMarketCurve

	p.Inflation.AnniversaryDay = constants.DefaultAnniversaryDay
	if r.AnniversaryDay != nil {
		p.Inflation.AnniversaryDay = *r.AnniversaryDay
	}
	p.Inflation.ProjectedAnnual = constants.DefaultProjectedInflation
	if r.ProjectedAnnualInflation != nil {
		p.Inflation.ProjectedAnnual = *r.ProjectedAnnualInflation
	}
	if strings.TrimSpace(r.IndexText) != "" {
		indices, err := indexation.ParseIndexText(r.IndexText)
		if err != nil {
			return out, fmt.Errorf("%w: index_text: %v", ErrInvalidRequest, err)
		}
		p.Inflation.Indices = indices
		out.userIndices = len(indices) > 0
	}

	return out, nil
}

// RequestFromBond converts a configured bond into a request.
func RequestFromBond(b config.Bond) Request {
	r := Request{
		Name:                     b.Name,
		EmissionDate:             b.EmissionDate,
		MaturityDate:             b.MaturityDate,
		SpreadAnnual:             b.SpreadAnnual,
		InterestFrequency:        b.InterestFrequency,
		AmortizationMethod:       b.AmortizationMethod,
		CustomPercentages:        b.CustomPercentages,
		GracePeriodMonths:        b.GracePeriodMonths,
		Indexer:                  b.Indexer,
		UseMarketCurve:           b.UseMarketCurve,
		FixedFloatingRateAnnual:  b.FixedFloatingRateAnnual,
		CurveDate:                b.CurveDate,
		ProjectedAnnualInflation: b.ProjectedAnnualInflation,
		IndexText:                b.IndexText,
	}
	if b.UnitFaceValue != 0 {
		v := b.UnitFaceValue
		r.UnitFaceValue = &v
	}
	if b.Quantity != 0 {
		q := b.Quantity
		r.Quantity = &q
	}
	if b.AnniversaryDay != 0 {
		d := b.AnniversaryDay
		r.AnniversaryDay = &d
	}
	return r
}

// Bond converts the request into a configuration entry with every default
// made explicit, for export.
func (r Request) Bond() (config.Bond, error) {
	res, err := r.resolve()
	if err != nil {
		return config.Bond{}, err
	}
	p := res.emission

	b := config.Bond{
		Name:                    r.Name,
		Active:                  true,
		EmissionDate:            p.EmissionDate.Format(constants.DateLayout),
		MaturityDate:            p.MaturityDate.Format(constants.DateLayout),
		UnitFaceValue:           p.UnitFaceValue,
		Quantity:                p.Quantity,
		Indexer:                 string(p.Indexer),
		SpreadAnnual:            p.SpreadAnnual,
		InterestFrequency:       string(p.Frequency),
		AmortizationMethod:      string(p.Method),
		CustomPercentages:       p.CustomPercentages,
		GracePeriodMonths:       p.GraceMonths,
		UseMarketCurve:          p.UseMarketCurve,
		FixedFloatingRateAnnual: p.FloatingRateAnnual,
	}
	if !res.curveDate.IsZero() {
		b.CurveDate = res.curveDate.Format(constants.DateLayout)
	}
	if p.Indexer == cashflow.IPCA {
		projected := p.Inflation.ProjectedAnnual
		b.AnniversaryDay = p.Inflation.AnniversaryDay
		b.ProjectedAnnualInflation = &projected
		if res.userIndices {
			b.IndexText = p.Inflation.Indices.String()
		}
	}
	return b, nil
}
