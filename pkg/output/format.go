// Package output provides utilities for formatting and displaying calculation results.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/iwvelando/debenture-forecast/internal/calculator"
	"github.com/iwvelando/debenture-forecast/pkg/format"
)

// csvHeader lists one column per event field; the bond name leads so that
// several bonds can share one file.
var csvHeader = []string{
	"bond", "sequence", "date", "business_days", "calendar_days",
	"balance_before", "interest", "amortization", "payment", "balance_after",
	"amortization_percent", "rate", "rate_source", "vna", "inflation_accrual",
}

// PrettyFormat writes a human-readable table per bond followed by its metrics.
func PrettyFormat(w io.Writer, results []*calculator.Response) {
	p := message.NewPrinter(language.BrazilianPortuguese)
	for i, result := range results {
		in := result.Inputs
		fmt.Fprintf(w, "--- Results for bond %s ---\n", result.Name)
		fmt.Fprintf(w, "%s | %s %s | %s | %s | %s to %s\n",
			format.Currency(in.Notional), in.Indexer, format.Percent(in.SpreadAnnual, 4),
			in.InterestFrequency, in.AmortizationMethod, in.EmissionDate, in.MaturityDate)
		fmt.Fprintf(w, "#   | Date       | BD   | Balance | Interest | Amortization | Payment | Rate\n")
		fmt.Fprintf(w, "___ | __________ | ____ | _______ | ________ | ____________ | _______ | ____\n")
		for _, ev := range result.CashFlow {
			_, _ = p.Fprintf(w, "%3d | %s | %4d | %s | %s | %s | %s | %s\n",
				ev.Sequence, ev.Date, ev.BusinessDays,
				format.Currency(ev.BalanceBefore), format.Currency(ev.Interest),
				format.Currency(ev.Amortization), format.Currency(ev.Payment),
				rateLabel(ev))
		}

		m := result.Metrics
		fmt.Fprintf(w, "Total payments %s (interest %s, amortization %s)\n",
			format.Currency(m.TotalPayments), format.Currency(m.TotalInterest), format.Currency(m.TotalAmortization))
		_, _ = p.Fprintf(w, "Duration %.2f years | Modified duration %.2f | Average maturity %.2f years\n",
			m.DurationYears, m.ModifiedDuration, m.AverageMaturityYears)
		irr := format.Percent(m.IRR, 4) + " per period"
		if !m.IRRConverged {
			irr += " (not converged)"
		}
		fmt.Fprintf(w, "IRR %s | Payback %s simple, %s discounted\n",
			irr, paybackLabel(p, m.PaybackSimpleYears), paybackLabel(p, m.PaybackDiscountedYears))
		if result.CurveInfo != nil {
			_, _ = p.Fprintf(w, "Curve %s: %d vertices from %d to %d business days\n",
				result.CurveInfo.Kind, result.CurveInfo.VerticesCount, result.CurveInfo.MinDays, result.CurveInfo.MaxDays)
		}
		if result.IndexInfo != nil {
			fmt.Fprintf(w, "IPCA levels: %s (%d observed)\n", result.IndexInfo.Origin, result.IndexInfo.ObservedCount)
		}
		for _, notice := range result.Notices {
			fmt.Fprintf(w, "Notice: %s\n", notice)
		}
		if i < len(results)-1 {
			fmt.Fprintf(w, "\n")
		}
	}
}

func rateLabel(ev calculator.EventView) string {
	rate := ev.FloatingRate
	if rate == nil {
		rate = ev.RealRate
	}
	if rate == nil {
		return ev.RateSource
	}
	return format.Percent(*rate, 4) + " " + ev.RateSource
}

func paybackLabel(p *message.Printer, years *float64) string {
	if years == nil {
		return "never"
	}
	return p.Sprintf("%.2f years", *years)
}

// CsvFormat writes every event of every bond as comma-separated values.
func CsvFormat(w io.Writer, results []*calculator.Response) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, result := range results {
		for _, ev := range result.CashFlow {
			rate := ev.FloatingRate
			if rate == nil {
				rate = ev.RealRate
			}
			record := []string{
				result.Name,
				strconv.Itoa(ev.Sequence),
				ev.Date,
				strconv.Itoa(ev.BusinessDays),
				strconv.Itoa(ev.CalendarDays),
				amount(ev.BalanceBefore),
				amount(ev.Interest),
				amount(ev.Amortization),
				amount(ev.Payment),
				amount(ev.BalanceAfter),
				optional(&ev.AmortizationPercent, 4),
				optional(rate, 6),
				ev.RateSource,
				optional(ev.VNA, 6),
				optional(ev.InflationAccrual, 6),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func optional(v *float64, places int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', places, 64)
}

// JSONFormat writes the results as an indented JSON array.
func JSONFormat(w io.Writer, results []*calculator.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if results == nil {
		results = []*calculator.Response{}
	}
	return enc.Encode(results)
}
