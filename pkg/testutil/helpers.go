// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"

	"github.com/iwvelando/debenture-forecast/internal/calculator"
)

// FindResult finds a calculation result by bond name.
// Returns nil if no result carries that name.
func FindResult(results []*calculator.Response, name string) *calculator.Response {
	for _, r := range results {
		if r != nil && r.Name == name {
			return r
		}
	}
	return nil
}

// SumPayments adds up the payments of a cash flow.
func SumPayments(events []calculator.EventView) float64 {
	total := 0.0
	for _, ev := range events {
		total += ev.Payment
	}
	return total
}

// BalancesChain reports whether each event starts from the previous event's
// closing balance, within tolerance. IPCA+ events are refreshed by
// inflation between dates and are not expected to chain.
func BalancesChain(events []calculator.EventView, tolerance float64) bool {
	for i := 1; i < len(events); i++ {
		if math.Abs(events[i].BalanceBefore-events[i-1].BalanceAfter) > tolerance {
			return false
		}
	}
	return true
}
