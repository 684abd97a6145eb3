package testutil

import (
	"testing"

	"github.com/iwvelando/debenture-forecast/internal/calculator"
)

func TestFindResult(t *testing.T) {
	results := []*calculator.Response{
		{Name: "Bond A", Inputs: calculator.Inputs{Notional: 1000}},
		nil,
		{Name: "Bond B", Inputs: calculator.Inputs{Notional: 2000}},
	}

	tests := []struct {
		name             string
		searchName       string
		expectFound      bool
		expectedNotional float64
	}{
		{"Find existing bond A", "Bond A", true, 1000},
		{"Find existing bond B", "Bond B", true, 2000},
		{"Missing bond", "Bond C", false, 0},
		{"Case sensitive", "bond a", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FindResult(results, tt.searchName)
			if tt.expectFound {
				if result == nil {
					t.Fatalf("expected to find %q", tt.searchName)
				}
				if result.Inputs.Notional != tt.expectedNotional {
					t.Errorf("expected notional %v, got %v", tt.expectedNotional, result.Inputs.Notional)
				}
			} else if result != nil {
				t.Errorf("expected nil for %q, got %+v", tt.searchName, result)
			}
		})
	}

	if FindResult(nil, "Bond A") != nil {
		t.Errorf("expected nil from empty results")
	}
}

func TestSumPaymentsAndBalancesChain(t *testing.T) {
	events := []calculator.EventView{
		{BalanceBefore: 1000, Payment: 560, BalanceAfter: 500},
		{BalanceBefore: 500, Payment: 530, BalanceAfter: 0},
	}

	if got := SumPayments(events); got != 1090 {
		t.Errorf("SumPayments = %v, expected 1090", got)
	}
	if !BalancesChain(events, 1e-9) {
		t.Errorf("expected balances to chain")
	}

	events[1].BalanceBefore = 510
	if BalancesChain(events, 1e-6) {
		t.Errorf("expected a broken chain to be detected")
	}
	if !BalancesChain(nil, 0) {
		t.Errorf("expected empty cash flow to chain trivially")
	}
}
