package format

import "testing"

func TestCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   float64
		expected string
	}{
		{"Zero", 0, "R$ 0,00"},
		{"Small", 12.5, "R$ 12,50"},
		{"Thousands", 1234.56, "R$ 1.234,56"},
		{"Millions", 10000000, "R$ 10.000.000,00"},
		{"Negative", -1234.564, "-R$ 1.234,56"},
		{"Rounds half up", 0.125, "R$ 0,13"},
		{"Negative rounding to zero", -0.001, "R$ 0,00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Currency(tt.amount); got != tt.expected {
				t.Errorf("Currency(%v) = %q, expected %q", tt.amount, got, tt.expected)
			}
		})
	}
}

func TestNumericCurrency(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{999.99, "999,99"},
		{1000, "1.000,00"},
		{-250000.5, "-250.000,50"},
	}

	for _, tt := range tests {
		if got := NumericCurrency(tt.amount); got != tt.expected {
			t.Errorf("NumericCurrency(%v) = %q, expected %q", tt.amount, got, tt.expected)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		value    float64
		places   int32
		expected string
	}{
		{10.65, 2, "10,65%"},
		{0.4862, 4, "0,4862%"},
		{-1.5, 1, "-1,5%"},
		{7, 0, "7%"},
	}

	for _, tt := range tests {
		if got := Percent(tt.value, tt.places); got != tt.expected {
			t.Errorf("Percent(%v, %d) = %q, expected %q", tt.value, tt.places, got, tt.expected)
		}
	}
}
