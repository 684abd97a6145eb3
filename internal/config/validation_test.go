package config

import (
	"strings"
	"testing"
)

func validConfig() Configuration {
	c := Configuration{
		Bonds: []Bond{
			{
				Name:         "a",
				Active:       true,
				EmissionDate: "2025-01-15",
				MaturityDate: "2030-01-15",
			},
		},
	}
	c.ApplyDefaults()
	return c
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Configuration)
		contains []string
	}{
		{
			name:   "Clean configuration",
			mutate: func(*Configuration) {},
		},
		{
			name:     "No bonds",
			mutate:   func(c *Configuration) { c.Bonds = nil },
			contains: []string{"no bonds"},
		},
		{
			name:     "Only inactive bonds",
			mutate:   func(c *Configuration) { c.Bonds[0].Active = false },
			contains: []string{"no active bonds"},
		},
		{
			name: "Duplicate names",
			mutate: func(c *Configuration) {
				c.Bonds = append(c.Bonds, c.Bonds[0])
			},
			contains: []string{`"a" is used more than once`},
		},
		{
			name: "Curve requested while offline",
			mutate: func(c *Configuration) {
				c.Market.Offline = true
				c.Bonds[0].UseMarketCurve = true
			},
			contains: []string{"market.offline"},
		},
		{
			name: "Index text shadows fetched indices",
			mutate: func(c *Configuration) {
				c.Market.FetchIndices = true
				c.Bonds[0].IndexText = "2025-01=100"
			},
			contains: []string{"fetched IPCA indices will be ignored"},
		},
		{
			name: "Bond outside the calendar",
			mutate: func(c *Configuration) {
				c.Calendar.LastYear = 2028
			},
			contains: []string{"outside the holiday calendar 2020-2028"},
		},
		{
			name: "Inverted calendar years",
			mutate: func(c *Configuration) {
				c.Calendar.FirstYear, c.Calendar.LastYear = 2040, 2030
			},
			contains: []string{"firstYear 2040 is after lastYear 2030"},
		},
		{
			name: "Unreadable date",
			mutate: func(c *Configuration) {
				c.Bonds[0].MaturityDate = "next year"
			},
			contains: []string{`bond "a" has an unreadable date`},
		},
		{
			name: "Maturity before emission",
			mutate: func(c *Configuration) {
				c.Bonds[0].MaturityDate = "15/01/2024"
			},
			contains: []string{"matures on or before its emission date"},
		},
		{
			name: "Inactive bonds are not checked",
			mutate: func(c *Configuration) {
				c.Bonds = append(c.Bonds, Bond{Name: "draft", MaturityDate: "soon"})
			},
		},
		{
			name: "Bad extra holiday",
			mutate: func(c *Configuration) {
				c.Calendar.ExtraHolidays = []string{"2025-13-01"}
			},
			contains: []string{"invalid extra holiday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			warnings := c.ValidateConfiguration()

			if len(tt.contains) == 0 && len(warnings) != 0 {
				t.Fatalf("Expected no warnings, got %v", warnings)
			}
			joined := strings.Join(warnings, "\n")
			for _, want := range tt.contains {
				if !strings.Contains(joined, want) {
					t.Errorf("Expected a warning containing %q, got %v", want, warnings)
				}
			}
		})
	}
}
