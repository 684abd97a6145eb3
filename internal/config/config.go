// Package config defines the data structures related to configuration and
// includes functions for loading, defaulting and validating it.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"

	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/datetime"
)

// Configuration holds all configuration for debenture-forecast.
type Configuration struct {
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Output   OutputConfig   `yaml:"output,omitempty"`
	Market   MarketConfig   `yaml:"market,omitempty"`
	Calendar CalendarConfig `yaml:"calendar,omitempty"`
	Bonds    []Bond         `yaml:"bonds"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv, json
}

// MarketConfig controls the ANBIMA curve and BCB index fetchers.
type MarketConfig struct {
	AnbimaURL    string        `yaml:"anbimaURL,omitempty"`
	BcbURL       string        `yaml:"bcbURL,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	MaxAttempts  int           `yaml:"maxAttempts,omitempty"`
	FetchIndices bool          `yaml:"fetchIndices,omitempty"`
	// Offline disables every network fetch; bonds fall back to fixed rates
	// and projected inflation.
	Offline bool `yaml:"offline,omitempty"`
}

// CalendarConfig bounds the holiday calendar.
type CalendarConfig struct {
	FirstYear     int      `yaml:"firstYear,omitempty"`
	LastYear      int      `yaml:"lastYear,omitempty"`
	ExtraHolidays []string `yaml:"extraHolidays,omitempty"`
}

// Bond is one named debenture definition.
type Bond struct {
	Name                     string    `yaml:"name"`
	Active                   bool      `yaml:"active"`
	EmissionDate             string    `yaml:"emissionDate"`
	MaturityDate             string    `yaml:"maturityDate"`
	UnitFaceValue            float64   `yaml:"unitFaceValue,omitempty"`
	Quantity                 int       `yaml:"quantity,omitempty"`
	Indexer                  string    `yaml:"indexer"`
	SpreadAnnual             float64   `yaml:"spreadAnnual"`
	InterestFrequency        string    `yaml:"interestFrequency"`
	AmortizationMethod       string    `yaml:"amortizationMethod"`
	CustomPercentages        []float64 `yaml:"customPercentages,omitempty"`
	GracePeriodMonths        int       `yaml:"gracePeriodMonths,omitempty"`
	UseMarketCurve           bool      `yaml:"useMarketCurve,omitempty"`
	FixedFloatingRateAnnual  float64   `yaml:"fixedFloatingRateAnnual,omitempty"`
	CurveDate                string    `yaml:"curveDate,omitempty"`
	AnniversaryDay           int       `yaml:"anniversaryDay,omitempty"`
	ProjectedAnnualInflation *float64  `yaml:"projectedAnnualInflation,omitempty"`
	IndexText                string    `yaml:"indexText,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML configuration from r, as uploaded
// to the HTTP server.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yml")

	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills unset market and calendar settings. Bond-level defaults
// are resolved per calculation.
func (c *Configuration) ApplyDefaults() {
	if c.Market.Timeout <= 0 {
		c.Market.Timeout = constants.DefaultMarketTimeoutSeconds * time.Second
	}
	if c.Market.MaxAttempts <= 0 {
		c.Market.MaxAttempts = constants.DefaultCurveAttempts
	}
	if c.Calendar.FirstYear == 0 {
		c.Calendar.FirstYear = constants.DefaultCalendarFirstYear
	}
	if c.Calendar.LastYear == 0 {
		c.Calendar.LastYear = constants.DefaultCalendarLastYear
	}
}

// ActiveBonds returns the bonds marked active, in configuration order.
func (c *Configuration) ActiveBonds() []Bond {
	var active []Bond
	for _, b := range c.Bonds {
		if b.Active {
			active = append(active, b)
		}
	}
	return active
}

// ExtraHolidayDates parses the configured extra holidays.
func (c *Configuration) ExtraHolidayDates() ([]time.Time, error) {
	dates := make([]time.Time, 0, len(c.Calendar.ExtraHolidays))
	for _, s := range c.Calendar.ExtraHolidays {
		d, err := datetime.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("invalid extra holiday %q: %w", s, err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if len(c.Bonds) == 0 {
		return append(warnings, "configuration defines no bonds")
	}
	if len(c.ActiveBonds()) == 0 {
		warnings = append(warnings, "configuration has no active bonds; nothing will be calculated")
	}

	if c.Calendar.FirstYear > c.Calendar.LastYear {
		warnings = append(warnings, fmt.Sprintf("calendar firstYear %d is after lastYear %d; only weekends will be skipped",
			c.Calendar.FirstYear, c.Calendar.LastYear))
	}
	if _, err := c.ExtraHolidayDates(); err != nil {
		warnings = append(warnings, err.Error())
	}

	seen := make(map[string]bool, len(c.Bonds))
	for _, b := range c.Bonds {
		if seen[b.Name] {
			warnings = append(warnings, fmt.Sprintf("bond name %q is used more than once", b.Name))
		}
		seen[b.Name] = true

		if !b.Active {
			continue
		}
		if b.UseMarketCurve && c.Market.Offline {
			warnings = append(warnings, fmt.Sprintf("bond %q requests the market curve but market.offline is set; fixed rates will be used", b.Name))
		}
		if b.IndexText != "" && c.Market.FetchIndices && !c.Market.Offline {
			warnings = append(warnings, fmt.Sprintf("bond %q supplies indexText; fetched IPCA indices will be ignored", b.Name))
		}

		before, err := datetime.DateBeforeDate(b.EmissionDate, b.MaturityDate)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("bond %q has an unreadable date: %v", b.Name, err))
			continue
		}
		if !before {
			warnings = append(warnings, fmt.Sprintf("bond %q matures on or before its emission date", b.Name))
			continue
		}
		emission, _ := datetime.ParseDate(b.EmissionDate)
		maturity, _ := datetime.ParseDate(b.MaturityDate)
		if emission.Year() < c.Calendar.FirstYear || maturity.Year() > c.Calendar.LastYear {
			warnings = append(warnings, fmt.Sprintf("bond %q runs %d-%d outside the holiday calendar %d-%d",
				b.Name, emission.Year(), maturity.Year(), c.Calendar.FirstYear, c.Calendar.LastYear))
		}
	}

	return warnings
}
