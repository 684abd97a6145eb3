// Package constants provides shared constants for the debenture-forecast application.
package constants

// Date layouts used in configuration files, requests and output.
const (
	// DateLayout is the ISO calendar date format used for requests and output.
	DateLayout = "2006-01-02"

	// BrazilianDateLayout is the DD/MM/YYYY format accepted on input and
	// used by the ANBIMA and BCB services.
	BrazilianDateLayout = "02/01/2006"

	// YearMonthLayout keys observed inflation index levels.
	YearMonthLayout = "2006-01"
)

// Market conventions
const (
	// BusinessDaysPerYear is the B3/ANBIMA compounding base.
	BusinessDaysPerYear = 252

	// DaysPerYear converts elapsed calendar days into years for metrics.
	DaysPerYear = 365.25

	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0
)

// Request defaults
const (
	// DefaultUnitFaceValue is the ANBIMA standard unit face value (VNE).
	DefaultUnitFaceValue = 1000.00

	// DefaultQuantity is the number of units issued when none is given.
	DefaultQuantity = 1

	// DefaultAnniversaryDay is the IPCA anniversary day-of-month.
	DefaultAnniversaryDay = 15

	// DefaultProjectedInflation is the projected annual IPCA in percent.
	DefaultProjectedInflation = 4.5
)

// Validation constants
const (
	// CustomPercentageTolerance bounds how far custom amortization
	// percentages may sum away from 100.
	CustomPercentageTolerance = 0.01
)

// Metrics solver settings
const (
	// IRRInitialGuess is the Newton-Raphson starting rate (10%).
	IRRInitialGuess = 0.10

	// IRRMaxIterations caps the Newton-Raphson loop.
	IRRMaxIterations = 100

	// IRRTolerance is the |NPV| below which the IRR is accepted.
	IRRTolerance = 1e-4
)

// Market data defaults
const (
	// DefaultCurveAttempts is how many reference dates the curve fetch tries,
	// stepping back one calendar day each time.
	DefaultCurveAttempts = 5

	// DefaultMarketTimeoutSeconds bounds each market-data HTTP call.
	DefaultMarketTimeoutSeconds = 10

	// DefaultCalendarFirstYear and DefaultCalendarLastYear bound the holiday set.
	DefaultCalendarFirstYear = 2020
	DefaultCalendarLastYear  = 2050
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON prints the full response document
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum request body size (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)
