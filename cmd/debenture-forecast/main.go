package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iwvelando/debenture-forecast/internal/calculator"
	"github.com/iwvelando/debenture-forecast/internal/config"
	"github.com/iwvelando/debenture-forecast/pkg/constants"
	"github.com/iwvelando/debenture-forecast/pkg/curve"
	"github.com/iwvelando/debenture-forecast/pkg/datetime"
	"github.com/iwvelando/debenture-forecast/pkg/format"
	"github.com/iwvelando/debenture-forecast/pkg/output"
	"github.com/iwvelando/debenture-forecast/pkg/validation"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var config zap.Config
	switch format {
	case "console":
		config = zap.NewDevelopmentConfig()
	case "json":
		config = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	// Logs go to stderr unless a file is configured; stdout carries the results
	config.OutputPaths = []string{"stderr"}
	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		}
		_ = file.Close()

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return config.Build()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "debenture-forecast",
		Short: "Project the cash flow of Brazilian debentures",
		Long: `debenture-forecast builds the payment schedule of CDI+ and IPCA+
debentures under B3/ANBIMA conventions (252 business days per year),
optionally priced against the ANBIMA term structure, and summarizes each
schedule with duration, IRR and payback.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", constants.DefaultConfigFile, "path to configuration file")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newCalculateCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newCurveCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// loadConfiguration reads the file named by --config and builds its logger.
func loadConfiguration(cmd *cobra.Command) (*config.Configuration, *zap.Logger, error) {
	configLocation, _ := cmd.Flags().GetString("config")
	logLevel, _ := cmd.Flags().GetString("log-level")

	conf, err := config.LoadConfiguration(configLocation)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration at %s: %w", configLocation, err)
	}

	logger, err := initializeLogger(conf.Logging, logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return conf, logger, nil
}

func newCalculateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Calculate every active bond of the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := loadConfiguration(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			// CLI override takes precedence over config
			outputFormat := conf.Output.Format
			if override, _ := cmd.Flags().GetString("output-format"); override != "" {
				outputFormat = override
			}
			if outputFormat == "" {
				outputFormat = constants.OutputFormatPretty
			}
			if err := validation.ValidateOutputFormat(outputFormat); err != nil {
				return err
			}

			for _, warning := range conf.ValidateConfiguration() {
				logger.Warn("Configuration warning: "+warning,
					zap.String("op", "main.calculate"),
				)
			}

			calc, err := calculator.NewFromConfig(logger, conf)
			if err != nil {
				return fmt.Errorf("failed to build calculator: %w", err)
			}

			results, err := calc.CalculateAll(cmd.Context(), conf)
			if err != nil {
				logger.Error("failed to calculate bonds",
					zap.String("op", "main.calculate"),
					zap.Error(err),
				)
				return err
			}

			return writeResults(cmd.OutOrStdout(), outputFormat, results)
		},
	}
	cmd.Flags().String("output-format", "", "type of output override: pretty, csv, json")
	return cmd
}

func writeResults(w io.Writer, outputFormat string, results []*calculator.Response) error {
	switch outputFormat {
	case constants.OutputFormatCSV:
		return output.CsvFormat(w, results)
	case constants.OutputFormatJSON:
		return output.JSONFormat(w, results)
	default:
		output.PrettyFormat(w, results)
		return nil
	}
}

func newCurveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Fetch and print the ANBIMA PRE and NTN-B curves",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, logger, err := loadConfiguration(cmd)
			if err != nil {
				return err
			}
			defer func() {
				_ = logger.Sync()
			}()

			var ref time.Time
			if raw, _ := cmd.Flags().GetString("date"); raw != "" {
				if ref, err = datetime.ParseDate(raw); err != nil {
					return err
				}
			}

			calc, err := calculator.NewFromConfig(logger, conf)
			if err != nil {
				return fmt.Errorf("failed to build calculator: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(conf.Market.MaxAttempts+1)*conf.Market.Timeout)
			defer cancel()
			curves, err := calc.Curves(ctx, ref)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ETTJ reference date %s\n", curves.ReferenceDate.Format(constants.DateLayout))
			for _, c := range []curve.Curve{curves.Pre, curves.NTNB} {
				fmt.Fprintf(w, "--- %s curve, %d vertices ---\n", c.Kind(), c.Len())
				fmt.Fprintf(w, "Business days | Rate\n")
				for _, v := range c.Vertices() {
					fmt.Fprintf(w, "%d | %s\n", v.BusinessDays, format.Percent(v.Rate, 4))
				}
			}
			return nil
		},
	}
	cmd.Flags().String("date", "", "reference date (YYYY-MM-DD or DD/MM/YYYY), default today")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "debenture-forecast %s (commit %s)\n", version, commit)
		},
	}
}
