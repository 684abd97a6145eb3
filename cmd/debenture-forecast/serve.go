package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iwvelando/debenture-forecast/internal/calculator"
	"github.com/iwvelando/debenture-forecast/internal/server"
	"github.com/iwvelando/debenture-forecast/pkg/constants"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculation API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConfigPath, _ := cmd.Flags().GetString("server-config")
			logLevel, _ := cmd.Flags().GetString("log-level")

			cfg, err := server.LoadConfig(serverConfigPath)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("address"); addr != "" {
				cfg.Address = addr
			}

			conf := cfg.Calculation()
			logger, err := initializeLogger(conf.Logging, logLevel)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() {
				_ = logger.Sync()
			}()

			calc, err := calculator.NewFromConfig(logger, conf)
			if err != nil {
				return fmt.Errorf("failed to build calculator: %w", err)
			}

			httpSrv := &http.Server{
				Addr:         cfg.Address,
				Handler:      server.NewHandler(logger, calc, cfg, version),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening",
					zap.String("op", "main.serve"),
					zap.String("address", cfg.Address),
					zap.Bool("offline", conf.Market.Offline),
				)
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err, ok := <-errCh:
				if ok {
					return fmt.Errorf("HTTP server error: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down server", zap.String("op", "main.serve"))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().String("address", "", "listen address override")
	return cmd
}
