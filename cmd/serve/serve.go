package serve

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/codemedic/internal/config"
	"github.com/scan-io-git/codemedic/internal/logger"
	"github.com/scan-io-git/codemedic/internal/pipeline"
	"github.com/scan-io-git/codemedic/internal/server"
)

const shutdownTimeout = 10 * time.Second

var (
	AppConfig         *config.Config
	addr              string
	exampleServeUsage = `  # Serving the API on the address from the config file
  codemedic serve

  # Serving the API on a custom address
  codemedic serve --addr 127.0.0.1:9090`
)

// ServeCmd represents the serve command.
var ServeCmd = &cobra.Command{
	Use:                   "serve [--addr ADDRESS]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleServeUsage,
	Short:                 "Serves the analysis pipeline over a JSON HTTP API",
	RunE:                  runServeCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-serve")

	listenAddr := AppConfig.Server.Addr
	if addr != "" {
		listenAddr = addr
	}

	apiKey, err := config.ResolveAPIKey(AppConfig)
	if err != nil {
		logger.Error("failed to load credentials", "error", err)
		return err
	}

	ctx := cmd.Context()
	controller, closeFn, err := pipeline.NewFromConfig(ctx, AppConfig, apiKey, logger)
	if err != nil {
		logger.Error("failed to initialise the model backend", "error", err)
		return err
	}
	defer closeFn()

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           server.New(controller, AppConfig.Server.MaxCodeBytes, logger.Named("http")).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", listenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		return err
	}
	return nil
}

func init() {
	ServeCmd.Flags().StringVar(&addr, "addr", "", "Address to listen on. Overrides server.addr from the config file.")
	ServeCmd.Flags().BoolP("help", "h", false, "Show help for the serve command.")
}
