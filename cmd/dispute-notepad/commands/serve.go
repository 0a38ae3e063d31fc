package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"dispute-notepad/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the notepad page and JSON API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	logger.Info().
		Str("addr", cfg.Addr()).
		Str("strategy", cfg.Recommender.Strategy).
		Str("version", version).
		Msg("Starting dispute notepad")

	ctx := context.Background()
	deps, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}

	monitor := server.NewHealthMonitor(version)
	manager := server.NewServiceManager(
		deps.recommender,
		deps.vectorDB,
		deps.llmClient,
		monitor.GetMetricsCollector(),
		server.DefaultServiceConfig(),
		logger,
	)
	if err := manager.Start(ctx); err != nil {
		deps.close()
		return err
	}
	defer manager.Stop()

	router := server.NewRouter(
		server.NewHandler(manager, monitor, logger),
		server.RouterConfig{RequestTimeout: cfg.Server.RequestTimeout},
		logger,
	)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server error")
			return err
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
	return nil
}
