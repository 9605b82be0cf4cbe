package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/shopboard/internal/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background jobs",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	app, err := bootstrap.NewApp(ctx, cfg, logger, buildInfo())
	if err != nil {
		return err
	}
	defer app.Close()

	app.Scheduler.Start()
	server := bootstrap.NewHTTPServer(cfg.HTTP, app.Router())

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTP.Addr, "env", cfg.Log.Environment, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down http server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	select {
	case <-app.Scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("jobs still running at shutdown deadline")
	}
	logger.Info("server exited cleanly")
	return nil
}
