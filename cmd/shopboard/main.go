package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/shopboard/internal/bootstrap"
	"github.com/creamcroissant/shopboard/internal/config"
	"github.com/creamcroissant/shopboard/internal/support/logging"
)

// Build info - injected via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "shopboard",
	Short:         "Shopboard storefront and admin API",
	Long:          `Shopboard serves the storefront and back-office JSON API: catalog, cart, checkout, orders and reporting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./config.yaml or /etc/shopboard/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.Options{
		Level:       cfg.Log.SlogLevel(),
		Format:      cfg.Log.Format,
		AddSource:   cfg.Log.AddSource,
		Environment: cfg.Log.Environment,
	})
}

func buildInfo() bootstrap.BuildInfo {
	return bootstrap.BuildInfo{Version: Version, Commit: Commit, BuildTime: BuildTime}
}
