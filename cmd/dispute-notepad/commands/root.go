// Package commands implements the dispute-notepad command line.
package commands

import (
	"fmt"

	"dispute-notepad/internal/config"
	"dispute-notepad/internal/observability"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags
var version = "0.1.0"

var (
	cfgFile  string
	strategy string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "dispute-notepad",
	Short: "Dispute Processing Notepad - next-action suggestions and dispute forms",
	Long: `The notepad suggests next actions for pasted dispute notes, either from a
keyword dictionary or from one instruction document through a generative
model, and renders the manual dispute form as a copyable text block.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVarP(&strategy, "strategy", "s", "", "recommendation strategy override (keyword or retrieval)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads the configuration and applies the persistent flags
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	if strategy != "" {
		cfg.Recommender.Strategy = strategy
		if err := cfg.Validate(); err != nil {
			return nil, zerolog.Nop(), fmt.Errorf("validate config: %w", err)
		}
	}

	if verbose {
		cfg.Observability.LogLevel = "debug"
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	return cfg, logger, nil
}
