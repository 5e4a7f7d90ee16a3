// Package cmd implements the ocrheader command line.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/ocrheader/internal/config"
	"github.com/MeKo-Tech/ocrheader/internal/version"
)

// Resolved once per process by the root PersistentPreRunE.
var (
	configLoader *config.Loader
	globalConfig *config.Config
	cfgFile      string
)

var rootCmd = &cobra.Command{
	Use:   "ocrheader",
	Short: "Read scanned PDF headers and file the documents",
	Long: `ocrheader reads the header of scanned PDF documents, extracts the item
name, document ID and date, and files each document under a name built from
those fields.

Folders come from the configuration file or from DATA_PATH, SUCCESS_PATH,
FAILED_PATH, BACKUP_PATH and LOG_PATH.

Examples:
  ocrheader run
  ocrheader watch
  ocrheader organize
  ocrheader serve --port 8080
  ocrheader results export --date 2025-02-05 -o results.xlsx`,
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogging(cfg)
		return nil
	},
}

// Execute runs the command line and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// GetRootCommand exposes the root for tests.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is search in ., $HOME/.config/ocrheader, /etc/ocrheader)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// loadConfig reads the configuration once per process.
func loadConfig() (*config.Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}
	configLoader = config.NewLoader()

	var err error
	if cfgFile != "" {
		globalConfig, err = configLoader.LoadWithFile(cfgFile)
	} else {
		globalConfig, err = configLoader.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}
	return globalConfig, nil
}

// GetConfig returns the loaded configuration, or defaults when loading failed.
func GetConfig() *config.Config {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Configuration unavailable, using defaults", "error", err)
		d := config.DefaultConfig()
		return &d
	}
	return cfg
}

func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}

// setupLogging installs the JSON handler on stderr. verbose forces debug.
func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	} else if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
