package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/yanet-platform/tsguard/common/go/xcmd"
	"github.com/yanet-platform/tsguard/tsguard"
)

var cmd Cmd

// Cmd is the command line arguments.
type Cmd struct {
	// ConfigPath is the path to the configuration file.
	ConfigPath string
	// LogLevel overrides the logging level of the configuration.
	LogLevel string
}

var rootCmd = &cobra.Command{
	Use:   "tsguard",
	Short: "TCP timestamp option analyzer and capture rewriter",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&cmd.LogLevel, "log-level", "", "Logging level, overrides the configuration")

	rootCmd.AddCommand(
		analyzeCmd,
		stripCmd,
		synthesizeCmd,
		inspectCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

// execute runs the body of a subcommand, exiting the process on failure.
func execute(run func() error) {
	if err := run(); err != nil {
		if errors.Is(err, xcmd.Interrupted{}) {
			return
		}

		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration file, if any, and applies the global
// flag overrides.
func loadConfig(cmd Cmd) (*tsguard.Config, error) {
	cfg := tsguard.DefaultConfig()
	if cmd.ConfigPath != "" {
		var err error
		cfg, err = tsguard.LoadConfig(cmd.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if cmd.LogLevel != "" {
		level, err := zapcore.ParseLevel(cmd.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("failed to parse log level: %w", err)
		}
		cfg.Logging.Level = level
	}

	return cfg, nil
}
