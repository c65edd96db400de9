package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Callisto - metrics telemetry hub",
	Long: `Callisto collects periodic health/usage samples from independent
services and makes them observable three ways over one durable write path:

  - Pull query APIs (known services, per-service series, latest snapshot)
  - A live push stream of every ingested sample (server-sent events)
  - A pull exposition endpoint for external scrapers, with a derived
    "services up" gauge

Samples are persisted in an append-only SQLite time series; the live
stream is a best-effort fan-out on top of it.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
