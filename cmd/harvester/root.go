package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Illustration ranking and author harvester",
	Long: `harvester - browser-driven illustration harvester

Runs as an HTTP service that accepts ranking and author jobs, or runs a
single job in-process and prints its summary.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override LOG_LEVEL (debug, info, warn, error)")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("harvester {{.Version}}\n")
}
