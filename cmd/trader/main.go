package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	configEnv  string
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Periodic LLM-advised crypto trader",
	Long: `trader runs a decision cycle per interval: it evaluates every configured
instrument with the advisory model, gates weak signals, executes sells before
buys and records the outcome in the portfolio status file.

Examples:
  trader run --config config/base.yaml --env dry_run
  trader once
  trader status`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/base.yaml", "base config file")
	rootCmd.PersistentFlags().StringVarP(&configEnv, "env", "e", os.Getenv("TRADER_ENV"), "config overlay name (<config dir>/<env>.yaml)")

	rootCmd.AddCommand(runCmd, onceCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
