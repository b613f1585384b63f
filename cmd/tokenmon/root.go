package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tokenmon",
	Short: "tokenmon - Live Claude token usage monitor",
	Long: `tokenmon watches Claude token consumption in real time: it polls the
ccusage reporter, computes the trailing-hour burn rate, and predicts when
the current quota runs out relative to the next session reset.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to the monitor command when no subcommand is provided
		return runMonitor(cmd, args)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
