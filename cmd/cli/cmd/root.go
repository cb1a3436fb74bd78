// Package cmd provides the CLI commands for capwedge.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"capwedge/internal/config"
	"capwedge/internal/logging"
)

var (
	cfgFile string
	verbose bool
	dataDir string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "capwedge",
	Short: "Calculate effective marginal tax rates on capital income",
	Long: `capwedge computes effective marginal tax rates (EMTRs) on new
investment, per industry, asset type, legal form, financing source and
savings account category, and aggregates them into summary tables.

Examples:
  capwedge run
  capwedge run --policy current_law
  capwedge compare current_law reform
  capwedge scenarios`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (HCL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "parameter data directory (overrides config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(scenariosCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	cfg := config.Get()
	if dataDir != "" {
		cfg.Data.Dir = dataDir
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(*cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("capwedge version 0.1.0")
	},
}
