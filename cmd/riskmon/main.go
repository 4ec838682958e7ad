// riskmon is the supply chain risk monitor: an HTTP API over organizations,
// suppliers, and disruption events, an agent pipeline for risk analysis, and
// background workers polling external data feeds.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"riskmonitor/internal/config"
	"riskmonitor/internal/logging"
)

var (
	configPath string
	dbPath     string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "riskmon",
	Short: "Supply chain risk monitor",
	Long: `riskmon watches a supply chain for disruption risk.

It stores organizations, suppliers, and their dependency graph, analyzes
reported disruption events through a staged agent pipeline backed by Gemini,
and polls external feeds (GDELT, NOAA, weather, commodity and shipping data)
for conditions that threaten supplier sites.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		if err := logging.Initialize(cfg.Logging.Level); err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "riskmonitor.yaml", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "override the SQLite database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("riskmon %s\n", cfg.Version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
