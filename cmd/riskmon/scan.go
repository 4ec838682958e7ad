package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"riskmonitor/internal/config"
	"riskmonitor/internal/feeds"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a one-shot alert scan against the live feeds",
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	feedTimeout := cfg.GetFeedTimeout()
	detector := feeds.NewAlertDetector(st,
		feeds.NewGDELTClient(cfg.Feeds.GDELTBaseURL, feedTimeout),
		feeds.NewNOAAClient(cfg.Feeds.NOAABaseURL, feedTimeout),
		config.NewThresholds(cfg.Alerts))

	alerts, err := detector.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("alert scan: %w", err)
	}

	if len(alerts) == 0 {
		fmt.Println("No alerts triggered.")
		return nil
	}
	for _, a := range alerts {
		fmt.Printf("[%s] %s: %s (%d suppliers affected, impact %.1f)\n",
			a.Severity, a.EventType, a.Title, a.AffectedCount, a.ImpactScore)
	}
	return nil
}
