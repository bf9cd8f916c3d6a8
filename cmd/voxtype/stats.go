package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peteonrails/voxtype/internal/config"
	"github.com/peteonrails/voxtype/internal/metrics"
)

// newStatsCmd reports the time-saved and per-model usage totals the daemon
// has been recording to the metrics directory, if metrics are enabled.
func newStatsCmd() *cobra.Command {
	var today bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show dictation usage stats (words transcribed, time saved)",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.GetMetricsDir()
			if err != nil {
				return fmt.Errorf("metrics directory: %w", err)
			}
			mgr, err := metrics.NewMetricsManager(dir)
			if err != nil {
				return fmt.Errorf("open metrics: %w", err)
			}

			formatter := metrics.NewStatsFormatter()

			if today {
				daily, err := mgr.GetTodayMetrics()
				if err != nil {
					return fmt.Errorf("today's metrics: %w", err)
				}
				if daily.SessionCount == 0 {
					fmt.Println("No dictation sessions recorded today.")
					return nil
				}
				fmt.Printf("📈 Today: %d words, %d sessions\n", daily.TotalWords, daily.SessionCount)
				if breakdown := formatter.FormatModelBreakdown(daily); breakdown != "" {
					fmt.Println(breakdown)
				}
				return nil
			}

			total, err := mgr.GetTotalMetrics()
			if err != nil {
				return fmt.Errorf("total metrics: %w", err)
			}
			fmt.Println(formatter.FormatTotalStats(total))
			return nil
		},
	}

	cmd.Flags().BoolVar(&today, "today", false, "show only today's totals and per-model breakdown")
	return cmd
}
