package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"director/internal/metrics"
	"director/internal/output"
)

var (
	metricsAgent   string
	metricsWindow  time.Duration
	metricsCurrent int
	metricsLoad    int
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show execution metrics and success rate",
	Long: `Show the recorded execution history and success rate.

Running bare 'director metrics' is the same as 'director metrics show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return metricsShowRun()
	},
}

var metricsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show success rate and recent executions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return metricsShowRun()
	},
}

var metricsRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend the next parallelism level from recent outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		return metricsRecommendRun()
	},
}

func init() {
	metricsShowCmd.Flags().StringVar(&metricsAgent, "agent", "", "Only count executions by this agent type")
	metricsShowCmd.Flags().DurationVar(&metricsWindow, "window", 0, "Only count executions within this trailing window")
	metricsRecommendCmd.Flags().IntVar(&metricsCurrent, "current", 1, "Current parallelism level")
	metricsRecommendCmd.Flags().IntVar(&metricsLoad, "load", 0, "Current load (uses the load-bounded policy when set)")
	metricsCmd.AddCommand(metricsShowCmd)
	metricsCmd.AddCommand(metricsRecommendCmd)
	rootCmd.AddCommand(metricsCmd)
}

func metricsShowRun() error {
	path := viper.GetString("metrics_path")
	filter := metrics.Filter{AgentType: metricsAgent, TimeWindow: metricsWindow}

	rate, ok := metrics.SuccessRate(path, filter)
	if !ok {
		ui.Info("No matching executions recorded")
		return nil
	}
	ui.Info("Success rate: %s", output.RateColor(rate))

	records := metrics.LoadRecords(path)
	if len(records) == 0 {
		return nil
	}

	table := ui.Table([]string{"Issue", "Agent", "Status", "Duration", "Finished"})
	shown := records
	if len(shown) > 10 {
		shown = shown[len(shown)-10:]
	}
	for _, record := range shown {
		table.Append([]string{
			record.IssueID,
			record.AgentType,
			output.StatusColor(record.Status),
			fmt.Sprintf("%.1fs", record.Duration),
			record.EndTime.Format(time.RFC3339),
		})
	}
	return table.Render()
}

func metricsRecommendRun() error {
	path := viper.GetString("metrics_path")
	rounds := metrics.RoundsFromRecords(metrics.LoadRecords(path))
	if len(rounds) == 0 {
		ui.Info("No executions recorded, keeping current level %d", metricsCurrent)
		return nil
	}
	rate := metrics.CalculateSuccessRate(rounds, metrics.DefaultRateWindow)

	if metricsLoad > 0 {
		recommended := metrics.RecommendLoad(metricsLoad, rate)
		ui.Info("Success rate %s at load %d: recommend %d", output.RateColor(rate), metricsLoad, recommended)
		return nil
	}

	recommended := metrics.RecommendParallelism(rate, metricsCurrent)
	ui.Info("Success rate %s at parallelism %d: recommend %d", output.RateColor(rate), metricsCurrent, recommended)
	return nil
}
