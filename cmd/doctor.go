package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"director/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the required external tools are available",
	Long: `Check that the required external tools are available.

Verifies git, the agent CLI, the agent token, the issue tracker, and
the planning tool. Missing optional tools warn; missing required ones
fail.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorRun()
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func doctorRun() error {
	checker := health.NewChecker(
		"claude",
		viper.GetString("tracker.executable"),
		viper.GetString("plan.executable"),
	)

	checks := checker.Run()
	for _, ch := range checks {
		switch ch.Status {
		case health.StatusOK:
			ui.Success("%-16s %s", ch.Name, ch.Detail)
		case health.StatusWarn:
			ui.Warning("%-16s %s", ch.Name, ch.Detail)
		case health.StatusFail:
			ui.Error("%-16s %s", ch.Name, ch.Detail)
		}
	}

	if !health.Healthy(checks) {
		return fmt.Errorf("environment is not ready")
	}
	ui.Info("All required tools are available")
	return nil
}
