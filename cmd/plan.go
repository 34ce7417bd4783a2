package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"director/internal/plan"
)

var planRaw bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the planning tool's robot execution plan",
	Long: `Query the planning tool for its robot execution plan and show the
phases and tasks in dependency order. The tool is optional: when it is
missing or fails, the reason is reported instead of an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return planRun(cmd)
	},
}

func init() {
	planCmd.Flags().BoolVar(&planRaw, "raw", false, "Print the raw plan output without parsing")
	rootCmd.AddCommand(planCmd)
}

func planRun(cmd *cobra.Command) error {
	result := plan.Query(cmd.Context(), viper.GetString("plan.executable"))
	if !result.Success {
		ui.Warning("%s", result.Message)
		return nil
	}

	if planRaw {
		fmt.Fprint(ui.Out, result.RawOutput)
		return nil
	}

	if len(result.Phases) == 0 {
		ui.Info("Plan has no phases")
		return nil
	}

	for _, phase := range result.Phases {
		ui.Info("%s", phase.Name)
		for _, task := range phase.Tasks {
			fmt.Fprintf(ui.Out, "    - %s\n", task)
		}
	}
	return nil
}
