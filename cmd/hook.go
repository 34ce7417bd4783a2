package cmd

import (
	"github.com/spf13/cobra"

	"director/internal/spawn"
)

// Hook endpoints are invoked by the agent runtime, not by people, so the
// whole group is hidden from help output.
var hookCmd = &cobra.Command{
	Use:    "hook",
	Short:  "Runtime hook endpoints for spawned agents",
	Hidden: true,
}

var hookBashCmd = &cobra.Command{
	Use:   "bash",
	Short: "Validate one Bash tool call delivered on stdin",
	Long: `Validate one Bash tool call delivered on stdin.

The spawn security profile wires this command as the PreToolUse hook for
Bash whenever shell access was granted. It reads the tool-call event from
stdin and writes an allow or deny decision to stdout.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return spawn.EvaluateBashHook(cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	hookCmd.AddCommand(hookBashCmd)
	rootCmd.AddCommand(hookCmd)
}
