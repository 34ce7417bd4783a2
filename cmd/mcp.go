package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"director/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP stdio server for agent integration",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets coding agents query director natively. Configure with:

  {
    "mcpServers": {
      "director": { "command": "director", "args": ["mcp"] }
    }
  }

Available tools: director_query_plan, director_git_snapshot,
director_detect_conflicts, director_attempt_merge, director_success_rate,
director_recommend_parallelism, director_list_sessions`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		srv := mcp.NewServer(s, viper.GetString("metrics_path"), viper.GetString("plan.executable"))
		ui.VerboseLog("Starting MCP stdio server")
		return srv.ServeStdio(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
