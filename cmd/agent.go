package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"director/internal/pathutil"
	"director/internal/spawn"
)

var agentProject string

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Inspect agent definitions",
}

var agentShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show an agent definition after cascade resolution",
	Long: `Resolve an agent definition the way a spawn would: project-local
first, then the master directory, then the fallback agent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return agentShowRun(args[0])
	},
}

var agentProfileCmd = &cobra.Command{
	Use:   "profile <name>",
	Short: "Show the security profile an agent would receive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return agentProfileRun(args[0])
	},
}

func init() {
	agentCmd.PersistentFlags().StringVarP(&agentProject, "project", "p", ".", "Project directory")
	agentCmd.AddCommand(agentShowCmd)
	agentCmd.AddCommand(agentProfileCmd)
	rootCmd.AddCommand(agentCmd)
}

func loadAgentDefinition(name string) (*spawn.Definition, error) {
	projectDir, err := pathutil.ResolveAbsolute(agentProject)
	if err != nil {
		return nil, err
	}
	return spawn.LoadDefinition(name, projectDir, viper.GetString("agent.master_dir"))
}

func agentShowRun(name string) error {
	def, err := loadAgentDefinition(name)
	if err != nil {
		return err
	}

	ui.Info("Definition: %s", def.Path)
	model := def.Frontmatter["model"]
	if model == "" {
		model = viper.GetString("agent.model") + " (default)"
	}
	ui.Info("Model: %s", model)
	ui.Info("Tools: %s", strings.Join(spawn.ParseToolList(def.Frontmatter), ", "))

	if verbose {
		fmt.Fprintln(ui.Out)
		fmt.Fprintln(ui.Out, def.Prompt)
	}
	return nil
}

func agentProfileRun(name string) error {
	def, err := loadAgentDefinition(name)
	if err != nil {
		return err
	}

	tools := spawn.ParseToolList(def.Frontmatter)
	profile := spawn.BuildSecurityProfile(tools, viper.GetBool("agent.enable_browser"))

	ui.Info("Sandbox: enabled=%t", profile.Sandbox.Enabled)
	ui.Info("Default mode: %s", profile.Permissions.DefaultMode)
	for _, allow := range profile.Permissions.Allow {
		fmt.Fprintf(ui.Out, "    %s\n", allow)
	}
	for _, matcher := range profile.Hooks["PreToolUse"] {
		for _, hook := range matcher.Hooks {
			ui.Info("PreToolUse hook (%s): %s", matcher.Matcher, hook.Command)
		}
	}
	return nil
}
