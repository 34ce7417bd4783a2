package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"director/internal/output"
	"director/internal/pathutil"
	"director/internal/tracker"
)

var (
	issueProject  string
	issueSpecsDir string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Query and update tracker issues",
}

var issueShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a tracker issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueShowRun(cmd, args[0])
	},
}

var issueCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close a tracker issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueCloseRun(cmd, args[0])
	},
}

var issueVerifyCmd = &cobra.Command{
	Use:   "verify <id>",
	Short: "Check whether an issue has reached a terminal status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueVerifyRun(cmd, args[0])
	},
}

var issueDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Detect rogue tracker state directories under the specs tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueDoctorRun()
	},
}

func init() {
	issueCmd.PersistentFlags().StringVarP(&issueProject, "project", "p", ".", "Project directory")
	issueDoctorCmd.Flags().StringVar(&issueSpecsDir, "specs-dir", "specs", "Specs directory to scan")
	issueCmd.AddCommand(issueShowCmd)
	issueCmd.AddCommand(issueCloseCmd)
	issueCmd.AddCommand(issueVerifyCmd)
	issueCmd.AddCommand(issueDoctorCmd)
	rootCmd.AddCommand(issueCmd)
}

func trackerClient() *tracker.Client {
	return &tracker.Client{Executable: viper.GetString("tracker.executable")}
}

func issueShowRun(cmd *cobra.Command, id string) error {
	projectDir, err := pathutil.ResolveAbsolute(issueProject)
	if err != nil {
		return err
	}

	issue, err := trackerClient().LoadIssue(cmd.Context(), id, projectDir)
	if err != nil {
		return err
	}

	ui.Info("%s: %s", issue.ID, issue.Title)
	ui.Info("Status: %s", output.StatusColor(issue.Status))
	if issue.Priority != nil {
		ui.Info("Priority: %d", *issue.Priority)
	}
	if len(issue.Tags) > 0 {
		ui.Info("Tags: %s", strings.Join(issue.Tags, ", "))
	}
	if issue.Assignee != "" {
		ui.Info("Assignee: %s", issue.Assignee)
	}
	if issue.Description != "" {
		ui.VerboseLog("%s", issue.Description)
	}
	return nil
}

func issueCloseRun(cmd *cobra.Command, id string) error {
	projectDir, err := pathutil.ResolveAbsolute(issueProject)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would close issue %s", id)
		return nil
	}

	if err := trackerClient().CloseIssue(cmd.Context(), id, projectDir); err != nil {
		return err
	}
	ui.Success("Closed %s", id)
	return nil
}

func issueVerifyRun(cmd *cobra.Command, id string) error {
	projectDir, err := pathutil.ResolveAbsolute(issueProject)
	if err != nil {
		return err
	}

	if trackerClient().VerifyClosed(cmd.Context(), id, projectDir) {
		ui.Success("Issue %s is closed", id)
	} else {
		ui.Warning("Issue %s is not closed", id)
	}
	return nil
}

func issueDoctorRun() error {
	specsDir, err := pathutil.ResolveAbsolute(issueSpecsDir)
	if err != nil {
		return err
	}

	rogue := tracker.DetectRogueDirs(specsDir)
	if len(rogue) == 0 {
		ui.Success("No rogue tracker directories under %s", specsDir)
		return nil
	}

	ui.Warning("%d rogue tracker directories; migrate them into the root database:", len(rogue))
	for _, dir := range rogue {
		ui.Error("  %s", dir)
	}
	return nil
}
