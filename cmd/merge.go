package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"director/internal/gitstate"
	"director/internal/output"
	"director/internal/pathutil"
)

var mergeRepo string

var mergeCmd = &cobra.Command{
	Use:   "merge <branch>",
	Short: "Merge a session branch and classify the result",
	Long: `Attempt to merge a branch into the current branch of the repository.

The result is classified as merged, conflict (listing the conflicted
files), or error; the command itself never fails on a merge problem.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return mergeRun(cmd, args[0])
	},
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "List files currently in merge-conflict state",
	RunE: func(cmd *cobra.Command, args []string) error {
		return conflictsRun(cmd)
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeRepo, "repo", "r", ".", "Repository directory")
	conflictsCmd.Flags().StringVarP(&mergeRepo, "repo", "r", ".", "Repository directory")
	rootCmd.AddCommand(mergeCmd)
	rootCmd.AddCommand(conflictsCmd)
}

func mergeRun(cmd *cobra.Command, branch string) error {
	repoDir, err := pathutil.ResolveAbsolute(mergeRepo)
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would merge branch %q in %s", branch, repoDir)
		return nil
	}

	result := gitstate.AttemptMerge(cmd.Context(), branch, repoDir)
	switch result.Status {
	case gitstate.MergeStatusMerged:
		ui.Success("Merged %s", branch)
	case gitstate.MergeStatusConflict:
		ui.Warning("Merge conflict on %s", branch)
		for _, file := range result.ConflictedFiles {
			fmt.Fprintf(ui.Out, "    %s\n", output.Red(file))
		}
	default:
		ui.Error("Merge failed: %s", result.Message)
	}
	return nil
}

func conflictsRun(cmd *cobra.Command) error {
	repoDir, err := pathutil.ResolveAbsolute(mergeRepo)
	if err != nil {
		return err
	}

	conflicts := gitstate.DetectConflicts(cmd.Context(), repoDir)
	if len(conflicts) == 0 {
		ui.Success("No conflicted files")
		return nil
	}
	for _, file := range conflicts {
		fmt.Fprintf(ui.Out, "%s\n", output.Red(file))
	}
	return nil
}
