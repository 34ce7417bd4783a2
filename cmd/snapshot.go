package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"director/internal/gitstate"
	"director/internal/pathutil"
)

var snapshotRepo string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture the git state of a repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		repoDir, err := pathutil.ResolveAbsolute(snapshotRepo)
		if err != nil {
			return err
		}

		snapshot, err := gitstate.TakeSnapshot(cmd.Context(), repoDir)
		if err != nil {
			return err
		}

		ui.Info("HEAD %s", snapshot.Head)
		if len(snapshot.ModifiedFiles) == 0 {
			ui.Success("Working tree clean")
			return nil
		}
		ui.Warning("%d modified files", len(snapshot.ModifiedFiles))
		for _, file := range snapshot.ModifiedFiles {
			fmt.Fprintf(ui.Out, "    %s\n", file)
		}
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotRepo, "repo", "r", ".", "Repository directory")
	rootCmd.AddCommand(snapshotCmd)
}
