package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"director/internal/models"
	"director/internal/output"
	"director/internal/store"
)

var (
	sessionsIssue  string
	sessionsStatus string
	sessionsLimit  int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List spawned sub-agent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := getStore()
		if err != nil {
			return err
		}

		sessions, err := s.ListSessions(cmd.Context(), store.SessionFilter{
			IssueID: sessionsIssue,
			Status:  models.SessionStatus(sessionsStatus),
			Limit:   sessionsLimit,
		})
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			ui.Info("No sessions recorded")
			return nil
		}

		table := ui.Table([]string{"ID", "Issue", "Agent", "Status", "Started", "Outcome"})
		for _, session := range sessions {
			outcome := session.Outcome
			if len(outcome) > 60 {
				outcome = outcome[:57] + "..."
			}
			table.Append([]string{
				session.ID,
				session.IssueID,
				session.AgentType,
				output.StatusColor(string(session.Status)),
				session.StartedAt.Format(time.RFC3339),
				outcome,
			})
		}
		return table.Render()
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsIssue, "issue", "", "Filter by tracker issue id")
	sessionsCmd.Flags().StringVar(&sessionsStatus, "status", "", "Filter by session status")
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum sessions to list")
	rootCmd.AddCommand(sessionsCmd)
}
