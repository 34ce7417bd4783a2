package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"director/internal/cwdguard"
	"director/internal/gitstate"
	"director/internal/llm"
	"director/internal/metrics"
	"director/internal/models"
	"director/internal/pathutil"
	"director/internal/spawn"
	"director/internal/timeout"
	"director/internal/tracker"
)

var (
	runProject   string
	runAgent     string
	runTimeout   time.Duration
	runExpectCwd string
)

var runCmd = &cobra.Command{
	Use:   "run <issue-id>...",
	Short: "Spawn sub-agent sessions for tracker issues",
	Long: `Run coding-agent sessions against tracker issues.

Loads each issue, orders them most urgent first, and runs them one at a
time: mark in progress, snapshot the repository, spawn a restricted
sub-agent bounded by the session timeout, record the outcome in the
execution log, and verify the issue was closed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRun(cmd.Context(), args)
	},
}

func init() {
	runCmd.Flags().StringVarP(&runProject, "project", "p", ".", "Project directory the agent works in")
	runCmd.Flags().StringVarP(&runAgent, "agent", "a", spawn.FallbackAgent, "Agent definition name")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", timeout.DefaultSubagentTimeout, "Session timeout")
	runCmd.Flags().StringVar(&runExpectCwd, "expect-cwd", "", "Abort unless the process working directory matches")
	rootCmd.AddCommand(runCmd)
}

func runRun(ctx context.Context, issueIDs []string) error {
	if runExpectCwd != "" {
		if err := cwdguard.Validate(runExpectCwd); err != nil {
			return err
		}
	}

	projectDir, err := pathutil.ResolveAbsolute(runProject)
	if err != nil {
		return err
	}

	trackerClient := &tracker.Client{Executable: viper.GetString("tracker.executable")}
	issues, err := loadIssuesInPriorityOrder(ctx, trackerClient, issueIDs, projectDir)
	if err != nil {
		return err
	}

	for i := range issues {
		if err := runIssue(ctx, trackerClient, projectDir, &issues[i]); err != nil {
			return err
		}
	}
	return nil
}

// loadIssuesInPriorityOrder fetches every issue up front and orders them
// most urgent first, so a multi-issue run burns its session budget on the
// work that matters most.
func loadIssuesInPriorityOrder(ctx context.Context, trackerClient *tracker.Client, issueIDs []string, projectDir string) ([]models.Issue, error) {
	issues := make([]models.Issue, 0, len(issueIDs))
	for _, id := range issueIDs {
		issue, err := trackerClient.LoadIssue(ctx, id, projectDir)
		if err != nil {
			return nil, err
		}
		issues = append(issues, *issue)
	}
	return metrics.SortByPriority(issues), nil
}

func runIssue(ctx context.Context, trackerClient *tracker.Client, projectDir string, issue *models.Issue) error {
	ui.Info("Issue %s: %s", issue.ID, issue.Title)

	if dryRun {
		ui.DryRunMsg("Would spawn agent %q in %s for issue %s (timeout %s)",
			runAgent, projectDir, issue.ID, runTimeout)
		return nil
	}

	if err := trackerClient.UpdateStatus(ctx, issue.ID, string(models.IssueStatusInProgress), projectDir); err != nil {
		ui.Warning("Could not mark issue in progress: %v", err)
	}

	// Pre-session snapshot; advisory only.
	if snapshot, err := gitstate.TakeSnapshot(ctx, projectDir); err == nil {
		ui.VerboseLog("Snapshot at %s, %d modified files", snapshot.Head[:12], len(snapshot.ModifiedFiles))
	} else {
		ui.VerboseLog("No git snapshot: %v", err)
	}

	client, err := spawn.NewRestrictedClient(spawn.Options{
		AgentName:     runAgent,
		ProjectDir:    projectDir,
		Model:         viper.GetString("agent.model"),
		MasterDir:     viper.GetString("agent.master_dir"),
		EnableBrowser: viper.GetBool("agent.enable_browser"),
		MaxTurns:      viper.GetInt("agent.max_turns"),
	})
	if err != nil {
		return err
	}
	ui.VerboseLog("Agent %s (model %s, tools %v)", runAgent, client.Model, client.AllowedTools)
	if client.BashGranted {
		ui.VerboseLog("Shell access granted, commands validated by %q", spawn.BashHookCommand)
	}

	taskInstructions := buildTaskInstructions(ctx, issue)
	delegation := spawn.BuildDelegationContext(issue, client.SystemPrompt, taskInstructions)

	s, err := getStore()
	if err != nil {
		return err
	}
	session := &models.SpawnSession{
		IssueID:    issue.ID,
		AgentType:  runAgent,
		ProjectDir: projectDir,
		Model:      client.Model,
	}
	if err := s.CreateSession(ctx, session); err != nil {
		return err
	}

	start := time.Now()
	result := timeout.RunResult(ctx, runTimeout, "agent session",
		func(ctx context.Context) (spawn.Result, error) {
			return client.Run(ctx, delegation)
		}, nil)

	status, outcome := sessionOutcome(result)
	end := time.Now()

	if err := metrics.RecordExecution(issue.ID, runAgent, start, end, executionStatus(status), viper.GetString("metrics_path")); err != nil {
		ui.Warning("Could not record execution: %v", err)
	}
	if err := s.CompleteSession(ctx, session.ID, status, outcome); err != nil {
		ui.Warning("Could not update session: %v", err)
	}

	switch status {
	case models.SessionStatusTimedOut:
		ui.Error("Session timed out after %s", runTimeout)
	case models.SessionStatusFailed:
		ui.Error("Session failed: %s", outcome)
	case models.SessionStatusCancelled:
		ui.Warning("Session cancelled")
	default:
		ui.Success("Session completed in %s", result.Elapsed.Round(time.Second))
	}

	if trackerClient.VerifyClosed(ctx, issue.ID, projectDir) {
		ui.Success("Issue %s closed", issue.ID)
	} else {
		ui.Warning("Issue %s is not closed", issue.ID)
	}

	if status != models.SessionStatusCompleted {
		return fmt.Errorf("session ended with status %s", status)
	}
	return nil
}

// buildTaskInstructions asks the LLM for guidance when an API key is
// configured, falling back to the issue description.
func buildTaskInstructions(ctx context.Context, issue *models.Issue) string {
	apiKey := viper.GetString("anthropic.api_key")
	if apiKey == "" {
		return issue.Description
	}

	advisor := llm.NewClient(apiKey, viper.GetString("anthropic.model"))
	guidance, err := advisor.GenerateGuidance(ctx, issue)
	if err != nil {
		ui.VerboseLog("No LLM guidance: %v", err)
		return issue.Description
	}
	ui.VerboseLog("LLM guidance: %s", guidance.Summary)
	return guidance.TaskInstructions
}

// sessionOutcome maps a timeout result onto a session status and outcome
// message.
func sessionOutcome(result timeout.Result[spawn.Result]) (models.SessionStatus, string) {
	switch {
	case result.TimedOut:
		return models.SessionStatusTimedOut, fmt.Sprintf("timed out after %s", result.Elapsed.Round(time.Second))
	case errors.Is(result.Err, context.Canceled):
		return models.SessionStatusCancelled, result.Err.Error()
	case result.Err != nil:
		return models.SessionStatusFailed, result.Err.Error()
	case result.Value.ExitCode != 0:
		return models.SessionStatusFailed, fmt.Sprintf("agent exit code %d", result.Value.ExitCode)
	default:
		return models.SessionStatusCompleted, spawn.ParseOutput(result.Value.Output)
	}
}

func executionStatus(status models.SessionStatus) string {
	if status == models.SessionStatusCompleted {
		return metrics.StatusSuccess
	}
	return string(status)
}
