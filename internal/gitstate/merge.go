package gitstate

import (
	"context"
	"strings"

	"director/internal/pathutil"
	"director/internal/timeout"
)

// MergeStatus classifies the outcome of a merge attempt.
type MergeStatus string

const (
	MergeStatusMerged   MergeStatus = "merged"
	MergeStatusConflict MergeStatus = "conflict"
	MergeStatusError    MergeStatus = "error"
)

// MergeResult is the classified outcome of one merge attempt. Message is
// populated whenever Status is not merged; ConflictedFiles only when Status
// is conflict.
type MergeResult struct {
	Status          MergeStatus
	Message         string
	ConflictedFiles []string
}

// AttemptMerge merges branch into the current branch of the repository at
// repoDir and classifies the outcome. Merges race with concurrent agents by
// nature, so this always resolves to one of the three statuses: subprocess
// failures (git missing, crashed) are reported as MergeStatusError, never
// propagated.
func AttemptMerge(ctx context.Context, branch, repoDir string) MergeResult {
	dir, err := pathutil.ResolveAbsolute(repoDir)
	if err != nil {
		return MergeResult{Status: MergeStatusError, Message: err.Error()}
	}

	out, err := pathutil.Run(ctx, "git", "-C", dir, "merge", branch)
	if err != nil {
		return MergeResult{Status: MergeStatusError, Message: err.Error()}
	}

	result := ClassifyMerge(out.ExitCode, out.Stdout, out.Stderr)
	if result.Status == MergeStatusConflict {
		result.ConflictedFiles = DetectConflicts(ctx, dir)
	}
	return result
}

// ClassifyMerge maps a merge invocation's exit code and output to a
// MergeResult. Exit 0 is a clean merge; a non-zero exit whose combined
// output mentions "conflict" (case-insensitive) is a conflict; anything
// else is an error carrying the raw output.
func ClassifyMerge(exitCode int, stdout, stderr string) MergeResult {
	if exitCode == 0 {
		return MergeResult{Status: MergeStatusMerged}
	}

	message := strings.TrimSpace(stderr)
	if message == "" {
		message = strings.TrimSpace(stdout)
	}

	combined := strings.ToLower(stdout + "\n" + stderr)
	if strings.Contains(combined, "conflict") {
		return MergeResult{Status: MergeStatusConflict, Message: message}
	}
	return MergeResult{Status: MergeStatusError, Message: message}
}

// DetectConflicts lists files in an unmerged state in the repository at
// repoDir. Conflict detection is advisory: it returns an empty list on any
// failure rather than aborting a workflow.
func DetectConflicts(ctx context.Context, repoDir string) []string {
	dir, err := pathutil.ResolveAbsolute(repoDir)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.CLIQueryTimeout)
	defer cancel()

	out, err := pathutil.Run(ctx, "git", "-C", dir, "diff", "--name-only", "--diff-filter=U")
	if err != nil || out.ExitCode != 0 {
		return nil
	}

	return ParseConflictList(out.Stdout)
}

// ParseConflictList splits `git diff --name-only` output into paths,
// one per non-blank line.
func ParseConflictList(output string) []string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return nil
	}
	var files []string
	for _, line := range strings.Split(trimmed, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files
}
