// Package gitstate captures repository state and classifies merge outcomes
// for parallel agent runs. All git invocations address the repository with
// an explicit -C path; nothing here depends on the ambient working
// directory.
package gitstate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"director/internal/pathutil"
	"director/internal/timeout"
)

// ErrSnapshot wraps every snapshot failure (missing directory, missing git
// binary, not a repository) so callers see one named error instead of raw
// process failures.
var ErrSnapshot = errors.New("git snapshot")

// Snapshot is an immutable point-in-time capture of repository state, taken
// before spawning parallel agents and used for diagnostic comparison
// afterwards.
type Snapshot struct {
	Status        string   // raw `git status --porcelain` output
	Head          string   // current HEAD revision, 40-character hash
	ModifiedFiles []string // relative paths parsed from Status
}

// TakeSnapshot captures the status, HEAD revision, and modified paths of
// the repository at repoDir.
func TakeSnapshot(ctx context.Context, repoDir string) (*Snapshot, error) {
	dir, err := pathutil.ResolveAbsolute(repoDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: project directory does not exist: %s", ErrSnapshot, dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: project path is not a directory: %s", ErrSnapshot, dir)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.VerificationTimeout)
	defer cancel()

	status, err := pathutil.Run(ctx, "git", "-C", dir, "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	if status.ExitCode != 0 {
		return nil, fmt.Errorf("%w: git status failed: %s", ErrSnapshot, strings.TrimSpace(status.Stderr))
	}

	head, err := pathutil.Run(ctx, "git", "-C", dir, "rev-parse", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	if head.ExitCode != 0 {
		return nil, fmt.Errorf("%w: git rev-parse HEAD failed: %s", ErrSnapshot, strings.TrimSpace(head.Stderr))
	}

	return &Snapshot{
		Status:        status.Stdout,
		Head:          strings.TrimSpace(head.Stdout),
		ModifiedFiles: ParsePorcelain(status.Stdout),
	}, nil
}

// ParsePorcelain extracts modified file paths from `git status --porcelain`
// output. Each line carries a two-character status code, a space, then the
// path; rename lines ("old -> new") keep only the new path; blank lines are
// skipped.
func ParsePorcelain(output string) []string {
	if strings.TrimSpace(output) == "" {
		return nil
	}

	var files []string
	// Lines must not be trimmed wholesale: a leading space is a status code.
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if len(line) <= 3 {
			continue
		}
		name := strings.TrimSpace(line[3:])
		if idx := strings.LastIndex(name, " -> "); idx >= 0 {
			name = name[idx+len(" -> "):]
		}
		files = append(files, name)
	}
	return files
}
