// Package tracker talks to the external issue tracker through its CLI and
// manages the per-project initialization marker files.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"director/internal/models"
	"director/internal/pathutil"
	"director/internal/timeout"
)

// DefaultExecutable is the issue tracker CLI binary name.
const DefaultExecutable = "bd"

// Client invokes the issue tracker CLI against a project directory. The
// tracker addresses its database by directory, so every invocation sets the
// command's directory explicitly per call rather than relying on the
// process working directory.
type Client struct {
	Executable string
}

// NewClient returns a Client using the default executable name.
func NewClient() *Client {
	return &Client{Executable: DefaultExecutable}
}

func (c *Client) executable() string {
	if c.Executable != "" {
		return c.Executable
	}
	return DefaultExecutable
}

// run executes a tracker CLI command rooted at projectDir under the CLI
// query timeout.
func (c *Client) run(ctx context.Context, projectDir string, args ...string) (pathutil.Output, error) {
	dir, err := pathutil.ResolveAbsolute(projectDir)
	if err != nil {
		return pathutil.Output{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout.CLIQueryTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.executable(), args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	out := pathutil.Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok && ctx.Err() == nil {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		return out, fmt.Errorf("exec %s: %w", c.executable(), runErr)
	}
	return out, nil
}

// rawIssue mirrors the tracker's JSON field names before normalization.
type rawIssue struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Priority    *int     `json:"priority"`
	Assignee    string   `json:"assignee"`
	Status      string   `json:"status"`
}

// defaultPriority applies when the tracker reports no priority (0-4 scale,
// 2 = medium).
const defaultPriority = 2

// LoadIssue fetches an issue as structured data via `show --json` and
// normalizes its fields. Missing priority defaults to medium; missing
// status defaults to open.
func (c *Client) LoadIssue(ctx context.Context, issueID, projectDir string) (*models.Issue, error) {
	out, err := c.run(ctx, projectDir, "show", issueID, "--json")
	if err != nil {
		return nil, fmt.Errorf("tracker show %s: %w", issueID, err)
	}
	if out.ExitCode != 0 {
		return nil, fmt.Errorf("tracker show %s: exit %d: %s", issueID, out.ExitCode, strings.TrimSpace(out.Stderr))
	}

	var raw rawIssue
	if err := json.Unmarshal([]byte(out.Stdout), &raw); err != nil {
		return nil, fmt.Errorf("tracker show %s: parse response: %w", issueID, err)
	}

	issue := &models.Issue{
		ID:          raw.ID,
		Title:       raw.Title,
		Description: raw.Description,
		Tags:        raw.Tags,
		Priority:    raw.Priority,
		Assignee:    raw.Assignee,
		Status:      raw.Status,
	}
	if issue.ID == "" {
		issue.ID = issueID
	}
	if issue.Priority == nil {
		p := defaultPriority
		issue.Priority = &p
	}
	if issue.Status == "" {
		issue.Status = string(models.IssueStatusOpen)
	}
	return issue, nil
}

// UpdateStatus transitions an issue to the given status.
func (c *Client) UpdateStatus(ctx context.Context, issueID, status, projectDir string) error {
	out, err := c.run(ctx, projectDir, "update", issueID, "--status", status)
	if err != nil {
		return fmt.Errorf("tracker update %s: %w", issueID, err)
	}
	if out.ExitCode != 0 {
		return fmt.Errorf("tracker update %s: exit %d: %s", issueID, out.ExitCode, strings.TrimSpace(out.Stderr))
	}
	return nil
}

// CloseIssue marks an issue closed.
func (c *Client) CloseIssue(ctx context.Context, issueID, projectDir string) error {
	out, err := c.run(ctx, projectDir, "close", issueID)
	if err != nil {
		return fmt.Errorf("tracker close %s: %w", issueID, err)
	}
	if out.ExitCode != 0 {
		return fmt.Errorf("tracker close %s: exit %d: %s", issueID, out.ExitCode, strings.TrimSpace(out.Stderr))
	}
	return nil
}

// VerifyClosed reports whether an issue has reached a terminal status.
// Verification is advisory: any tracker failure reads as not-closed.
func (c *Client) VerifyClosed(ctx context.Context, issueID, projectDir string) bool {
	issue, err := c.LoadIssue(ctx, issueID, projectDir)
	if err != nil {
		return false
	}
	return issue.Closed()
}
