package tracker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTrackerCLI writes an executable script standing in for the bd binary
// and returns its path.
func fakeTrackerCLI(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bd")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestLoadIssue_NormalizesFields(t *testing.T) {
	bd := fakeTrackerCLI(t, `cat <<'EOF'
{"id":"bd-42","title":"Add parser","description":"Parse things","tags":["core","parser"],"priority":1,"assignee":"agent","status":"in_progress"}
EOF`)

	c := &Client{Executable: bd}
	issue, err := c.LoadIssue(context.Background(), "bd-42", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "bd-42", issue.ID)
	assert.Equal(t, "Add parser", issue.Title)
	assert.Equal(t, []string{"core", "parser"}, issue.Tags)
	require.NotNil(t, issue.Priority)
	assert.Equal(t, 1, *issue.Priority)
	assert.Equal(t, "agent", issue.Assignee)
	assert.Equal(t, "in_progress", issue.Status)
}

func TestLoadIssue_DefaultsForMissingFields(t *testing.T) {
	bd := fakeTrackerCLI(t, `echo '{"title":"Sparse"}'`)

	c := &Client{Executable: bd}
	issue, err := c.LoadIssue(context.Background(), "bd-7", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "bd-7", issue.ID)
	require.NotNil(t, issue.Priority)
	assert.Equal(t, 2, *issue.Priority)
	assert.Equal(t, "open", issue.Status)
}

func TestLoadIssue_NonZeroExit(t *testing.T) {
	bd := fakeTrackerCLI(t, `echo "issue not found" >&2; exit 1`)

	c := &Client{Executable: bd}
	_, err := c.LoadIssue(context.Background(), "bd-404", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issue not found")
}

func TestLoadIssue_InvalidJSON(t *testing.T) {
	bd := fakeTrackerCLI(t, `echo 'not json'`)

	c := &Client{Executable: bd}
	_, err := c.LoadIssue(context.Background(), "bd-1", t.TempDir())
	require.Error(t, err)
}

func TestLoadIssue_ExecutableMissing(t *testing.T) {
	c := &Client{Executable: filepath.Join(t.TempDir(), "no-such-bd")}
	_, err := c.LoadIssue(context.Background(), "bd-1", t.TempDir())
	require.Error(t, err)
}

func TestVerifyClosed(t *testing.T) {
	for status, want := range map[string]bool{
		"closed":      true,
		"done":        true,
		"complete":    true,
		"completed":   true,
		"open":        false,
		"in_progress": false,
	} {
		bd := fakeTrackerCLI(t, fmt.Sprintf(`echo '{"id":"bd-1","status":"%s"}'`, status))
		c := &Client{Executable: bd}
		assert.Equal(t, want, c.VerifyClosed(context.Background(), "bd-1", t.TempDir()), "status %s", status)
	}
}

func TestVerifyClosed_TrackerFailureReadsNotClosed(t *testing.T) {
	bd := fakeTrackerCLI(t, `exit 1`)
	c := &Client{Executable: bd}
	assert.False(t, c.VerifyClosed(context.Background(), "bd-1", t.TempDir()))
}

func TestUpdateStatusAndClose(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "calls.log")
	bd := fakeTrackerCLI(t, fmt.Sprintf(`echo "$@" >> %s`, logPath))

	c := &Client{Executable: bd}
	require.NoError(t, c.UpdateStatus(context.Background(), "bd-1", "in_progress", dir))
	require.NoError(t, c.CloseIssue(context.Background(), "bd-1", dir))

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "update bd-1 --status in_progress")
	assert.Contains(t, string(data), "close bd-1")
}
