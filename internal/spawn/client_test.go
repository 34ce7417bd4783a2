package spawn

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"director/internal/models"
)

func testOptions(t *testing.T, agentContent string) Options {
	t.Helper()
	t.Setenv(TokenEnvVar, "test-token")

	project := t.TempDir()
	writeAgent(t, project, localAgentsDir, "builder", agentContent)

	return Options{
		AgentName:  "builder",
		ProjectDir: project,
		Model:      "default-model",
		MasterDir:  t.TempDir(),
	}
}

func TestNewRestrictedClient(t *testing.T) {
	opts := testOptions(t, sampleAgent)
	client, err := NewRestrictedClient(opts)
	require.NoError(t, err)

	// Frontmatter model wins over the configured default.
	assert.Equal(t, "sonnet", client.Model)
	assert.Equal(t, []string{"Read", "Write", "Bash"}, client.AllowedTools)
	assert.True(t, client.BashGranted)
	assert.Equal(t, DefaultMaxTurns, client.MaxTurns)
	assert.Equal(t, "You implement issues carefully.", client.SystemPrompt)

	// Profile was written into the project before the client exists.
	assert.FileExists(t, client.SettingsPath)
	assert.Equal(t, filepath.Join(client.ProjectDir, ProfileFile), client.SettingsPath)
}

func TestNewRestrictedClient_MissingToken(t *testing.T) {
	t.Setenv(TokenEnvVar, "")
	_, err := NewRestrictedClient(Options{AgentName: "builder", ProjectDir: t.TempDir()})
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestNewRestrictedClient_AgentNotFound(t *testing.T) {
	t.Setenv(TokenEnvVar, "test-token")
	_, err := NewRestrictedClient(Options{
		AgentName:  "ghost",
		ProjectDir: t.TempDir(),
		MasterDir:  t.TempDir(),
	})
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestNewRestrictedClient_NoFrontmatterModelKeepsDefault(t *testing.T) {
	opts := testOptions(t, "prompt only\n")
	client, err := NewRestrictedClient(opts)
	require.NoError(t, err)
	assert.Equal(t, "default-model", client.Model)
	assert.Equal(t, DefaultTools, client.AllowedTools)
}

func TestNewRestrictedClient_PromptPrefix(t *testing.T) {
	opts := testOptions(t, sampleAgent)
	opts.PromptPrefix = "Coordinator context"
	client, err := NewRestrictedClient(opts)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(client.SystemPrompt, "Coordinator context\n\n"))
}

func TestNewRestrictedClient_EmptyToolsGrantsNothing(t *testing.T) {
	opts := testOptions(t, "---\ntools: \"\"\n---\nprompt\n")
	client, err := NewRestrictedClient(opts)
	require.NoError(t, err)
	assert.Empty(t, client.AllowedTools)
	assert.False(t, client.BashGranted)
}

func TestClientRun_InvokesCLI(t *testing.T) {
	opts := testOptions(t, sampleAgent)

	// Fake CLI echoes its arguments and working directory.
	fake := filepath.Join(t.TempDir(), "claude")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\necho \"$@\"\npwd\n"), 0755))
	opts.Executable = fake

	client, err := NewRestrictedClient(opts)
	require.NoError(t, err)

	result, err := client.Run(context.Background(), "do the task")
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Output, "do the task")
	assert.Contains(t, result.Output, "--model sonnet")
	assert.Contains(t, result.Output, "--allowedTools Read,Write,Bash")
	assert.Contains(t, result.Output, client.ProjectDir)
	assert.Positive(t, result.Duration)
}

func TestClientRun_NonZeroExitInResult(t *testing.T) {
	opts := testOptions(t, sampleAgent)
	fake := filepath.Join(t.TempDir(), "claude")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\nexit 2\n"), 0755))
	opts.Executable = fake

	client, err := NewRestrictedClient(opts)
	require.NoError(t, err)

	result, err := client.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, 2, result.ExitCode)
}

func TestParseOutput(t *testing.T) {
	assert.Equal(t, "done", ParseOutput(`{"result":"done","is_error":false}`))
	assert.Equal(t, "text body", ParseOutput(`{"content":"text body"}`))
	assert.Equal(t, "plain text", ParseOutput("plain text"))
}

func TestBuildDelegationContext(t *testing.T) {
	prio := 1
	issue := &models.Issue{
		ID:          "bd-9",
		Title:       "Fix parser",
		Description: "Handles rename lines wrong",
		Tags:        []string{"bug", "parser"},
		Priority:    &prio,
	}

	ctx := BuildDelegationContext(issue, "You are a careful implementer.", "Fix the rename handling.")

	assert.Contains(t, ctx, "- ID: bd-9")
	assert.Contains(t, ctx, "- Title: Fix parser")
	assert.Contains(t, ctx, "- Tags: bug, parser")
	assert.Contains(t, ctx, "- Priority: 1")
	assert.Contains(t, ctx, "You are a careful implementer.")
	assert.Contains(t, ctx, "## Your Task\nFix the rename handling.")
	assert.Contains(t, ctx, "`bd update bd-9 --status in_progress`")
	assert.Contains(t, ctx, "`bd close bd-9`")
}

func TestBuildDelegationContext_Defaults(t *testing.T) {
	ctx := BuildDelegationContext(&models.Issue{}, "prompt", "task")
	assert.Contains(t, ctx, "- ID: unknown")
	assert.Contains(t, ctx, "- Title: Untitled")
	assert.Contains(t, ctx, "- Description: No description")
	assert.Contains(t, ctx, "- Priority: P2")
}
