package spawn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"director/internal/pathutil"
)

// TokenEnvVar must be set before any sub-agent can be spawned.
const TokenEnvVar = "CLAUDE_CODE_OAUTH_TOKEN"

// ErrMissingToken indicates the spawn credential is absent from the
// environment.
var ErrMissingToken = errors.New(TokenEnvVar + " environment variable not set; run 'claude setup-token' after installing the CLI")

// DefaultMaxTurns bounds a sub-agent conversation.
const DefaultMaxTurns = 1000

// Options configures a restricted sub-agent client.
type Options struct {
	AgentName     string
	ProjectDir    string
	Model         string
	MasterDir     string // empty means the default master root
	PromptPrefix  string // optional text prepended to the agent prompt
	EnableBrowser bool
	MaxTurns      int
	Executable    string // claude CLI path, empty means "claude" on PATH
}

// Client runs a sub-agent through the claude CLI with the security profile
// and tool allowlist derived from its definition. Construct with
// NewRestrictedClient; every field is decided there.
type Client struct {
	AgentName    string
	ProjectDir   string
	Model        string
	SystemPrompt string
	AllowedTools []string
	SettingsPath string
	MaxTurns     int
	Frontmatter  Frontmatter
	BashGranted  bool

	executable string
}

// Result is the outcome of one sub-agent invocation.
type Result struct {
	Output   string
	ExitCode int
	Duration time.Duration
}

// agentOutput is the JSON envelope the CLI prints in print mode.
type agentOutput struct {
	Result  string `json:"result"`
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// NewRestrictedClient builds a sub-agent client: loads the definition with
// the priority cascade, derives the tool allowlist, writes the project
// security profile, and verifies the spawn credential. Any failure aborts
// the whole construction; there is no partially configured client.
func NewRestrictedClient(opts Options) (*Client, error) {
	if os.Getenv(TokenEnvVar) == "" {
		return nil, ErrMissingToken
	}

	projectDir, err := pathutil.ResolveAbsolute(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	def, err := LoadDefinition(opts.AgentName, projectDir, opts.MasterDir)
	if err != nil {
		return nil, err
	}

	// Frontmatter model overrides the configured default.
	model := opts.Model
	if fmModel, ok := def.Frontmatter["model"]; ok && fmModel != "" {
		model = fmModel
	}

	allowedTools := ParseToolList(def.Frontmatter)
	profile := BuildSecurityProfile(allowedTools, opts.EnableBrowser)
	settingsPath, err := WriteProfile(profile, projectDir)
	if err != nil {
		return nil, err
	}

	prompt := def.Prompt
	if opts.PromptPrefix != "" {
		prompt = opts.PromptPrefix + "\n\n" + prompt
	}

	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	executable := opts.Executable
	if executable == "" {
		executable = "claude"
	}

	bashGranted := false
	for _, tool := range allowedTools {
		if tool == "Bash" {
			bashGranted = true
			break
		}
	}

	return &Client{
		AgentName:    opts.AgentName,
		ProjectDir:   projectDir,
		Model:        model,
		SystemPrompt: prompt,
		AllowedTools: allowedTools,
		SettingsPath: settingsPath,
		MaxTurns:     maxTurns,
		Frontmatter:  def.Frontmatter,
		BashGranted:  bashGranted,
		executable:   executable,
	}, nil
}

// buildArgs assembles the CLI invocation for a task prompt.
func (c *Client) buildArgs(task string) []string {
	args := []string{
		"-p", task,
		"--model", c.Model,
		"--settings", c.SettingsPath,
		"--max-turns", fmt.Sprintf("%d", c.MaxTurns),
		"--output-format", "json",
	}
	if c.SystemPrompt != "" {
		args = append(args, "--append-system-prompt", c.SystemPrompt)
	}
	if len(c.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(c.AllowedTools, ","))
	}
	return args
}

// Run executes one task in the sub-agent. The agent works inside the project
// directory, set explicitly per invocation. Non-zero agent exits come back
// in Result.ExitCode; only process-level failures return an error.
func (c *Client) Run(ctx context.Context, task string) (Result, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, c.executable, c.buildArgs(task)...)
	cmd.Dir = c.ProjectDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result := Result{
		Output:   stdout.String(),
		Duration: time.Since(start),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) && ctx.Err() == nil {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		return result, fmt.Errorf("exec %s: %w", c.executable, runErr)
	}
	return result, nil
}

// ParseOutput extracts the agent's text from the CLI's JSON envelope.
// Non-JSON output is returned verbatim rather than rejected.
func ParseOutput(output string) string {
	var parsed agentOutput
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		return output
	}
	if parsed.Result != "" {
		return parsed.Result
	}
	if parsed.Content != "" {
		return parsed.Content
	}
	return output
}
