package spawn

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ProfileFile is the per-project security profile written before each spawn.
const ProfileFile = ".claude_subagent_settings.json"

// DefaultTools is the tool set granted when frontmatter carries no tools
// field at all. An explicitly empty field grants nothing.
var DefaultTools = []string{"Read", "Write", "Edit", "Glob", "Grep", "Bash"}

// fileScopedTools are restricted to the project directory in the profile.
var fileScopedTools = map[string]bool{
	"Read":  true,
	"Write": true,
	"Edit":  true,
	"Glob":  true,
	"Grep":  true,
}

// BrowserTools are the browser-automation MCP tools optionally appended to
// the allowlist.
var BrowserTools = []string{
	"mcp__puppeteer__puppeteer_navigate",
	"mcp__puppeteer__puppeteer_screenshot",
	"mcp__puppeteer__puppeteer_click",
	"mcp__puppeteer__puppeteer_fill",
	"mcp__puppeteer__puppeteer_select",
	"mcp__puppeteer__puppeteer_hover",
	"mcp__puppeteer__puppeteer_evaluate",
}

// ParseToolList extracts the allowed tool names from frontmatter. A missing
// tools field means the default set; an empty field means no tools.
func ParseToolList(fm Frontmatter) []string {
	raw, present := fm["tools"]
	if !present {
		return append([]string(nil), DefaultTools...)
	}
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}

	var tools []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			tools = append(tools, name)
		}
	}
	return tools
}

// SandboxSettings enables OS-level command isolation for the sub-agent.
type SandboxSettings struct {
	Enabled              bool `json:"enabled"`
	AutoAllowBashSandbox bool `json:"autoAllowBashIfSandboxed"`
}

// PermissionSettings carries the tool permission allowlist.
type PermissionSettings struct {
	DefaultMode string   `json:"defaultMode"`
	Allow       []string `json:"allow"`
}

// HookCommand is one command-type hook entry in the settings document.
type HookCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
}

// HookMatcher binds hook commands to the tool calls they intercept.
type HookMatcher struct {
	Matcher string        `json:"matcher"`
	Hooks   []HookCommand `json:"hooks"`
}

// HookSettings maps hook event names to their matchers.
type HookSettings map[string][]HookMatcher

// SecurityProfile is the settings document written per project and handed
// to the agent runtime.
type SecurityProfile struct {
	Sandbox     SandboxSettings    `json:"sandbox"`
	Permissions PermissionSettings `json:"permissions"`
	Hooks       HookSettings       `json:"hooks,omitempty"`
}

// BuildSecurityProfile converts a tool list into a security profile.
// File-scoped tools are granted only within the project directory; unknown
// tool names pass through unchanged; browser tools are appended when
// enabled. Bash gets a wildcard in the allowlist plus a PreToolUse hook
// that validates each command at run time. The hook is attached only when
// shell access was actually granted.
func BuildSecurityProfile(allowedTools []string, enableBrowser bool) SecurityProfile {
	allow := make([]string, 0, len(allowedTools)+len(BrowserTools))
	bashGranted := false
	for _, tool := range allowedTools {
		switch {
		case fileScopedTools[tool]:
			allow = append(allow, fmt.Sprintf("%s(./**)", tool))
		case tool == "Bash":
			allow = append(allow, "Bash(*)")
			bashGranted = true
		default:
			allow = append(allow, tool)
		}
	}
	if enableBrowser {
		allow = append(allow, BrowserTools...)
	}

	profile := SecurityProfile{
		Sandbox: SandboxSettings{
			Enabled:              true,
			AutoAllowBashSandbox: true,
		},
		Permissions: PermissionSettings{
			DefaultMode: "acceptEdits",
			Allow:       allow,
		},
	}
	if bashGranted {
		profile.Hooks = HookSettings{
			"PreToolUse": {{
				Matcher: "Bash",
				Hooks:   []HookCommand{{Type: "command", Command: BashHookCommand}},
			}},
		}
	}
	return profile
}

// WriteProfile persists a security profile into projectDir, creating the
// directory if needed, and returns the file path.
func WriteProfile(profile SecurityProfile, projectDir string) (string, error) {
	if err := os.MkdirAll(projectDir, 0755); err != nil {
		return "", fmt.Errorf("create project dir: %w", err)
	}

	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal security profile: %w", err)
	}

	path := filepath.Join(projectDir, ProfileFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write security profile: %w", err)
	}
	return path, nil
}
