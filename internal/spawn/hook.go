package spawn

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// BashHookCommand is what the agent runtime executes for every Bash
// PreToolUse event. The static profile grants Bash(*); this endpoint is
// where the command is actually validated.
const BashHookCommand = "director hook bash"

// HookEvent is the PreToolUse payload the runtime delivers on stdin.
type HookEvent struct {
	ToolName  string `json:"tool_name"`
	ToolInput struct {
		Command string `json:"command"`
	} `json:"tool_input"`
}

// HookDecision is the response the runtime expects on stdout.
type HookDecision struct {
	HookSpecificOutput HookOutput `json:"hookSpecificOutput"`
}

// HookOutput carries the permission verdict for one tool call.
type HookOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason,omitempty"`
}

// deniedBashPatterns block commands no delegated session has a reason to
// run. The sandbox is the primary isolation layer; this list catches what
// would be destructive even inside it.
var deniedBashPatterns = []string{
	"sudo ",
	"rm -rf /",
	"rm -fr /",
	"mkfs",
	"shutdown",
	"reboot",
	"> /dev/",
	":(){",
}

// ValidateBashCommand reports why a shell command must not run, or nil when
// it may. Matching is case-insensitive on whitespace-normalized text.
func ValidateBashCommand(command string) error {
	normalized := strings.ToLower(strings.Join(strings.Fields(command), " "))
	for _, pattern := range deniedBashPatterns {
		if strings.Contains(normalized, pattern) {
			return fmt.Errorf("command matches denied pattern %q", pattern)
		}
	}
	return nil
}

// EvaluateBashHook reads one PreToolUse event from in and writes the
// permission decision to out. Undecodable input is an error: the runtime
// must never fall through to an implicit allow.
func EvaluateBashHook(in io.Reader, out io.Writer) error {
	var event HookEvent
	if err := json.NewDecoder(in).Decode(&event); err != nil {
		return fmt.Errorf("decode hook event: %w", err)
	}

	decision := HookDecision{HookSpecificOutput: HookOutput{
		HookEventName:      "PreToolUse",
		PermissionDecision: "allow",
	}}
	if err := ValidateBashCommand(event.ToolInput.Command); err != nil {
		decision.HookSpecificOutput.PermissionDecision = "deny"
		decision.HookSpecificOutput.PermissionDecisionReason = err.Error()
	}
	return json.NewEncoder(out).Encode(decision)
}
