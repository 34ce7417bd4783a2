package spawn

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateBashCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		denied  bool
	}{
		{"plain build", "go build ./...", false},
		{"git status", "git status", false},
		{"scoped rm", "rm -rf ./build", false},
		{"sudo", "sudo apt-get install jq", true},
		{"root wipe", "rm -rf /", true},
		{"root wipe extra spaces", "rm   -rf   /", true},
		{"root wipe uppercase", "RM -RF /", true},
		{"mkfs", "mkfs.ext4 /dev/sda1", true},
		{"device redirect", "echo x > /dev/sda", true},
		{"fork bomb", ":(){ :|:& };:", true},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBashCommand(tt.command)
			if tt.denied {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func hookEventJSON(command string) string {
	return fmt.Sprintf(`{"tool_name":"Bash","tool_input":{"command":%q}}`, command)
}

func TestEvaluateBashHook_Allows(t *testing.T) {
	var out bytes.Buffer
	err := EvaluateBashHook(strings.NewReader(hookEventJSON("go test ./...")), &out)
	require.NoError(t, err)

	var decision HookDecision
	require.NoError(t, json.Unmarshal(out.Bytes(), &decision))
	assert.Equal(t, "PreToolUse", decision.HookSpecificOutput.HookEventName)
	assert.Equal(t, "allow", decision.HookSpecificOutput.PermissionDecision)
	assert.Empty(t, decision.HookSpecificOutput.PermissionDecisionReason)
}

func TestEvaluateBashHook_DeniesWithReason(t *testing.T) {
	var out bytes.Buffer
	err := EvaluateBashHook(strings.NewReader(hookEventJSON("sudo rm -rf /")), &out)
	require.NoError(t, err)

	var decision HookDecision
	require.NoError(t, json.Unmarshal(out.Bytes(), &decision))
	assert.Equal(t, "deny", decision.HookSpecificOutput.PermissionDecision)
	assert.Contains(t, decision.HookSpecificOutput.PermissionDecisionReason, "denied pattern")
}

func TestEvaluateBashHook_UndecodableInputErrors(t *testing.T) {
	var out bytes.Buffer
	err := EvaluateBashHook(strings.NewReader("not json"), &out)
	require.Error(t, err)
	assert.Empty(t, out.Bytes(), "no decision should be written on malformed input")
}
