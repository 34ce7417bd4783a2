package health

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"director/internal/spawn"
)

// newTestChecker wires a checker with fake PATH and environment lookups.
func newTestChecker(present map[string]bool, env map[string]string) *Checker {
	c := NewChecker("claude", "bd", "bv")
	c.lookPath = func(name string) (string, error) {
		if present[name] {
			return "/usr/local/bin/" + name, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
	c.getenv = func(key string) string { return env[key] }
	return c
}

func allPresent() map[string]bool {
	return map[string]bool{"git": true, "claude": true, "bd": true, "bv": true}
}

func TestRun_AllHealthy(t *testing.T) {
	c := newTestChecker(allPresent(), map[string]string{spawn.TokenEnvVar: "token"})

	checks := c.Run()
	require.Len(t, checks, 5)
	for _, ch := range checks {
		assert.Equal(t, StatusOK, ch.Status, ch.Name)
	}
	assert.True(t, Healthy(checks))
}

func TestRun_MissingAgentCLIFails(t *testing.T) {
	present := allPresent()
	present["claude"] = false
	c := newTestChecker(present, map[string]string{spawn.TokenEnvVar: "token"})

	checks := c.Run()
	assert.False(t, Healthy(checks))

	var agent Check
	for _, ch := range checks {
		if ch.Name == "agent CLI" {
			agent = ch
		}
	}
	assert.Equal(t, StatusFail, agent.Status)
	assert.Contains(t, agent.Detail, "claude")
}

func TestRun_MissingTokenFails(t *testing.T) {
	c := newTestChecker(allPresent(), nil)

	checks := c.Run()
	assert.False(t, Healthy(checks))

	var token Check
	for _, ch := range checks {
		if ch.Name == "agent token" {
			token = ch
		}
	}
	assert.Equal(t, StatusFail, token.Status)
	assert.Contains(t, token.Detail, spawn.TokenEnvVar)
}

func TestRun_MissingOptionalToolsOnlyWarn(t *testing.T) {
	present := allPresent()
	present["bd"] = false
	present["bv"] = false
	c := newTestChecker(present, map[string]string{spawn.TokenEnvVar: "token"})

	checks := c.Run()
	assert.True(t, Healthy(checks), "missing optional tools should not fail the preflight")

	warns := 0
	for _, ch := range checks {
		if ch.Status == StatusWarn {
			warns++
		}
	}
	assert.Equal(t, 2, warns)
}

func TestRun_CustomExecutableNames(t *testing.T) {
	c := NewChecker("claude-dev", "beads", "bv2")
	c.getenv = func(string) string { return "token" }

	var looked []string
	c.lookPath = func(name string) (string, error) {
		looked = append(looked, name)
		return "/bin/" + name, nil
	}

	c.Run()
	assert.Contains(t, looked, "claude-dev")
	assert.Contains(t, looked, "beads")
	assert.Contains(t, looked, "bv2")
}
