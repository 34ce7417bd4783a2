// Package health runs preflight checks over the external tools the
// coordinator drives. Every check is advisory at this layer; callers
// decide whether a failure is fatal.
package health

import (
	"fmt"
	"os"
	"os/exec"

	"director/internal/spawn"
)

// Status classifies a check result.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is a single preflight result.
type Check struct {
	Name   string
	Status Status
	Detail string
}

// Checker verifies the environment before any agent work starts.
type Checker struct {
	AgentExecutable   string
	TrackerExecutable string
	PlanExecutable    string

	// Replaceable in tests.
	lookPath func(string) (string, error)
	getenv   func(string) string
}

// NewChecker returns a Checker for the configured executables.
func NewChecker(agentExe, trackerExe, planExe string) *Checker {
	return &Checker{
		AgentExecutable:   agentExe,
		TrackerExecutable: trackerExe,
		PlanExecutable:    planExe,
		lookPath:          exec.LookPath,
		getenv:            os.Getenv,
	}
}

// Run executes all checks and returns them in display order.
func (c *Checker) Run() []Check {
	checks := []Check{
		c.binary("git", "git", StatusFail, "snapshots and merges need git"),
		c.binary("agent CLI", c.AgentExecutable, StatusFail, "agent sessions cannot start without it"),
		c.token(),
		c.binary("issue tracker", c.TrackerExecutable, StatusWarn, "issue bookkeeping will be skipped"),
		c.binary("planning tool", c.PlanExecutable, StatusWarn, "plan queries will report unavailable"),
	}
	return checks
}

// Healthy reports whether any check failed outright. Warnings pass.
func Healthy(checks []Check) bool {
	for _, ch := range checks {
		if ch.Status == StatusFail {
			return false
		}
	}
	return true
}

func (c *Checker) binary(name, exe string, missing Status, consequence string) Check {
	path, err := c.lookPath(exe)
	if err != nil {
		return Check{
			Name:   name,
			Status: missing,
			Detail: fmt.Sprintf("%q not found in PATH, %s", exe, consequence),
		}
	}
	return Check{Name: name, Status: StatusOK, Detail: path}
}

func (c *Checker) token() Check {
	if c.getenv(spawn.TokenEnvVar) == "" {
		return Check{
			Name:   "agent token",
			Status: StatusFail,
			Detail: spawn.TokenEnvVar + " not set, run 'claude setup-token'",
		}
	}
	return Check{Name: "agent token", Status: StatusOK, Detail: spawn.TokenEnvVar + " is set"}
}
