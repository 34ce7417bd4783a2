// Package plan queries the planning tool's robot execution plan and parses
// it into phases. The tool is optional: every failure mode degrades to an
// unsuccessful Plan with a message instead of an error.
package plan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// DefaultExecutable is the planning tool binary name.
const DefaultExecutable = "bv"

// QueryTimeout bounds a plan query.
const QueryTimeout = 30 * time.Second

// Phase is one section of an execution plan: a header and the tasks listed
// under it.
type Phase struct {
	Name  string   `json:"name"`
	Tasks []string `json:"tasks"`
}

// Plan is the result of a plan query. Success is false when the tool is
// unavailable or the query failed, with Message explaining why.
type Plan struct {
	Success   bool    `json:"success"`
	RawOutput string  `json:"raw_output,omitempty"`
	Phases    []Phase `json:"phases,omitempty"`
	Message   string  `json:"message,omitempty"`
}

var phaseHeader = regexp.MustCompile(`(?i)^Phase\s+\d+:.*$`)

// ParseOutput extracts phases from raw plan output. Headers look like
// "Phase 1: Database Layer" (case-insensitive); task lines under a header
// start with "- ". Anything unrecognized is skipped, so parsing never fails.
func ParseOutput(raw string) []Phase {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var phases []Phase
	var current *Phase

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if phaseHeader.MatchString(trimmed) {
			if current != nil {
				phases = append(phases, *current)
			}
			current = &Phase{Name: trimmed}
			continue
		}
		if current == nil {
			continue
		}
		if rest, ok := strings.CutPrefix(trimmed, "- "); ok {
			current.Tasks = append(current.Tasks, strings.TrimSpace(rest))
		}
	}
	if current != nil {
		phases = append(phases, *current)
	}
	return phases
}

// Query runs `bv robot --plan` and parses its output. The executable may be
// a name resolved on PATH or an explicit path; pass "" for the default.
func Query(ctx context.Context, executable string) Plan {
	if executable == "" {
		executable = DefaultExecutable
	}

	path, err := exec.LookPath(executable)
	if err != nil {
		return Plan{
			Success: false,
			Message: fmt.Sprintf("planning tool unavailable: %q not found in PATH", executable),
		}
	}

	ctx, cancel := context.WithTimeout(ctx, QueryTimeout)
	defer cancel()

	// The plan tool locates its data itself; never run it with an
	// ambient working directory override.
	cmd := exec.CommandContext(ctx, path, "robot", "--plan")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Plan{
			Success: false,
			Message: fmt.Sprintf("planning tool timed out after %s", QueryTimeout),
		}
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			detail := strings.TrimSpace(stderr.String())
			if detail == "" {
				detail = strings.TrimSpace(stdout.String())
			}
			if detail == "" {
				detail = "unknown error"
			}
			return Plan{
				Success:   false,
				RawOutput: stdout.String(),
				Message:   fmt.Sprintf("planning tool failed (exit %d): %s", exitErr.ExitCode(), detail),
			}
		}
		return Plan{
			Success: false,
			Message: fmt.Sprintf("planning tool error: %v", runErr),
		}
	}

	raw := stdout.String()
	return Plan{
		Success:   true,
		RawOutput: raw,
		Phases:    ParseOutput(raw),
	}
}
