// Package pathutil provides path resolution helpers and a command runner
// that never relies on the ambient working directory.
package pathutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrRelativePath is returned when an operation requires an absolute path.
var ErrRelativePath = errors.New("path must be absolute")

// ResolveAbsolute converts a path to its absolute, cleaned form.
func ResolveAbsolute(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

// RequireAbsolute returns an error unless path is already absolute.
func RequireAbsolute(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %s", ErrRelativePath, path)
	}
	return nil
}

// FormatCommand renders an argv slice for human-readable log output.
// Arguments containing spaces are quoted.
func FormatCommand(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	parts := make([]string, 0, len(argv))
	for _, a := range argv {
		if strings.Contains(a, " ") {
			parts = append(parts, fmt.Sprintf("%q", a))
		} else {
			parts = append(parts, a)
		}
	}
	return strings.Join(parts, " ")
}

// Output holds the captured result of a command execution.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Combined returns stdout and stderr joined for substring classification.
func (o Output) Combined() string {
	return o.Stdout + "\n" + o.Stderr
}

// Run executes argv with captured output. The command inherits no working
// directory override: callers must address targets with explicit absolute
// paths (e.g. git -C /repo). A non-zero exit is not an error; it is reported
// in Output.ExitCode so callers can classify outcomes themselves. The
// returned error is non-nil only when the process could not be started or
// the context was cancelled.
func Run(ctx context.Context, argv ...string) (Output, error) {
	if len(argv) == 0 {
		return Output{}, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Context cancellation surfaces as a killed process; report the
			// cancellation itself so callers can tell it apart from a
			// command-level failure.
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, fmt.Errorf("exec %s: %w", argv[0], err)
	}
	return out, nil
}
