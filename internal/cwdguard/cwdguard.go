// Package cwdguard protects the process working directory around critical
// sections. The working directory is process-global mutable state; the guard
// enforces a single-writer discipline by asserting the expected value on
// acquire and restoring the entry value on release.
package cwdguard

import (
	"fmt"
	"os"

	"director/internal/pathutil"
)

// Guard holds the working directory captured at acquisition time.
type Guard struct {
	entry string
}

// Acquire asserts that the current working directory matches expected and
// returns a Guard that restores it. A mismatch is a hard failure: nothing
// inside the guarded section should run on a wrong directory assumption.
func Acquire(expected string) (*Guard, error) {
	expectedAbs, err := pathutil.ResolveAbsolute(expected)
	if err != nil {
		return nil, err
	}

	actual, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("read working directory: %w", err)
	}
	actualAbs, err := pathutil.ResolveAbsolute(actual)
	if err != nil {
		return nil, err
	}

	if actualAbs != expectedAbs {
		return nil, fmt.Errorf("working directory mismatch: expected %s, actual %s", expectedAbs, actualAbs)
	}

	return &Guard{entry: actualAbs}, nil
}

// Release restores the working directory captured at acquisition,
// regardless of what ran inside the guarded section. Intended for defer.
func (g *Guard) Release() error {
	current, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("read working directory: %w", err)
	}
	currentAbs, err := pathutil.ResolveAbsolute(current)
	if err != nil {
		return err
	}

	if currentAbs != g.entry {
		if err := os.Chdir(g.entry); err != nil {
			return fmt.Errorf("restore working directory to %s: %w", g.entry, err)
		}
	}
	return nil
}

// Validate checks that the current working directory matches expected
// without acquiring a guard. Useful as a standalone pre-command assertion.
func Validate(expected string) error {
	expectedAbs, err := pathutil.ResolveAbsolute(expected)
	if err != nil {
		return err
	}
	actual, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("read working directory: %w", err)
	}
	actualAbs, err := pathutil.ResolveAbsolute(actual)
	if err != nil {
		return err
	}
	if actualAbs != expectedAbs {
		return fmt.Errorf("working directory validation failed: expected %s, actual %s", expectedAbs, actualAbs)
	}
	return nil
}
