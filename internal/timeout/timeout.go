// Package timeout bounds asynchronous work with wall-clock deadlines,
// cooperative cancellation, and best-effort cleanup. It is stateless per
// call and reentrant: any number of bounded executions may be in flight
// concurrently.
package timeout

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimedOut is the sentinel wrapped by every Error produced here, so
// callers can branch with errors.Is without inspecting the concrete type.
var ErrTimedOut = errors.New("operation timed out")

// Error reports a breached deadline with enough context to act on.
type Error struct {
	Operation string
	Limit     time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

func (e *Error) Unwrap() error { return ErrTimedOut }

// Result is the outcome of one bounded execution. Exactly one is produced
// per call and it is immutable afterwards. The three failure modes stay
// distinguishable: TimedOut marks an internal deadline breach, Err holding
// the parent context's error marks external cancellation, and any other Err
// is a failure of the work itself.
type Result[T any] struct {
	Success  bool
	Value    T
	TimedOut bool
	Err      error
	Elapsed  time.Duration
}

// Logf, when set, receives diagnostic messages about timeouts and cleanup.
// Nil disables logging.
var Logf func(format string, args ...any)

func logf(format string, args ...any) {
	if Logf != nil {
		Logf(format, args...)
	}
}

type outcome[T any] struct {
	value T
	err   error
}

// Run executes work under a deadline and returns its value or an error.
// On a breached deadline the optional cleanup runs first, itself bounded by
// CleanupGrace, and then a *Error is returned. External cancellation of ctx
// propagates upward unchanged as ctx.Err(); it is a distinct condition from
// timeout. Any other failure of the work is returned as-is.
func Run[T any](ctx context.Context, limit time.Duration, name string, work func(context.Context) (T, error), cleanup func(context.Context) error) (T, error) {
	res := run(ctx, limit, name, work, cleanup)
	if res.Success {
		return res.Value, nil
	}
	if res.TimedOut {
		return res.Value, &Error{Operation: name, Limit: limit}
	}
	return res.Value, res.Err
}

// RunResult executes work under a deadline and always returns a Result,
// never an error: timeout, external cancellation, and work failure are all
// captured in the outcome so calling code can branch without error
// handling. This is the ergonomic fit for monitoring loops.
func RunResult[T any](ctx context.Context, limit time.Duration, name string, work func(context.Context) (T, error), cleanup func(context.Context) error) Result[T] {
	return run(ctx, limit, name, work, cleanup)
}

func run[T any](ctx context.Context, limit time.Duration, name string, work func(context.Context) (T, error), cleanup func(context.Context) error) Result[T] {
	start := time.Now() // time.Since uses the monotonic clock

	workCtx, cancelWork := context.WithCancel(ctx)
	defer cancelWork()

	done := make(chan outcome[T], 1)
	go func() {
		value, err := work(workCtx)
		done <- outcome[T]{value: value, err: err}
	}()

	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case out := <-done:
		elapsed := time.Since(start)
		if out.err != nil {
			logf("operation %q failed after %s: %v", name, elapsed, out.err)
			return Result[T]{Err: out.err, Elapsed: elapsed}
		}
		return Result[T]{Success: true, Value: out.value, Elapsed: elapsed}

	case <-ctx.Done():
		// Caller-initiated cancellation, not our deadline.
		elapsed := time.Since(start)
		logf("operation %q cancelled after %s", name, elapsed)
		return Result[T]{Err: ctx.Err(), Elapsed: elapsed}

	case <-timer.C:
		elapsed := time.Since(start)
		logf("operation %q timed out after %s (limit %s)", name, elapsed, limit)
		cancelWork()
		runCleanup(ctx, name, cleanup)
		return Result[T]{
			TimedOut: true,
			Err:      &Error{Operation: name, Limit: limit},
			Elapsed:  elapsed,
		}
	}
}

// runCleanup invokes cleanup bounded by CleanupGrace. Cleanup failures are
// logged and discarded; they never change the reported outcome. The call
// returns only after cleanup finished or exhausted its grace period, so the
// caller never observes a timed-out result while cleanup is still running.
func runCleanup(ctx context.Context, name string, cleanup func(context.Context) error) {
	if cleanup == nil {
		return
	}

	graceCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), CleanupGrace)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("cleanup panic: %v", r)
			}
		}()
		done <- cleanup(graceCtx)
	}()

	select {
	case err := <-done:
		if err != nil {
			logf("cleanup for %q failed: %v", name, err)
		}
	case <-graceCtx.Done():
		logf("cleanup for %q exceeded grace period", name)
	}
}
