package timeout

import (
	"context"
	"time"
)

// Task is a unit of work that has already been scheduled and can be
// cancelled independently of any observer. It is the handle Monitor
// operates on.
type Task[T any] struct {
	done   chan struct{}
	value  T
	err    error
	cancel context.CancelFunc
}

// Start schedules work immediately and returns a handle to it. The work
// receives a context that is cancelled by Cancel (or when the parent ctx
// is cancelled) and is expected to honor it.
func Start[T any](ctx context.Context, work func(context.Context) (T, error)) *Task[T] {
	taskCtx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		done:   make(chan struct{}),
		cancel: cancel,
	}
	go func() {
		defer close(t.done)
		t.value, t.err = work(taskCtx)
	}()
	return t
}

// Cancel signals the task to stop. The task acknowledges by finishing;
// observers wait on Done.
func (t *Task[T]) Cancel() { t.cancel() }

// Done is closed once the task has finished, whether it completed,
// failed, or acknowledged cancellation.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Monitor waits up to limit for an already-scheduled task. On a breached
// deadline it cancels the task and waits up to CleanupGrace for the
// cancellation to be acknowledged. Monitor always returns a Result and
// never fails for expected conditions: timeout, task failure, and external
// cancellation are all captured in the outcome, which is the ergonomic fit
// for parallel task management loops.
func Monitor[T any](ctx context.Context, task *Task[T], limit time.Duration, name string) Result[T] {
	start := time.Now()

	timer := time.NewTimer(limit)
	defer timer.Stop()

	select {
	case <-task.Done():
		elapsed := time.Since(start)
		if task.err != nil {
			logf("task %q failed after %s: %v", name, elapsed, task.err)
			return Result[T]{Err: task.err, Elapsed: elapsed}
		}
		return Result[T]{Success: true, Value: task.value, Elapsed: elapsed}

	case <-ctx.Done():
		elapsed := time.Since(start)
		logf("task %q externally cancelled after %s", name, elapsed)
		return Result[T]{Err: ctx.Err(), Elapsed: elapsed}

	case <-timer.C:
		elapsed := time.Since(start)
		logf("task %q timed out after %s, cancelling", name, elapsed)
		task.Cancel()

		grace := time.NewTimer(CleanupGrace)
		defer grace.Stop()
		select {
		case <-task.Done():
			logf("task %q acknowledged cancellation", name)
		case <-grace.C:
			logf("task %q did not respond to cancellation", name)
		}

		return Result[T]{
			TimedOut: true,
			Err:      &Error{Operation: name, Limit: limit},
			Elapsed:  elapsed,
		}
	}
}
