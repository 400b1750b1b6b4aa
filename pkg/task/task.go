// Package task runs a single cancellable unit of background work that reports
// integer progress and yields a typed result.
//
// A Task owns exactly one progress channel. The channel holds only the most
// recent value: a slow reader never blocks the worker, it just skips
// intermediate values. The channel is closed once the work returns.
package task

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/matzehuels/juliaset/pkg/errors"
)

// Func is the work a Task runs. It must call report only from its own
// goroutine and should return ctx.Err() promptly once ctx is cancelled.
type Func[T any] func(ctx context.Context, report func(percent int)) (T, error)

// Task is a running or finished Func.
type Task[T any] struct {
	ctx      context.Context
	cancel   context.CancelFunc
	progress chan int
	done     chan struct{}
	latest   atomic.Int32
	stopped  atomic.Bool

	result T
	err    error
}

// Start launches fn in a new goroutine. The task stops when ctx is cancelled
// or Cancel is called.
func Start[T any](ctx context.Context, fn Func[T]) *Task[T] {
	taskCtx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		ctx:      taskCtx,
		cancel:   cancel,
		progress: make(chan int, 1),
		done:     make(chan struct{}),
	}
	go t.run(fn)
	return t
}

func (t *Task[T]) run(fn Func[T]) {
	defer close(t.done)
	defer close(t.progress)
	defer t.cancel()
	defer func() {
		if r := recover(); r != nil {
			var zero T
			t.result, t.err = zero, errors.New(errors.ErrCodeInternal, "task panicked: %v", r)
		}
	}()

	result, err := fn(t.ctx, t.report)
	if t.ctx.Err() != nil {
		t.stopped.Store(true)
		if err == nil {
			// Work that ignored cancellation must not report success.
			var zero T
			result, err = zero, t.ctx.Err()
		}
	}
	t.result, t.err = result, err
}

func (t *Task[T]) report(p int) {
	if p < 0 {
		p = 0
	} else if p > 100 {
		p = 100
	}
	if int32(p) <= t.latest.Load() && p != 0 {
		return
	}
	t.latest.Store(int32(p))
	for {
		select {
		case t.progress <- p:
			return
		default:
		}
		select {
		case <-t.progress:
		default:
		}
	}
}

// Progress returns the task's progress channel. It yields the latest value
// and is closed when the task finishes.
func (t *Task[T]) Progress() <-chan int { return t.progress }

// Latest returns the most recently reported progress.
func (t *Task[T]) Latest() int { return int(t.latest.Load()) }

// Done is closed when the task has finished.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Finished reports whether the task has finished without blocking.
func (t *Task[T]) Finished() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task finishes and returns its result.
func (t *Task[T]) Wait() (T, error) {
	<-t.done
	return t.result, t.err
}

// WaitContext is Wait bounded by ctx. It does not cancel the task.
func (t *Task[T]) WaitContext(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel asks the task to stop. It does not wait.
func (t *Task[T]) Cancel() {
	if !t.Finished() {
		t.stopped.Store(true)
	}
	t.cancel()
}

// Cancelled reports whether the task was stopped before it finished on its
// own, either through Cancel or its parent context.
func (t *Task[T]) Cancelled() bool {
	return t.stopped.Load()
}

// String implements fmt.Stringer for log output.
func (t *Task[T]) String() string {
	if t.Finished() {
		if t.err != nil {
			return fmt.Sprintf("failed (%v)", t.err)
		}
		return "done"
	}
	return fmt.Sprintf("running %d%%", t.Latest())
}
