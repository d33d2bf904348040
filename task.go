package cachefetch

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	taskPending int32 = iota
	taskDelivered
	taskCancelled
)

// Task is a fetch running in the background. Its callback fires at most once,
// and never after Cancel has returned true.
type Task struct {
	id     string
	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}
	log    Logger
}

func startTask[T any](ctx context.Context, log Logger, run func(context.Context) (T, error), deliver func(T, error)) *Task {
	tctx, cancel := context.WithCancel(ctx)
	t := &Task{
		id:     uuid.NewString(),
		cancel: cancel,
		done:   make(chan struct{}),
		log:    log,
	}
	go func() {
		defer close(t.done)
		defer cancel()
		v, err := run(tctx)
		if !t.state.CompareAndSwap(taskPending, taskDelivered) {
			return
		}
		if deliver != nil {
			deliver(v, err)
		}
	}()
	return t
}

// ID identifies the task in logs.
func (t *Task) ID() string { return t.id }

// Cancel aborts the request. It reports whether the callback was suppressed;
// false means the result had already been handed over.
func (t *Task) Cancel() bool {
	if !t.state.CompareAndSwap(taskPending, taskCancelled) {
		return false
	}
	t.cancel()
	t.log.Debug("task cancelled", Fields{"task": t.id})
	return true
}

// Done is closed once the background goroutine has exited.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the background goroutine has exited.
func (t *Task) Wait() { <-t.done }
