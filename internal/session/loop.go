package session

import (
	"context"
	"errors"
	"sync"
)

// errLoopStopped is returned by Do once the loop has exited.
var errLoopStopped = errors.New("execution loop stopped")

// Loop is a single-consumer execution context: closures posted from any
// goroutine run one at a time, in posting order, on the goroutine calling Run.
type Loop struct {
	queue    []func()
	wake     chan struct{}
	done     chan struct{}
	doneOnce sync.Once
	mu       sync.Mutex
}

// NewLoop creates a loop with the given initial queue capacity.
func NewLoop(capacity int) *Loop {
	return &Loop{
		queue: make([]func(), 0, capacity),
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Post queues fn. It drops fn once the loop has stopped. Post never blocks,
// so it is safe to call from a closure running on the loop.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.done:
		return
	default:
	}

	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})

	l.Post(func() {
		defer close(finished)
		fn()
	})

	select {
	case <-finished:
		return nil
	case <-l.done:
		return errLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes posted closures until ctx is canceled.
func (l *Loop) Run(ctx context.Context) {
	defer l.doneOnce.Do(func() { close(l.done) })

	for {
		for fn := l.next(); fn != nil; fn = l.next() {
			if ctx.Err() != nil {
				return
			}

			fn()
		}

		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		}
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.queue) == 0 {
		return nil
	}

	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]

	return fn
}
