// Package ui provides the single-threaded execution context that owns chart
// state. Work reaches it only as closures passed to Submit or Call.
package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrStopped is returned by Call once the executor has shut down.
var ErrStopped = errors.New("ui: executor stopped")

// Executor runs submitted closures one at a time, in submission order, on
// the goroutine that called Run. The queue is unbounded so Submit never
// blocks the caller.
type Executor struct {
	log *zap.Logger

	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
	done    chan struct{}
}

func NewExecutor(log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		log:  log,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// Submit enqueues fn and returns immediately. It reports false when the
// executor has stopped and fn will never run.
func (e *Executor) Submit(fn func()) bool {
	if fn == nil {
		return false
	}
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return false
	}
	e.queue = append(e.queue, fn)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the executor and waits for it to finish.
func (e *Executor) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !e.Submit(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-e.done:
		// Run may have drained fn just before exiting.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports how many closures are waiting.
func (e *Executor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Run drains the queue until ctx is cancelled. Closures already queued when
// ctx ends are still run; later Submits are refused. Run must be called once.
func (e *Executor) Run(ctx context.Context) error {
	defer close(e.done)
	for {
		e.drain()
		select {
		case <-ctx.Done():
			e.mu.Lock()
			e.stopped = true
			e.mu.Unlock()
			e.drain()
			return nil
		case <-e.wake:
		}
	}
}

func (e *Executor) drain() {
	for {
		e.mu.Lock()
		batch := e.queue
		e.queue = nil
		e.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, fn := range batch {
			e.run(fn)
		}
	}
}

func (e *Executor) run(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error("ui task panicked", zap.String("panic", fmt.Sprint(rec)))
		}
	}()
	fn()
}
