// Package eventloop runs pagetour's page-side components on a single
// cooperative loop. Every DOM callback, timer and transport message is
// executed as a task on the loop, so components never need locks of
// their own.
package eventloop

import (
	"context"
	"sync"
	"time"

	"github.com/standardbeagle/pagetour/internal/debug"
)

// Loop schedules tasks onto a single logical thread.
type Loop interface {
	// Post queues fn to run after the currently executing task.
	Post(fn func())
	// AfterFunc queues fn to run on the loop once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
	// Now returns the loop's notion of the current time.
	Now() time.Time
}

// Timer is a pending AfterFunc task.
type Timer interface {
	// Stop prevents the task from running. It reports whether the task
	// was still pending.
	Stop() bool
}

// Real is a Loop backed by a goroutine and wall-clock timers.
type Real struct {
	tasks chan func()
	done  chan struct{}

	closeOnce sync.Once
}

// New creates a loop and starts its goroutine. It stops when ctx is done
// or Close is called.
func New(ctx context.Context) *Real {
	l := &Real{
		tasks: make(chan func(), 256),
		done:  make(chan struct{}),
	}
	go l.run(ctx)
	return l
}

func (l *Real) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return
		case <-l.done:
			return
		case fn := <-l.tasks:
			l.exec(fn)
		}
	}
}

func (l *Real) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			debug.Error("eventloop", "task panicked: %v", r)
		}
	}()
	fn()
}

// Post implements Loop. Tasks posted after Close are dropped.
func (l *Real) Post(fn func()) {
	select {
	case <-l.done:
	case l.tasks <- fn:
	}
}

// AfterFunc implements Loop.
func (l *Real) AfterFunc(d time.Duration, fn func()) Timer {
	t := &realTimer{}
	t.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.claim() {
				fn()
			}
		})
	})
	return t
}

// Now implements Loop.
func (l *Real) Now() time.Time {
	return time.Now()
}

// Do runs fn on the loop and waits for it to finish. It must not be
// called from a loop task.
func (l *Real) Do(fn func()) {
	finished := make(chan struct{})
	l.Post(func() {
		defer close(finished)
		fn()
	})
	select {
	case <-finished:
	case <-l.done:
	}
}

// Close stops the loop. Pending tasks are discarded.
func (l *Real) Close() {
	l.closeOnce.Do(func() { close(l.done) })
}

// Done is closed once the loop has stopped.
func (l *Real) Done() <-chan struct{} {
	return l.done
}

type realTimer struct {
	mu      sync.Mutex
	t       *time.Timer
	stopped bool
	fired   bool
}

// claim marks the timer fired unless Stop won the race.
func (t *realTimer) claim() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.fired = true
	return true
}

func (t *realTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.t.Stop()
	return true
}
