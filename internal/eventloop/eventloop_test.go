package eventloop

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestManualDrainRunsNestedPosts(t *testing.T) {
	m := NewManual()
	var order []string
	m.Post(func() {
		order = append(order, "a")
		m.Post(func() { order = append(order, "c") })
	})
	m.Post(func() { order = append(order, "b") })

	if n := m.Drain(); n != 3 {
		t.Errorf("Drain() = %d; want 3", n)
	}
	if got := len(order); got != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("order = %v; want [a b c]", order)
	}
}

func TestManualAdvanceFiresInDeadlineOrder(t *testing.T) {
	m := NewManual()
	var fired []int
	m.AfterFunc(100*time.Millisecond, func() { fired = append(fired, 100) })
	m.AfterFunc(50*time.Millisecond, func() { fired = append(fired, 50) })
	stopped := m.AfterFunc(70*time.Millisecond, func() { fired = append(fired, 70) })

	if !stopped.Stop() {
		t.Error("Stop() on pending timer = false; want true")
	}

	m.Advance(60 * time.Millisecond)
	if len(fired) != 1 || fired[0] != 50 {
		t.Fatalf("after 60ms fired = %v; want [50]", fired)
	}

	m.Advance(40 * time.Millisecond)
	if len(fired) != 2 || fired[1] != 100 {
		t.Fatalf("after 100ms fired = %v; want [50 100]", fired)
	}
	if m.Pending() != 0 {
		t.Errorf("Pending() = %d; want 0", m.Pending())
	}
}

func TestManualTimerScheduledFromTimer(t *testing.T) {
	m := NewManual()
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 3 {
			m.AfterFunc(10*time.Millisecond, tick)
		}
	}
	m.AfterFunc(10*time.Millisecond, tick)

	m.Advance(35 * time.Millisecond)
	if count != 3 {
		t.Errorf("count = %d; want 3", count)
	}
}

func TestRealLoopRunsTasksSerially(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := New(ctx)
	defer l.Close()

	var running atomic.Int32
	var overlap atomic.Bool
	for i := 0; i < 50; i++ {
		l.Post(func() {
			if running.Add(1) > 1 {
				overlap.Store(true)
			}
			time.Sleep(100 * time.Microsecond)
			running.Add(-1)
		})
	}

	l.Do(func() {})
	if overlap.Load() {
		t.Error("tasks overlapped on the loop")
	}
}

func TestRealTimerStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := New(ctx)
	defer l.Close()

	var fired atomic.Bool
	timer := l.AfterFunc(20*time.Millisecond, func() { fired.Store(true) })
	if !timer.Stop() {
		t.Fatal("Stop() = false; want true")
	}

	time.Sleep(50 * time.Millisecond)
	l.Do(func() {})
	if fired.Load() {
		t.Error("stopped timer fired")
	}
}

func TestRealTimerFires(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := New(ctx)
	defer l.Close()

	done := make(chan struct{})
	l.AfterFunc(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
}
