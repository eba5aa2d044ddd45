package core

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestLockWaitQueueParkAndDrain(t *testing.T) {
	w := newLockWaitQueue()
	defer w.close()

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		w.park(func() { ran.Add(1) })
	}

	n := waitForDrain(t, w, 5)
	if n != 5 {
		t.Fatalf("expected drainAndRun to report 5 invocations, got %d", n)
	}
	if ran.Load() != 5 {
		t.Fatalf("expected all 5 parked closures to run, got %d", ran.Load())
	}
}

func TestLockWaitQueueDiscardAllDoesNotInvoke(t *testing.T) {
	w := newLockWaitQueue()
	defer w.close()

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		w.park(func() { ran.Add(1) })
	}

	n := waitForDiscard(t, w, 3)
	if n != 3 {
		t.Fatalf("expected discardAll to report 3 discarded closures, got %d", n)
	}
	if ran.Load() != 0 {
		t.Fatalf("discardAll must not invoke parked closures, but %d ran", ran.Load())
	}
}

func TestLockWaitQueueDrainEmptyIsNonBlocking(t *testing.T) {
	w := newLockWaitQueue()
	defer w.close()

	done := make(chan int, 1)
	go func() { done <- w.drainAndRun() }()

	select {
	case n := <-done:
		if n != 0 {
			t.Fatalf("expected 0 from an empty queue, got %d", n)
		}
	case <-time.After(time.Second):
		t.Fatalf("drainAndRun on an empty queue must return immediately")
	}
}

// waitForDrain retries drainAndRun until it has observed want invocations or
// the test's patience runs out; the queue's background consumer goroutine
// relays pushed items onto an unbuffered channel asynchronously, so a single
// immediate drainAndRun call can race it.
func waitForDrain(t *testing.T, w *lockWaitQueue, want int) int {
	t.Helper()
	total := 0
	deadline := time.Now().Add(2 * time.Second)
	for total < want && time.Now().Before(deadline) {
		total += w.drainAndRun()
		if total < want {
			time.Sleep(time.Millisecond)
		}
	}
	return total
}

func waitForDiscard(t *testing.T, w *lockWaitQueue, want int) int {
	t.Helper()
	total := 0
	deadline := time.Now().Add(2 * time.Second)
	for total < want && time.Now().Before(deadline) {
		total += w.discardAll()
		if total < want {
			time.Sleep(time.Millisecond)
		}
	}
	return total
}
