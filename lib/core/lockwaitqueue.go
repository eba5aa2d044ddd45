package core

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// retry is one parked continuation: re-entering its originating operation
// from the top when invoked by the sweeper. Since a func value is already a
// pointer-sized reference, nodes hold retry directly rather than boxing it
// behind an extra *T indirection the way a fully generic queue would have
// to — a nil retry is exactly the "no value" case, so there is no separate
// nil-pointer check to carry.
type retry func()

// retryNode is a single linked-list element in the lockWaitQueue.
type retryNode struct {
	fn   retry
	next atomic.Pointer[retryNode]
}

// lockWaitQueue is the LockWaitQueue named in §4.4/§4.5: a lock-free
// multi-producer single-consumer FIFO of parked retry continuations.
// Producers are client goroutines that saw contention on GetAsync/
// DeleteAsync/RemoveAsync and parked a retry; the sole consumer is
// ProcessLockWaitQueue, driven from a sweeper tick. Because there is
// exactly one consumer and it never overlaps itself (sweeper ticks are
// serialized per store), the queue doesn't need the general-purpose
// Len()/IsClosed() introspection a library-grade MPSC would expose — only
// park/drainAndRun/discardAll/close, the four operations this store
// actually performs.
type lockWaitQueue struct {
	head     atomic.Pointer[retryNode]
	tail     atomic.Pointer[retryNode]
	out      chan retry
	consumer sync.WaitGroup
	closed   atomic.Bool

	mu   sync.Mutex
	cond *sync.Cond
}

func newLockWaitQueue() *lockWaitQueue {
	sentinel := &retryNode{}

	w := &lockWaitQueue{
		out: make(chan retry),
	}
	w.cond = sync.NewCond(&w.mu)
	w.head.Store(sentinel)
	w.tail.Store(sentinel)

	w.consumer.Add(1)
	go w.consume()

	return w
}

// park enqueues a retry closure to be invoked on a future sweeper tick. The
// CAS-append loop and its exponential backoff exist for the same reason a
// general-purpose lock-free queue needs them: any number of contended
// GetAsync/DeleteAsync/RemoveAsync calls across goroutines can
// park at once, and under contention spinning a few iterations before
// yielding avoids a thundering herd of goroutine reschedules.
func (w *lockWaitQueue) park(fn retry) {
	if fn == nil || w.closed.Load() {
		return
	}

	newNode := &retryNode{fn: fn}

	var backoff uint8
	for {
		tailNode := w.tail.Load()
		next := tailNode.next.Load()
		if next == nil {
			if tailNode.next.CompareAndSwap(nil, newNode) {
				w.tail.CompareAndSwap(tailNode, newNode)
				w.cond.Signal()
				return
			}
		} else {
			w.tail.CompareAndSwap(tailNode, next)
		}

		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

func (w *lockWaitQueue) consume() {
	defer w.consumer.Done()
	defer close(w.out)

	for {
		hasItems := false

		for {
			head := w.head.Load()
			next := head.next.Load()
			if next == nil {
				break
			}
			hasItems = true

			fn := next.fn
			w.head.Store(next)
			w.out <- fn
			next.fn = nil
		}

		if !hasItems && w.closed.Load() {
			return
		}

		if !hasItems {
			w.mu.Lock()
			head := w.head.Load()
			if head.next.Load() == nil && !w.closed.Load() {
				w.cond.Wait()
			}
			w.mu.Unlock()
		}
	}
}

// drainAndRun invokes every retry closure currently available without
// blocking for more to arrive; each invocation re-enters its originating
// operation from the top, which may re-park it.
func (w *lockWaitQueue) drainAndRun() int {
	n := 0
	for {
		select {
		case fn, ok := <-w.out:
			if !ok || fn == nil {
				return n
			}
			fn()
			n++
		default:
			return n
		}
	}
}

// discardAll drops every retry closure currently available without
// invoking them, used by ClearStore.
func (w *lockWaitQueue) discardAll() int {
	n := 0
	for {
		select {
		case fn, ok := <-w.out:
			if !ok || fn == nil {
				return n
			}
			n++
		default:
			return n
		}
	}
}

// close shuts the queue down; already-parked closures are discarded.
func (w *lockWaitQueue) close() {
	w.closed.Store(true)
	w.cond.Signal()
}
