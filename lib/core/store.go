package core

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ValentinKolb/tstore/lib/log"
)

var storeLogger = log.Get("store")

// GetResult is the outcome of GetAsync.
type GetResult struct {
	Status ErrorCode
	Values []PropEntry
}

// ExistsResult is the outcome of Exists.
type ExistsResult struct {
	Exists bool
	// SecondsSince is elapsed time since the entry's last touch, not time
	// remaining until expiry; the name preserves a deliberate oddity
	// carried over from the system this was modeled on.
	SecondsSince uint32
}

// DeleteResult is the outcome of DeleteAsync.
type DeleteResult struct {
	Status  ErrorCode
	Deleted bool
}

// RemoveResult is the outcome of RemoveAsync.
type RemoveResult struct {
	Status ErrorCode
	Values []PropEntry
}

// TransientStore is the concurrent map from key bytes to KeyEntry. It owns
// the TimeoutQueue and LockWaitQueue and exposes the public operations.
// A TransientStore is safe for concurrent use by multiple goroutines.
type TransientStore struct {
	cfg StoreConfig

	m *xsync.MapOf[string, *KeyEntry]

	timeouts  *timeoutQueue
	lockWait  *lockWaitQueue
	nextLock  atomic.Int32
	closed    atomic.Bool

	metrics    *metrics.Set
	sizeRecord ValueSizeRecorder
}

// ValueSizeRecorder observes the size of every value passed to PutAsync.
// Satisfied by *metrics.ValueSizeHistogram without lib/core importing
// lib/metrics.
type ValueSizeRecorder interface {
	AddSample(size int)
}

// NewTransientStore builds a TransientStore from the given options. It
// returns a non-nil error, and no store, if the resulting configuration
// violates TimeOut >= 2*LockTimeOut or any other invariant in §6.
func NewTransientStore(opts ...Option) (*TransientStore, error) {
	cfg := defaultStoreConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	storeLogger.Infof("created transient store: numProps=%d timeOut=%s lockTimeOut=%s", cfg.numProps, cfg.timeOut, cfg.lockTimeOut)

	return &TransientStore{
		cfg:      cfg,
		m:        xsync.NewMapOfWithHasher[string, *KeyEntry](keyHasher),
		timeouts: newTimeoutQueue(),
		lockWait: newLockWaitQueue(),
	}, nil
}

// keyHasher is the hash function backing the store's map: FNVHash gives the
// fixed, reproducible distribution the map relies on, XORed with the seed
// xsync mixes in per map to keep two stores from sharing a bucket layout.
// Keys whose FNVHash values collide still collide under every seed.
func keyHasher(key string, seed uint64) uint64 {
	return uint64(FNVHash([]byte(key))) ^ seed
}

// SetMetrics attaches a VictoriaMetrics set that operation and sweep
// counters are recorded into. A nil set (the default) disables collection.
// entries_live is a callback gauge sampled from Len() on every scrape.
func (s *TransientStore) SetMetrics(set *metrics.Set) {
	s.metrics = set
	if set == nil {
		return
	}
	set.GetOrCreateGauge("entries_live", func() float64 {
		return float64(s.Len())
	})
}

// SetValueSizeRecorder attaches an observer fed the size of every non-nil
// value passed to a successful PutAsync.
func (s *TransientStore) SetValueSizeRecorder(r ValueSizeRecorder) {
	s.sizeRecord = r
}

func (s *TransientStore) lockSpanMillis() int64 {
	return s.cfg.lockTimeOut.Milliseconds()
}

func (s *TransientStore) timeOutMillis() int64 {
	return s.cfg.timeOut.Milliseconds()
}

// NextLockId increments the store-global monotonic lock id counter.
// Overflow wraps; the id namespace is not defended against exhaustion.
func (s *TransientStore) NextLockId() int32 {
	return s.nextLock.Add(1)
}

func (s *TransientStore) incCounter(name string) {
	if s.metrics == nil {
		return
	}
	s.metrics.GetOrCreateCounter(name).Inc()
}

// --------------------------------------------------------------------------
// Create / Exists
// --------------------------------------------------------------------------

// Create best-effort inserts a fresh KeyEntry if absent. On success it
// enqueues a timeout record. Property indexes are not validated here; an
// out-of-range index is simply never touched by a later operation.
func (s *TransientStore) Create(key []byte) bool {
	entry := newKeyEntry(append([]byte(nil), key...), s.cfg.numProps)

	_, loaded := s.m.LoadOrStore(string(key), entry)
	if loaded {
		s.incCounter(`ops_total{op="create_existing"}`)
		return false
	}

	s.timeouts.push(timeoutRecord{entry: entry, timestamp: entry.timestamp})
	s.incCounter(`ops_total{op="create"}`)
	return true
}

// Exists reports whether key is present, and the elapsed seconds since its
// last touch (not time remaining until expiry; see ExistsResult).
func (s *TransientStore) Exists(key []byte) ExistsResult {
	entry, ok := s.m.Load(string(key))
	if !ok {
		return ExistsResult{Exists: false}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.tombstoned() {
		return ExistsResult{Exists: false}
	}

	elapsed := nowTick() - entry.timestamp
	return ExistsResult{Exists: true, SecondsSince: uint32(elapsed / 1000)}
}

// --------------------------------------------------------------------------
// GetAsync
// --------------------------------------------------------------------------

// GetAsync acquires locks on the requested prop indexes of key, creating
// the entry if absent. On contention it either fails with
// LockWaitTimeOut, forces the acquisition, or parks a retry that re-enters
// this call from the top on the next sweeper tick.
func (s *TransientStore) GetAsync(key []byte, requests []PropRequest, maxWaitSeconds uint32, force bool) GetResult {
	return s.getAsync(key, requests, maxWaitSeconds, force, nowTick())
}

func (s *TransientStore) getAsync(key []byte, requests []PropRequest, maxWaitSeconds uint32, force bool, startTick int64) GetResult {
	entry := s.getOrInsert(key)

	entry.mu.Lock()
	blocked := entry.countLocked(requests, s.lockSpanMillis())
	if blocked == 0 {
		lockID := s.NextLockId()
		values := entry.lockAndGet(requests, lockID)
		entry.mu.Unlock()
		s.incCounter(`ops_total{op="get"}`)
		return GetResult{Status: ErrNone, Values: values}
	}
	entry.mu.Unlock()
	s.incCounter("ops_locked_total")

	elapsed := time.Duration(nowTick()-startTick) * time.Millisecond
	exhausted := maxWaitSeconds == 0 || elapsed >= time.Duration(maxWaitSeconds)*time.Second

	if exhausted {
		if force {
			entry.mu.Lock()
			lockID := s.NextLockId()
			values := entry.lockAndGet(requests, lockID)
			entry.mu.Unlock()
			s.incCounter(`ops_total{op="get_forced"}`)
			return GetResult{Status: ErrNone, Values: values}
		}
		s.incCounter("ops_lock_wait_timeout_total")
		return GetResult{Status: ErrLockWaitTimeOut}
	}

	done := make(chan GetResult, 1)
	s.incCounter("ops_parked_total")
	s.lockWait.park(func() {
		go func() { done <- s.getAsync(key, requests, maxWaitSeconds, force, startTick) }()
	})
	return <-done
}

// getOrInsert looks up key, inserting a fresh entry (and enqueuing its
// timeout record) if absent.
func (s *TransientStore) getOrInsert(key []byte) *KeyEntry {
	fresh := newKeyEntry(append([]byte(nil), key...), s.cfg.numProps)
	entry, loaded := s.m.LoadOrStore(string(key), fresh)
	if !loaded {
		s.timeouts.push(timeoutRecord{entry: entry, timestamp: entry.timestamp})
	}
	return entry
}

// --------------------------------------------------------------------------
// PutAsync
// --------------------------------------------------------------------------

// PutAsync looks up key (never inserting) and, if present, unconditionally
// refreshes its timeout record before checking the per-prop lock state.
// This means a Put that ultimately fails with a lock error still extends
// the entry's life; that is preserved as a deliberate oddity.
func (s *TransientStore) PutAsync(key []byte, values []PropEntry) ErrorCode {
	entry, ok := s.m.Load(string(key))
	if !ok {
		return ErrDoesNotExist
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.tombstoned() {
		return ErrDoesNotExist
	}

	ts := entry.touch()
	s.timeouts.push(timeoutRecord{entry: entry, timestamp: ts})

	status := entry.set(values)
	if status == ErrNone {
		s.incCounter(`ops_total{op="put"}`)
		if s.sizeRecord != nil {
			for _, v := range values {
				if v.Value != nil {
					s.sizeRecord.AddSample(len(v.Value))
				}
			}
		}
	} else {
		s.incCounter(fmt.Sprintf(`ops_total{op="put_%s"}`, status))
	}
	return status
}

// --------------------------------------------------------------------------
// DeleteAsync / RemoveAsync
// --------------------------------------------------------------------------

// DeleteAsync removes key if no prop is currently blocking, subject to the
// same wait/force/park protocol as GetAsync but gated on countAllLocked
// rather than a per-request filter.
func (s *TransientStore) DeleteAsync(key []byte, maxWaitSeconds uint32, force bool) DeleteResult {
	return s.deleteAsync(key, maxWaitSeconds, force, nowTick())
}

func (s *TransientStore) deleteAsync(key []byte, maxWaitSeconds uint32, force bool, startTick int64) DeleteResult {
	entry, ok := s.m.Load(string(key))
	if !ok {
		return DeleteResult{Status: ErrDoesNotExist}
	}

	entry.mu.Lock()
	blocked := entry.countAllLocked(s.lockSpanMillis())
	if blocked == 0 {
		entry.setDeleted()
		entry.mu.Unlock()
		_, removed := s.m.LoadAndDelete(string(key))
		s.incCounter(`ops_total{op="delete"}`)
		return DeleteResult{Status: ErrNone, Deleted: removed}
	}
	entry.mu.Unlock()
	s.incCounter("ops_locked_total")

	elapsed := time.Duration(nowTick()-startTick) * time.Millisecond
	exhausted := maxWaitSeconds == 0 || elapsed >= time.Duration(maxWaitSeconds)*time.Second

	if exhausted {
		if force {
			entry.mu.Lock()
			entry.setDeleted()
			entry.mu.Unlock()
			_, removed := s.m.LoadAndDelete(string(key))
			s.incCounter(`ops_total{op="delete_forced"}`)
			return DeleteResult{Status: ErrNone, Deleted: removed}
		}
		s.incCounter("ops_lock_wait_timeout_total")
		return DeleteResult{Status: ErrLockWaitTimeOut}
	}

	done := make(chan DeleteResult, 1)
	s.incCounter("ops_parked_total")
	s.lockWait.park(func() {
		go func() { done <- s.deleteAsync(key, maxWaitSeconds, force, startTick) }()
	})
	return <-done
}

// RemoveAsync behaves like DeleteAsync but additionally emits every
// Assigned prop's current value before removal.
func (s *TransientStore) RemoveAsync(key []byte, maxWaitSeconds uint32, force bool) RemoveResult {
	return s.removeAsync(key, maxWaitSeconds, force, nowTick())
}

func (s *TransientStore) removeAsync(key []byte, maxWaitSeconds uint32, force bool, startTick int64) RemoveResult {
	entry, ok := s.m.Load(string(key))
	if !ok {
		return RemoveResult{Status: ErrDoesNotExist}
	}

	entry.mu.Lock()
	blocked := entry.countAllLocked(s.lockSpanMillis())
	if blocked == 0 {
		values := entry.getAll()
		entry.setDeleted()
		entry.mu.Unlock()
		_, removed := s.m.LoadAndDelete(string(key))
		if !removed {
			return RemoveResult{Status: ErrDoesNotExist, Values: values}
		}
		s.incCounter(`ops_total{op="remove"}`)
		return RemoveResult{Status: ErrNone, Values: values}
	}
	entry.mu.Unlock()
	s.incCounter("ops_locked_total")

	elapsed := time.Duration(nowTick()-startTick) * time.Millisecond
	exhausted := maxWaitSeconds == 0 || elapsed >= time.Duration(maxWaitSeconds)*time.Second

	if exhausted {
		if force {
			entry.mu.Lock()
			values := entry.getAll()
			entry.setDeleted()
			entry.mu.Unlock()
			_, removed := s.m.LoadAndDelete(string(key))
			if !removed {
				return RemoveResult{Status: ErrDoesNotExist, Values: values}
			}
			s.incCounter(`ops_total{op="remove_forced"}`)
			return RemoveResult{Status: ErrNone, Values: values}
		}
		s.incCounter("ops_lock_wait_timeout_total")
		return RemoveResult{Status: ErrLockWaitTimeOut}
	}

	done := make(chan RemoveResult, 1)
	s.incCounter("ops_parked_total")
	s.lockWait.park(func() {
		go func() { done <- s.removeAsync(key, maxWaitSeconds, force, startTick) }()
	})
	return <-done
}

// --------------------------------------------------------------------------
// ClearStore
// --------------------------------------------------------------------------

// ClearStore drains the map and both queues, ignoring every lock.
func (s *TransientStore) ClearStore() {
	s.m.Clear()
	s.timeouts.drain()
	s.lockWait.discardAll()
}

// Close shuts down the store's internal queues. A closed store should not
// have further operations called against it.
func (s *TransientStore) Close() {
	if s.closed.CompareAndSwap(false, true) {
		s.lockWait.close()
	}
}

// --------------------------------------------------------------------------
// Sweeper entrypoints (see package sweeper)
// --------------------------------------------------------------------------

// ProcessTimeOuts drains every record at the head of the TimeoutQueue whose
// age exceeds TimeOut, evicting the entry it points to unless the entry
// has been touched since (detected via timestamp mismatch) or is already
// tombstoned. It stops at the first record that has not yet expired.
func (s *TransientStore) ProcessTimeOuts() int {
	evicted := 0
	timeOut := s.timeOutMillis()

	for {
		rec, ok := s.timeouts.peek()
		if !ok {
			break
		}
		if nowTick()-rec.timestamp < timeOut {
			break
		}
		rec, _ = s.timeouts.pop()

		rec.entry.mu.Lock()
		shouldEvict := rec.entry.timestamp == rec.timestamp && !rec.entry.tombstoned()
		if shouldEvict {
			key := rec.entry.key
			rec.entry.setDeleted()
			rec.entry.mu.Unlock()
			s.m.Compute(string(key), func(old *KeyEntry, loaded bool) (*KeyEntry, bool) {
				if !loaded || old != rec.entry {
					return old, !loaded
				}
				return nil, true
			})
			evicted++
			s.incCounter("sweep_timeouts_evicted_total")
		} else {
			rec.entry.mu.Unlock()
		}
	}
	if evicted > 0 {
		storeLogger.Debugf("evicted %d timed-out entries", evicted)
	}
	return evicted
}

// ProcessLockWaitQueue dequeues and invokes every parked retry closure
// currently available. No coalescing: the same request may bounce many
// times before succeeding, timing out, or being forced through.
func (s *TransientStore) ProcessLockWaitQueue() int {
	n := s.lockWait.drainAndRun()
	if n > 0 {
		s.incCounter("sweep_lock_wait_retries_total")
	}
	return n
}

// Len returns the number of live (non-tombstoned) entries, sampled for the
// entries_live gauge.
func (s *TransientStore) Len() int {
	return s.m.Size()
}
