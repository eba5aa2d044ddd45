package core

import (
	"sync"
	"time"
)

// processStart anchors the monotonic millisecond clock used for lock and
// entry timestamps. A 64-bit tick counted from process start is used in
// place of the wrapping 32-bit counter, since nothing in this design needs
// the wraparound behavior and a wider clock is strictly simpler to reason
// about.
var processStart = time.Now()

// nowTick returns the current monotonic millisecond tick.
func nowTick() int64 {
	return time.Since(processStart).Milliseconds()
}

// PropRequest is a single requested lock acquisition against one prop index.
type PropRequest struct {
	Index int
	Mode  LockMode
}

// PropEntry is a single prop's lock id and value, used both for requests
// (Put) and for results (Get/Remove).
type PropEntry struct {
	Index int
	// LockID is the lock id to match on Put, or the freshly granted id on
	// a Get result.
	LockID int32
	// Value is nil for a clear-only Put, for a Create-mode Get result, and
	// for an Unassigned/Assigned-Empty prop in a get-all result.
	Value []byte
}

// KeyEntry is one key's fixed-width record of Props, the key bytes, an
// entry-level timestamp, and a tombstone flag. All mutation of a KeyEntry
// or any of its Props must happen while holding mu: a KeyEntry is the unit
// of mutual exclusion in this design.
type KeyEntry struct {
	mu sync.Mutex

	key       []byte // nil once tombstoned
	props     []Prop
	timestamp int64 // monotonic millisecond tick, last touch
}

// newKeyEntry allocates a KeyEntry with numProps Props, all Unassigned, and
// stamps it with the current tick.
func newKeyEntry(key []byte, numProps int) *KeyEntry {
	return &KeyEntry{
		key:       key,
		props:     make([]Prop, numProps),
		timestamp: nowTick(),
	}
}

// touch refreshes the entry's timestamp to now and returns the new value.
// Callers hold mu.
func (e *KeyEntry) touch() int64 {
	e.timestamp = nowTick()
	return e.timestamp
}

// tombstoned reports whether the entry has been logically deleted.
// Callers hold mu.
func (e *KeyEntry) tombstoned() bool {
	return e.key == nil
}

// setDeleted tombstones the entry. Idempotent. Callers hold mu.
func (e *KeyEntry) setDeleted() {
	e.key = nil
}

// countLocked counts the requested prop indexes that are currently
// blocking the given requests, per the §4.1 compatibility table.
// Out-of-range indexes are ignored. Callers hold mu.
func (e *KeyEntry) countLocked(requests []PropRequest, lockSpan int64) int {
	now := nowTick()
	n := 0
	for _, req := range requests {
		if req.Index < 0 || req.Index >= len(e.props) {
			continue
		}
		p := &e.props[req.Index]
		if p.isLocked(now, lockSpan) && p.lock.blocks(req.Mode) {
			n++
		}
	}
	return n
}

// countAllLocked counts every currently-blocking prop, regardless of any
// request filter (used by Delete/Remove, which hold no per-prop mode).
// Callers hold mu.
func (e *KeyEntry) countAllLocked(lockSpan int64) int {
	now := nowTick()
	n := 0
	for i := range e.props {
		p := &e.props[i]
		if p.isLocked(now, lockSpan) {
			n++
		}
	}
	return n
}

// lockAndGet installs a fresh lock of newLockId for every requested,
// in-range index, and produces one PropEntry per request in request order.
// Out-of-range indexes are silently skipped. Callers hold mu.
func (e *KeyEntry) lockAndGet(requests []PropRequest, newLockID int32) []PropEntry {
	now := nowTick()
	out := make([]PropEntry, 0, len(requests))
	for _, req := range requests {
		if req.Index < 0 || req.Index >= len(e.props) {
			continue
		}
		p := &e.props[req.Index]
		p.acquire(newLockID, req.Mode, now)

		entry := PropEntry{Index: req.Index, LockID: newLockID}
		if req.Mode != LockCreate {
			entry.Value = p.currentValue()
		}
		out = append(out, entry)
	}
	return out
}

// getAll emits one PropEntry per Assigned prop, index-ascending, regardless
// of lock state. Callers hold mu.
func (e *KeyEntry) getAll() []PropEntry {
	out := make([]PropEntry, 0, len(e.props))
	for i := range e.props {
		p := &e.props[i]
		if !p.isAssigned() {
			continue
		}
		out = append(out, PropEntry{
			Index:  i,
			LockID: p.lock.ID,
			Value:  p.currentValue(),
		})
	}
	return out
}

// set applies every incoming PropEntry per the §4.2 rules, unlocking each
// prop that passes its check. On the first failure it aborts and returns
// that error; any props already applied earlier in the same call remain
// applied. Callers hold mu.
func (e *KeyEntry) set(values []PropEntry) ErrorCode {
	for _, in := range values {
		if in.Index < 0 || in.Index >= len(e.props) {
			continue
		}
		p := &e.props[in.Index]

		if in.Value != nil {
			// Update: must be assigned, locked, with a matching id, and
			// the held mode must not be Read.
			if !p.isAssigned() {
				return ErrNotLocked
			}
			if p.lock.open() {
				return ErrNotLocked
			}
			if p.lock.ID != in.LockID {
				return ErrLockIdMismatch
			}
			if p.lock.Mode == LockRead {
				return ErrInvalidLock
			}
			p.setValue(in.Value)
		} else {
			// Clear-only: either the id matches, or the currently-held
			// lock is a Read lock (accommodating the replace-on-read
			// rule, under which the clearing client may not be the
			// current holder).
			if p.lock.ID != in.LockID && p.lock.Mode != LockRead {
				return ErrLockIdMismatch
			}
			p.clearLock()
		}
	}
	return ErrNone
}
