package core

import "testing"

func TestKeyEntryLockAndGetSkipsOutOfRange(t *testing.T) {
	e := newKeyEntry([]byte("k"), 2)
	results := e.lockAndGet([]PropRequest{{Index: -1, Mode: LockRead}, {Index: 5, Mode: LockRead}, {Index: 0, Mode: LockRead}}, 1)
	if len(results) != 1 {
		t.Fatalf("expected only the in-range request to produce a result, got %d", len(results))
	}
	if results[0].Index != 0 {
		t.Fatalf("expected result for index 0, got %d", results[0].Index)
	}
}

func TestKeyEntryCreateModeSuppressesValue(t *testing.T) {
	e2 := newKeyEntry([]byte("k2"), 1)
	got := e2.lockAndGet([]PropRequest{{Index: 0, Mode: LockUpdate}}, 7)
	status := e2.set([]PropEntry{{Index: 0, LockID: got[0].LockID, Value: []byte("hello")}})
	if status != ErrNone {
		t.Fatalf("expected set to succeed, got %s", status)
	}

	createResult := e2.lockAndGet([]PropRequest{{Index: 0, Mode: LockCreate}}, 9)
	if createResult[0].Value != nil {
		t.Fatalf("Create-mode get must suppress the stored value, got %q", createResult[0].Value)
	}

	readResult := e2.lockAndGet([]PropRequest{{Index: 0, Mode: LockRead}}, 10)
	if string(readResult[0].Value) != "hello" {
		t.Fatalf("Read-mode get must return the stored value, got %q", readResult[0].Value)
	}
}

func TestKeyEntryReadLockReplacement(t *testing.T) {
	e := newKeyEntry([]byte("k"), 1)

	resultA := e.lockAndGet([]PropRequest{{Index: 0, Mode: LockRead}}, 1)
	idA := resultA[0].LockID

	blocked := e.countLocked([]PropRequest{{Index: 0, Mode: LockRead}}, 1000)
	if blocked != 0 {
		t.Fatalf("a Read request against a held Read lock must not block")
	}

	resultB := e.lockAndGet([]PropRequest{{Index: 0, Mode: LockRead}}, 2)
	idB := resultB[0].LockID
	if idA == idB {
		t.Fatalf("replacement must grant a fresh lock id")
	}

	// A's clear-only Put still succeeds: current holder is a Read lock.
	status := e.set([]PropEntry{{Index: 0, LockID: idA, Value: nil}})
	if status != ErrNone {
		t.Fatalf("clear-only Put under a Read lock must succeed regardless of id, got %s", status)
	}

	// A's value-bearing Put does not: the lock is now open (cleared above).
	status = e.set([]PropEntry{{Index: 0, LockID: idA, Value: []byte("x")}})
	if status != ErrNotLocked {
		t.Fatalf("value-bearing Put against an open lock must fail with NotLocked, got %s", status)
	}
}

func TestKeyEntryUpdateLockExclusivity(t *testing.T) {
	e := newKeyEntry([]byte("k"), 1)
	e.lockAndGet([]PropRequest{{Index: 0, Mode: LockUpdate}}, 1)

	blocked := e.countLocked([]PropRequest{{Index: 0, Mode: LockRead}}, 1000)
	if blocked != 1 {
		t.Fatalf("a held Update lock must block a concurrent Read request")
	}
	blocked = e.countLocked([]PropRequest{{Index: 0, Mode: LockUpdate}}, 1000)
	if blocked != 1 {
		t.Fatalf("a held Update lock must block a concurrent Update request")
	}
}

func TestKeyEntrySetErrorOrdering(t *testing.T) {
	e := newKeyEntry([]byte("k"), 1)

	// NotLocked: prop never assigned.
	status := e.set([]PropEntry{{Index: 0, LockID: 0, Value: []byte("v")}})
	if status != ErrNotLocked {
		t.Fatalf("expected NotLocked on an Unassigned prop, got %s", status)
	}

	got := e.lockAndGet([]PropRequest{{Index: 0, Mode: LockUpdate}}, 42)
	lockID := got[0].LockID

	// LockIdMismatch: assigned, locked, id does not match.
	status = e.set([]PropEntry{{Index: 0, LockID: lockID + 1, Value: []byte("v")}})
	if status != ErrLockIdMismatch {
		t.Fatalf("expected LockIdMismatch, got %s", status)
	}

	// InvalidLock: held mode is Read, attempting a value-bearing Put.
	readResult := e.lockAndGet([]PropRequest{{Index: 0, Mode: LockRead}}, 43)
	status = e.set([]PropEntry{{Index: 0, LockID: readResult[0].LockID, Value: []byte("v")}})
	if status != ErrInvalidLock {
		t.Fatalf("expected InvalidLock for a value-bearing Put under a Read lock, got %s", status)
	}
}

func TestKeyEntryExpiredButUnreplacedLock(t *testing.T) {
	e := newKeyEntry([]byte("k"), 1)
	// Install the lock directly with a timestamp far in the past so the
	// expiry check is exercised deterministically rather than racing the
	// real clock.
	const lockID = int32(5)
	e.props[0].acquire(lockID, LockUpdate, -1_000_000)

	blocked := e.countAllLocked(1000)
	if blocked != 0 {
		t.Fatalf("a lock older than lockSpan must read as already expired")
	}

	status := e.set([]PropEntry{{Index: 0, LockID: lockID, Value: []byte("late")}})
	if status != ErrNone {
		t.Fatalf("the original holder's Put must still succeed against an expired-but-unreplaced lock, got %s", status)
	}
}

func TestKeyEntryGetAllOnlyAssigned(t *testing.T) {
	e := newKeyEntry([]byte("k"), 3)
	e.lockAndGet([]PropRequest{{Index: 0, Mode: LockUpdate}}, 1)
	e.set([]PropEntry{{Index: 0, LockID: 1, Value: []byte("v0")}})

	all := e.getAll()
	if len(all) != 1 {
		t.Fatalf("expected exactly one Assigned prop, got %d", len(all))
	}
	if all[0].Index != 0 || string(all[0].Value) != "v0" {
		t.Fatalf("unexpected getAll result: %+v", all[0])
	}
}
