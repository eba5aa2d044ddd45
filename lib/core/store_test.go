package core

import (
	"testing"
	"time"
)

func TestCreateAndExists(t *testing.T) {
	store, err := NewTransientStore(WithNumProps(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !store.Create([]byte("k1")) {
		t.Fatalf("expected first Create to succeed")
	}
	if store.Create([]byte("k1")) {
		t.Fatalf("expected second Create of the same key to fail")
	}

	res := store.Exists([]byte("k1"))
	if !res.Exists {
		t.Fatalf("expected k1 to exist")
	}
	if res.SecondsSince != 0 {
		t.Fatalf("expected SecondsSince 0 immediately after Create, got %d", res.SecondsSince)
	}

	if store.Exists([]byte("missing")).Exists {
		t.Fatalf("expected a never-created key to not exist")
	}
}

func TestGetPutRoundTrip(t *testing.T) {
	store, err := NewTransientStore(WithNumProps(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	getResult := store.GetAsync([]byte("k"), []PropRequest{{Index: 0, Mode: LockUpdate}}, 0, false)
	if getResult.Status != ErrNone {
		t.Fatalf("expected None, got %s", getResult.Status)
	}
	if len(getResult.Values) != 1 || getResult.Values[0].Value != nil {
		t.Fatalf("expected a single nil-value result for a never-written prop, got %+v", getResult.Values)
	}
	lockID := getResult.Values[0].LockID

	putStatus := store.PutAsync([]byte("k"), []PropEntry{{Index: 0, LockID: lockID, Value: []byte("hi")}})
	if putStatus != ErrNone {
		t.Fatalf("expected Put to succeed, got %s", putStatus)
	}

	readResult := store.GetAsync([]byte("k"), []PropRequest{{Index: 0, Mode: LockRead}}, 0, false)
	if readResult.Status != ErrNone {
		t.Fatalf("expected None, got %s", readResult.Status)
	}
	if string(readResult.Values[0].Value) != "hi" {
		t.Fatalf("expected the value written by Put, got %q", readResult.Values[0].Value)
	}
}

func TestContentionWithoutForce(t *testing.T) {
	store, err := NewTransientStore(WithNumProps(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := store.GetAsync([]byte("k"), []PropRequest{{Index: 0, Mode: LockUpdate}}, 0, false)
	if first.Status != ErrNone {
		t.Fatalf("expected first caller to succeed, got %s", first.Status)
	}

	second := store.GetAsync([]byte("k"), []PropRequest{{Index: 0, Mode: LockUpdate}}, 0, false)
	if second.Status != ErrLockWaitTimeOut {
		t.Fatalf("expected LockWaitTimeOut with maxWaitSeconds=0, got %s", second.Status)
	}
	if len(second.Values) != 0 {
		t.Fatalf("expected no values alongside LockWaitTimeOut")
	}
}

func TestContentionWithWaitSucceedsViaSweeper(t *testing.T) {
	store, err := NewTransientStore(WithNumProps(1), WithTimeOut(5*time.Second), WithLockTimeOut(time.Second))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := store.GetAsync([]byte("k"), []PropRequest{{Index: 0, Mode: LockUpdate}}, 0, false)
	if first.Status != ErrNone {
		t.Fatalf("expected first caller to succeed, got %s", first.Status)
	}
	firstLockID := first.Values[0].LockID

	resultCh := make(chan GetResult, 1)
	go func() {
		resultCh <- store.GetAsync([]byte("k"), []PropRequest{{Index: 0, Mode: LockUpdate}}, 2, false)
	}()

	// Give the second caller time to park before the first caller releases
	// the lock via Put.
	time.Sleep(50 * time.Millisecond)

	putStatus := store.PutAsync([]byte("k"), []PropEntry{{Index: 0, LockID: firstLockID, Value: []byte("prior")}})
	if putStatus != ErrNone {
		t.Fatalf("expected Put to succeed, got %s", putStatus)
	}

	// Drive the sweeper manually: a production deployment relies on
	// lib/sweeper to call this periodically.
	deadline := time.Now().Add(2 * time.Second)
	var second GetResult
	for time.Now().Before(deadline) {
		store.ProcessLockWaitQueue()
		select {
		case second = <-resultCh:
			if second.Status != ErrNone {
				t.Fatalf("expected the parked retry to eventually succeed, got %s", second.Status)
			}
			if string(second.Values[0].Value) != "prior" {
				t.Fatalf("expected the parked retry to observe the prior Put's value, got %q", second.Values[0].Value)
			}
			return
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	t.Fatalf("parked retry did not resolve within the deadline")
}

func TestForceSemantics(t *testing.T) {
	store, err := NewTransientStore(WithNumProps(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := store.GetAsync([]byte("k"), []PropRequest{{Index: 0, Mode: LockUpdate}}, 0, false)
	firstLockID := first.Values[0].LockID

	second := store.GetAsync([]byte("k"), []PropRequest{{Index: 0, Mode: LockUpdate}}, 0, true)
	if second.Status != ErrNone {
		t.Fatalf("expected a forced acquisition to succeed, got %s", second.Status)
	}
	if second.Values[0].LockID == firstLockID {
		t.Fatalf("expected a forced acquisition to grant a fresh lock id")
	}

	putStatus := store.PutAsync([]byte("k"), []PropEntry{{Index: 0, LockID: firstLockID, Value: []byte("x")}})
	if putStatus != ErrLockIdMismatch {
		t.Fatalf("expected the original holder's Put to fail with LockIdMismatch after a forced takeover, got %s", putStatus)
	}
}

func TestExpiredButUnreplacedLockAtStoreLevel(t *testing.T) {
	store, err := NewTransientStore(WithNumProps(1), WithTimeOut(200*time.Millisecond), WithLockTimeOut(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := store.GetAsync([]byte("k"), []PropRequest{{Index: 0, Mode: LockUpdate}}, 0, false)
	lockID := first.Values[0].LockID

	time.Sleep(80 * time.Millisecond)

	putStatus := store.PutAsync([]byte("k"), []PropEntry{{Index: 0, LockID: lockID, Value: []byte("late")}})
	if putStatus != ErrNone {
		t.Fatalf("expected the original holder's Put to succeed against an expired-but-unreplaced lock, got %s", putStatus)
	}
}

func TestRemoveReturnsValues(t *testing.T) {
	store, err := NewTransientStore(WithNumProps(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	get := store.GetAsync([]byte("k"), []PropRequest{{Index: 0, Mode: LockUpdate}}, 0, false)
	store.PutAsync([]byte("k"), []PropEntry{{Index: 0, LockID: get.Values[0].LockID, Value: []byte("hi")}})

	remove := store.RemoveAsync([]byte("k"), 0, true)
	if remove.Status != ErrNone {
		t.Fatalf("expected Remove to succeed, got %s", remove.Status)
	}
	if len(remove.Values) != 1 || string(remove.Values[0].Value) != "hi" {
		t.Fatalf("expected Remove to return the stored value, got %+v", remove.Values)
	}

	if store.Exists([]byte("k")).Exists {
		t.Fatalf("expected k to no longer exist after Remove")
	}
}

func TestDeleteAsyncDoesNotExist(t *testing.T) {
	store, err := NewTransientStore()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	result := store.DeleteAsync([]byte("never-created"), 0, false)
	if result.Status != ErrDoesNotExist {
		t.Fatalf("expected DoesNotExist, got %s", result.Status)
	}
}

func TestTimeoutSweep(t *testing.T) {
	store, err := NewTransientStore(WithTimeOut(150*time.Millisecond), WithLockTimeOut(50*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.Create([]byte("k"))
	time.Sleep(250 * time.Millisecond)

	evicted := store.ProcessTimeOuts()
	if evicted != 1 {
		t.Fatalf("expected the sweep to evict exactly 1 entry, got %d", evicted)
	}

	if store.Exists([]byte("k")).Exists {
		t.Fatalf("expected k to be gone after the sweep")
	}
}

func TestTombstoneRaceDoesNotEvictTheNewEntry(t *testing.T) {
	store, err := NewTransientStore(WithTimeOut(100*time.Millisecond), WithLockTimeOut(10*time.Millisecond))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.Create([]byte("k"))
	// Let the old entry approach (but not reach) its own timeout window
	// before it is deleted and immediately re-created, so the stale
	// TimeoutQueue record and the fresh one have clearly separated expiry
	// times instead of racing each other.
	time.Sleep(60 * time.Millisecond)
	store.DeleteAsync([]byte("k"), 0, false)
	// A stale TimeoutQueue record for the deleted entry is still pending.
	store.Create([]byte("k"))

	// Elapse past the old record's 100ms window (total 110ms since the
	// first Create) but stay well inside the new entry's own window
	// (only ~50ms old).
	time.Sleep(50 * time.Millisecond)
	store.ProcessTimeOuts()

	if !store.Exists([]byte("k")).Exists {
		t.Fatalf("the re-created entry must not be evicted by a stale timeout record for the deleted one")
	}
}

func TestClearStoreDiscardsWithoutRespectingLocks(t *testing.T) {
	store, err := NewTransientStore(WithNumProps(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store.GetAsync([]byte("k"), []PropRequest{{Index: 0, Mode: LockUpdate}}, 0, false)
	store.Create([]byte("other"))

	store.ClearStore()

	if store.Exists([]byte("k")).Exists || store.Exists([]byte("other")).Exists {
		t.Fatalf("expected ClearStore to remove every entry regardless of lock state")
	}
	if store.Len() != 0 {
		t.Fatalf("expected an empty store after ClearStore, got %d entries", store.Len())
	}
}
