// Package lockmgr implements a simple named-mutex facade over a
// TransientStore: AcquireLock/ReleaseLock against one key, rather than the
// per-prop Read/Update/Create lock vocabulary core exposes directly.
//
// Core Functionality:
//   - Lock acquisition with an optional wait timeout
//   - Safe release that verifies the caller still holds the lock
//
// Implementation Approach:
//
//	A lock is a TransientStore key with a single prop (index 0, never
//	assigned a value). Acquiring the lock is a Create followed by a
//	LockUpdate-mode Get, which blocks (up to timeoutSeconds) on contention
//	exactly the way any other Update lock would; the granted LockID is
//	encoded into the returned owner token. Releasing is a Put against prop
//	0 with a matching LockID and no value, which clears the lock without
//	ever assigning it a value.
//
// Thread Safety:
//
//	As thread-safe as the underlying TransientStore.
//
// Usage Example:
//
//	store, _ := core.NewTransientStore(core.WithNumProps(1))
//	mgr := lockmgr.NewLockManager(store)
//
//	acquired, ownerID, err := mgr.AcquireLock("resource:123", 30)
//	if err != nil {
//	    // handle error
//	}
//	if acquired {
//	    // use the resource
//	    released, err := mgr.ReleaseLock("resource:123", ownerID)
//	    if err != nil {
//	        // handle error
//	    }
//	}
//
// Performance Impact:
//
//	AcquireLock is one Create plus one Get; ReleaseLock is one Put. Both
//	ride the same lock-wait/sweeper machinery as any other store operation.
package lockmgr
