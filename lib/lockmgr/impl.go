package lockmgr

import (
	"fmt"

	"github.com/ValentinKolb/tstore/lib/core"
)

// lockProp is the fixed prop index this manager uses as the lock record; a
// TransientStore backing a lock manager only ever needs one prop per key.
const lockProp = 0

type lockManagerImpl struct {
	store *core.TransientStore
}

// NewLockManager builds an ILockManager over store. The store should be
// configured with at least one prop; every key this manager touches only
// ever uses prop 0.
func NewLockManager(store *core.TransientStore) ILockManager {
	return &lockManagerImpl{store: store}
}

func (lp *lockManagerImpl) AcquireLock(key string, timeoutSeconds uint64) (bool, []byte, error) {
	keyBytes := []byte(key)

	// Create is idempotent here: the key may already exist from a prior
	// acquire whose holder has since released or timed out.
	lp.store.Create(keyBytes)

	res := lp.store.GetAsync(keyBytes, []core.PropRequest{{Index: lockProp, Mode: core.LockUpdate}}, uint32(timeoutSeconds), false)
	switch res.Status {
	case core.ErrNone:
		return true, encodeOwnerID(res.Values[0].LockID), nil
	case core.ErrLockWaitTimeOut:
		return false, nil, nil
	default:
		return false, nil, fmt.Errorf("acquire lock %q: %s", key, res.Status)
	}
}

func (lp *lockManagerImpl) ReleaseLock(key string, ownerID []byte) (bool, error) {
	lockID, ok := decodeOwnerID(ownerID)
	if !ok {
		return false, fmt.Errorf("release lock %q: malformed owner id", key)
	}

	status := lp.store.PutAsync([]byte(key), []core.PropEntry{{Index: lockProp, LockID: lockID}})
	switch status {
	case core.ErrNone:
		return true, nil
	case core.ErrDoesNotExist:
		// the lock no longer exists, which this interface treats as released.
		return true, nil
	case core.ErrLockIdMismatch:
		return false, nil
	default:
		return false, fmt.Errorf("release lock %q: %s", key, status)
	}
}
