package core

// Prop is one lockable slot within a KeyEntry's record. It is a value type
// with three observable states, distinguished by assigned/hasValue rather
// than by the value slice alone, so that a never-written prop (Unassigned)
// can be told apart from a locked-but-never-written one (Assigned-Empty)
// and from one that genuinely holds a zero-length value.
type Prop struct {
	lock     PropLock
	assigned bool
	hasValue bool
	value    []byte
}

// isAssigned reports whether the prop has ever been locked (Assigned-Empty
// or Assigned-WithValue), as opposed to Unassigned.
func (p *Prop) isAssigned() bool {
	return p.assigned
}

// currentValue returns the stored value, or nil if the prop holds no value
// yet (Unassigned or Assigned-Empty).
func (p *Prop) currentValue() []byte {
	if !p.hasValue {
		return nil
	}
	return p.value
}

// isLocked reports whether the prop is currently under a non-open,
// non-expired lock. An Unassigned prop is never considered locked
// regardless of any stale lock record.
func (p *Prop) isLocked(now, lockSpan int64) bool {
	if !p.assigned {
		return false
	}
	if p.lock.open() {
		return false
	}
	return !p.lock.expired(now, lockSpan)
}

// acquire installs a fresh lock of the given mode and id. If the prop was
// Unassigned, it transitions to Assigned-Empty. The stored value is left
// untouched (acquiring a lock, including Create, never changes the value).
func (p *Prop) acquire(id int32, mode LockMode, now int64) {
	p.lock = PropLock{ID: id, Mode: mode, Timestamp: now}
	p.assigned = true
}

// setValue stores a new value and opens the lock.
func (p *Prop) setValue(value []byte) {
	p.value = value
	p.hasValue = true
	p.assigned = true
	p.lock.Mode = LockNone
}

// clearLock opens the lock without touching the value.
func (p *Prop) clearLock() {
	p.lock.Mode = LockNone
}
