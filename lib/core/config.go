package core

import "time"

// StoreConfig configures one TransientStore. It is built via functional
// options and validated once, at NewTransientStore time; there is no later
// setter, so a rejected configuration simply never produces a store.
type StoreConfig struct {
	numProps    int
	timeOut     time.Duration
	lockTimeOut time.Duration
}

// Option configures a StoreConfig.
type Option func(*StoreConfig)

// WithNumProps sets the fixed number of lockable props per key.
func WithNumProps(n int) Option {
	return func(c *StoreConfig) { c.numProps = n }
}

// WithTimeOut sets the per-entry idle timeout.
func WithTimeOut(d time.Duration) Option {
	return func(c *StoreConfig) { c.timeOut = d }
}

// WithLockTimeOut sets the per-lock age timeout.
func WithLockTimeOut(d time.Duration) Option {
	return func(c *StoreConfig) { c.lockTimeOut = d }
}

// defaultStoreConfig mirrors the defaults named in the external interface
// section: both timeouts are zero. A zero TimeOut lets the next sweep evict
// every entry, and a zero LockTimeOut lets a lock expire once it is older
// than one millisecond; neither value disables expiry.
func defaultStoreConfig() StoreConfig {
	return StoreConfig{
		numProps:    1,
		timeOut:     0,
		lockTimeOut: 0,
	}
}

// validate enforces TimeOut >= 0, LockTimeOut >= 0, and
// TimeOut >= 2*LockTimeOut. Violating any of these rejects the
// configuration outright.
func (c StoreConfig) validate() error {
	if c.numProps <= 0 {
		return newConfigErr("numProps must be positive, got %d", c.numProps)
	}
	if c.timeOut < 0 {
		return newConfigErr("timeOut must be >= 0, got %s", c.timeOut)
	}
	if c.lockTimeOut < 0 {
		return newConfigErr("lockTimeOut must be >= 0, got %s", c.lockTimeOut)
	}
	if c.timeOut < 2*c.lockTimeOut {
		return newConfigErr("timeOut (%s) must be >= 2 * lockTimeOut (%s)", c.timeOut, c.lockTimeOut)
	}
	return nil
}
