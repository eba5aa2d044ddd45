// Package sweeper implements the periodic driver: a single process-wide
// ticker that, across every store in a Registry, drains lock-wait retries
// and expired entries, and occasionally probes available memory.
package sweeper

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/ValentinKolb/tstore/lib/log"
	"github.com/ValentinKolb/tstore/lib/registry"
)

var sweeperLogger = log.Get("sweeper")

const (
	// DefaultTimeoutCheckPeriod is the default tick period for draining the
	// lock-wait queue and evicting timed-out entries.
	DefaultTimeoutCheckPeriod = 500 * time.Millisecond
	// DefaultMemoryCheckPeriod is the default cadence for the advisory
	// memory probe.
	DefaultMemoryCheckPeriod = 10 * time.Second
)

// ManagerConfig configures a Sweeper.
type ManagerConfig struct {
	// TimeoutCheckPeriod is how often the check timer fires.
	TimeoutCheckPeriod time.Duration
	// MemoryCheckPeriod is how often the advisory memory probe runs; it is
	// sampled in terms of elapsed ticks, not its own timer.
	MemoryCheckPeriod time.Duration
	// MaxMemoryBytes is the advisory heap ceiling. Zero disables the probe.
	MaxMemoryBytes uint64
}

// ManagerOption configures a ManagerConfig.
type ManagerOption func(*ManagerConfig)

// WithTimeoutCheckPeriod overrides DefaultTimeoutCheckPeriod.
func WithTimeoutCheckPeriod(d time.Duration) ManagerOption {
	return func(c *ManagerConfig) { c.TimeoutCheckPeriod = d }
}

// WithMemoryCheckPeriod overrides DefaultMemoryCheckPeriod.
func WithMemoryCheckPeriod(d time.Duration) ManagerOption {
	return func(c *ManagerConfig) { c.MemoryCheckPeriod = d }
}

// WithMaxMemoryBytes enables the advisory memory probe at the given ceiling.
func WithMaxMemoryBytes(n uint64) ManagerOption {
	return func(c *ManagerConfig) { c.MaxMemoryBytes = n }
}

func defaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		TimeoutCheckPeriod: DefaultTimeoutCheckPeriod,
		MemoryCheckPeriod:  DefaultMemoryCheckPeriod,
	}
}

// Sweeper is the periodic driver. Re-entrancy within a single tick is
// suppressed via a try-lock (isRunning): if a previous tick is still
// running when the timer fires again, the new tick is skipped rather than
// queued.
type Sweeper struct {
	cfg ManagerConfig
	reg *registry.Registry

	isRunning atomic.Bool
	started   atomic.Bool
	stopped   atomic.Bool
	stopCh    chan struct{}

	ticksSinceMemoryCheck int
	memoryLow             atomic.Bool
	heapBytes             atomic.Uint64

	metrics *metrics.Set
}

// New creates a Sweeper over reg. It does not start ticking until Start is
// called.
func New(reg *registry.Registry, opts ...ManagerOption) *Sweeper {
	cfg := defaultManagerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Sweeper{
		cfg:    cfg,
		reg:    reg,
		stopCh: make(chan struct{}),
	}
}

// SetMetrics attaches a VictoriaMetrics set that sweep-duration and
// memory-pressure gauges are recorded into. A nil set disables collection.
// Gauges in this library are callback-driven, so they are registered once,
// here, reading back whatever checkMemory last observed.
func (s *Sweeper) SetMetrics(set *metrics.Set) {
	s.metrics = set
	if set == nil {
		return
	}
	set.GetOrCreateGauge("memory_heap_bytes", func() float64 {
		return float64(s.heapBytes.Load())
	})
	set.GetOrCreateGauge("memory_low", func() float64 {
		if s.memoryLow.Load() {
			return 1
		}
		return 0
	})
}

// Start runs the check timer loop in its own goroutine. Calling Start twice
// has no effect beyond the first call.
func (s *Sweeper) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
}

// Stop halts the check timer loop. It does not wait for an in-flight tick
// to finish.
func (s *Sweeper) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
}

func (s *Sweeper) run() {
	ticker := time.NewTicker(s.cfg.TimeoutCheckPeriod)
	defer ticker.Stop()

	sweeperLogger.Infof("sweeper started: timeoutCheckPeriod=%s memoryCheckPeriod=%s", s.cfg.TimeoutCheckPeriod, s.cfg.MemoryCheckPeriod)

	for {
		select {
		case <-s.stopCh:
			sweeperLogger.Infof("sweeper stopped")
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick is the unit of work a single timer fire performs. It is exported via
// Tick for tests and for callers that want to drive the sweeper manually
// instead of via Start's background goroutine.
func (s *Sweeper) tick() {
	if !s.isRunning.CompareAndSwap(false, true) {
		return
	}
	defer s.isRunning.Store(false)

	start := time.Now()

	for _, name := range s.reg.List() {
		store, ok := s.reg.Get(name)
		if !ok {
			continue
		}
		store.ProcessLockWaitQueue()
		store.ProcessTimeOuts()
	}

	s.ticksSinceMemoryCheck++
	memoryCheckTicks := int(s.cfg.MemoryCheckPeriod / s.cfg.TimeoutCheckPeriod)
	if memoryCheckTicks > 0 && s.ticksSinceMemoryCheck >= memoryCheckTicks {
		s.ticksSinceMemoryCheck = 0
		s.checkMemory()
	}

	if s.metrics != nil {
		s.metrics.GetOrCreateHistogram("sweep_duration_seconds").Update(time.Since(start).Seconds())
	}
}

// Tick runs a single sweep synchronously, honoring the same re-entrancy
// guard as the background loop. Intended for tests and for manual driving
// in embedding programs that don't want a background goroutine.
func (s *Sweeper) Tick() {
	s.tick()
}

// checkMemory is the advisory probe named in §4.6: if heap usage exceeds
// MaxMemoryBytes, request a full GC and re-probe. Purely advisory; no
// operation consults MemoryLow.
func (s *Sweeper) checkMemory() {
	if s.cfg.MaxMemoryBytes == 0 {
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	low := mem.HeapAlloc > s.cfg.MaxMemoryBytes
	if low {
		sweeperLogger.Warningf("heap usage %d exceeds ceiling %d, requesting GC", mem.HeapAlloc, s.cfg.MaxMemoryBytes)
		runtime.GC()
		runtime.ReadMemStats(&mem)
		low = mem.HeapAlloc > s.cfg.MaxMemoryBytes
	}
	s.memoryLow.Store(low)
	s.heapBytes.Store(mem.HeapAlloc)
}

// MemoryLow reports the most recent advisory memory-pressure flag.
func (s *Sweeper) MemoryLow() bool {
	return s.memoryLow.Load()
}
