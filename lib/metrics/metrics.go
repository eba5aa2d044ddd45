// Package metrics wires VictoriaMetrics-flavored counters, gauges, and
// histograms for the stores, sweeper, and RPC layer, and exposes them over
// an HTTP handler in the Prometheus text exposition format.
package metrics

import (
	"net/http"

	"github.com/VictoriaMetrics/metrics"
)

// Registry owns one VictoriaMetrics Set per named store, plus a shared set
// for process-wide (sweeper, RPC) metrics.
type Registry struct {
	shared *metrics.Set
	stores map[string]*metrics.Set
}

// New creates an empty Registry with its own Set, independent of the
// package-level default set so a caller can run multiple Registries (e.g.
// in tests) without cross-contaminating samples.
func New() *Registry {
	return &Registry{
		shared: metrics.NewSet(),
		stores: make(map[string]*metrics.Set),
	}
}

// Shared returns the process-wide metrics set, for the sweeper and RPC
// server/client to record into.
func (r *Registry) Shared() *metrics.Set {
	return r.shared
}

// ForStore returns (creating on first use) the metrics set for a named
// store. The set starts empty; counters are created in it on first use.
func (r *Registry) ForStore(name string) *metrics.Set {
	if set, ok := r.stores[name]; ok {
		return set
	}
	set := metrics.NewSet()
	r.stores[name] = set
	return set
}

// Handler returns an http.Handler that writes every registered set's
// metrics, in Prometheus text exposition format, to the response.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.shared.WritePrometheus(w)
		for _, set := range r.stores {
			set.WritePrometheus(w)
		}
	})
}
