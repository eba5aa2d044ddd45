// Package registry implements the process-level "storage manager": a
// named lookup table of open TransientStore instances, their lifecycle, and
// enumeration.
package registry

import (
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ValentinKolb/tstore/lib/core"
	"github.com/ValentinKolb/tstore/lib/log"
)

var registryLogger = log.Get("registry")

// Registry is the StoreRegistry collaborator named in the external
// interfaces section: Add, RemoveStore, Get, List, CloseAll, all serialized under
// a single registry mutex for the mutating operations. Lookups ride the
// underlying concurrent map without that mutex.
type Registry struct {
	mu     sync.Mutex
	stores *xsync.MapOf[string, *core.TransientStore]
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		stores: xsync.NewMapOf[string, *core.TransientStore](),
	}
}

// Add registers store under name. It fails if the name is already taken.
func (r *Registry) Add(name string, store *core.TransientStore) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, loaded := r.stores.LoadOrStore(name, store)
	if loaded {
		return false
	}
	registryLogger.Infof("registered store %q", name)
	return true
}

// Get looks up a store by name.
func (r *Registry) Get(name string) (*core.TransientStore, bool) {
	return r.stores.Load(name)
}

// List returns every registered store name. The order is unspecified.
func (r *Registry) List() []string {
	names := make([]string, 0, r.stores.Size())
	r.stores.Range(func(name string, _ *core.TransientStore) bool {
		names = append(names, name)
		return true
	})
	return names
}

// RemoveStore unregisters name and clears the store it pointed to. Returns
// false if no store was registered under that name.
func (r *Registry) RemoveStore(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, loaded := r.stores.LoadAndDelete(name)
	if !loaded {
		return false
	}
	store.ClearStore()
	store.Close()
	registryLogger.Infof("removed store %q", name)
	return true
}

// CloseAll clears and closes every registered store, then empties the
// registry. Intended for process shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stores.Range(func(name string, store *core.TransientStore) bool {
		store.ClearStore()
		store.Close()
		return true
	})
	r.stores.Clear()
	registryLogger.Infof("closed all stores")
}
