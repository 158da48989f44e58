// Package registry provides a central registry of known projects with
// event-driven change notification: a register/watch/unwatch shape for
// tracking which build projects exist. The dependency graph itself
// lives in internal/graph; this package only tracks which projects are
// known and broadcasts when that changes.
package registry

import (
	"sync"
	"time"

	"github.com/conneroisu/projtool/internal/types"
)

// ProjectInfo is what the registry knows about a project: its
// canonical key, the resolved config path it was parsed from, and
// whether its last status evaluation found it unbuildable or blocked
// by a failed upstream.
type ProjectInfo struct {
	Key        types.CanonicalKey
	ConfigFile types.ResolvedName
	HasErrors  bool
}

// Registry tracks known projects with thread-safe operations and
// broadcasts change events to any channel subscribed through Watch.
type Registry struct {
	mutex    sync.RWMutex
	projects map[types.CanonicalKey]*ProjectInfo
	watchers []chan types.ProjectEvent
}

// New creates an empty project registry.
func New() *Registry {
	return &Registry{
		projects: make(map[types.CanonicalKey]*ProjectInfo),
	}
}

// Register adds or updates a project in the registry and notifies
// watchers. The event is Added the first time key is seen, Updated on
// every subsequent call.
func (r *Registry) Register(info *ProjectInfo) {
	r.mutex.Lock()
	eventType := types.EventTypeAdded
	if _, exists := r.projects[info.Key]; exists {
		eventType = types.EventTypeUpdated
	}
	r.projects[info.Key] = info
	r.mutex.Unlock()

	r.broadcast(types.ProjectEvent{Type: eventType, Key: info.Key, Timestamp: time.Now()})
}

// Get retrieves a project by key.
func (r *Registry) Get(key types.CanonicalKey) (*ProjectInfo, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	info, ok := r.projects[key]
	return info, ok
}

// All returns every registered project, in no particular order.
func (r *Registry) All() []*ProjectInfo {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make([]*ProjectInfo, 0, len(r.projects))
	for _, info := range r.projects {
		out = append(out, info)
	}
	return out
}

// Remove drops a project from the registry and notifies watchers.
func (r *Registry) Remove(key types.CanonicalKey) {
	r.mutex.Lock()
	_, exists := r.projects[key]
	delete(r.projects, key)
	r.mutex.Unlock()

	if exists {
		r.broadcast(types.ProjectEvent{Type: types.EventTypeRemoved, Key: key, Timestamp: time.Now()})
	}
}

// Count returns the number of registered projects.
func (r *Registry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.projects)
}

// Watch returns a channel that receives project events. The channel
// is buffered to avoid blocking the registry on a slow consumer;
// events are dropped, not queued, once the buffer is full. Callers
// must call Unwatch to release the channel.
func (r *Registry) Watch() <-chan types.ProjectEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	ch := make(chan types.ProjectEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// Unwatch removes and closes a watcher channel previously returned by
// Watch.
func (r *Registry) Unwatch(ch <-chan types.ProjectEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for i, w := range r.watchers {
		if w == ch {
			close(w)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			return
		}
	}
}

func (r *Registry) broadcast(event types.ProjectEvent) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	for _, w := range r.watchers {
		select {
		case w <- event:
		default:
		}
	}
}
