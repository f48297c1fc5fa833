// Package introspect provides explicit instance counting and live-object
// tracking for DialogueMesh components.
//
// Nothing here is installed implicitly: applications that want counts pass a
// Counter into constructors, and components that want their live objects
// enumerable register them into a LiveSet. All cross-thread reads go through
// the LiveSet's own lock; the engine's single-threaded state is never read
// directly.
package introspect

import (
	"sync"
	"sync/atomic"
)

// Counter counts created instances of one object kind. Implementations must
// be safe for concurrent use; Inc may be called from the engine control
// thread while Value is read elsewhere.
type Counter interface {
	Inc()
	Value() int64
}

// TallyCounter is the default Counter: a single atomic counter.
type TallyCounter struct {
	n atomic.Int64
}

// NewTallyCounter returns a zeroed TallyCounter.
func NewTallyCounter() *TallyCounter { return &TallyCounter{} }

// Inc increments the tally.
func (c *TallyCounter) Inc() { c.n.Add(1) }

// Value returns the current tally.
func (c *TallyCounter) Value() int64 { return c.n.Load() }

// LiveSet is an explicit registry of live objects keyed by a string
// identity. Objects register on creation and deregister when retired;
// background introspection reads snapshots under the set's lock without
// touching the owner's state.
type LiveSet struct {
	mu      sync.RWMutex
	objects map[string]any
}

// NewLiveSet returns an empty LiveSet.
func NewLiveSet() *LiveSet {
	return &LiveSet{objects: make(map[string]any)}
}

// Register adds or replaces the object stored under key.
func (s *LiveSet) Register(key string, obj any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = obj
}

// Deregister removes the object stored under key, if any.
func (s *LiveSet) Deregister(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
}

// Rekey moves an object from oldKey to newKey. Used when an object's
// identity changes, e.g. a dialogue label completing.
func (s *LiveSet) Rekey(oldKey, newKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj, ok := s.objects[oldKey]; ok {
		delete(s.objects, oldKey)
		s.objects[newKey] = obj
	}
}

// Len returns the number of registered objects.
func (s *LiveSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Snapshot returns a copy of the registered objects. The copy is safe to
// iterate without holding the set's lock; the objects themselves must be
// treated as read-only by introspection consumers.
func (s *LiveSet) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.objects))
	for k, v := range s.objects {
		out[k] = v
	}
	return out
}
