// Package weakmap provides a map whose values are held by weak pointers.
//
// An entry never keeps its value alive. Once the last strong reference to a
// value is dropped, lookups report the entry as absent and a cleanup removes
// it from the map.
package weakmap

import (
	"runtime"
	"sync"
	"weak"
)

// Map is a concurrency-safe map from K to weakly held *V.
type Map[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]weak.Pointer[V]
}

// New returns an empty map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{entries: make(map[K]weak.Pointer[V])}
}

// Load returns the live value for key, or nil.
func (m *Map[K, V]) Load(key K) *V {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked(key)
}

func (m *Map[K, V]) loadLocked(key K) *V {
	wp, ok := m.entries[key]
	if !ok {
		return nil
	}
	v := wp.Value()
	if v == nil {
		delete(m.entries, key)
	}
	return v
}

// CompareAndInsert stores candidate under key unless a live value is already
// present. It returns the value stored under key after the call and whether
// candidate was inserted.
func (m *Map[K, V]) CompareAndInsert(key K, candidate *V) (actual *V, inserted bool) {
	if candidate == nil {
		return m.Load(key), false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing := m.loadLocked(key); existing != nil {
		return existing, false
	}
	wp := weak.Make(candidate)
	m.entries[key] = wp
	runtime.AddCleanup(candidate, m.cleanup(key), wp)
	return candidate, true
}

// Store sets the value for key, replacing any previous entry.
func (m *Map[K, V]) Store(key K, v *V) {
	if v == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	wp := weak.Make(v)
	m.entries[key] = wp
	runtime.AddCleanup(v, m.cleanup(key), wp)
}

// cleanup returns a function that drops key once the value it pointed to
// has been collected, leaving newer entries in place.
func (m *Map[K, V]) cleanup(key K) func(weak.Pointer[V]) {
	return func(wp weak.Pointer[V]) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if cur, ok := m.entries[key]; ok && cur == wp {
			delete(m.entries, key)
		}
	}
}

// Delete removes key if it currently maps to v.
func (m *Map[K, V]) Delete(key K, v *V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	wp, ok := m.entries[key]
	if !ok || wp.Value() != v {
		return false
	}
	delete(m.entries, key)
	return true
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for key, wp := range m.entries {
		if wp.Value() == nil {
			delete(m.entries, key)
			continue
		}
		n++
	}
	return n
}
