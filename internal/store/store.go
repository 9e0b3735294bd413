// Package store holds the shared type-label value map used while a pipeline
// runs: each produced value is recorded under its stage's declared output
// type, and later stages look their inputs up by declared input type.
package store

import "sync"

// ValueStore maps type labels to the most recently produced value of that
// type. Last writer wins when several stages declare the same output type.
// Safe for concurrent use; within one dependency level every stage reads
// before any of the level's writes are merged back, so readers never observe
// a sibling's output.
type ValueStore[V any] struct {
	mu     sync.RWMutex
	values map[string]V
}

// New creates a store seeded with the given label/value pair. Seeding covers
// the pipeline's initial input, recorded under the first stage's declared
// input type.
func New[V any](label string, value V) *ValueStore[V] {
	return &ValueStore[V]{
		values: map[string]V{label: value},
	}
}

// Get returns the most recent value recorded under the label.
func (s *ValueStore[V]) Get(label string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[label]

	return v, ok
}

// Put records a value under the label, replacing any earlier value.
func (s *ValueStore[V]) Put(label string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[label] = value
}

// PutAll merges a batch of label/value pairs in one critical section. The
// executors call this at the barrier between dependency levels.
func (s *ValueStore[V]) PutAll(values map[string]V) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for label, v := range values {
		s.values[label] = v
	}
}
