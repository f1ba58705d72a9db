package record

import (
	"sort"
	"sync"
)

// Record is the constraint for types stored in a Store. WithID returns a
// copy of the record with its identifier set; the store uses it to stamp
// newly issued IDs and to keep identifiers stable across updates.
type Record[T any] interface {
	WithID(id uint64) T
}

// Store is an in-memory collection of records keyed by a store-assigned
// uint64 identifier. The zero value is not usable; create stores with
// NewStore.
type Store[T Record[T]] struct {
	mu      sync.RWMutex
	records map[uint64]T
	nextID  uint64
	seed    []T

	observer Observer
}

// NewStore creates an empty Store.
func NewStore[T Record[T]]() *Store[T] {
	return &Store[T]{
		records: make(map[uint64]T),
		nextID:  1,
	}
}

// SetObserver registers an observer for mutation events. Pass nil to
// disable notifications. Not safe to call concurrently with operations;
// wire observers during setup.
func (s *Store[T]) SetObserver(o Observer) {
	s.observer = o
}

// Create assigns the next identifier, stores the record, and returns the
// stored copy. The identifier counter advances exactly once per call, so
// concurrent creates always receive distinct, increasing IDs.
func (s *Store[T]) Create(v T) T {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	rec := v.WithID(id)
	s.records[id] = rec
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.RecordCreated(id)
	}
	return rec
}

// Get returns the record for id, or a *NotFoundError if absent.
func (s *Store[T]) Get(id uint64) (T, error) {
	s.mu.RLock()
	rec, ok := s.records[id]
	s.mu.RUnlock()

	if !ok {
		var zero T
		return zero, &NotFoundError{ID: id}
	}
	return rec, nil
}

// List returns a snapshot of all current records in ascending ID order.
// The snapshot is consistent: it never observes a partially applied write.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]uint64, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.records[id])
	}
	return out
}

// Update replaces the record stored under id. The identifier is preserved
// regardless of what v carries. Returns a *NotFoundError if id is absent.
func (s *Store[T]) Update(id uint64, v T) (T, error) {
	s.mu.Lock()
	if _, ok := s.records[id]; !ok {
		s.mu.Unlock()
		var zero T
		return zero, &NotFoundError{ID: id}
	}
	rec := v.WithID(id)
	s.records[id] = rec
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.RecordUpdated(id)
	}
	return rec, nil
}

// Mutate applies fn to a copy of the record under id and stores the result.
// The identifier is re-stamped afterwards, so fn cannot change record
// identity. fn runs under the write lock and must not block.
func (s *Store[T]) Mutate(id uint64, fn func(T) T) (T, error) {
	s.mu.Lock()
	existing, ok := s.records[id]
	if !ok {
		s.mu.Unlock()
		var zero T
		return zero, &NotFoundError{ID: id}
	}
	rec := fn(existing).WithID(id)
	s.records[id] = rec
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.RecordUpdated(id)
	}
	return rec, nil
}

// Delete removes the record under id. Returns a *NotFoundError if absent;
// a second delete of the same id reports not found, not success.
func (s *Store[T]) Delete(id uint64) error {
	s.mu.Lock()
	if _, ok := s.records[id]; !ok {
		s.mu.Unlock()
		return &NotFoundError{ID: id}
	}
	delete(s.records, id)
	s.mu.Unlock()

	if s.observer != nil {
		s.observer.RecordDeleted(id)
	}
	return nil
}

// Len returns the number of records currently stored.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Clear removes all records and returns how many were removed. The
// identifier counter is not rewound: cleared IDs are never reissued.
func (s *Store[T]) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records)
	s.records = make(map[uint64]T)
	return n
}

// Seed replaces the store contents with the given records, assigning fresh
// identifiers, and remembers them so Reset can restore this state.
func (s *Store[T]) Seed(values []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seed = make([]T, len(values))
	copy(s.seed, values)
	s.applySeedLocked()
}

// Reset restores the store to its seed state. Records created since the
// seed are dropped; seed records are re-created with fresh identifiers so
// the counter stays strictly increasing.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applySeedLocked()
}

func (s *Store[T]) applySeedLocked() {
	s.records = make(map[uint64]T, len(s.seed))
	for _, v := range s.seed {
		id := s.nextID
		s.nextID++
		s.records[id] = v.WithID(id)
	}
}

// Snapshot returns all current records in ascending ID order. It is an
// alias for List, named for export/import call sites.
func (s *Store[T]) Snapshot() []T {
	return s.List()
}

// Restore replaces the store contents with the given records, assigning
// fresh identifiers in slice order. Used by import; the seed is untouched.
func (s *Store[T]) Restore(values []T) []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[uint64]T, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		id := s.nextID
		s.nextID++
		rec := v.WithID(id)
		s.records[id] = rec
		out = append(out, rec)
	}
	return out
}
