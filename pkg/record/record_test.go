package record

import (
	"errors"
	"sync"
	"testing"
)

// note is a minimal record type for store tests.
type note struct {
	ID   uint64
	Text string
	Done bool
}

func (n note) WithID(id uint64) note { n.ID = id; return n }

// =============================================================================
// Basic CRUD
// =============================================================================

func TestStore_CreateAssignsIncreasingIDs(t *testing.T) {
	s := NewStore[note]()

	var prev uint64
	for i := 0; i < 10; i++ {
		rec := s.Create(note{Text: "n"})
		if rec.ID == 0 {
			t.Fatal("expected positive ID")
		}
		if rec.ID <= prev {
			t.Fatalf("expected ID > %d, got %d", prev, rec.ID)
		}
		prev = rec.ID
	}
}

func TestStore_CreateIgnoresCallerID(t *testing.T) {
	s := NewStore[note]()

	rec := s.Create(note{ID: 999, Text: "sneaky"})
	if rec.ID != 1 {
		t.Fatalf("expected store-assigned ID 1, got %d", rec.ID)
	}
	if _, err := s.Get(999); !IsNotFound(err) {
		t.Fatalf("expected not found for caller-supplied ID, got %v", err)
	}
}

func TestStore_GetAfterCreate(t *testing.T) {
	s := NewStore[note]()

	created := s.Create(note{Text: "hello", Done: true})

	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != created {
		t.Fatalf("expected %+v, got %+v", created, got)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore[note]()

	_, err := s.Get(42)
	if err == nil {
		t.Fatal("expected error for missing record")
	}
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %T", err)
	}

	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != 42 {
		t.Fatalf("expected NotFoundError for ID 42, got %v", err)
	}
}

func TestStore_UpdateReplacesFields(t *testing.T) {
	s := NewStore[note]()
	created := s.Create(note{Text: "before"})

	updated, err := s.Update(created.ID, note{Text: "after", Done: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("update changed ID: %d -> %d", created.ID, updated.ID)
	}
	if updated.Text != "after" || !updated.Done {
		t.Fatalf("unexpected updated record: %+v", updated)
	}

	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != updated {
		t.Fatalf("get after update returned %+v, want %+v", got, updated)
	}
}

func TestStore_UpdatePreservesIDAgainstCaller(t *testing.T) {
	s := NewStore[note]()
	created := s.Create(note{Text: "x"})

	updated, err := s.Update(created.ID, note{ID: 777, Text: "y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("expected ID %d preserved, got %d", created.ID, updated.ID)
	}
}

func TestStore_UpdateMissing(t *testing.T) {
	s := NewStore[note]()

	if _, err := s.Update(5, note{Text: "nope"}); !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestStore_Mutate(t *testing.T) {
	s := NewStore[note]()
	created := s.Create(note{Text: "task"})

	mutated, err := s.Mutate(created.ID, func(n note) note {
		n.Done = true
		n.ID = 12345 // identity must survive hostile mutators
		return n
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mutated.ID != created.ID {
		t.Fatalf("mutate changed ID: %d -> %d", created.ID, mutated.ID)
	}
	if !mutated.Done || mutated.Text != "task" {
		t.Fatalf("unexpected mutated record: %+v", mutated)
	}
}

func TestStore_MutateMissing(t *testing.T) {
	s := NewStore[note]()

	_, err := s.Mutate(9, func(n note) note { return n })
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestStore_DeleteTwice(t *testing.T) {
	s := NewStore[note]()
	created := s.Create(note{Text: "gone"})

	if err := s.Delete(created.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Get(created.ID); !IsNotFound(err) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
	if err := s.Delete(created.ID); !IsNotFound(err) {
		t.Fatalf("expected NotFoundError on second delete, got %v", err)
	}
}

func TestStore_IDsNeverReused(t *testing.T) {
	s := NewStore[note]()

	first := s.Create(note{Text: "a"})
	if err := s.Delete(first.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := s.Create(note{Text: "b"})
	if second.ID <= first.ID {
		t.Fatalf("ID %d reused or rewound after delete of %d", second.ID, first.ID)
	}
}

func TestStore_ListAfterDelete(t *testing.T) {
	s := NewStore[note]()

	a := s.Create(note{Text: "a"})
	b := s.Create(note{Text: "b"})
	c := s.Create(note{Text: "c"})

	if err := s.Delete(b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 records, got %d", len(list))
	}
	if list[0].ID != a.ID || list[1].ID != c.ID {
		t.Fatalf("expected IDs {%d, %d}, got {%d, %d}", a.ID, c.ID, list[0].ID, list[1].ID)
	}
}

func TestStore_ListSortedByID(t *testing.T) {
	s := NewStore[note]()
	for i := 0; i < 20; i++ {
		s.Create(note{Text: "n"})
	}

	list := s.List()
	for i := 1; i < len(list); i++ {
		if list[i].ID <= list[i-1].ID {
			t.Fatalf("list not sorted at index %d: %d after %d", i, list[i].ID, list[i-1].ID)
		}
	}
}

func TestStore_LenAndClear(t *testing.T) {
	s := NewStore[note]()
	s.Create(note{})
	s.Create(note{})

	if s.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", s.Len())
	}
	if n := s.Clear(); n != 2 {
		t.Fatalf("expected Clear to report 2, got %d", n)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d records", s.Len())
	}

	// The counter must not rewind.
	rec := s.Create(note{})
	if rec.ID != 3 {
		t.Fatalf("expected ID 3 after clear, got %d", rec.ID)
	}
}

// =============================================================================
// Seed / Reset / Restore
// =============================================================================

func TestStore_SeedAndReset(t *testing.T) {
	s := NewStore[note]()
	s.Seed([]note{{Text: "one"}, {Text: "two"}})

	if s.Len() != 2 {
		t.Fatalf("expected 2 seeded records, got %d", s.Len())
	}

	extra := s.Create(note{Text: "extra"})
	s.Reset()

	if s.Len() != 2 {
		t.Fatalf("expected 2 records after reset, got %d", s.Len())
	}
	if _, err := s.Get(extra.ID); !IsNotFound(err) {
		t.Fatalf("expected extra record gone after reset, got %v", err)
	}

	// Reset re-creates seeds with fresh IDs.
	list := s.List()
	texts := map[string]bool{}
	for _, n := range list {
		texts[n.Text] = true
		if n.ID <= extra.ID {
			t.Fatalf("reset reused ID %d (extra was %d)", n.ID, extra.ID)
		}
	}
	if !texts["one"] || !texts["two"] {
		t.Fatalf("unexpected records after reset: %+v", list)
	}
}

func TestStore_Restore(t *testing.T) {
	s := NewStore[note]()
	s.Create(note{Text: "old"})

	restored := s.Restore([]note{{Text: "a"}, {Text: "b"}, {Text: "c"}})
	if len(restored) != 3 {
		t.Fatalf("expected 3 restored records, got %d", len(restored))
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 records in store, got %d", s.Len())
	}
	for i := 1; i < len(restored); i++ {
		if restored[i].ID <= restored[i-1].ID {
			t.Fatal("restored IDs not increasing")
		}
	}
}

// =============================================================================
// Observer
// =============================================================================

type countingObserver struct {
	mu      sync.Mutex
	created []uint64
	updated []uint64
	deleted []uint64
}

func (o *countingObserver) RecordCreated(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.created = append(o.created, id)
}

func (o *countingObserver) RecordUpdated(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.updated = append(o.updated, id)
}

func (o *countingObserver) RecordDeleted(id uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleted = append(o.deleted, id)
}

func TestStore_ObserverEvents(t *testing.T) {
	obs := &countingObserver{}
	s := NewStore[note]()
	s.SetObserver(obs)

	rec := s.Create(note{Text: "watched"})
	if _, err := s.Update(rec.ID, note{Text: "changed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Mutate(rec.ID, func(n note) note { return n }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Delete(rec.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(obs.created) != 1 || obs.created[0] != rec.ID {
		t.Fatalf("unexpected create events: %v", obs.created)
	}
	if len(obs.updated) != 2 {
		t.Fatalf("expected 2 update events, got %v", obs.updated)
	}
	if len(obs.deleted) != 1 || obs.deleted[0] != rec.ID {
		t.Fatalf("unexpected delete events: %v", obs.deleted)
	}
}

func TestStore_ObserverNotFiredOnFailure(t *testing.T) {
	obs := &countingObserver{}
	s := NewStore[note]()
	s.SetObserver(obs)

	if _, err := s.Update(1, note{}); !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if err := s.Delete(1); !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}

	if len(obs.updated) != 0 || len(obs.deleted) != 0 {
		t.Fatalf("observer fired on failed operations: %+v", obs)
	}
}

// =============================================================================
// Concurrency
// =============================================================================

func TestStore_ConcurrentCreatesDistinctIDs(t *testing.T) {
	const workers = 100

	s := NewStore[note]()
	ids := make([]uint64, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(slot int) {
			defer wg.Done()
			ids[slot] = s.Create(note{Text: "parallel"}).ID
		}(i)
	}
	wg.Wait()

	seen := make(map[uint64]bool, workers)
	for _, id := range ids {
		if id == 0 {
			t.Fatal("missing ID from concurrent create")
		}
		if seen[id] {
			t.Fatalf("duplicate ID %d", id)
		}
		seen[id] = true
	}
	if s.Len() != workers {
		t.Fatalf("expected %d records, got %d", workers, s.Len())
	}
}

func TestStore_ConcurrentMixedOperations(t *testing.T) {
	s := NewStore[note]()
	for i := 0; i < 50; i++ {
		s.Create(note{Text: "seeded"})
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(4)
		go func(n uint64) {
			defer wg.Done()
			s.Create(note{Text: "new"})
		}(uint64(i))
		go func(n uint64) {
			defer wg.Done()
			_, _ = s.Get(n + 1)
		}(uint64(i))
		go func(n uint64) {
			defer wg.Done()
			_, _ = s.Mutate(n+1, func(rec note) note {
				rec.Done = true
				return rec
			})
		}(uint64(i))
		go func(uint64) {
			defer wg.Done()
			_ = s.List()
		}(uint64(i))
	}
	wg.Wait()

	// Every surviving record must be stored under its own ID.
	for _, rec := range s.List() {
		got, err := s.Get(rec.ID)
		if err != nil {
			t.Fatalf("record %d listed but not gettable: %v", rec.ID, err)
		}
		if got.ID != rec.ID {
			t.Fatalf("record stored under wrong key: %d != %d", got.ID, rec.ID)
		}
	}
}
