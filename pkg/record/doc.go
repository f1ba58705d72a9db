// Package record provides the in-memory concurrent record store that backs
// every collection served by shelfd.
//
// A Store holds a single collection of records keyed by a numeric identifier
// assigned at creation time. Identifiers start at 1, increase monotonically,
// and are never reused within a process lifetime, even after deletes.
//
// Core Types:
//
//   - Store: one collection, safe for concurrent use
//   - Record: constraint implemented by stored types so the store can stamp
//     identifiers and keep the map-key == record-ID invariant internal
//   - NotFoundError: the only domain error, returned for missing identifiers
//
// Thread Safety:
//
// All operations go through a single sync.RWMutex. Reads proceed
// concurrently; writes are exclusive. No operation performs I/O while
// holding the lock, and observers are notified after the lock is released.
//
// Usage:
//
//	store := record.NewStore[Todo]()
//	todo := store.Create(Todo{Title: "write docs"})
//	todo, err := store.Get(todo.ID)
//	todos := store.List()
//	todo, err = store.Update(todo.ID, Todo{Title: "ship docs"})
//	err = store.Delete(todo.ID)
package record
