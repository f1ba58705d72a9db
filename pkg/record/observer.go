package record

// Observer receives notifications after store mutations commit. Callbacks
// run outside the store lock on the mutating goroutine, so implementations
// may take their own locks but should return quickly.
type Observer interface {
	RecordCreated(id uint64)
	RecordUpdated(id uint64)
	RecordDeleted(id uint64)
}

// NopObserver is an Observer that ignores all events.
type NopObserver struct{}

func (NopObserver) RecordCreated(uint64) {}
func (NopObserver) RecordUpdated(uint64) {}
func (NopObserver) RecordDeleted(uint64) {}
