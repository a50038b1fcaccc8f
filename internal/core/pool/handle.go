package pool

// Handle is a copyable reference to one record incarnation in a Store. It
// stays three words wide and never dangles: once the record is destroyed, Get
// returns ErrInvalidHandle instead of a pointer into reused memory.
//
// Handles compare with ==. Two handles are equal exactly when they were
// minted for the same incarnation, meaning the same control block at the same
// generation. A stale handle never equals a live one, even after the block is
// rebound to a new record in the same slot.
type Handle[T any, P Component[T]] struct {
	store      *Store[T, P]
	block      *ControlBlock
	generation uint64
}

// IsValid reports whether the handle still refers to a live record. The zero
// Handle is invalid.
func (h Handle[T, P]) IsValid() bool {
	return h.block != nil && h.generation == h.block.generation
}

// Get resolves the handle to the record's current location. The pointer is
// good only until the next LateUpdate; compaction moves records, so callers
// re-resolve each tick rather than retain it.
func (h Handle[T, P]) Get() (*T, error) {
	if !h.IsValid() {
		return nil, ErrInvalidHandle
	}
	return &h.store.records[h.block.slot], nil
}
