// Package pool implements fixed-capacity object stores with generation-checked
// handles.
//
// A Store keeps its records in one flat array, partitioned into a sleeping
// prefix and an active suffix. Update walks only the active suffix, so the
// per-tick cost tracks the number of awake records rather than the capacity.
// Activation changes and deletions requested during a tick are deferred and
// applied at the LateUpdate checkpoint by swapping records across the
// partition boundary, one O(1) move per transition.
package pool

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Component constrains the record types a Store can manage. T is the record
// struct itself; its pointer type P carries the Update method the store
// invokes for every active record each tick. The pointer constraint lets the
// store keep records in a flat array and still dispatch through *T methods
// without boxing.
type Component[T any] interface {
	*T
	Update(dt time.Duration)
}

// Stats is a snapshot of a store's lifecycle counters.
type Stats struct {
	Created   uint64
	Destroyed uint64
	Slept     uint64
	Woken     uint64
}

// Option configures a Store independently of its record type.
type Option func(*options)

type options struct {
	log *zap.Logger
}

// WithLogger routes the store's debug logging to log. Without it the store
// logs nothing.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// Store owns a fixed-capacity array of T records and the bookkeeping that
// keeps it partitioned: sleeping records occupy [0, sleeping), active records
// [sleeping, sleeping+active). Compaction moves records around, so the only
// durable reference to one is a Handle.
//
// A Store is not safe for concurrent use. The expected shape is a tick loop
// calling Update then LateUpdate on one goroutine; Create, SetActive and
// Delete may be called from inside Update callbacks.
type Store[T any, P Component[T]] struct {
	log      *zap.Logger
	pool     *BlockPool
	records  []T
	table    []*ControlBlock
	pending  *ControlBlock
	active   int
	sleeping int
	stats    Stats
}

// NewStore builds an empty store holding up to capacity records.
func NewStore[T any, P Component[T]](capacity int, opts ...Option) (*Store[T, P], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("store capacity must be positive, got %d", capacity)
	}
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T, P]{
		log:     o.log,
		pool:    NewBlockPool(capacity),
		records: make([]T, capacity),
		table:   make([]*ControlBlock, capacity),
	}, nil
}

// Create allocates the next record slot, runs init on it in place, and
// returns a handle to the new record. New records start active, at the end of
// the active partition, and are first visited by the Update after the current
// one. Returns ErrCapacityExceeded when the store is full. If init fails the
// slot and control block are rolled back untouched and the init error is
// returned wrapped.
func (s *Store[T, P]) Create(init func(*T) error) (Handle[T, P], error) {
	if s.Len() == s.Cap() {
		return Handle[T, P]{}, ErrCapacityExceeded
	}
	block, err := s.pool.Allocate()
	if err != nil {
		return Handle[T, P]{}, err
	}
	slot := s.Len()
	rec := &s.records[slot]
	if init != nil {
		if err := init(rec); err != nil {
			var zero T
			*rec = zero
			_ = s.pool.Deallocate(block)
			return Handle[T, P]{}, fmt.Errorf("construct record: %w", err)
		}
	}
	block.bind(int32(slot))
	s.table[slot] = block
	s.active++
	s.stats.Created++
	s.log.Debug("record created",
		zap.Int("slot", slot),
		zap.Uint64("generation", block.generation))
	return Handle[T, P]{store: s, block: block, generation: block.generation}, nil
}

// Update runs one simulation step over the active partition. The bound is
// captured up front, so records created by a callback during this pass are
// not visited until the next Update. Sleeping records are skipped entirely.
func (s *Store[T, P]) Update(dt time.Duration) {
	end := s.sleeping + s.active
	for i := s.sleeping; i < end; i++ {
		P(&s.records[i]).Update(dt)
	}
}

// SetActive requests that the record move to the active (true) or sleeping
// (false) partition at the next LateUpdate. Requesting the state the record
// is already in is a no-op; the comparison is against the record's current
// partition, not against queued changes, so a request does not cancel a
// previously queued opposite one.
func (s *Store[T, P]) SetActive(h Handle[T, P], active bool) error {
	b, err := s.ownedBlock(h)
	if err != nil {
		return err
	}
	if b.isActive() == active {
		return nil
	}
	s.enqueue(b)
	b.markActiveChange(active)
	return nil
}

// Delete requests destruction of the record at the next LateUpdate. The
// record stays live, and the handle valid, until then. Deletion wins over any
// queued activation change for the same record; deleting twice before the
// checkpoint is harmless.
func (s *Store[T, P]) Delete(h Handle[T, P]) error {
	b, err := s.ownedBlock(h)
	if err != nil {
		return err
	}
	s.enqueue(b)
	b.markForDeletion()
	return nil
}

// LateUpdate is the checkpoint: it drains the pending list, most recently
// queued record first, and applies every queued change. After the drain both
// partitions are contiguous again and handles to deleted records are stale.
func (s *Store[T, P]) LateUpdate() {
	for s.pending != nil {
		b := s.pending
		s.pending = b.next
		b.next = nil
		if b.isPendingDeletion() {
			s.destroy(b)
			continue
		}
		if b.hasPendingActiveChange() {
			wake := b.pendingActiveValue()
			s.applyActive(b, wake)
			if wake {
				s.stats.Woken++
			} else {
				s.stats.Slept++
			}
		}
		b.clearPending()
	}
}

// Len returns the number of live records.
func (s *Store[T, P]) Len() int { return s.active + s.sleeping }

// ActiveLen returns the number of records Update will visit.
func (s *Store[T, P]) ActiveLen() int { return s.active }

// SleepingLen returns the number of records parked in the sleeping partition.
func (s *Store[T, P]) SleepingLen() int { return s.sleeping }

// Cap returns the fixed capacity the store was built with.
func (s *Store[T, P]) Cap() int { return len(s.records) }

// Stats returns the lifecycle counters accumulated so far.
func (s *Store[T, P]) Stats() Stats { return s.stats }

// ownedBlock resolves a handle for a mutating call: the handle must be live
// and must have been minted by this store.
func (s *Store[T, P]) ownedBlock(h Handle[T, P]) (*ControlBlock, error) {
	if !h.IsValid() {
		return nil, ErrInvalidHandle
	}
	if h.store != s || !s.pool.Contains(h.block) {
		return nil, ErrForeignHandle
	}
	return h.block, nil
}

// enqueue pushes b onto the pending list unless an earlier request already
// put it there. Callers set their pending flag after this returns; a block is
// linked exactly while it has pending flags.
func (s *Store[T, P]) enqueue(b *ControlBlock) {
	if b.hasPendingChanges() {
		return
	}
	b.next = s.pending
	s.pending = b
}

// destroy tears one record down: force it into the active partition, swap it
// to the last occupied slot, zero it, and recycle its control block. The
// generation bump in unbind is what turns outstanding handles stale.
func (s *Store[T, P]) destroy(b *ControlBlock) {
	s.applyActive(b, true)
	last := s.sleeping + s.active - 1
	s.swap(int(b.slot), last)
	var zero T
	s.records[last] = zero
	s.table[last] = nil
	s.active--
	s.log.Debug("record destroyed",
		zap.Int("slot", last),
		zap.Uint64("generation", b.generation))
	b.unbind()
	_ = s.pool.Deallocate(b)
	s.stats.Destroyed++
}

// applyActive moves one record across the partition boundary. Waking swaps it
// with the last sleeping record and shrinks the sleeping partition; sleeping
// swaps it with the first active record and grows it. Only the two records
// involved move.
func (s *Store[T, P]) applyActive(b *ControlBlock, active bool) {
	if b.isActive() == active {
		return
	}
	if active {
		s.swap(int(b.slot), s.sleeping-1)
		s.sleeping--
		s.active++
	} else {
		s.swap(int(b.slot), s.sleeping)
		s.sleeping++
		s.active--
	}
	b.setActive(active)
}

// swap exchanges the records at i and j together with their bookkeeping: the
// two control blocks trade slot values and slot-table entries, so
// table[k].Slot() == k holds on both sides afterwards.
func (s *Store[T, P]) swap(i, j int) {
	if i == j {
		return
	}
	s.records[i], s.records[j] = s.records[j], s.records[i]
	bi, bj := s.table[i], s.table[j]
	bi.slot, bj.slot = int32(j), int32(i)
	s.table[i], s.table[j] = bj, bi
}
