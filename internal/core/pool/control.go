package pool

type blockFlags uint8

const (
	flagActive blockFlags = 1 << iota
	flagPendingActivate
	flagPendingSleep
	flagPendingDelete

	flagPendingAny = flagPendingActivate | flagPendingSleep | flagPendingDelete
)

// ControlBlock is the per-slot metadata record that mediates between handles
// and the store. It tracks where its record currently lives (records move
// during compaction), a generation counter that survives slot reuse, and the
// pending-change flags applied at the next checkpoint.
//
// The next link is reused for two mutually exclusive purposes: free-list
// membership while the block is unallocated, and pending-change-list
// membership while a change is queued. Outside those two states its value is
// meaningless.
type ControlBlock struct {
	next       *ControlBlock
	slot       int32 // index of the owned record in the store's record array, -1 when unbound
	idx        int32 // fixed position in the owning BlockPool's backing array
	generation uint64
	flags      blockFlags
}

// bind attaches the block to a freshly constructed record. The generation is
// deliberately left alone: it only moves on unbind, so a handle snapshot taken
// now stays valid until the record is destroyed.
func (b *ControlBlock) bind(slot int32) {
	b.slot = slot
	b.flags = flagActive
}

// unbind detaches the block from its destroyed record and advances the
// generation, invalidating every handle that snapshotted the old value.
func (b *ControlBlock) unbind() {
	b.slot = -1
	b.flags = 0
	b.next = nil
	b.generation++
}

func (b *ControlBlock) isActive() bool {
	return b.flags&flagActive != 0
}

// setActive writes the active flag unconditionally. Only the store's apply
// step calls this; the partition boundary must move in the same breath.
func (b *ControlBlock) setActive(active bool) {
	b.flags &^= flagActive
	if active {
		b.flags |= flagActive
	}
}

// markActiveChange records the desired end-of-tick transition.
func (b *ControlBlock) markActiveChange(active bool) {
	if active {
		b.flags |= flagPendingActivate
	} else {
		b.flags |= flagPendingSleep
	}
}

func (b *ControlBlock) markForDeletion() {
	b.flags |= flagPendingDelete
}

func (b *ControlBlock) hasPendingChanges() bool {
	return b.flags&flagPendingAny != 0
}

func (b *ControlBlock) hasPendingActiveChange() bool {
	return b.flags&(flagPendingActivate|flagPendingSleep) != 0
}

// pendingActiveValue reports the direction of a queued activation change:
// true to wake, false to sleep.
func (b *ControlBlock) pendingActiveValue() bool {
	return b.flags&flagPendingActivate != 0
}

func (b *ControlBlock) isPendingDeletion() bool {
	return b.flags&flagPendingDelete != 0
}

func (b *ControlBlock) clearPending() {
	b.flags &^= flagPendingAny
}

// Generation returns the block's current reuse counter. A handle is valid
// while its snapshot equals this value. The counter is unchecked: a slot
// would need 2^64 destroy cycles before a stale handle could alias.
func (b *ControlBlock) Generation() uint64 {
	return b.generation
}

// Slot returns the index of the owned record, or -1 while unbound.
func (b *ControlBlock) Slot() int32 {
	return b.slot
}
