package pool

import "errors"

var (
	// ErrCapacityExceeded is returned by Create when the store already holds
	// as many records as it was constructed for.
	ErrCapacityExceeded = errors.New("component store at capacity")

	// ErrPoolExhausted is returned by BlockPool.Allocate when the free list is
	// empty. A store guards Create with its own capacity check, so this leaking
	// out of a store indicates a broken bookkeeping invariant, not a full pool.
	ErrPoolExhausted = errors.New("control block pool exhausted")

	// ErrInvalidHandle is returned when a handle is the zero value or its
	// generation snapshot no longer matches the control block, i.e. the record
	// it referenced has been destroyed (and the block possibly rebound).
	ErrInvalidHandle = errors.New("handle is stale or null")

	// ErrForeignHandle is returned when a handle's control block does not
	// belong to the store it was passed to.
	ErrForeignHandle = errors.New("handle does not belong to this store")

	// ErrInvalidPointer is returned by BlockPool.Deallocate when the block is
	// not an element of the pool's backing array.
	ErrInvalidPointer = errors.New("control block does not belong to this pool")
)
