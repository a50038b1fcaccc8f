package pool

// BlockPool hands out control blocks from a fixed backing array. Blocks keep
// stable addresses for the pool's whole lifetime, so handles may capture
// pointers to them. Free blocks are chained through their next links.
type BlockPool struct {
	blocks []ControlBlock
	head   *ControlBlock
}

// NewBlockPool builds a pool of capacity blocks, all free.
func NewBlockPool(capacity int) *BlockPool {
	p := &BlockPool{blocks: make([]ControlBlock, capacity)}
	for i := capacity - 1; i >= 0; i-- {
		b := &p.blocks[i]
		b.idx = int32(i)
		b.slot = -1
		b.next = p.head
		p.head = b
	}
	return p
}

// Allocate pops a free block. The returned block is unbound; the caller is
// expected to bind it to a record slot. Returns ErrPoolExhausted when no
// block is free.
func (p *BlockPool) Allocate() (*ControlBlock, error) {
	if p.head == nil {
		return nil, ErrPoolExhausted
	}
	b := p.head
	p.head = b.next
	b.next = nil
	return b, nil
}

// Deallocate returns a block to the free list. The block must come from this
// pool and must already be unbound. Returns ErrInvalidPointer for a block the
// pool does not own; the free list is untouched in that case.
func (p *BlockPool) Deallocate(b *ControlBlock) error {
	if !p.Contains(b) {
		return ErrInvalidPointer
	}
	b.next = p.head
	p.head = b
	return nil
}

// Contains reports whether b is an element of the pool's backing array.
func (p *BlockPool) Contains(b *ControlBlock) bool {
	if b == nil {
		return false
	}
	i := int(b.idx)
	return i >= 0 && i < len(p.blocks) && b == &p.blocks[i]
}

// Cap returns the total number of blocks, free and allocated.
func (p *BlockPool) Cap() int {
	return len(p.blocks)
}
