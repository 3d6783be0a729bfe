// Package dima implements the Dynamic Indirect Memory Allocator: a typed,
// reference-counted slab allocator with one allocation tree ("head") per
// data type, growing blocks of fixed-size slots, and arc-based release that
// triggers a per-type free on reaching zero.
package dima

import "github.com/flint-lang/flintc/pkg/config"

// Flag bits a slot's Flags field carries. The remaining two bits of the
// byte are reserved.
const (
	FlagOccupied Flags = 1 << iota
	FlagOwned
	FlagArrStart
	FlagArrMember
	FlagAsync // reserved for a future async mode; never set today
	FlagOwnedByEntity
)

// Flags is a slot's bitfield.
type Flags uint8

func (f Flags) has(bit Flags) bool { return f&bit != 0 }

// Slot is the addressable unit of DIMA allocation: metadata followed by an
// inline value. Value is sized to the owning head's TypeSize and holds the
// user value directly; user pointers are borrowed references into slots.
type Slot struct {
	Owner   int // not set by the allocator (stays 0); BlockID holds the owning block's index
	BlockID int
	Arc     uint32
	Flags   Flags
	Value   []byte
}

// Block is a contiguous span of slots of one type, owned by a head.
type Block struct {
	TypeSize        uint64
	Capacity        uint64
	Used            uint64
	Pinned          uint64
	FirstFreeSlotID uint64
	Slots           []Slot
}

// Head is the root of one data type's allocation tree. Blocks is sparse: a
// nil entry marks a null block slot a later allocation may fill.
type Head struct {
	DefaultValue []byte
	TypeSize     uint64
	Blocks       []*Block
}

// FreeFunc is the per-type free routine Release invokes when a slot's arc
// reaches zero. pkg/memir synthesizes the IR text of the real flint.free
// switch a backend links against; FreeFunc is this package's executable
// stand-in for that same per-type dispatch, letting Release's behavior be
// exercised and tested without a running backend.
type FreeFunc func(value []byte)

// Allocator owns every head table entry for one process. It is constructed
// once at startup, the same way compiler.CompilationContext encapsulates
// the call registry and scope arena, rather than living as package-level
// state.
type Allocator struct {
	cfg   config.Config
	heads map[uint32]*Head
	free  map[uint32]FreeFunc
}

// New returns an Allocator with no heads yet initialized; InitHeads
// populates heads for the type ids the caller declares.
func New(cfg config.Config) *Allocator {
	return &Allocator{cfg: cfg, heads: map[uint32]*Head{}, free: map[uint32]FreeFunc{}}
}

// InitHeads zero-allocates one head per (typeID, typeSize, defaultValue)
// triple. freeFn is stored alongside so Release can invoke it later; it may
// be nil for types with no freeable content.
func (a *Allocator) InitHeads(typeID uint32, typeSize uint64, defaultValue []byte, freeFn FreeFunc) {
	a.heads[typeID] = &Head{TypeSize: typeSize, DefaultValue: defaultValue}
	if freeFn != nil {
		a.free[typeID] = freeFn
	}
}

// GetHead returns the head registered for typeID. Heads live in a Go map
// rather than a reallocatable array, so there is no raw pointer a realloc
// could move; the invariant that matters to a caller survives regardless:
// never cache a handle across an operation that might replace the head,
// always re-fetch through GetHead.
func (a *Allocator) GetHead(typeID uint32) (*Head, bool) {
	h, ok := a.heads[typeID]
	return h, ok
}

// GetBlockCapacity recomputes the deterministic capacity tier for block
// index i: cap_0 = BaseCapacity, cap_{i+1} = ceil(cap_i * GrowthFactor/10).
// GrowthFactor is an integer over 10, so the ceiling division is
// (cap*gf + 9) / 10.
func (a *Allocator) GetBlockCapacity(i uint64) uint64 {
	cap := a.cfg.DIMA.BaseCapacity
	for ; i > 0; i-- {
		cap = (cap*a.cfg.DIMA.GrowthFactor + 9) / 10
	}
	return cap
}

// CreateBlock allocates a new Block of slotCount slots, each sized
// typeSize, all initially unoccupied.
func CreateBlock(typeSize uint64, slotCount uint64) *Block {
	slots := make([]Slot, slotCount)
	for i := range slots {
		slots[i].Value = make([]byte, typeSize)
	}
	return &Block{TypeSize: typeSize, Capacity: slotCount, Slots: slots}
}

// AllocateInBlock scans from FirstFreeSlotID to Capacity for the first
// unoccupied slot, marks it occupied with arc 1, increments Used, and
// advances FirstFreeSlotID to (i+1) mod Capacity. The returned index is -1
// when the block is full.
func (b *Block) AllocateInBlock() int {
	for i := b.FirstFreeSlotID; i < b.Capacity; i++ {
		if !b.Slots[i].Flags.has(FlagOccupied) {
			b.Slots[i].Flags = FlagOccupied
			b.Slots[i].Arc = 1
			b.Used++
			b.FirstFreeSlotID = (i + 1) % b.Capacity
			return int(i)
		}
	}
	return -1
}

// Allocate finds or creates a slot for one value of typeID, weighted for
// the fast paths: an existing non-full block is checked before the slower
// paths that grow the head's block list. Returns the allocated slot's value
// buffer (a pointer into the slot, not the slot itself) and the
// (blockIndex, slotIndex) it lives at, for Release to address it later.
func (a *Allocator) Allocate(typeID uint32) (value []byte, blockIdx int, slotIdx int, ok bool) {
	head, ok := a.GetHead(typeID)
	if !ok {
		return nil, 0, 0, false
	}

	// Step 1: no blocks yet.
	if len(head.Blocks) == 0 {
		blk := CreateBlock(head.TypeSize, a.GetBlockCapacity(0))
		head.Blocks = append(head.Blocks, blk)
		si := blk.AllocateInBlock()
		return a.finishAllocate(head, 0, si)
	}

	// Step 2: scan blocks in reverse, skip null or full blocks.
	for bi := len(head.Blocks) - 1; bi >= 0; bi-- {
		blk := head.Blocks[bi]
		if blk == nil || blk.Used >= blk.Capacity {
			continue
		}
		si := blk.AllocateInBlock()
		if si >= 0 {
			return a.finishAllocate(head, bi, si)
		}
	}

	// Step 3 (slow path): reuse a null block slot in the existing blocks
	// array. The allocation must go through head.Blocks[bi] after
	// CreateBlock, not through a local captured before it.
	for bi, blk := range head.Blocks {
		if blk != nil {
			continue
		}
		head.Blocks[bi] = CreateBlock(head.TypeSize, a.GetBlockCapacity(uint64(bi)))
		si := head.Blocks[bi].AllocateInBlock()
		if si >= 0 {
			return a.finishAllocate(head, bi, si)
		}
	}

	// Step 4 (slow path): grow the head's block list entirely.
	newIdx := len(head.Blocks)
	blk := CreateBlock(head.TypeSize, a.GetBlockCapacity(uint64(newIdx)))
	head.Blocks = append(head.Blocks, blk)
	si := blk.AllocateInBlock()
	return a.finishAllocate(head, newIdx, si)
}

func (a *Allocator) finishAllocate(head *Head, blockIdx, slotIdx int) ([]byte, int, int, bool) {
	if slotIdx < 0 {
		return nil, 0, 0, false
	}
	slot := &head.Blocks[blockIdx].Slots[slotIdx]
	slot.BlockID = blockIdx
	copy(slot.Value, head.DefaultValue)
	return slot.Value, blockIdx, slotIdx, true
}

// AllocateSlot is the thin adapter over Allocate: fetch the head for
// typeID, allocate within it.
func (a *Allocator) AllocateSlot(typeID uint32) ([]byte, bool) {
	value, _, _, ok := a.Allocate(typeID)
	return value, ok
}

// Release decrements the slot's arc; on reaching zero it invokes the
// registered per-type free, clears the slot's flags, decrements the
// block's used count, and pulls FirstFreeSlotID down if the freed slot
// precedes it.
func (a *Allocator) Release(typeID uint32, blockIdx, slotIdx int) {
	head, ok := a.GetHead(typeID)
	if !ok || blockIdx >= len(head.Blocks) || head.Blocks[blockIdx] == nil {
		return
	}
	blk := head.Blocks[blockIdx]
	if slotIdx < 0 || uint64(slotIdx) >= blk.Capacity {
		return
	}
	slot := &blk.Slots[slotIdx]
	if slot.Arc == 0 {
		return
	}
	slot.Arc--
	if slot.Arc > 0 {
		return
	}

	if fn, ok := a.free[typeID]; ok {
		fn(slot.Value)
	}
	slot.Flags = 0
	blk.Used--
	if uint64(slotIdx) < blk.FirstFreeSlotID {
		blk.FirstFreeSlotID = uint64(slotIdx)
	}
}
