package dima

import (
	"testing"

	"github.com/flint-lang/flintc/pkg/config"
)

func newTestAllocator() *Allocator {
	cfg := config.Default()
	a := New(cfg)
	a.InitHeads(1, 8, make([]byte, 8), nil)
	return a
}

func TestAllocateReturnsSlotInsideBlock(t *testing.T) {
	a := newTestAllocator()
	value, blockIdx, slotIdx, ok := a.Allocate(1)
	if !ok {
		t.Fatal("allocate failed")
	}
	head, _ := a.GetHead(1)
	if blockIdx != 0 || blockIdx >= len(head.Blocks) {
		t.Fatalf("block index %d out of range", blockIdx)
	}
	blk := head.Blocks[blockIdx]
	if slotIdx < 0 || uint64(slotIdx) >= blk.Capacity {
		t.Fatalf("slot index %d out of range", slotIdx)
	}
	if &blk.Slots[slotIdx].Value[0] != &value[0] {
		t.Fatal("returned value does not point inside the allocated slot")
	}
}

func TestAllocateMarksOccupiedWithArcOne(t *testing.T) {
	a := newTestAllocator()
	_, blockIdx, slotIdx, ok := a.Allocate(1)
	if !ok {
		t.Fatal("allocate failed")
	}
	head, _ := a.GetHead(1)
	slot := head.Blocks[blockIdx].Slots[slotIdx]
	if !slot.Flags.has(FlagOccupied) {
		t.Fatal("slot not marked occupied")
	}
	if slot.Arc != 1 {
		t.Fatalf("expected arc 1, got %d", slot.Arc)
	}
	if head.Blocks[blockIdx].Used != 1 {
		t.Fatalf("expected block.Used == 1, got %d", head.Blocks[blockIdx].Used)
	}
}

func TestAllocateFirstBlockUsesBaseCapacity(t *testing.T) {
	a := newTestAllocator()
	a.Allocate(1)
	head, _ := a.GetHead(1)
	if head.Blocks[0].Capacity != config.DefaultBaseCapacity {
		t.Fatalf("expected first block capacity %d, got %d", config.DefaultBaseCapacity, head.Blocks[0].Capacity)
	}
}

func TestGetBlockCapacityGrowthFormula(t *testing.T) {
	a := newTestAllocator()
	cap0 := a.GetBlockCapacity(0)
	if cap0 != config.DefaultBaseCapacity {
		t.Fatalf("cap_0: expected %d, got %d", config.DefaultBaseCapacity, cap0)
	}
	cap1 := a.GetBlockCapacity(1)
	want := (cap0*config.DefaultGrowthFactor + 9) / 10
	if cap1 != want {
		t.Fatalf("cap_1: expected %d, got %d", want, cap1)
	}
}

func TestReleaseToZeroInvokesFreeAndClearsSlot(t *testing.T) {
	cfg := config.Default()
	a := New(cfg)
	var freed []byte
	a.InitHeads(1, 8, make([]byte, 8), func(value []byte) { freed = value })

	value, blockIdx, slotIdx, ok := a.Allocate(1)
	if !ok {
		t.Fatal("allocate failed")
	}
	a.Release(1, blockIdx, slotIdx)

	if freed == nil {
		t.Fatal("free callback was not invoked")
	}
	head, _ := a.GetHead(1)
	slot := head.Blocks[blockIdx].Slots[slotIdx]
	if slot.Flags != 0 {
		t.Fatalf("expected flags cleared, got %v", slot.Flags)
	}
	if head.Blocks[blockIdx].Used != 0 {
		t.Fatalf("expected block.Used == 0, got %d", head.Blocks[blockIdx].Used)
	}
	_ = value
}

func TestReleaseDoesNotFreeUntilArcReachesZero(t *testing.T) {
	cfg := config.Default()
	a := New(cfg)
	calls := 0
	a.InitHeads(1, 8, make([]byte, 8), func(value []byte) { calls++ })

	_, blockIdx, slotIdx, ok := a.Allocate(1)
	if !ok {
		t.Fatal("allocate failed")
	}
	head, _ := a.GetHead(1)
	head.Blocks[blockIdx].Slots[slotIdx].Arc = 2

	a.Release(1, blockIdx, slotIdx)
	if calls != 0 {
		t.Fatal("free invoked before arc reached zero")
	}
	a.Release(1, blockIdx, slotIdx)
	if calls != 1 {
		t.Fatalf("expected exactly one free invocation, got %d", calls)
	}
}

// TestSlotReuseAfterRelease allocates two values, releases both, then
// allocates a third: the third allocation must reuse the lowest-index freed
// slot within the block.
func TestSlotReuseAfterRelease(t *testing.T) {
	a := newTestAllocator()
	_, b0, s0, ok := a.Allocate(1)
	if !ok {
		t.Fatal("first allocate failed")
	}
	_, b1, s1, ok := a.Allocate(1)
	if !ok {
		t.Fatal("second allocate failed")
	}
	if b0 != b1 {
		t.Fatalf("expected both allocations in the same block, got %d and %d", b0, b1)
	}

	a.Release(1, b0, s0)
	a.Release(1, b1, s1)

	_, b2, s2, ok := a.Allocate(1)
	if !ok {
		t.Fatal("third allocate failed")
	}
	if b2 != b0 {
		t.Fatalf("expected reuse within block %d, got %d", b0, b2)
	}
	if s2 != s0 {
		t.Fatalf("expected reuse of slot %d, got %d", s0, s2)
	}
}

func TestAllocateGrowsToSecondBlockWhenFirstIsFull(t *testing.T) {
	cfg := config.Default()
	cfg.DIMA.BaseCapacity = 2
	a := New(cfg)
	a.InitHeads(1, 8, make([]byte, 8), nil)

	_, b0, _, ok := a.Allocate(1)
	if !ok || b0 != 0 {
		t.Fatalf("expected first allocation in block 0, got block %d ok=%v", b0, ok)
	}
	_, b1, _, ok := a.Allocate(1)
	if !ok || b1 != 0 {
		t.Fatalf("expected second allocation still in block 0, got block %d ok=%v", b1, ok)
	}
	_, b2, _, ok := a.Allocate(1)
	if !ok || b2 != 1 {
		t.Fatalf("expected third allocation to grow into block 1, got block %d ok=%v", b2, ok)
	}
	head, _ := a.GetHead(1)
	wantCap := (cfg.DIMA.BaseCapacity*cfg.DIMA.GrowthFactor + 9) / 10
	if head.Blocks[1].Capacity != wantCap {
		t.Fatalf("expected block 1 capacity %d, got %d", wantCap, head.Blocks[1].Capacity)
	}
}

func TestAllocateReusesNullBlockSlot(t *testing.T) {
	a := newTestAllocator()
	a.Allocate(1)
	head, _ := a.GetHead(1)
	// Simulate a null block slot by nilling out the existing block and
	// forcing the reverse scan to fail.
	head.Blocks[0] = nil

	value, blockIdx, slotIdx, ok := a.Allocate(1)
	if !ok {
		t.Fatal("allocate failed to fill the null block slot")
	}
	if blockIdx != 0 {
		t.Fatalf("expected the null slot at index 0 to be filled, got block %d", blockIdx)
	}
	if head.Blocks[0] == nil {
		t.Fatal("expected a freshly created block at the null slot")
	}
	if slotIdx != 0 {
		t.Fatalf("expected slot 0 of the freshly created block, got %d", slotIdx)
	}
	if len(value) == 0 {
		t.Fatal("expected a non-empty value buffer")
	}
}
