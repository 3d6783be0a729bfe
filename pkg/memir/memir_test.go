package memir

import (
	"testing"

	"github.com/flint-lang/flintc/pkg/ir"
)

func TestFreeableClassification(t *testing.T) {
	str := TypeExpr{Kind: KindStr}
	scalar := TypeExpr{Kind: KindScalar}

	cases := []struct {
		name string
		t    TypeExpr
		want bool
	}{
		{"scalar", scalar, false},
		{"str", str, true},
		{"array", TypeExpr{Kind: KindArray, Elem: &scalar}, true},
		{"data", TypeExpr{Kind: KindData}, true},
		{"entity", TypeExpr{Kind: KindEntity}, true},
		{"error set", TypeExpr{Kind: KindErrorSet}, true},
		{"optional of scalar", TypeExpr{Kind: KindOptional, Elem: &scalar}, false},
		{"optional of str", TypeExpr{Kind: KindOptional, Elem: &str}, true},
		{"tuple of scalars", TypeExpr{Kind: KindTuple, Fields: []TypeExpr{scalar, scalar}}, false},
		{"tuple with one str", TypeExpr{Kind: KindTuple, Fields: []TypeExpr{scalar, str}}, true},
		{"variant of scalars", TypeExpr{Kind: KindVariant, Variants: []TypeExpr{scalar}}, false},
		{"variant with str case", TypeExpr{Kind: KindVariant, Variants: []TypeExpr{scalar, str}}, true},
		{"func", TypeExpr{Kind: KindFunc}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.t.Freeable(); got != c.want {
				t.Fatalf("Freeable() = %v, want %v", got, c.want)
			}
		})
	}
}

func testRegistry() Registry {
	str := TypeExpr{Kind: KindStr}
	scalar := TypeExpr{Kind: KindScalar}
	point := TypeExpr{Kind: KindData, TypeID: 1, Name: "Point", Fields: []TypeExpr{scalar, scalar}}
	named := TypeExpr{Kind: KindData, TypeID: 2, Name: "Named", Fields: []TypeExpr{str, scalar}}
	return Registry{
		1: point,
		2: named,
		3: {Kind: KindArray, TypeID: 3, Name: "StrList", Elem: &str},
		4: {Kind: KindOptional, TypeID: 4, Name: "MaybeStr", Elem: &str},
		5: {Kind: KindVariant, TypeID: 5, Name: "Shape", Variants: []TypeExpr{scalar, str}},
		6: {Kind: KindTuple, TypeID: 6, Name: "Pair", Fields: []TypeExpr{scalar, str}},
		7: {Kind: KindScalar, TypeID: 7, Name: "i32"},
		8: {Kind: KindEntity, TypeID: 8, Name: "Combo", Fields: []TypeExpr{point, named}},
		9: {Kind: KindData, TypeID: 9, Name: "Wrap", Fields: []TypeExpr{point, str}},
	}
}

func TestGenerateFreeEveryBlockTerminated(t *testing.T) {
	fn := GenerateFree(testRegistry())
	if fn.Name != "flint.free" {
		t.Fatalf("expected function name flint.free, got %q", fn.Name)
	}
	if !fn.AllTerminated() {
		t.Fatal("expected every emitted block to end with a terminator")
	}
}

func TestGenerateCloneEveryBlockTerminated(t *testing.T) {
	fn := GenerateClone(testRegistry())
	if fn.Name != "flint.clone" {
		t.Fatalf("expected function name flint.clone, got %q", fn.Name)
	}
	if !fn.AllTerminated() {
		t.Fatal("expected every emitted block to end with a terminator")
	}
}

// Non-freeable registry entries must not get a dispatch case: a scalar is a
// bit-copy the caller never routes through flint.free in the first place.
func TestDispatchSkipsNonFreeableTypes(t *testing.T) {
	fn := GenerateFree(testRegistry())
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			bin, ok := inst.(ir.BinOpInst)
			if !ok || bin.Op != "==" {
				continue
			}
			if c, ok := bin.RHS.(ir.ConstInt); ok && c.V == 7 {
				t.Fatal("scalar type id 7 must not appear in the dispatch chain")
			}
		}
	}
}

// The fallthrough of the dispatch chain prints and aborts on an unknown id.
func TestDispatchFallthroughAborts(t *testing.T) {
	fn := GenerateClone(testRegistry())
	foundAbort := false
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			if call, ok := inst.(ir.CallInst); ok && call.Func == "abort" {
				foundAbort = true
			}
		}
	}
	if !foundAbort {
		t.Fatal("expected an abort call on the unknown-type fallthrough path")
	}
}

// Every release goes through __flint_dima_release(head, ptr): two
// arguments, the head first, since each data type releases through its own
// head.
func TestReleaseCallsCarryHeadAndPointer(t *testing.T) {
	for _, fn := range []*ir.Function{GenerateFree(testRegistry()), GenerateClone(testRegistry())} {
		releases := 0
		for _, b := range fn.Blocks {
			for _, inst := range b.Instructions {
				call, ok := inst.(ir.CallInst)
				if !ok || call.Func != "__flint_dima_release" {
					continue
				}
				releases++
				if len(call.Args) != 2 {
					t.Fatalf("%s: expected release to take (head, ptr), got %d args", fn.Name, len(call.Args))
				}
			}
		}
		if releases == 0 {
			t.Fatalf("%s: expected at least one release call", fn.Name)
		}
	}
}

// An entity releases each composed data module through that module's own
// field pointer and head, not the entity pointer itself.
func TestEntityFreeReleasesEachComposedModule(t *testing.T) {
	fn := GenerateFree(testRegistry())
	var entityBlock *ir.BasicBlock
	for _, b := range fn.Blocks {
		if b.Label == "free.Combo" {
			entityBlock = b
		}
	}
	if entityBlock == nil {
		t.Fatal("expected a dispatch case block for the Combo entity")
	}

	fieldPtrs, releases, headIDs := 0, 0, map[int64]bool{}
	var lastHead string
	for _, inst := range entityBlock.Instructions {
		switch i := inst.(type) {
		case ir.GetFieldPtrInst:
			fieldPtrs++
		case ir.CallInst:
			switch i.Func {
			case "__flint_dima_get_head":
				headIDs[i.Args[0].(ir.ConstInt).V] = true
				lastHead = i.Dest
			case "__flint_dima_release":
				releases++
				if ref, ok := i.Args[0].(ir.Ref); !ok || ref.Name != lastHead {
					t.Fatal("expected each release to use the head fetched for its own field")
				}
			}
		}
	}
	if fieldPtrs != 2 || releases != 2 {
		t.Fatalf("expected one field pointer and one release per composed module, got %d and %d", fieldPtrs, releases)
	}
	if !headIDs[1] || !headIDs[2] {
		t.Fatalf("expected heads fetched for composed type ids 1 and 2, got %v", headIDs)
	}
}

// A data field nested inside another data type is arc-counted: its free
// path goes through DIMA release, never through a direct recursive
// teardown of its sub-fields.
func TestNestedDataFieldReleasesThroughDima(t *testing.T) {
	fn := GenerateFree(testRegistry())
	var wrapBlock *ir.BasicBlock
	for _, b := range fn.Blocks {
		if b.Label == "free.Wrap" {
			wrapBlock = b
		}
	}
	if wrapBlock == nil {
		t.Fatal("expected a dispatch case block for Wrap")
	}

	releasedThroughHead := false
	for _, inst := range wrapBlock.Instructions {
		if call, ok := inst.(ir.CallInst); ok && call.Func == "__flint_dima_get_head" {
			if c, ok := call.Args[0].(ir.ConstInt); ok && c.V == 1 {
				releasedThroughHead = true
			}
		}
	}
	if !releasedThroughHead {
		t.Fatal("expected Wrap's Point field to be released through Point's own head")
	}
}

// A data type's clone case must allocate the destination slot through DIMA
// and recurse only into its freeable fields.
func TestCloneDataAllocatesSlotAndCopiesFields(t *testing.T) {
	fn := GenerateClone(testRegistry())
	allocSlot, memcpyCount := false, 0
	for _, b := range fn.Blocks {
		for _, inst := range b.Instructions {
			call, ok := inst.(ir.CallInst)
			if !ok {
				continue
			}
			switch call.Func {
			case "__flint_dima_allocate_slot":
				allocSlot = true
			case "memcpy":
				memcpyCount++
			}
		}
	}
	if !allocSlot {
		t.Fatal("expected the data clone case to allocate a destination slot via DIMA")
	}
	if memcpyCount == 0 {
		t.Fatal("expected scalar fields to be bulk-copied with memcpy")
	}
}
