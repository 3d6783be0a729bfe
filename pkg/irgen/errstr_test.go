package irgen_test

import (
	"strings"
	"testing"

	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/compiler"
	"github.com/flint-lang/flintc/pkg/config"
	"github.com/flint-lang/flintc/pkg/ir"
	"github.com/flint-lang/flintc/pkg/irgen"
)

// With error sets E { Foo, Bar } and F(E) { Baz }, get_err_val_str(id(F), 0)
// must recurse to the parent and return "Foo", and get_err_val_str(id(F), 2)
// must normalize to index 0 in F's own values and return "Baz".
func TestGenerateErrorStringFunctionsValueLookupOrder(t *testing.T) {
	ctx := compiler.New(config.Default())
	e := &ast.ErrorNode{Name: "E", Values: []string{"Foo", "Bar"}, ErrorID: 1}
	f := &ast.ErrorNode{Name: "F", Values: []string{"Baz"}, Parent: "E", ErrorID: 2}
	ctx.RegisterErrorSet(e)
	ctx.RegisterErrorSet(f)

	fns := irgen.GenerateErrorStringFunctions(ctx)
	var valFn *ir.Function
	for _, fn := range fns {
		if fn.Name == "__flint_get_err_val_str" {
			valFn = fn
		}
		if !fn.AllTerminated() {
			t.Fatalf("expected every block in %s to end with a terminator", fn.Name)
		}
	}
	if valFn == nil {
		t.Fatal("expected GenerateErrorStringFunctions to emit get_err_val_str")
	}

	text := ir.Print(&ir.Module{Functions: []*ir.Function{valFn}})

	// F's case must test value_id against E's value_count (2) before
	// touching any of F's own values.
	if !strings.Contains(text, "< %value_id, 2") {
		t.Fatalf("expected F's case to test value_id against parent value_count 2, got:\n%s", text)
	}
	// The in-range branch recurses into the parent with the ORIGINAL
	// value_id (unshifted) and the parent's error_id.
	if !strings.Contains(text, "call __flint_get_err_val_str(1, %value_id)") {
		t.Fatalf("expected a recursive call into the parent set with the unshifted value_id, got:\n%s", text)
	}
	// The out-of-range branch shifts by the parent's value_count (2), not
	// F's own value count (1), before switching on F's own values.
	if !strings.Contains(text, "- %value_id, 2") {
		t.Fatalf("expected the own-value shift to subtract the parent value_count 2, got:\n%s", text)
	}
	if !strings.Contains(text, `"Baz"`) {
		t.Fatalf("expected F's own value switch to return \"Baz\", got:\n%s", text)
	}
}

// execGetErrValStr is a minimal interpreter for the exact instruction subset
// get_err_val_str emits: BinOpInst ("==", "<", "-"), CondBrInst, CallInst
// (recursing into the parent set's case in the same module), GetFieldPtrInst
// / StoreInst / LoadInst threading the `{ err_code, value }` return struct
// retStruct builds, and RetInst. It exists to exercise the generated switch
// end-to-end rather than asserting on printed text alone.
func execGetErrValStr(t *testing.T, mod *ir.Module, typeID, valueID int64) string {
	t.Helper()
	var fn *ir.Function
	for _, f := range mod.Functions {
		if f.Name == "__flint_get_err_val_str" {
			fn = f
		}
	}
	if fn == nil {
		t.Fatal("module has no __flint_get_err_val_str")
	}

	env := map[string]ir.Value{"type_id": ir.ConstInt{V: typeID}, "value_id": ir.ConstInt{V: valueID}}
	// ptrBase/ptrField record which (alloca, field index) a field pointer
	// name addresses; structField holds the materialized field values of
	// each struct alloca, since this interpreter models memory as named
	// struct fields rather than raw bytes.
	ptrBase := map[string]string{}
	ptrField := map[string]int{}
	structField := map[string]map[int]ir.Value{}

	resolve := func(v ir.Value) ir.Value {
		if ref, ok := v.(ir.Ref); ok {
			return env[ref.Name]
		}
		return v
	}
	asInt := func(v ir.Value) int64 {
		ci, ok := resolve(v).(ir.ConstInt)
		if !ok {
			t.Fatalf("expected an integer value, got %#v", v)
		}
		return ci.V
	}

	block := fn.EntryBlock
	for {
		b := fn.Block(block)
		terminated := false
		for _, inst := range b.Instructions {
			switch i := inst.(type) {
			case ir.AllocaInst:
				structField[i.Dest] = map[int]ir.Value{}
			case ir.GetFieldPtrInst:
				ptrBase[i.Dest] = i.Base
				ptrField[i.Dest] = i.FieldIndex
			case ir.StoreInst:
				structField[ptrBase[i.Ptr]][ptrField[i.Ptr]] = resolve(i.Value)
			case ir.LoadInst:
				env[i.Dest] = structField[i.Ptr][1]
			case ir.BinOpInst:
				switch i.Op {
				case "==":
					env[i.Dest] = ir.ConstInt{V: boolToInt(asInt(i.LHS) == asInt(i.RHS))}
				case "<":
					env[i.Dest] = ir.ConstInt{V: boolToInt(asInt(i.LHS) < asInt(i.RHS))}
				case "-":
					env[i.Dest] = ir.ConstInt{V: asInt(i.LHS) - asInt(i.RHS)}
				}
			case ir.CallInst:
				if i.Func == "__flint_get_err_val_str" {
					env[i.Dest] = ir.ConstStr{V: execGetErrValStr(t, mod, asInt(i.Args[0]), asInt(i.Args[1]))}
				}
			case ir.CondBrInst:
				if asInt(i.Cond) != 0 {
					block = i.TrueTarget
				} else {
					block = i.FalseTarget
				}
				terminated = true
			case ir.RetInst:
				s, ok := resolve(i.Struct).(ir.ConstStr)
				if !ok {
					t.Fatalf("expected a string return value, got %#v", i.Struct)
				}
				return s.V
			}
		}
		if !terminated {
			t.Fatalf("block %d fell off the end without a terminator", block)
		}
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Type id 0 is the built-in anonymous error type and must stringify to the
// fixed literals even when it collides with no declared set.
func TestErrStringFunctionsHandleZeroTypeID(t *testing.T) {
	ctx := compiler.New(config.Default())
	ctx.RegisterErrorSet(&ast.ErrorNode{Name: "E", Values: []string{"Foo"}, ErrorID: 1})

	fns := irgen.GenerateErrorStringFunctions(ctx)
	mod := &ir.Module{Functions: fns}

	for _, v := range []int64{0, 1, 7} {
		if got := execGetErrValStr(t, mod, 0, v); got != "anyerror" {
			t.Fatalf("get_err_val_str(0, %d) = %q, want %q", v, got, "anyerror")
		}
	}

	var typeFn *ir.Function
	for _, fn := range fns {
		if fn.Name == "__flint_get_err_type_str" {
			typeFn = fn
		}
	}
	if typeFn == nil {
		t.Fatal("expected GenerateErrorStringFunctions to emit get_err_type_str")
	}
	text := ir.Print(&ir.Module{Functions: []*ir.Function{typeFn}})
	if !strings.Contains(text, "== %type_id, 0") {
		t.Fatalf("expected get_err_type_str to test type_id against 0 first, got:\n%s", text)
	}
	if !strings.Contains(text, `"error"`) {
		t.Fatalf("expected the zero case to return the literal \"error\", got:\n%s", text)
	}
}

func TestGetErrValStrResolvesParentPrefixBeforeOwnValues(t *testing.T) {
	ctx := compiler.New(config.Default())
	e := &ast.ErrorNode{Name: "E", Values: []string{"Foo", "Bar"}, ErrorID: 1}
	f := &ast.ErrorNode{Name: "F", Values: []string{"Baz"}, Parent: "E", ErrorID: 2}
	ctx.RegisterErrorSet(e)
	ctx.RegisterErrorSet(f)

	mod := &ir.Module{Functions: irgen.GenerateErrorStringFunctions(ctx)}

	if got := execGetErrValStr(t, mod, 2, 0); got != "Foo" {
		t.Fatalf("get_err_val_str(id(F), 0) = %q, want %q", got, "Foo")
	}
	if got := execGetErrValStr(t, mod, 2, 1); got != "Bar" {
		t.Fatalf("get_err_val_str(id(F), 1) = %q, want %q", got, "Bar")
	}
	if got := execGetErrValStr(t, mod, 2, 2); got != "Baz" {
		t.Fatalf("get_err_val_str(id(F), 2) = %q, want %q", got, "Baz")
	}
}
