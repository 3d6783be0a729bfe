package ir

import (
	"fmt"
	"strings"
)

// Printer renders a Module to readable IR text, one block per label and one
// line per instruction.
type Printer struct{ buf strings.Builder }

// Print renders every function in m as text, one block per label and one
// line per instruction.
func Print(m *Module) string {
	p := &Printer{}
	for i, fn := range m.Functions {
		p.printFunction(fn)
		if i < len(m.Functions)-1 {
			p.buf.WriteString("\n")
		}
	}
	return p.buf.String()
}

func (p *Printer) printFunction(fn *Function) {
	params := make([]string, len(fn.Params))
	for i, prm := range fn.Params {
		params[i] = prm.Type + " " + prm.Name
	}
	fmt.Fprintf(&p.buf, "func %s(%s) -> %s {\n", fn.Name, strings.Join(params, ", "), fn.ValueType)
	for _, b := range fn.Blocks {
		fmt.Fprintf(&p.buf, "%s:\n", b.Label)
		for _, instr := range b.Instructions {
			p.buf.WriteString("    ")
			p.printInstruction(instr)
			p.buf.WriteString("\n")
		}
	}
	p.buf.WriteString("}\n")
}

func (p *Printer) printInstruction(instr Instruction) {
	switch i := instr.(type) {
	case AllocaInst:
		fmt.Fprintf(&p.buf, "%%%s = alloca %s", i.Dest, i.Type)
	case StoreInst:
		fmt.Fprintf(&p.buf, "store %s, %%%s", i.Value, i.Ptr)
	case LoadInst:
		fmt.Fprintf(&p.buf, "%%%s = load %s, %%%s", i.Dest, i.Type, i.Ptr)
	case GetFieldPtrInst:
		fmt.Fprintf(&p.buf, "%%%s = field_ptr %%%s, %d", i.Dest, i.Base, i.FieldIndex)
	case BinOpInst:
		fmt.Fprintf(&p.buf, "%%%s = %s %s, %s", i.Dest, i.Op, i.LHS, i.RHS)
	case UnaryOpInst:
		fmt.Fprintf(&p.buf, "%%%s = %s%s", i.Dest, i.Op, i.Operand)
	case CallInst:
		args := make([]string, len(i.Args))
		for j, a := range i.Args {
			args[j] = a.String()
		}
		if i.Dest != "" {
			fmt.Fprintf(&p.buf, "%%%s = call %s(%s)", i.Dest, i.Func, strings.Join(args, ", "))
		} else {
			fmt.Fprintf(&p.buf, "call %s(%s)", i.Func, strings.Join(args, ", "))
		}
	case BrInst:
		fmt.Fprintf(&p.buf, "br block%d", i.Target)
	case CondBrInst:
		fmt.Fprintf(&p.buf, "condbr %s, block%d, block%d", i.Cond, i.TrueTarget, i.FalseTarget)
	case RetInst:
		fmt.Fprintf(&p.buf, "ret %s", i.Struct)
	case PhiInst:
		edges := make([]string, len(i.Incoming))
		for j, e := range i.Incoming {
			edges[j] = fmt.Sprintf("[block%d: %s]", e.Block, e.Value)
		}
		fmt.Fprintf(&p.buf, "%%%s = phi %s %s %s", i.Dest, i.Type, i.Var, strings.Join(edges, ", "))
	}
}
