// Package ir is the basic-block intermediate representation the generator
// targets: structured control flow lowered to explicit blocks, every
// function returning a materialized `{ err_code, value }` struct, and merge
// points carrying phi nodes for variables mutated on more than one
// incoming path.
package ir

import "fmt"

// Value is anything an instruction can consume: a constant or a reference
// to a previously computed/allocated name.
type Value interface {
	valueNode()
	String() string
}

// ConstInt, ConstFloat, ConstStr, and ConstBool are literal operands.
type ConstInt struct{ V int64 }
type ConstFloat struct{ V float64 }
type ConstStr struct{ V string }
type ConstBool struct{ V bool }

func (ConstInt) valueNode()    {}
func (ConstFloat) valueNode()  {}
func (ConstStr) valueNode()    {}
func (ConstBool) valueNode()   {}

func (c ConstInt) String() string    { return fmt.Sprintf("%d", c.V) }
func (c ConstFloat) String() string  { return fmt.Sprintf("%g", c.V) }
func (c ConstStr) String() string    { return fmt.Sprintf("%q", c.V) }
func (c ConstBool) String() string   { return fmt.Sprintf("%t", c.V) }

// Ref names a virtual register, alloca slot, or block-local temporary
// produced by a previous instruction.
type Ref struct{ Name string }

func (Ref) valueNode()        {}
func (r Ref) String() string  { return "%" + r.Name }

// Instruction is the closed sum of IR operations.
type Instruction interface {
	instructionNode()
}

// AllocaInst reserves one stack slot per (scope id, name) at function
// entry. All user variables are stack-allocated up front; there is no
// implicit stack reuse.
type AllocaInst struct {
	Dest string
	Type string
}

// StoreInst writes Value to the memory addressed by Ptr.
type StoreInst struct {
	Ptr   string
	Value Value
}

// LoadInst reads the memory addressed by Ptr into Dest.
type LoadInst struct {
	Dest string
	Ptr  string
	Type string
}

// GetFieldPtrInst computes the address of a struct field, used to read
// field 0 (err_code) / field 1 (value) of a call's return struct.
type GetFieldPtrInst struct {
	Dest       string
	Base       string
	FieldIndex int
}

// BinOpInst computes a binary operation.
type BinOpInst struct {
	Dest string
	Op   string
	LHS  Value
	RHS  Value
}

// UnaryOpInst computes a unary operation.
type UnaryOpInst struct {
	Dest    string
	Op      string
	Operand Value
}

// CallInst calls a named function (user-defined or a synthesized runtime
// symbol from pkg/runtime) and binds its result to Dest. Dest is empty for
// a call whose result is discarded.
type CallInst struct {
	Dest string
	Func string
	Args []Value
}

// BrInst is an unconditional branch to another block in the same function.
type BrInst struct {
	Target int
}

// CondBrInst conditionally branches to one of two blocks.
type CondBrInst struct {
	Cond        Value
	TrueTarget  int
	FalseTarget int
	// BranchWeights, when non-nil, annotates the rare/slow-path edge for
	// the backend to lay out cold.
	BranchWeights *[2]int
}

// RetInst returns the fully materialized `{ err_code, value }` struct by
// value.
type RetInst struct {
	Struct Value
}

// PhiEdge is one incoming (predecessor-block, value) pair of a PhiInst.
type PhiEdge struct {
	Block int
	Value Value
}

// PhiInst is the SSA reconciliation value materialized at a merge block for
// a variable mutated on more than one incoming path.
type PhiInst struct {
	Dest     string
	Type     string
	Var      string // the source variable name this phi reconciles
	Incoming []PhiEdge
}

func (AllocaInst) instructionNode()      {}
func (StoreInst) instructionNode()       {}
func (LoadInst) instructionNode()        {}
func (GetFieldPtrInst) instructionNode() {}
func (BinOpInst) instructionNode()       {}
func (UnaryOpInst) instructionNode()     {}
func (CallInst) instructionNode()        {}
func (BrInst) instructionNode()          {}
func (CondBrInst) instructionNode()      {}
func (RetInst) instructionNode()         {}
func (PhiInst) instructionNode()         {}

// BasicBlock is a straight-line sequence of instructions. Every completed
// block ends in a terminator (Br, CondBr, or Ret).
type BasicBlock struct {
	ID           int
	Label        string
	Instructions []Instruction
}

// Terminated reports whether the block's last instruction is a terminator.
func (b *BasicBlock) Terminated() bool {
	if len(b.Instructions) == 0 {
		return false
	}
	switch b.Instructions[len(b.Instructions)-1].(type) {
	case BrInst, CondBrInst, RetInst:
		return true
	default:
		return false
	}
}

// Append adds an instruction to the block.
func (b *BasicBlock) Append(instr Instruction) { b.Instructions = append(b.Instructions, instr) }

// Param is a function parameter's (type, name).
type Param struct {
	Type string
	Name string
}

// Function is a single emitted function: parameters, the fixed
// `{ err_code, value }` return ABI, and its basic blocks.
type Function struct {
	Name       string
	Params     []Param
	ValueType  string // T in `{ i32 err_code, T value }`
	Blocks     []*BasicBlock
	EntryBlock int
}

// NewBlock allocates and appends a new block, returning its id.
func (f *Function) NewBlock(label string) int {
	id := len(f.Blocks)
	f.Blocks = append(f.Blocks, &BasicBlock{ID: id, Label: label})
	return id
}

func (f *Function) Block(id int) *BasicBlock { return f.Blocks[id] }

// AllTerminated reports whether every block in the function ends with a
// terminator.
func (f *Function) AllTerminated() bool {
	for _, b := range f.Blocks {
		if !b.Terminated() {
			return false
		}
	}
	return true
}

// Module is a translation unit's worth of emitted functions plus the
// synthesized free/clone and error-stringification functions.
type Module struct {
	Functions []*Function
}

func (m *Module) AddFunction(f *Function) { m.Functions = append(m.Functions, f) }
