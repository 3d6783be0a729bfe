package irgen

import (
	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/errs"
	"github.com/flint-lang/flintc/pkg/ir"
)

// genExpr lowers expr to a Value, emitting whatever instructions it needs
// into block cur. scopeID is the scope the expression occurs in, used to
// resolve variable names to their declaring scope's alloca.
func (g *Generator) genExpr(cur int, scopeID int, expr ast.Expression) (ir.Value, error) {
	switch e := expr.(type) {
	case *ast.LiteralExpr:
		return g.genLiteral(e), nil

	case *ast.VariableExpr:
		binding, ok := g.ctx.Scopes.Resolve(scopeID, e.Name)
		if !ok {
			return nil, errs.Fatal(errs.ErrVarNotDeclared, "%s", e.Name)
		}
		dest := g.fresh("t")
		g.fn.Block(cur).Append(ir.LoadInst{Dest: dest, Ptr: allocaNameFor(binding.DeclaringScopeID, e.Name), Type: binding.Type})
		return ir.Ref{Name: dest}, nil

	case *ast.UnaryExpr:
		operand, err := g.genExpr(cur, scopeID, e.Operand)
		if err != nil {
			return nil, err
		}
		dest := g.fresh("t")
		g.fn.Block(cur).Append(ir.UnaryOpInst{Dest: dest, Op: string(e.Op), Operand: operand})
		return ir.Ref{Name: dest}, nil

	case *ast.BinaryExpr:
		lhs, err := g.genExpr(cur, scopeID, e.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := g.genExpr(cur, scopeID, e.RHS)
		if err != nil {
			return nil, err
		}
		dest := g.fresh("t")
		g.fn.Block(cur).Append(ir.BinOpInst{Dest: dest, Op: string(e.Op), LHS: lhs, RHS: rhs})
		return ir.Ref{Name: dest}, nil

	case *ast.CallExpr:
		return g.genCallExpr(cur, scopeID, e)

	default:
		return nil, errs.Fatal(errs.ErrUndefinedStatement, "unhandled expression %T", expr)
	}
}

func (g *Generator) genLiteral(e *ast.LiteralExpr) ir.Value {
	switch e.Kind {
	case ast.LiteralInt:
		return ir.ConstInt{V: e.Value.(int64)}
	case ast.LiteralFloat:
		return ir.ConstFloat{V: e.Value.(float64)}
	case ast.LiteralString:
		return ir.ConstStr{V: e.Value.(string)}
	case ast.LiteralBool:
		return ir.ConstBool{V: e.Value.(bool)}
	case ast.LiteralChar:
		return ir.ConstInt{V: int64(e.Value.(rune))}
	default:
		return ir.ConstInt{V: 0}
	}
}

// genCallExpr emits the call and stores its full return struct into the
// call's dedicated retAlloca, so a following CatchStmt can read field 0 off
// it. Returns a Ref to the materialized struct value.
func (g *Generator) genCallExpr(cur int, scopeID int, e *ast.CallExpr) (ir.Value, error) {
	args := make([]ir.Value, 0, len(e.Call.Arguments))
	for _, a := range e.Call.Arguments {
		v, err := g.genExpr(cur, scopeID, a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	dest := g.fresh("t")
	g.fn.Block(cur).Append(ir.CallInst{Dest: dest, Func: e.Call.FunctionName, Args: args})
	g.fn.Block(cur).Append(ir.StoreInst{Ptr: retAllocaName(e.Call.CallID), Value: ir.Ref{Name: dest}})
	return ir.Ref{Name: dest}, nil
}

// genCallValue lowers a call used in value position: the struct is stored
// (above) and field 1 is loaded back out for the caller.
func (g *Generator) genCallValue(cur int, scopeID int, e *ast.CallExpr, valueType string) (ir.Value, error) {
	if _, err := g.genCallExpr(cur, scopeID, e); err != nil {
		return nil, err
	}
	valPtr := g.fresh("t")
	g.fn.Block(cur).Append(ir.GetFieldPtrInst{Dest: valPtr, Base: retAllocaName(e.Call.CallID), FieldIndex: 1})
	dest := g.fresh("t")
	g.fn.Block(cur).Append(ir.LoadInst{Dest: dest, Ptr: valPtr, Type: valueType})
	return ir.Ref{Name: dest}, nil
}

func (g *Generator) genCallStmt(cur int, scopeID int, s *ast.CallStmt) (int, error) {
	if _, err := g.genCallExpr(cur, scopeID, &ast.CallExpr{Call: s.Call}); err != nil {
		return 0, err
	}
	return cur, nil
}

func (g *Generator) genDeclaration(cur int, scopeID int, s *ast.DeclarationStmt) (int, error) {
	var val ir.Value
	var err error
	if call, ok := s.Value.(*ast.CallExpr); ok {
		val, err = g.genCallValue(cur, scopeID, call, s.Type)
	} else {
		val, err = g.genExpr(cur, scopeID, s.Value)
	}
	if err != nil {
		return 0, err
	}
	g.fn.Block(cur).Append(ir.StoreInst{Ptr: allocaNameFor(s.ScopeID, s.Name), Value: val})
	return cur, nil
}

func (g *Generator) genAssignment(cur int, scopeID int, s *ast.AssignmentStmt, phi map[string][]ir.PhiEdge) (int, error) {
	target, ok := s.Target.(*ast.VariableExpr)
	if !ok {
		return 0, errs.Fatal(errs.ErrGenerating, "assignment target must be a variable")
	}
	binding, ok := g.ctx.Scopes.Resolve(scopeID, target.Name)
	if !ok {
		return 0, errs.Fatal(errs.ErrVarNotDeclared, "%s", target.Name)
	}

	val, err := g.genExpr(cur, scopeID, s.Value)
	if err != nil {
		return 0, err
	}
	g.fn.Block(cur).Append(ir.StoreInst{Ptr: allocaNameFor(binding.DeclaringScopeID, target.Name), Value: val})

	if phi != nil {
		if edges, tracked := phi[target.Name]; tracked {
			phi[target.Name] = append(edges, ir.PhiEdge{Block: cur, Value: val})
		}
	}
	return cur, nil
}

func (g *Generator) genReturn(cur int, scopeID int, s *ast.ReturnStmt) (int, error) {
	var val ir.Value = ir.ConstInt{V: 0}
	if s.Expr != nil {
		v, err := g.genExpr(cur, scopeID, s.Expr)
		if err != nil {
			return 0, err
		}
		val = v
	}

	errPtr := g.fresh("t")
	g.fn.Block(cur).Append(ir.GetFieldPtrInst{Dest: errPtr, Base: "ret", FieldIndex: 0})
	g.fn.Block(cur).Append(ir.StoreInst{Ptr: errPtr, Value: ir.ConstInt{V: 0}})

	valPtr := g.fresh("t")
	g.fn.Block(cur).Append(ir.GetFieldPtrInst{Dest: valPtr, Base: "ret", FieldIndex: 1})
	g.fn.Block(cur).Append(ir.StoreInst{Ptr: valPtr, Value: val})

	retVal := g.fresh("t")
	g.fn.Block(cur).Append(ir.LoadInst{Dest: retVal, Ptr: "ret", Type: structType(g.fn.ValueType)})
	g.fn.Block(cur).Append(ir.RetInst{Struct: ir.Ref{Name: retVal}})
	return cur, nil
}

func (g *Generator) genThrow(cur int, scopeID int, s *ast.ThrowStmt) (int, error) {
	val, err := g.genExpr(cur, scopeID, s.Expr)
	if err != nil {
		return 0, err
	}

	errPtr := g.fresh("t")
	g.fn.Block(cur).Append(ir.GetFieldPtrInst{Dest: errPtr, Base: "ret", FieldIndex: 0})
	g.fn.Block(cur).Append(ir.StoreInst{Ptr: errPtr, Value: val})

	valPtr := g.fresh("t")
	g.fn.Block(cur).Append(ir.GetFieldPtrInst{Dest: valPtr, Base: "ret", FieldIndex: 1})
	g.fn.Block(cur).Append(ir.StoreInst{Ptr: valPtr, Value: zeroValue(g.fn.ValueType)})

	retVal := g.fresh("t")
	g.fn.Block(cur).Append(ir.LoadInst{Dest: retVal, Ptr: "ret", Type: structType(g.fn.ValueType)})
	g.fn.Block(cur).Append(ir.RetInst{Struct: ir.Ref{Name: retVal}})
	return cur, nil
}
