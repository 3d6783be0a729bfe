package parser

import "github.com/flint-lang/flintc/pkg/ast"

// ResolveCallTypes is the post-parse pass that walks every file's function
// definitions building a name -> return-type map, then assigns a type to
// each CallNode whose FunctionName matches. Calls that never resolve are
// left with an empty ReturnType; they may still bind late, across imports.
//
// A declaration that binds a call's result (`x := f()`) is parsed before
// this pass runs, so its scope binding and its DeclarationStmt.Type were
// stamped with whatever ReturnType the CallNode carried at parse time,
// always "" for a call to a function defined later in the same file. Once
// every CallNode above has its real ReturnType, re-patch each such
// declaration so a later statement in the same scope (e.g. the BinaryOp in
// `y := x + 1`) sees x's real type instead of "".
func (p *Parser) ResolveCallTypes(file *ast.FileNode) error {
	returns := map[string]string{}
	collectReturnTypes(file, returns)

	for id := 0; id < int(p.ctx.Calls.Len())+1; id++ {
		call, ok := p.ctx.Calls.Get(uint64(id))
		if !ok {
			continue
		}
		if rt, ok := returns[call.FunctionName]; ok {
			call.ReturnType = rt
		}
	}

	for _, decl := range p.callBoundDecls {
		call, ok := decl.Value.(*ast.CallExpr)
		if !ok {
			continue
		}
		decl.Type = call.Call.ReturnType
		p.ctx.Scopes.Retype(decl.ScopeID, decl.Name, call.Call.ReturnType)
	}
	return nil
}

func collectReturnTypes(file *ast.FileNode, out map[string]string) {
	for _, def := range file.Definitions {
		switch d := def.(type) {
		case *ast.FunctionNode:
			out[d.Name] = firstOrVoid(d.ReturnTypes)
		case *ast.FuncNode:
			for _, fn := range d.Functions {
				out[fn.Name] = firstOrVoid(fn.ReturnTypes)
			}
		}
	}
}

func firstOrVoid(types []string) string {
	if len(types) == 0 {
		return "void"
	}
	return types[0]
}
