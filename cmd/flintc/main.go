// Command flintc is a thin, testable entry point exercising the parser,
// IR generator, and DIMA free/clone synthesis end to end. It is not the
// full compiler's user-facing driver; source discovery, multi-file
// orchestration, and diagnostics rendering live elsewhere. It only reads a
// pre-tokenized fixture and prints the resulting IR.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/flint-lang/flintc/pkg/ast"
	"github.com/flint-lang/flintc/pkg/compiler"
	"github.com/flint-lang/flintc/pkg/config"
	"github.com/flint-lang/flintc/pkg/dima"
	"github.com/flint-lang/flintc/pkg/ir"
	"github.com/flint-lang/flintc/pkg/irgen"
	"github.com/flint-lang/flintc/pkg/memir"
	"github.com/flint-lang/flintc/pkg/parser"
	"github.com/flint-lang/flintc/pkg/token"

	"github.com/teris-io/cli"
)

var description = strings.ReplaceAll(`
flintc reads a pre-tokenized (JSON token array) source fixture, parses it
into an AST, lowers every top-level function to basic-block IR, synthesizes
the per-type free/clone functions for every declared data type, and prints
the resulting IR module as text.
`, "\n", " ")

var Flintc = cli.New(description).
	WithArg(cli.NewArg("tokens", "Path to a JSON token array produced by an (out-of-scope) lexer").WithType(cli.TypeString)).
	WithOption(cli.NewOption("config", "Path to a YAML configuration file overriding DIMA defaults").WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Println("ERROR: missing required <tokens> argument, use --help")
		return -1
	}

	content, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Printf("ERROR: unable to read token fixture: %s\n", err)
		return -1
	}

	var tokens []token.Token
	if err := json.Unmarshal(content, &tokens); err != nil {
		fmt.Printf("ERROR: unable to decode token fixture: %s\n", err)
		return -1
	}

	cfg, err := config.Load(options["config"])
	if err != nil {
		fmt.Printf("ERROR: unable to load configuration: %s\n", err)
		return -1
	}

	ctx := compiler.New(cfg)
	p := parser.New(ctx)
	p.SetSourceName(args[0])

	file, err := p.ParseFile(tokens)
	if err != nil {
		fmt.Printf("ERROR: unable to complete 'parsing' pass: %s\n", err)
		return -1
	}

	module, err := lower(ctx, file)
	if err != nil {
		fmt.Printf("ERROR: unable to complete 'IR generation' pass: %s\n", err)
		return -1
	}

	reg := buildTypeRegistry(ctx)
	module.AddFunction(memir.GenerateFree(reg))
	module.AddFunction(memir.GenerateClone(reg))

	for _, fn := range irgen.GenerateErrorStringFunctions(ctx) {
		module.AddFunction(fn)
	}
	addDimaRuntime(ctx, cfg, module)

	fmt.Print(ir.Print(module))
	return 0
}

// addDimaRuntime appends the synthesized allocator functions every emitted
// program links against: head setup, block creation, in-block scan, release,
// and the capacity growth formula.
func addDimaRuntime(ctx *compiler.CompilationContext, cfg config.Config, module *ir.Module) {
	typeIDs := make([]uint64, 0, len(ctx.DataTypes))
	for _, d := range ctx.AllDataTypes() {
		typeIDs = append(typeIDs, d.FileHash)
	}
	sort.Slice(typeIDs, func(i, j int) bool { return typeIDs[i] < typeIDs[j] })

	module.AddFunction(dima.GenerateInitHeads(typeIDs))
	module.AddFunction(dima.GenerateGetHead())
	module.AddFunction(dima.GenerateCreateBlock())
	module.AddFunction(dima.GenerateAllocateInBlock())
	module.AddFunction(dima.GenerateRelease())
	module.AddFunction(dima.GenerateGetBlockCapacity(cfg.DIMA.BaseCapacity, cfg.DIMA.GrowthFactor))
}

// lower runs every top-level function (and every function nested in a
// func module) through IRGen, collecting them into one ir.Module.
func lower(ctx *compiler.CompilationContext, file *ast.FileNode) (*ir.Module, error) {
	module := &ir.Module{}
	for _, def := range file.Definitions {
		switch d := def.(type) {
		case *ast.FunctionNode:
			fn, err := irgen.New(ctx).GenerateFunction(d)
			if err != nil {
				return nil, err
			}
			module.AddFunction(fn)
		case *ast.FuncNode:
			for i := range d.Functions {
				fn, err := irgen.New(ctx).GenerateFunction(&d.Functions[i])
				if err != nil {
					return nil, err
				}
				module.AddFunction(fn)
			}
		}
	}
	return module, nil
}

// buildTypeRegistry approximates a memir.Registry from every registered
// data type. Full type resolution (resolving a field's declared type name
// to another data type, an array, an optional, …) belongs to the external
// namespace/type resolver; this only distinguishes `str` fields
// (heap-owning) from everything else (treated as an opaque scalar
// bit-copy), enough to exercise flint.free / flint.clone's dispatch and
// per-field recursion without inventing a resolver this repository does
// not implement.
func buildTypeRegistry(ctx *compiler.CompilationContext) memir.Registry {
	reg := memir.Registry{}
	for _, d := range ctx.AllDataTypes() {
		fields := make([]memir.TypeExpr, len(d.Fields))
		for i, f := range d.Fields {
			if f.Type == "str" {
				fields[i] = memir.TypeExpr{Kind: memir.KindStr, Name: f.Name}
			} else {
				fields[i] = memir.TypeExpr{Kind: memir.KindScalar, Name: f.Name}
			}
		}
		reg[d.FileHash] = memir.TypeExpr{Kind: memir.KindData, TypeID: d.FileHash, Name: d.Name, Fields: fields}
	}
	return reg
}

func main() { os.Exit(Flintc.Run(os.Args, os.Stdout)) }
