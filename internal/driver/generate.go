package driver

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"yulgen/internal/ast"
	"yulgen/internal/irgen"
	"yulgen/internal/layout"
	"yulgen/internal/settings"
	"yulgen/internal/trace"
	"yulgen/internal/yulfuncs"
	"yulgen/internal/yulutil"
)

// Entrypoint is one selector of the runtime dispatcher.
type Entrypoint struct {
	Selector  string
	Signature string
	Function  string
	Inputs    int
	Outputs   int
}

// ObjectResult describes one Yul object: creation or deployed code.
type ObjectResult struct {
	Name        string
	Functions   []GeneratedFunction // drain order
	Getters     []string
	Helpers     []string // every collected function, sorted
	Entrypoints []Entrypoint
}

// ContractResult is the generated code of one contract.
type ContractResult struct {
	Contract ast.ContractID
	Name     string
	Abstract bool
	Yul      string
	Creation ObjectResult
	Runtime  ObjectResult
	Storage  layout.StorageLayout
}

// GenerateOptions configures GenerateContract.
type GenerateOptions struct {
	Settings    settings.Settings
	TraceParent uint64
}

// GenerateContract lowers one contract into a creation object with a nested
// deployed object. Each object gets its own generation context.
func GenerateContract(ctx context.Context, unit *Unit, contract ast.ContractID, opts GenerateOptions) (*ContractResult, error) {
	decls := unit.Decls
	c := decls.Contract(contract)
	if c == nil {
		return nil, fmt.Errorf("%w: contract %d", irgen.ErrUnknownDeclaration, contract)
	}
	res := &ContractResult{Contract: contract, Name: c.Name, Abstract: c.Abstract}
	if c.Abstract {
		return res, nil
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeContract, "contract", opts.TraceParent).WithExtra("name", c.Name)
	defer span.End("")

	storage, err := layout.New(layout.EVM()).StorageLayoutOf(decls, contract)
	if err != nil {
		return nil, wrapContractError(c.Name, err)
	}
	res.Storage = storage

	objectName := fmt.Sprintf("%s_%d", c.Name, contract)
	deployedName := objectName + "_deployed"

	creation, err := newGenerator(unit, contract, storage, opts.Settings, tracer, span.ID())
	if err != nil {
		return nil, wrapContractError(c.Name, err)
	}
	creationCode, err := creation.creationCode(deployedName)
	if err != nil {
		return nil, wrapContractError(c.Name, err)
	}
	res.Creation = creation.result(objectName)

	runtime, err := newGenerator(unit, contract, storage, opts.Settings, tracer, span.ID())
	if err != nil {
		return nil, wrapContractError(c.Name, err)
	}
	runtimeCode, entrypoints, getters, err := runtime.runtimeCode()
	if err != nil {
		return nil, wrapContractError(c.Name, err)
	}
	res.Runtime = runtime.result(deployedName)
	res.Runtime.Entrypoints = entrypoints
	res.Runtime.Getters = getters

	w := newCodeWriter()
	w.open(fmt.Sprintf("object %q", objectName))
	w.open("code")
	w.block(creationCode)
	w.block(creation.ctx.FunctionCollector().RequestedFunctions())
	w.close()
	w.open(fmt.Sprintf("object %q", deployedName))
	w.open("code")
	w.block(runtimeCode)
	w.block(runtime.ctx.FunctionCollector().RequestedFunctions())
	w.close()
	w.close()
	w.close()
	res.Yul = w.String()
	return res, nil
}

func newGenerator(unit *Unit, contract ast.ContractID, storage layout.StorageLayout, s settings.Settings, tracer trace.Tracer, parent uint64) (*generator, error) {
	ctx := irgen.New(unit.Decls, irgen.Options{
		Settings:    s,
		Functions:   yulfuncs.New(),
		Tracer:      tracer,
		TraceParent: parent,
	})
	ctx.SetMostDerivedContract(contract)
	for _, e := range storage.Entries {
		if err := ctx.AddStateVariable(e.Variable, &e.Slot, e.Offset); err != nil {
			return nil, err
		}
	}
	return &generator{unit: unit, ctx: ctx, storage: storage, tracer: tracer, parent: parent}, nil
}

func (g *generator) result(name string) ObjectResult {
	return ObjectResult{
		Name:      name,
		Functions: slices.Clone(g.generated),
		Helpers:   g.ctx.FunctionCollector().Names(),
	}
}

// creationCode runs the constructors, most base first, and returns the
// deployed object.
func (g *generator) creationCode(deployed string) (string, error) {
	decls := g.unit.Decls
	contract, err := g.ctx.MostDerivedContract()
	if err != nil {
		return "", err
	}
	w := newCodeWriter()
	w.line("mstore(64, memoryguard(128))")
	for _, base := range slices.Backward(decls.Contract(contract).Linearized) {
		for _, fn := range decls.Contract(base).Functions {
			if !decls.Function(fn).Constructor {
				continue
			}
			name, err := g.ctx.EnqueueFunctionForCodeGeneration(fn)
			if err != nil {
				return "", err
			}
			args := make([]string, len(decls.Function(fn).Params))
			for i := range args {
				args[i] = "0"
			}
			outs := len(decls.Function(fn).Returns)
			call := fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
			if outs > 0 {
				call = "pop(" + call + ")"
			}
			w.line("%s", call)
		}
	}
	if err := g.drain(); err != nil {
		return "", err
	}
	size := g.ctx.NewYulVariable()
	w.line("let %s := datasize(%q)", size, deployed)
	w.line("codecopy(0, dataoffset(%q), %s)", deployed, size)
	w.line("return(0, %s)", size)
	return w.String(), nil
}

// runtimeCode enqueues every entrypoint and public getter, drains the queue
// and returns the selector switch.
func (g *generator) runtimeCode() (string, []Entrypoint, []string, error) {
	decls := g.unit.Decls
	contract, err := g.ctx.MostDerivedContract()
	if err != nil {
		return "", nil, nil, err
	}

	var entrypoints []Entrypoint
	seen := make(map[string]struct{})
	for _, base := range decls.Contract(contract).Linearized {
		for _, fn := range decls.Contract(base).Functions {
			decl := decls.Function(fn)
			if decl.Constructor || !decl.Visibility.IsEntrypoint() {
				continue
			}
			sig := decl.Name + "(" + strings.Join(decls.ParamTypes(fn), ",") + ")"
			if _, dup := seen[sig]; dup {
				continue
			}
			seen[sig] = struct{}{}
			name, err := g.ctx.EnqueueVirtualFunctionForCodeGeneration(fn)
			if err != nil {
				return "", nil, nil, err
			}
			entrypoints = append(entrypoints, Entrypoint{
				Signature: sig,
				Function:  name,
				Inputs:    len(decl.Params),
				Outputs:   len(decl.Returns),
			})
		}
	}

	var getters []string
	for _, e := range g.storage.Entries {
		if !g.unit.Public[e.Variable] || !e.Layout.Packed {
			continue
		}
		sig := e.Name + "()"
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		name, err := g.lowerGetter(e.Variable)
		if err != nil {
			return "", nil, nil, err
		}
		getters = append(getters, name)
		entrypoints = append(entrypoints, Entrypoint{Signature: sig, Function: name, Outputs: 1})
	}

	if err := g.drain(); err != nil {
		return "", nil, nil, err
	}

	for i := range entrypoints {
		sel := yulutil.Selector(entrypoints[i].Signature)
		entrypoints[i].Selector = fmt.Sprintf("0x%x", sel[:])
	}
	slices.SortFunc(entrypoints, func(a, b Entrypoint) int { return cmp.Compare(a.Selector, b.Selector) })

	w := newCodeWriter()
	w.line("mstore(64, memoryguard(128))")
	w.open("if iszero(lt(calldatasize(), 4))")
	w.line("switch shr(224, calldataload(0))")
	for _, ep := range entrypoints {
		w.open("case " + ep.Selector)
		args := make([]string, ep.Inputs)
		for i := range args {
			args[i] = fmt.Sprintf("calldataload(%d)", 4+32*i)
		}
		call := fmt.Sprintf("%s(%s)", ep.Function, strings.Join(args, ", "))
		if ep.Outputs == 0 {
			w.line("%s", call)
			w.line("return(0, 0)")
		} else {
			outs := make([]string, ep.Outputs)
			for i := range outs {
				outs[i] = g.ctx.NewYulVariable()
			}
			w.line("let %s := %s", strings.Join(outs, ", "), call)
			for i, out := range outs {
				w.line("mstore(%d, %s)", 32*i, out)
			}
			w.line("return(0, %d)", 32*ep.Outputs)
		}
		w.close()
	}
	w.line("default {}")
	w.close()
	w.line("revert(0, 0)")
	return w.String(), entrypoints, getters, nil
}
