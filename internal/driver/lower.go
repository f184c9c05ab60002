package driver

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"yulgen/internal/ast"
	"yulgen/internal/irgen"
	"yulgen/internal/layout"
	"yulgen/internal/trace"
)

// GeneratedFunction records one body produced by a drain.
type GeneratedFunction struct {
	ID     ast.FunctionID
	Source string // Contract.name
	Name   string
}

// generator lowers the toy bodies of one object (creation or runtime code)
// of one contract.
type generator struct {
	unit    *Unit
	ctx     *irgen.Context
	storage layout.StorageLayout
	tracer  trace.Tracer
	parent  uint64

	generated []GeneratedFunction
}

func (g *generator) drain() error {
	return g.ctx.FunctionQueue().Drain(g.generateFunction)
}

func (g *generator) generateFunction(fn ast.FunctionID) error {
	name, err := g.ctx.FunctionName(fn)
	if err != nil {
		return err
	}
	span := trace.Begin(g.tracer, trace.ScopeFunction, "function", g.parent).WithExtra("name", name)
	defer span.End("")

	if _, err := g.ctx.FunctionCollector().CreateFunction(name, func() (string, error) {
		return g.lowerFunction(fn, name)
	}); err != nil {
		return err
	}
	decls := g.unit.Decls
	decl := decls.Function(fn)
	g.generated = append(g.generated, GeneratedFunction{
		ID:     fn,
		Source: decls.Contract(decl.Contract).Name + "." + decl.Name,
		Name:   name,
	})
	return nil
}

func (g *generator) declareLocals(ids []ast.VariableID) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		v, err := g.ctx.AddLocalVariable(id)
		if err != nil {
			return nil, err
		}
		out = append(out, v.Name())
	}
	return out, nil
}

// lowerFunction emits reads, calls, writes and the final revert of a body.
// The last value produced flows into the next argument and the first return.
func (g *generator) lowerFunction(fn ast.FunctionID, name string) (string, error) {
	decl := g.unit.Decls.Function(fn)
	params, err := g.declareLocals(decl.Params)
	if err != nil {
		return "", err
	}
	rets, err := g.declareLocals(decl.Returns)
	if err != nil {
		return "", err
	}

	w := newCodeWriter()
	header := fmt.Sprintf("function %s(%s)", name, strings.Join(params, ", "))
	if len(rets) > 0 {
		header += " -> " + strings.Join(rets, ", ")
	}
	w.open(header)

	value := "0"
	if len(params) > 0 {
		value = params[0]
	}
	if body := g.unit.Bodies[fn]; body != nil {
		for _, v := range body.Reads {
			loc, size, err := g.storageAccess(v)
			if err != nil {
				return "", err
			}
			reader := g.ctx.Utils().ReadFromStorage(loc.Offset, size)
			tmp := g.ctx.NewYulVariable()
			w.line("let %s := %s(%s)", tmp, reader, loc.Slot.Hex())
			value = tmp
		}
		for _, call := range body.Calls {
			out, err := g.lowerCall(w, call, value)
			if err != nil {
				return "", err
			}
			if out != "" {
				value = out
			}
		}
		for _, v := range body.Writes {
			loc, size, err := g.storageAccess(v)
			if err != nil {
				return "", err
			}
			w.line("%s(%s, %s)", g.ctx.Utils().UpdateStorageValue(loc.Offset, size), loc.Slot.Hex(), value)
		}
		if body.Reverts {
			w.block(g.ctx.RevertReasonIfDebug(body.Revert))
			w.line("revert(0, 0)")
		}
	}
	if len(rets) > 0 && value != "0" {
		w.line("%s := %s", rets[0], value)
	}
	w.close()
	return w.String(), nil
}

func (g *generator) storageAccess(v ast.VariableID) (irgen.StorageLocation, uint8, error) {
	loc, err := g.ctx.StorageLocationOfVariable(v)
	if err != nil {
		return loc, 0, err
	}
	entry, ok := g.storage.Lookup(v)
	if !ok {
		return loc, 0, fmt.Errorf("%w: state variable %d", irgen.ErrUnknownStateVariable, v)
	}
	if !entry.Layout.Packed {
		return loc, 0, fmt.Errorf("%w: %s of type %s cannot be accessed as a value", ErrBadUnit, entry.Name, entry.Type)
	}
	size, err := safecast.Conv[uint8](entry.Layout.Bytes)
	if err != nil {
		return loc, 0, err
	}
	return loc, size, nil
}

// lowerCall emits one call and returns the temporary holding its first
// result, or "" when the callee returns nothing.
func (g *generator) lowerCall(w *codeWriter, call Call, arg string) (string, error) {
	target := g.unit.Decls.Function(call.Target)
	args := make([]string, len(target.Params))
	for i := range args {
		args[i] = arg
	}
	outs := make([]string, len(target.Returns))
	for i := range outs {
		outs[i] = g.ctx.NewYulVariable()
	}

	var callee string
	if call.Indirect {
		ptr := call.Target
		if call.Virtual {
			resolved, err := g.ctx.ResolveVirtual(call.Target)
			if err != nil {
				return "", err
			}
			ptr = resolved
		}
		dispatcher, err := g.ctx.InternalDispatch(len(args), len(outs))
		if err != nil {
			return "", err
		}
		callee = dispatcher
		args = append([]string{ptr.String()}, args...)
	} else {
		var err error
		if call.Virtual {
			callee, err = g.ctx.EnqueueVirtualFunctionForCodeGeneration(call.Target)
		} else {
			callee, err = g.ctx.EnqueueFunctionForCodeGeneration(call.Target)
		}
		if err != nil {
			return "", err
		}
	}
	invocation := fmt.Sprintf("%s(%s)", callee, strings.Join(args, ", "))

	if call.Try {
		flag := g.ctx.TrySuccessConditionVariable(call.Expr)
		for _, out := range outs {
			w.line("let %s := 0", out)
		}
		w.line("let %s := iszero(iszero(extcodesize(address())))", flag)
		w.open("if " + flag)
		if len(outs) > 0 {
			w.line("%s := %s", strings.Join(outs, ", "), invocation)
		} else {
			w.line("%s", invocation)
		}
		w.close()
	} else if len(outs) > 0 {
		w.line("let %s := %s", strings.Join(outs, ", "), invocation)
	} else {
		w.line("%s", invocation)
	}

	if len(outs) == 0 {
		return "", nil
	}
	return outs[0], nil
}

// lowerGetter emits the accessor of a public state variable.
func (g *generator) lowerGetter(v ast.VariableID) (string, error) {
	name, err := g.ctx.GetterName(v)
	if err != nil {
		return "", err
	}
	return g.ctx.FunctionCollector().CreateFunction(name, func() (string, error) {
		loc, size, err := g.storageAccess(v)
		if err != nil {
			return "", err
		}
		w := newCodeWriter()
		w.open(fmt.Sprintf("function %s() -> ret", name))
		w.line("ret := %s(%s)", g.ctx.Utils().ReadFromStorage(loc.Offset, size), loc.Slot.Hex())
		w.close()
		return w.String(), nil
	})
}
