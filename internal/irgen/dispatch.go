package irgen

import (
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"yulgen/internal/ast"
	"yulgen/internal/trace"
)

type dispatchShape struct {
	in, out uint32
}

// ResolveVirtual returns the override of fn that a call resolves to in the
// most derived contract.
func (c *Context) ResolveVirtual(fn ast.FunctionID) (ast.FunctionID, error) {
	contract, err := c.MostDerivedContract()
	if err != nil {
		return ast.NoFunctionID, err
	}
	return c.resolveVirtual(fn, contract)
}

// resolveVirtual returns the most derived override of fn for contract.
// The first matching function along the linearization wins; the front-end
// guarantees there is no second, equally derived candidate.
func (c *Context) resolveVirtual(fn ast.FunctionID, contract ast.ContractID) (ast.FunctionID, error) {
	decl := c.decls.Function(fn)
	if decl == nil {
		return ast.NoFunctionID, fmt.Errorf("%w: function %d", ErrUnknownDeclaration, fn)
	}
	mostDerived := c.decls.Contract(contract)
	if mostDerived == nil {
		return ast.NoFunctionID, fmt.Errorf("%w: contract %d", ErrUnknownDeclaration, contract)
	}
	if decl.Constructor {
		return fn, nil
	}
	params := c.decls.ParamTypes(fn)
	for _, base := range mostDerived.Linearized {
		bc := c.decls.Contract(base)
		if bc == nil {
			continue
		}
		for _, candidate := range bc.Functions {
			cd := c.decls.Function(candidate)
			if cd == nil || cd.Constructor || cd.Name != decl.Name {
				continue
			}
			if slices.Equal(c.decls.ParamTypes(candidate), params) {
				return candidate, nil
			}
		}
	}
	return fn, nil
}

// InternalDispatch returns the dispatcher used for calls through internal
// function pointers with in parameters and out return values. The dispatcher
// is generated on first request and switches over every internally callable
// function of the most derived contract's linearization with that shape that
// is not overridden there; each of them is enqueued.
func (c *Context) InternalDispatch(in, out int) (string, error) {
	inN, err := safecast.Conv[uint32](in)
	if err != nil {
		return "", fmt.Errorf("%w: in=%d: %w", ErrInvalidArity, in, err)
	}
	outN, err := safecast.Conv[uint32](out)
	if err != nil {
		return "", fmt.Errorf("%w: out=%d: %w", ErrInvalidArity, out, err)
	}
	shape := dispatchShape{in: inN, out: outN}
	if name, ok := c.dispatchers[shape]; ok {
		return name, nil
	}
	if !c.mostDerived.IsValid() {
		return "", fmt.Errorf("%w: internal dispatch", ErrNoMostDerivedContract)
	}

	name := c.names.assign(
		nameKey{purpose: purposeDispatch, a: inN, b: outN},
		fmt.Sprintf("dispatch_internal_in_%d_out_%d", in, out),
	)
	if _, err := c.functions.CreateFunction(name, func() (string, error) {
		return c.buildDispatcher(name, in, out)
	}); err != nil {
		return "", err
	}
	c.dispatchers[shape] = name
	trace.Point(c.tracer, trace.ScopeNode, "dispatch", name, c.traceParent)
	return name, nil
}

func (c *Context) buildDispatcher(name string, in, out int) (string, error) {
	ins := make([]string, in)
	for i := range ins {
		ins[i] = fmt.Sprintf("in_%d", i+1)
	}
	outs := make([]string, out)
	for i := range outs {
		outs[i] = fmt.Sprintf("out_%d", i+1)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "function %s(%s)", name, strings.Join(append([]string{"fun"}, ins...), ", "))
	if out > 0 {
		fmt.Fprintf(&sb, " -> %s", strings.Join(outs, ", "))
	}
	sb.WriteString(" {\n    switch fun\n")

	seen := make(map[ast.FunctionID]struct{})
	for _, base := range c.decls.Contract(c.mostDerived).Linearized {
		bc := c.decls.Contract(base)
		if bc == nil {
			continue
		}
		for _, fn := range bc.Functions {
			decl := c.decls.Function(fn)
			if decl == nil || decl.Constructor || decl.Visibility == ast.VisibilityExternal {
				continue
			}
			if len(decl.Params) != in || len(decl.Returns) != out {
				continue
			}
			if _, dup := seen[fn]; dup {
				continue
			}
			seen[fn] = struct{}{}
			// A pointer to an overridden function holds the override.
			resolved, err := c.resolveVirtual(fn, c.mostDerived)
			if err != nil {
				return "", err
			}
			if resolved != fn {
				continue
			}
			callee, err := c.EnqueueFunctionForCodeGeneration(fn)
			if err != nil {
				return "", err
			}
			call := fmt.Sprintf("%s(%s)", callee, strings.Join(ins, ", "))
			if out > 0 {
				call = strings.Join(outs, ", ") + " := " + call
			}
			fmt.Fprintf(&sb, "    case %d {\n        %s\n    }\n", fn, call)
		}
	}
	sb.WriteString("    default { invalid() }\n}\n")
	return sb.String(), nil
}
