package ast

import (
	"fmt"

	"fortio.org/safecast"
)

// Arena stores values in a slice and hands out 1-based indices.
type Arena[T any] struct {
	data []T
}

// NewArena creates an arena whose storage is pre-allocated with capHint.
func NewArena[T any](capHint uint) *Arena[T] {
	return &Arena[T]{
		data: make([]T, 0, capHint),
	}
}

// Allocate appends value and returns its index (1-based).
func (a *Arena[T]) Allocate(value T) uint32 {
	a.data = append(a.data, value)
	index, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("arena overflow: %w", err))
	}
	return index
}

// Get returns a pointer to the stored value or nil for an out-of-range index.
func (a *Arena[T]) Get(index uint32) *T {
	if index == 0 || int(index) > len(a.data) {
		return nil
	}
	return &a.data[index-1]
}

// Len reports the number of stored values.
func (a *Arena[T]) Len() int { return len(a.data) }

// Declarations owns every declaration of a compilation unit.
// IDs handed out here are the identities used by the generator; they are never reused.
type Declarations struct {
	contracts *Arena[Contract]
	functions *Arena[Function]
	variables *Arena[Variable]
	exprs     *Arena[Expr]
}

// NewDeclarations creates an empty declaration store.
func NewDeclarations() *Declarations {
	return &Declarations{
		contracts: NewArena[Contract](8),
		functions: NewArena[Function](32),
		variables: NewArena[Variable](64),
		exprs:     NewArena[Expr](64),
	}
}

// NewContract allocates a contract. Linearized is initialised to the contract alone.
func (d *Declarations) NewContract(name string, abstract bool) ContractID {
	id := ContractID(d.contracts.Allocate(Contract{Name: name, Abstract: abstract}))
	d.contracts.Get(uint32(id)).Linearized = []ContractID{id}
	return id
}

// SetLinearized replaces the inheritance chain of a contract. The contract itself must come first.
func (d *Declarations) SetLinearized(id ContractID, chain []ContractID) error {
	c := d.Contract(id)
	if c == nil {
		return fmt.Errorf("unknown contract %d", id)
	}
	if len(chain) == 0 || chain[0] != id {
		return fmt.Errorf("contract %s: linearization must start with the contract itself", c.Name)
	}
	for _, base := range chain {
		if d.Contract(base) == nil {
			return fmt.Errorf("contract %s: unknown base contract %d", c.Name, base)
		}
	}
	c.Linearized = append([]ContractID(nil), chain...)
	return nil
}

// NewFunction allocates a function and attaches it to its contract.
func (d *Declarations) NewFunction(fn Function) FunctionID {
	id := FunctionID(d.functions.Allocate(fn))
	if c := d.Contract(fn.Contract); c != nil {
		c.Functions = append(c.Functions, id)
	}
	return id
}

// NewVariable allocates a variable and attaches it to its owner.
func (d *Declarations) NewVariable(v Variable) VariableID {
	id := VariableID(d.variables.Allocate(v))
	switch v.Kind {
	case VariableState:
		if c := d.Contract(v.Contract); c != nil {
			c.StateVars = append(c.StateVars, id)
		}
	case VariableParam:
		if fn := d.Function(v.Owner); fn != nil {
			fn.Params = append(fn.Params, id)
		}
	case VariableReturn:
		if fn := d.Function(v.Owner); fn != nil {
			fn.Returns = append(fn.Returns, id)
		}
	}
	return id
}

// NewExpr allocates an expression node.
func (d *Declarations) NewExpr(e Expr) ExprID {
	return ExprID(d.exprs.Allocate(e))
}

// Contract returns the contract or nil for an unknown ID.
func (d *Declarations) Contract(id ContractID) *Contract { return d.contracts.Get(uint32(id)) }

// Function returns the function or nil for an unknown ID.
func (d *Declarations) Function(id FunctionID) *Function { return d.functions.Get(uint32(id)) }

// Variable returns the variable or nil for an unknown ID.
func (d *Declarations) Variable(id VariableID) *Variable { return d.variables.Get(uint32(id)) }

// Expr returns the expression or nil for an unknown ID.
func (d *Declarations) Expr(id ExprID) *Expr { return d.exprs.Get(uint32(id)) }

// Contracts returns every contract ID in allocation order.
func (d *Declarations) Contracts() []ContractID {
	out := make([]ContractID, 0, d.contracts.Len())
	for i := 1; i <= d.contracts.Len(); i++ {
		out = append(out, ContractID(i)) //nolint:gosec // bounded by Allocate
	}
	return out
}

// ParamTypes returns the parameter type names of a function.
func (d *Declarations) ParamTypes(id FunctionID) []string {
	fn := d.Function(id)
	if fn == nil {
		return nil
	}
	out := make([]string, 0, len(fn.Params))
	for _, p := range fn.Params {
		if v := d.Variable(p); v != nil {
			out = append(out, v.Type)
		}
	}
	return out
}
