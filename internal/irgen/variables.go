package irgen

import (
	"fmt"

	"github.com/holiman/uint256"

	"yulgen/internal/ast"
)

// IRVariable is the IR handle of one local variable.
type IRVariable struct {
	name string
	typ  string
}

// Name returns the IR identifier.
func (v IRVariable) Name() string { return v.name }

// Type returns the source type the variable was declared with.
func (v IRVariable) Type() string { return v.typ }

// Part derives the handle of one component of a multi-slot value.
func (v IRVariable) Part(suffix string) IRVariable {
	return IRVariable{name: v.name + "_" + suffix, typ: v.typ}
}

// IsValid reports whether the handle was produced by the registry.
func (v IRVariable) IsValid() bool { return v.name != "" }

func (v IRVariable) String() string { return v.name }

// StorageLocation is the persistent address of a state variable.
type StorageLocation struct {
	Slot   uint256.Int
	Offset uint8
}

func (l StorageLocation) String() string {
	return fmt.Sprintf("slot %s offset %d", l.Slot.Dec(), l.Offset)
}

// variables maps declarations to where they live. A declaration is either
// local or state; the driver keeps that partition, the registry trusts it.
type variables struct {
	locals map[ast.VariableID]IRVariable
	state  map[ast.VariableID]StorageLocation
}

func newVariables() *variables {
	return &variables{
		locals: make(map[ast.VariableID]IRVariable),
		state:  make(map[ast.VariableID]StorageLocation),
	}
}

// AddLocalVariable registers a local and returns its new handle.
func (c *Context) AddLocalVariable(id ast.VariableID) (IRVariable, error) {
	decl := c.decls.Variable(id)
	if decl == nil {
		return IRVariable{}, fmt.Errorf("%w: variable %d", ErrUnknownDeclaration, id)
	}
	if _, ok := c.vars.locals[id]; ok {
		return IRVariable{}, fmt.Errorf("%w: %s (%d)", ErrDuplicateLocal, decl.Name, id)
	}
	name := c.names.assign(nameKey{purpose: purposeLocal, a: uint32(id)}, derivedName("vloc_", decl.Name, uint32(id)))
	v := IRVariable{name: name, typ: decl.Type}
	c.vars.locals[id] = v
	return v, nil
}

// LocalVariable returns the handle registered for id.
func (c *Context) LocalVariable(id ast.VariableID) (IRVariable, error) {
	v, ok := c.vars.locals[id]
	if !ok {
		return IRVariable{}, fmt.Errorf("%w: %d", ErrUnknownLocal, id)
	}
	return v, nil
}

// IsLocalVariable reports whether id was registered as a local.
func (c *Context) IsLocalVariable(id ast.VariableID) bool {
	_, ok := c.vars.locals[id]
	return ok
}

// AddStateVariable records the storage location of a state variable.
// Registering the same variable again overwrites the previous location.
func (c *Context) AddStateVariable(id ast.VariableID, slot *uint256.Int, byteOffset uint8) error {
	if c.decls.Variable(id) == nil {
		return fmt.Errorf("%w: variable %d", ErrUnknownDeclaration, id)
	}
	loc := StorageLocation{Offset: byteOffset}
	if slot != nil {
		loc.Slot.Set(slot)
	}
	c.vars.state[id] = loc
	return nil
}

// StorageLocationOfVariable returns the location recorded for id.
func (c *Context) StorageLocationOfVariable(id ast.VariableID) (StorageLocation, error) {
	loc, ok := c.vars.state[id]
	if !ok {
		return StorageLocation{}, fmt.Errorf("%w: %d", ErrUnknownStateVariable, id)
	}
	return loc, nil
}

// IsStateVariable reports whether a location was recorded for id.
func (c *Context) IsStateVariable(id ast.VariableID) bool {
	_, ok := c.vars.state[id]
	return ok
}
