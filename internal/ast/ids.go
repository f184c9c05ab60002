package ast

import "strconv"

// ContractID identifies a contract declaration inside the arena.
type ContractID uint32

const (
	// NoContractID marks the absence of a contract reference.
	NoContractID ContractID = 0
)

// IsValid reports whether the contract ID refers to an allocated contract.
func (id ContractID) IsValid() bool { return id != NoContractID }

// FunctionID identifies a function declaration inside the arena.
// Zero is reserved so that an uninitialised function pointer never matches a real function.
type FunctionID uint32

const (
	// NoFunctionID marks the absence of a function reference.
	NoFunctionID FunctionID = 0
)

// IsValid reports whether the function ID refers to an allocated function.
func (id FunctionID) IsValid() bool { return id != NoFunctionID }

// String renders the numeric id.
func (id FunctionID) String() string { return strconv.FormatUint(uint64(id), 10) }

// VariableID identifies a variable declaration (local, parameter or state).
type VariableID uint32

const (
	// NoVariableID marks the absence of a variable reference.
	NoVariableID VariableID = 0
)

// IsValid reports whether the variable ID refers to an allocated variable.
func (id VariableID) IsValid() bool { return id != NoVariableID }

// String renders the numeric id.
func (id VariableID) String() string { return strconv.FormatUint(uint64(id), 10) }

// ExprID identifies an expression node.
type ExprID uint32

const (
	// NoExprID marks the absence of an expression reference.
	NoExprID ExprID = 0
)

// IsValid reports whether the expression ID refers to an allocated expression.
func (id ExprID) IsValid() bool { return id != NoExprID }

// String renders the numeric id.
func (id ExprID) String() string { return strconv.FormatUint(uint64(id), 10) }
