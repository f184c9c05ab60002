package ast

// Visibility of a function or state variable.
type Visibility uint8

const (
	VisibilityInternal Visibility = iota
	VisibilityPrivate
	VisibilityPublic
	VisibilityExternal
)

// String returns the source spelling of the visibility.
func (v Visibility) String() string {
	switch v {
	case VisibilityInternal:
		return "internal"
	case VisibilityPrivate:
		return "private"
	case VisibilityPublic:
		return "public"
	case VisibilityExternal:
		return "external"
	default:
		return "unknown"
	}
}

// IsEntrypoint reports whether the function can be reached from outside the contract.
func (v Visibility) IsEntrypoint() bool {
	return v == VisibilityPublic || v == VisibilityExternal
}

// Contract describes a contract declaration.
type Contract struct {
	Name     string
	Abstract bool

	// Linearized lists the inheritance chain, most derived first, starting with the contract itself.
	Linearized []ContractID

	// Functions and StateVars are kept in declaration order.
	Functions []FunctionID
	StateVars []VariableID
}

// Function describes a function declaration.
type Function struct {
	Name        string
	Contract    ContractID
	Visibility  Visibility
	Constructor bool
	Virtual     bool
	Params      []VariableID
	Returns     []VariableID
}

// VariableKind distinguishes where a variable lives.
type VariableKind uint8

const (
	VariableLocal VariableKind = iota
	VariableParam
	VariableReturn
	VariableState
)

// Variable describes a variable declaration.
type Variable struct {
	Name string
	Type string
	Kind VariableKind

	// Owner is set for parameters, return values and locals.
	Owner FunctionID
	// Contract is set for state variables.
	Contract   ContractID
	Visibility Visibility
}

// IsState reports whether the variable is a state variable.
func (v *Variable) IsState() bool { return v != nil && v.Kind == VariableState }

// ExprKind enumerates the expression nodes the generator cares about.
type ExprKind uint8

const (
	ExprCall ExprKind = iota + 1
	ExprTryCall
)

// Expr is an expression node, referenced only by identity.
type Expr struct {
	Kind  ExprKind
	Owner FunctionID
}
