package irgen

import "errors"

// Every error below is an internal compiler error: it signals that the driver
// broke the generation protocol, never that the source program is wrong.
var (
	ErrEmptyQueue            = errors.New("pop from empty function generation queue")
	ErrQueueDraining         = errors.New("function generation queue is draining")
	ErrNoMostDerivedContract = errors.New("most derived contract not set")
	ErrDuplicateLocal        = errors.New("local variable registered twice")
	ErrUnknownLocal          = errors.New("unknown local variable")
	ErrUnknownStateVariable  = errors.New("unknown state variable")
	ErrUnknownDeclaration    = errors.New("unknown declaration")
	ErrInvalidArity          = errors.New("invalid dispatch arity")
)
