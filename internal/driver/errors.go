package driver

import (
	"errors"
	"fmt"

	"yulgen/internal/irgen"
	"yulgen/internal/yulfuncs"
)

// ErrInternal marks a broken generation protocol. Such errors are bugs in the
// generator, not in the compiled unit.
var ErrInternal = errors.New("internal compiler error")

var coreErrors = []error{
	irgen.ErrEmptyQueue,
	irgen.ErrQueueDraining,
	irgen.ErrNoMostDerivedContract,
	irgen.ErrDuplicateLocal,
	irgen.ErrUnknownLocal,
	irgen.ErrUnknownStateVariable,
	irgen.ErrUnknownDeclaration,
	irgen.ErrInvalidArity,
	yulfuncs.ErrMisnamedFunction,
}

// wrapContractError prefixes err with the contract name and marks failures of
// the generation core as internal compiler errors.
func wrapContractError(contract string, err error) error {
	if err == nil {
		return nil
	}
	for _, core := range coreErrors {
		if errors.Is(err, core) {
			return fmt.Errorf("%w: %s: %w", ErrInternal, contract, err)
		}
	}
	return fmt.Errorf("%s: %w", contract, err)
}
