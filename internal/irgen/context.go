// Package irgen holds the state shared by IR generation of one contract:
// the queue of functions still to generate, the name table, the variable
// registry and the virtual call resolver.
//
// A Context is not safe for concurrent use. The driver owns it for the whole
// generation of a contract and follows the protocol
//
//	name, _ := ctx.EnqueueFunctionForCodeGeneration(entry)
//	err := ctx.FunctionQueue().Drain(generateBody) // generateBody may enqueue more
//
// Errors returned by a Context are internal compiler errors.
package irgen

import (
	"fmt"

	"yulgen/internal/ast"
	"yulgen/internal/settings"
	"yulgen/internal/trace"
	"yulgen/internal/yulfuncs"
	"yulgen/internal/yulutil"
)

// Options configures a Context.
type Options struct {
	Settings settings.Settings

	// Functions is the utility function ledger; a new one is created when nil.
	Functions *yulfuncs.Collector

	Tracer      trace.Tracer
	TraceParent uint64
}

// Context is the generation context of one compilation run or contract.
type Context struct {
	decls    *ast.Declarations
	settings settings.Settings

	mostDerived ast.ContractID

	functions   *yulfuncs.Collector
	queue       *FunctionQueue
	scheduled   map[ast.FunctionID]struct{}
	names       *names
	vars        *variables
	dispatchers map[dispatchShape]string

	tracer      trace.Tracer
	traceParent uint64
}

// New creates a context over the declarations of a compilation unit.
func New(decls *ast.Declarations, opts Options) *Context {
	functions := opts.Functions
	if functions == nil {
		functions = yulfuncs.New()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	c := &Context{
		decls:       decls,
		settings:    opts.Settings,
		functions:   functions,
		queue:       NewFunctionQueue(),
		scheduled:   make(map[ast.FunctionID]struct{}),
		names:       newNames(),
		vars:        newVariables(),
		dispatchers: make(map[dispatchShape]string),
		tracer:      tracer,
		traceParent: opts.TraceParent,
	}
	c.queue.onClear = func(fn ast.FunctionID) { delete(c.scheduled, fn) }
	return c
}

// Declarations returns the declarations the context was created over.
func (c *Context) Declarations() *ast.Declarations { return c.decls }

// FunctionCollector returns the shared utility function ledger.
func (c *Context) FunctionCollector() *yulfuncs.Collector { return c.functions }

// FunctionQueue gives access to the functions whose calls were discovered
// during generation. It fills lazily: draining one function may push more.
func (c *Context) FunctionQueue() *FunctionQueue { return c.queue }

// EnqueueFunctionForCodeGeneration returns the name of fn and schedules its
// body for generation unless that already happened.
func (c *Context) EnqueueFunctionForCodeGeneration(fn ast.FunctionID) (string, error) {
	name, err := c.FunctionName(fn)
	if err != nil {
		return "", err
	}
	if _, ok := c.scheduled[fn]; ok || c.functions.Contains(name) {
		return name, nil
	}
	c.scheduled[fn] = struct{}{}
	c.queue.Push(fn)
	trace.Point(c.tracer, trace.ScopeNode, "enqueue", name, c.traceParent)
	return name, nil
}

// EnqueueVirtualFunctionForCodeGeneration resolves fn against the most derived
// contract and enqueues the override that is found.
func (c *Context) EnqueueVirtualFunctionForCodeGeneration(fn ast.FunctionID) (string, error) {
	resolved, err := c.ResolveVirtual(fn)
	if err != nil {
		return "", err
	}
	return c.EnqueueFunctionForCodeGeneration(resolved)
}

// SetMostDerivedContract sets the contract currently being compiled.
func (c *Context) SetMostDerivedContract(contract ast.ContractID) {
	c.mostDerived = contract
}

// MostDerivedContract returns the contract currently being compiled.
func (c *Context) MostDerivedContract() (ast.ContractID, error) {
	if !c.mostDerived.IsValid() {
		return ast.NoContractID, ErrNoMostDerivedContract
	}
	return c.mostDerived, nil
}

// FunctionName returns the IR name of the body of fn.
func (c *Context) FunctionName(fn ast.FunctionID) (string, error) {
	key := nameKey{purpose: purposeFunction, a: uint32(fn)}
	if name, ok := c.names.lookup(key); ok {
		return name, nil
	}
	decl := c.decls.Function(fn)
	if decl == nil {
		return "", fmt.Errorf("%w: function %d", ErrUnknownDeclaration, fn)
	}
	return c.names.assign(key, derivedName("fun_", decl.Name, uint32(fn))), nil
}

// GetterName returns the IR name of the accessor function of a state variable.
// Other variables have no getter.
func (c *Context) GetterName(v ast.VariableID) (string, error) {
	key := nameKey{purpose: purposeGetter, a: uint32(v)}
	if name, ok := c.names.lookup(key); ok {
		return name, nil
	}
	decl := c.decls.Variable(v)
	if decl == nil {
		return "", fmt.Errorf("%w: variable %d", ErrUnknownDeclaration, v)
	}
	if !decl.IsState() {
		return "", fmt.Errorf("%w: %s is not a state variable", ErrUnknownStateVariable, decl.Name)
	}
	return c.names.assign(key, derivedName("getter_fun_", decl.Name, uint32(v))), nil
}

// NewYulVariable returns a fresh temporary name.
func (c *Context) NewYulVariable() string { return c.names.newYulVariable() }

// TrySuccessConditionVariable names the flag recording whether the external
// call of a try statement succeeded.
func (c *Context) TrySuccessConditionVariable(expr ast.ExprID) string {
	return c.names.assign(
		nameKey{purpose: purposeTrySuccess, a: uint32(expr)},
		"trySuccessCondition_"+expr.String(),
	)
}

// Utils returns a new utility front-end over the shared ledger.
func (c *Context) Utils() yulutil.Functions {
	return yulutil.New(c.settings.EVMVersion, c.settings.RevertStrings, c.functions)
}

// RevertReasonIfDebug returns code reverting with message when revert strings
// are at debug level, and "" otherwise.
func (c *Context) RevertReasonIfDebug(message string) string {
	return yulutil.RevertReasonIfDebug(c.settings.RevertStrings, message)
}

// EVMVersion returns the configured target version.
func (c *Context) EVMVersion() settings.EVMVersion { return c.settings.EVMVersion }

// RevertStrings returns the configured revert string verbosity.
func (c *Context) RevertStrings() settings.RevertStrings { return c.settings.RevertStrings }

// Optimiser returns the configured optimiser settings.
func (c *Context) Optimiser() settings.Optimiser { return c.settings.Optimiser }

// NameCount reports how many names the context has handed out, temporaries excluded.
func (c *Context) NameCount() int { return c.names.size() }
