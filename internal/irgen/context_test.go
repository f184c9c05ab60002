package irgen

import (
	"errors"
	"strings"
	"testing"

	"github.com/holiman/uint256"

	"yulgen/internal/ast"
	"yulgen/internal/settings"
)

type inheritanceFixture struct {
	decls   *ast.Declarations
	base    ast.ContractID
	derived ast.ContractID
	baseF   ast.FunctionID
	baseG   ast.FunctionID
	derivF  ast.FunctionID
	ctor    ast.FunctionID
}

// newInheritanceFixture builds
//
//	contract Base { function f(uint256) returns (uint256); function g(); constructor() }
//	contract Derived is Base { function f(uint256) returns (uint256) }
func newInheritanceFixture(t *testing.T) inheritanceFixture {
	t.Helper()
	d := ast.NewDeclarations()
	fx := inheritanceFixture{decls: d}
	fx.base = d.NewContract("Base", false)
	fx.derived = d.NewContract("Derived", false)
	if err := d.SetLinearized(fx.derived, []ast.ContractID{fx.derived, fx.base}); err != nil {
		t.Fatalf("SetLinearized: %v", err)
	}

	fx.baseF = d.NewFunction(ast.Function{Name: "f", Contract: fx.base, Virtual: true, Visibility: ast.VisibilityPublic})
	d.NewVariable(ast.Variable{Name: "a", Type: "uint256", Kind: ast.VariableParam, Owner: fx.baseF})
	d.NewVariable(ast.Variable{Name: "r", Type: "uint256", Kind: ast.VariableReturn, Owner: fx.baseF})
	fx.baseG = d.NewFunction(ast.Function{Name: "g", Contract: fx.base, Visibility: ast.VisibilityInternal})
	fx.ctor = d.NewFunction(ast.Function{Name: "constructor", Contract: fx.base, Constructor: true})

	fx.derivF = d.NewFunction(ast.Function{Name: "f", Contract: fx.derived, Visibility: ast.VisibilityPublic})
	d.NewVariable(ast.Variable{Name: "a", Type: "uint256", Kind: ast.VariableParam, Owner: fx.derivF})
	d.NewVariable(ast.Variable{Name: "r", Type: "uint256", Kind: ast.VariableReturn, Owner: fx.derivF})
	return fx
}

func newTestContext(fx inheritanceFixture, revert settings.RevertStrings) *Context {
	s := settings.Default()
	s.RevertStrings = revert
	return New(fx.decls, Options{Settings: s})
}

func TestEnqueueIsIdempotent(t *testing.T) {
	fx := newInheritanceFixture(t)
	ctx := newTestContext(fx, settings.RevertDefault)

	first, err := ctx.EnqueueFunctionForCodeGeneration(fx.baseG)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	second, err := ctx.EnqueueFunctionForCodeGeneration(fx.baseG)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if first != second {
		t.Fatalf("names differ: %q vs %q", first, second)
	}
	if first != "fun_g_2" {
		t.Fatalf("name = %q, want fun_g_2", first)
	}
	if ctx.FunctionQueue().Size() != 1 {
		t.Fatalf("queue size = %d, want 1", ctx.FunctionQueue().Size())
	}

	// Re-discovering the call after the body was generated must not push again.
	if _, err := ctx.FunctionQueue().Pop(); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if _, err := ctx.EnqueueFunctionForCodeGeneration(fx.baseG); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if !ctx.FunctionQueue().Empty() {
		t.Fatalf("already generated function was pushed again")
	}
}

func TestNamingBeforeEnqueueStillSchedules(t *testing.T) {
	fx := newInheritanceFixture(t)
	ctx := newTestContext(fx, settings.RevertDefault)

	name, err := ctx.FunctionName(fx.baseG)
	if err != nil {
		t.Fatalf("FunctionName: %v", err)
	}
	got, err := ctx.EnqueueFunctionForCodeGeneration(fx.baseG)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if got != name || ctx.FunctionQueue().Size() != 1 {
		t.Fatalf("function named earlier was not scheduled (name %q, size %d)", got, ctx.FunctionQueue().Size())
	}
}

func TestEnqueueSkipsFunctionsAlreadyInCollector(t *testing.T) {
	fx := newInheritanceFixture(t)
	ctx := newTestContext(fx, settings.RevertDefault)
	name, _ := ctx.FunctionName(fx.baseG)
	if _, err := ctx.FunctionCollector().CreateFunction(name, func() (string, error) {
		return "function " + name + "() {}", nil
	}); err != nil {
		t.Fatalf("CreateFunction: %v", err)
	}
	if _, err := ctx.EnqueueFunctionForCodeGeneration(fx.baseG); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if !ctx.FunctionQueue().Empty() {
		t.Fatalf("function present in the collector must not be queued")
	}
}

func TestFunctionNamesAreDistinctForSameSourceName(t *testing.T) {
	fx := newInheritanceFixture(t)
	ctx := newTestContext(fx, settings.RevertDefault)

	a, err := ctx.FunctionName(fx.baseF)
	if err != nil {
		t.Fatalf("FunctionName: %v", err)
	}
	b, err := ctx.FunctionName(fx.derivF)
	if err != nil {
		t.Fatalf("FunctionName: %v", err)
	}
	if a == b {
		t.Fatalf("both overloads named %q", a)
	}
	if again, _ := ctx.FunctionName(fx.baseF); again != a {
		t.Fatalf("FunctionName not stable: %q then %q", a, again)
	}
	if _, err := ctx.FunctionName(ast.FunctionID(999)); !errors.Is(err, ErrUnknownDeclaration) {
		t.Fatalf("expected ErrUnknownDeclaration, got %v", err)
	}
}

func TestGetterNames(t *testing.T) {
	fx := newInheritanceFixture(t)
	x := fx.decls.NewVariable(ast.Variable{Name: "x", Type: "uint256", Kind: ast.VariableState, Contract: fx.base})
	ctx := newTestContext(fx, settings.RevertDefault)

	name, err := ctx.GetterName(x)
	if err != nil {
		t.Fatalf("GetterName: %v", err)
	}
	if !strings.HasPrefix(name, "getter_fun_x_") {
		t.Fatalf("getter name = %q", name)
	}
	fn, _ := ctx.FunctionName(fx.baseF)
	if fn == name {
		t.Fatalf("getter and function share a name")
	}

	param := fx.decls.Function(fx.baseF).Params[0]
	if _, err := ctx.GetterName(param); !errors.Is(err, ErrUnknownStateVariable) {
		t.Fatalf("getter for a parameter: expected ErrUnknownStateVariable, got %v", err)
	}
	if _, err := ctx.GetterName(ast.VariableID(999)); !errors.Is(err, ErrUnknownDeclaration) {
		t.Fatalf("expected ErrUnknownDeclaration, got %v", err)
	}
}

func TestNewYulVariable(t *testing.T) {
	fx := newInheritanceFixture(t)
	ctx := newTestContext(fx, settings.RevertDefault)
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		name := ctx.NewYulVariable()
		if _, dup := seen[name]; dup {
			t.Fatalf("temporary %q returned twice", name)
		}
		seen[name] = struct{}{}
	}
	if _, ok := seen["_1"]; !ok {
		t.Fatalf("counter should start at _1")
	}
}

func TestLocalVariables(t *testing.T) {
	fx := newInheritanceFixture(t)
	ctx := newTestContext(fx, settings.RevertDefault)
	param := fx.decls.Function(fx.baseF).Params[0]

	if ctx.IsLocalVariable(param) {
		t.Fatalf("unexpected local before registration")
	}
	if _, err := ctx.LocalVariable(param); !errors.Is(err, ErrUnknownLocal) {
		t.Fatalf("expected ErrUnknownLocal, got %v", err)
	}
	v, err := ctx.AddLocalVariable(param)
	if err != nil {
		t.Fatalf("AddLocalVariable: %v", err)
	}
	if v.Name() != "vloc_a_1" || v.Type() != "uint256" {
		t.Fatalf("handle = %q %q", v.Name(), v.Type())
	}
	got, err := ctx.LocalVariable(param)
	if err != nil || got != v {
		t.Fatalf("LocalVariable = %v, %v; want %v", got, err, v)
	}
	if _, err := ctx.AddLocalVariable(param); !errors.Is(err, ErrDuplicateLocal) {
		t.Fatalf("expected ErrDuplicateLocal, got %v", err)
	}
	if p := v.Part("length"); p.Name() != "vloc_a_1_length" {
		t.Fatalf("Part = %q", p.Name())
	}
	other := fx.decls.Function(fx.derivF).Params[0]
	w, err := ctx.AddLocalVariable(other)
	if err != nil {
		t.Fatalf("AddLocalVariable: %v", err)
	}
	if w.Name() == v.Name() {
		t.Fatalf("two locals named %q", w.Name())
	}
}

func TestStateVariables(t *testing.T) {
	fx := newInheritanceFixture(t)
	x := fx.decls.NewVariable(ast.Variable{Name: "x", Type: "uint8", Kind: ast.VariableState, Contract: fx.base})
	ctx := newTestContext(fx, settings.RevertDefault)

	if _, err := ctx.StorageLocationOfVariable(x); !errors.Is(err, ErrUnknownStateVariable) {
		t.Fatalf("expected ErrUnknownStateVariable, got %v", err)
	}
	if err := ctx.AddStateVariable(x, uint256.NewInt(3), 4); err != nil {
		t.Fatalf("AddStateVariable: %v", err)
	}
	if err := ctx.AddStateVariable(x, uint256.NewInt(7), 9); err != nil {
		t.Fatalf("AddStateVariable: %v", err)
	}
	loc, err := ctx.StorageLocationOfVariable(x)
	if err != nil {
		t.Fatalf("StorageLocationOfVariable: %v", err)
	}
	if loc.Slot.Uint64() != 7 || loc.Offset != 9 {
		t.Fatalf("last write should win, got %s", loc)
	}
	if !ctx.IsStateVariable(x) || ctx.IsLocalVariable(x) {
		t.Fatalf("predicates wrong")
	}
	if err := ctx.AddStateVariable(ast.VariableID(500), nil, 0); !errors.Is(err, ErrUnknownDeclaration) {
		t.Fatalf("expected ErrUnknownDeclaration, got %v", err)
	}
}

func TestVirtualResolution(t *testing.T) {
	fx := newInheritanceFixture(t)
	ctx := newTestContext(fx, settings.RevertDefault)

	if _, err := ctx.EnqueueVirtualFunctionForCodeGeneration(fx.baseF); !errors.Is(err, ErrNoMostDerivedContract) {
		t.Fatalf("expected ErrNoMostDerivedContract, got %v", err)
	}
	if _, err := ctx.MostDerivedContract(); !errors.Is(err, ErrNoMostDerivedContract) {
		t.Fatalf("expected ErrNoMostDerivedContract, got %v", err)
	}

	ctx.SetMostDerivedContract(fx.derived)
	name, err := ctx.EnqueueVirtualFunctionForCodeGeneration(fx.baseF)
	if err != nil {
		t.Fatalf("enqueue virtual: %v", err)
	}
	want, _ := ctx.FunctionName(fx.derivF)
	if name != want {
		t.Fatalf("resolved to %q, want %q", name, want)
	}
	popped, err := ctx.FunctionQueue().Pop()
	if err != nil || popped != fx.derivF {
		t.Fatalf("queued %d, want Derived.f (%d)", popped, fx.derivF)
	}
	if !ctx.FunctionQueue().Empty() {
		t.Fatalf("Base.f must not be queued")
	}

	// g is not overridden, so it resolves to itself.
	name, err = ctx.EnqueueVirtualFunctionForCodeGeneration(fx.baseG)
	if err != nil {
		t.Fatalf("enqueue virtual: %v", err)
	}
	if want, _ := ctx.FunctionName(fx.baseG); name != want {
		t.Fatalf("g resolved to %q", name)
	}

	// Compiling Base itself keeps Base.f.
	baseCtx := newTestContext(fx, settings.RevertDefault)
	baseCtx.SetMostDerivedContract(fx.base)
	name, _ = baseCtx.EnqueueVirtualFunctionForCodeGeneration(fx.baseF)
	if want, _ := baseCtx.FunctionName(fx.baseF); name != want {
		t.Fatalf("Base context resolved to %q", name)
	}
}

func TestVirtualResolutionRequiresEqualParameters(t *testing.T) {
	fx := newInheritanceFixture(t)
	// An overload with different parameter types does not override Base.f.
	overload := fx.decls.NewFunction(ast.Function{Name: "f", Contract: fx.derived})
	fx.decls.NewVariable(ast.Variable{Name: "a", Type: "bool", Kind: ast.VariableParam, Owner: overload})
	ctx := newTestContext(fx, settings.RevertDefault)
	ctx.SetMostDerivedContract(fx.derived)

	resolved, err := ctx.resolveVirtual(fx.baseF, fx.derived)
	if err != nil {
		t.Fatalf("resolveVirtual: %v", err)
	}
	if resolved != fx.derivF {
		t.Fatalf("resolved %d, want %d", resolved, fx.derivF)
	}
}

func TestInternalDispatch(t *testing.T) {
	fx := newInheritanceFixture(t)
	ctx := newTestContext(fx, settings.RevertDefault)

	if _, err := ctx.InternalDispatch(1, 1); !errors.Is(err, ErrNoMostDerivedContract) {
		t.Fatalf("expected ErrNoMostDerivedContract, got %v", err)
	}
	ctx.SetMostDerivedContract(fx.derived)

	a, err := ctx.InternalDispatch(1, 1)
	if err != nil {
		t.Fatalf("InternalDispatch: %v", err)
	}
	b, _ := ctx.InternalDispatch(1, 1)
	if a != b {
		t.Fatalf("same shape gave %q and %q", a, b)
	}
	c, _ := ctx.InternalDispatch(2, 1)
	d, _ := ctx.InternalDispatch(1, 2)
	if c == d || a == c {
		t.Fatalf("different shapes must get different dispatchers: %q %q %q", a, c, d)
	}

	body, ok := ctx.FunctionCollector().Body(a)
	if !ok {
		t.Fatalf("dispatcher %q not registered", a)
	}
	derivName, _ := ctx.FunctionName(fx.derivF)
	baseName, _ := ctx.FunctionName(fx.baseF)
	for _, want := range []string{"switch fun", "out_1 := " + derivName + "(in_1)", "default { invalid() }"} {
		if !strings.Contains(body, want) {
			t.Fatalf("dispatcher misses %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, baseName) {
		t.Fatalf("overridden function dispatched:\n%s", body)
	}
	// Only the override of shape (1,1) was enqueued.
	if ctx.FunctionQueue().Size() != 1 {
		t.Fatalf("queue size = %d, want 1", ctx.FunctionQueue().Size())
	}

	if _, err := ctx.InternalDispatch(-1, 0); !errors.Is(err, ErrInvalidArity) {
		t.Fatalf("expected ErrInvalidArity, got %v", err)
	}
}

func TestDispatcherExcludesConstructors(t *testing.T) {
	fx := newInheritanceFixture(t)
	ctx := newTestContext(fx, settings.RevertDefault)
	ctx.SetMostDerivedContract(fx.derived)

	name, err := ctx.InternalDispatch(0, 0)
	if err != nil {
		t.Fatalf("InternalDispatch: %v", err)
	}
	body, _ := ctx.FunctionCollector().Body(name)
	ctorName, _ := ctx.FunctionName(fx.ctor)
	if strings.Contains(body, ctorName) {
		t.Fatalf("constructor dispatched:\n%s", body)
	}
	gName, _ := ctx.FunctionName(fx.baseG)
	if !strings.Contains(body, gName+"()") {
		t.Fatalf("g missing:\n%s", body)
	}
}

func TestDispatcherExcludesExternalFunctions(t *testing.T) {
	fx := newInheritanceFixture(t)
	ext := fx.decls.NewFunction(ast.Function{Name: "h", Contract: fx.base, Visibility: ast.VisibilityExternal})
	priv := fx.decls.NewFunction(ast.Function{Name: "p", Contract: fx.derived, Visibility: ast.VisibilityPrivate})
	ctx := newTestContext(fx, settings.RevertDefault)
	ctx.SetMostDerivedContract(fx.derived)

	name, err := ctx.InternalDispatch(0, 0)
	if err != nil {
		t.Fatalf("InternalDispatch: %v", err)
	}
	body, _ := ctx.FunctionCollector().Body(name)
	extName, _ := ctx.FunctionName(ext)
	if strings.Contains(body, extName) {
		t.Fatalf("external function dispatched:\n%s", body)
	}
	// Private functions can still be assigned to internal pointers.
	privName, _ := ctx.FunctionName(priv)
	if !strings.Contains(body, privName+"()") {
		t.Fatalf("private function missing:\n%s", body)
	}
}

func TestClearAllowsEnqueueAgain(t *testing.T) {
	fx := newInheritanceFixture(t)
	ctx := newTestContext(fx, settings.RevertDefault)

	name, err := ctx.EnqueueFunctionForCodeGeneration(fx.baseG)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if err := ctx.FunctionQueue().Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	again, err := ctx.EnqueueFunctionForCodeGeneration(fx.baseG)
	if err != nil {
		t.Fatalf("Enqueue after Clear: %v", err)
	}
	if again != name {
		t.Fatalf("name changed across Clear: %q then %q", name, again)
	}
	if ctx.FunctionQueue().Size() != 1 {
		t.Fatalf("queue size after Clear and enqueue = %d, want 1", ctx.FunctionQueue().Size())
	}

	// Functions already generated stay scheduled.
	if err := ctx.FunctionQueue().Drain(func(ast.FunctionID) error { return nil }); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if err := ctx.FunctionQueue().Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := ctx.EnqueueFunctionForCodeGeneration(fx.baseG); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !ctx.FunctionQueue().Empty() {
		t.Fatalf("drained function pushed again")
	}
}

func TestRevertReasonIfDebug(t *testing.T) {
	fx := newInheritanceFixture(t)
	if got := newTestContext(fx, settings.RevertDefault).RevertReasonIfDebug("x"); got != "" {
		t.Fatalf("default verbosity produced %q", got)
	}
	got := newTestContext(fx, settings.RevertDebug).RevertReasonIfDebug("x")
	if got == "" || !strings.Contains(got, "\"x\"") {
		t.Fatalf("debug verbosity produced %q", got)
	}
}

func TestTrySuccessConditionVariable(t *testing.T) {
	fx := newInheritanceFixture(t)
	ctx := newTestContext(fx, settings.RevertDefault)
	e1 := fx.decls.NewExpr(ast.Expr{Kind: ast.ExprTryCall, Owner: fx.baseF})
	e2 := fx.decls.NewExpr(ast.Expr{Kind: ast.ExprTryCall, Owner: fx.baseF})

	a := ctx.TrySuccessConditionVariable(e1)
	if a != ctx.TrySuccessConditionVariable(e1) {
		t.Fatalf("same node produced different names")
	}
	if a == ctx.TrySuccessConditionVariable(e2) {
		t.Fatalf("different nodes share %q", a)
	}
	if a != "trySuccessCondition_1" {
		t.Fatalf("name = %q", a)
	}
}

func TestUtilsShareCollector(t *testing.T) {
	fx := newInheritanceFixture(t)
	ctx := newTestContext(fx, settings.RevertDefault)
	ctx.Utils().RoundUpFunction()
	ctx.Utils().RoundUpFunction()
	if ctx.FunctionCollector().Len() != 1 {
		t.Fatalf("collector holds %v", ctx.FunctionCollector().Names())
	}
	if ctx.EVMVersion() != settings.DefaultEVMVersion || ctx.RevertStrings() != settings.RevertDefault {
		t.Fatalf("configuration not exposed")
	}
	if ctx.Optimiser().Runs != 200 {
		t.Fatalf("optimiser = %+v", ctx.Optimiser())
	}
}

func TestNameCollisionGetsSuffix(t *testing.T) {
	n := newNames()
	a := n.assign(nameKey{purpose: purposeFunction, a: 1}, "fun_x_1")
	b := n.assign(nameKey{purpose: purposeGetter, a: 1}, "fun_x_1")
	if a == b {
		t.Fatalf("collision not resolved: %q", a)
	}
	if b != "fun_x_1_1" {
		t.Fatalf("suffix = %q", b)
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	cases := map[string]string{
		"transfer":  "transfer",
		"e\u0301":   "_", // NFC folds e + combining acute into one rune
		"a-b c":     "a_b_c",
		"$x_1":      "$x_1",
		"über.read": "_ber_read",
	}
	for in, want := range cases {
		if got := sanitizeIdentifier(in); got != want {
			t.Fatalf("sanitizeIdentifier(%q) = %q, want %q", in, got, want)
		}
	}
}
