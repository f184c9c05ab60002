package driver

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"yulgen/internal/ast"
)

// ErrBadUnit marks problems in a compilation unit file. These are user errors.
var ErrBadUnit = errors.New("invalid compilation unit")

// Call is one call site inside a toy body.
type Call struct {
	Target   ast.FunctionID
	Expr     ast.ExprID
	Virtual  bool // resolve against the most derived contract
	Indirect bool // call through an internal function pointer
	Try      bool // guarded by a success flag
}

// Body is the part of a function the driver lowers. Statements run in the
// order reads, calls, writes, revert.
type Body struct {
	Reads  []ast.VariableID
	Calls  []Call
	Writes []ast.VariableID
	Revert string
	// Reverts is set when the function ends in a revert, also one without reason.
	Reverts bool
}

// Unit is a loaded compilation unit.
type Unit struct {
	Path   string
	Decls  *ast.Declarations
	Bodies map[ast.FunctionID]*Body
	// Public state variables get a getter.
	Public map[ast.VariableID]bool
	// Order lists contracts bases first.
	Order  []ast.ContractID
	Digest Digest
}

type unitFile struct {
	Contract []contractFile `toml:"contract"`
}

type contractFile struct {
	Name       string         `toml:"name"`
	Linearized []string       `toml:"linearized"`
	Abstract   bool           `toml:"abstract"`
	State      []stateFile    `toml:"state"`
	Function   []functionFile `toml:"function"`
}

type stateFile struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Public bool   `toml:"public"`
}

type functionFile struct {
	Name        string     `toml:"name"`
	Params      []string   `toml:"params"`
	Returns     []string   `toml:"returns"`
	Visibility  string     `toml:"visibility"`
	Constructor bool       `toml:"constructor"`
	Virtual     bool       `toml:"virtual"`
	Call        []callFile `toml:"call"`
	Reads       []string   `toml:"reads"`
	Writes      []string   `toml:"writes"`
	Revert      *string    `toml:"revert"`
}

type callFile struct {
	Target   string `toml:"target"`
	Virtual  bool   `toml:"virtual"`
	Indirect bool   `toml:"indirect"`
	Try      bool   `toml:"try"`
}

// LoadUnit reads and resolves a unit file.
func LoadUnit(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	u, err := ParseUnit(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	u.Path = path
	return u, nil
}

// ParseUnit resolves a unit from TOML text.
func ParseUnit(data string) (*Unit, error) {
	var file unitFile
	meta, err := toml.Decode(data, &file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadUnit, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrBadUnit, strings.Join(keys, ", "))
	}

	r := &resolver{
		unit: &Unit{
			Decls:  ast.NewDeclarations(),
			Bodies: make(map[ast.FunctionID]*Body),
			Public: make(map[ast.VariableID]bool),
			Digest: digestOf([]byte(data)),
		},
		contracts: make(map[string]ast.ContractID),
	}
	if err := r.resolve(file); err != nil {
		return nil, err
	}
	order, err := inheritanceOrder(r.unit.Decls)
	if err != nil {
		return nil, err
	}
	r.unit.Order = order
	return r.unit, nil
}

type resolver struct {
	unit      *Unit
	contracts map[string]ast.ContractID
}

type pendingBody struct {
	fn   ast.FunctionID
	file functionFile
}

func (r *resolver) resolve(file unitFile) error {
	decls := r.unit.Decls
	for _, cf := range file.Contract {
		if cf.Name == "" {
			return fmt.Errorf("%w: contract without name", ErrBadUnit)
		}
		if _, dup := r.contracts[cf.Name]; dup {
			return fmt.Errorf("%w: contract %s declared twice", ErrBadUnit, cf.Name)
		}
		r.contracts[cf.Name] = decls.NewContract(cf.Name, cf.Abstract)
	}

	var pending []pendingBody
	for _, cf := range file.Contract {
		id := r.contracts[cf.Name]
		if len(cf.Linearized) > 0 {
			chain := make([]ast.ContractID, 0, len(cf.Linearized))
			for _, name := range cf.Linearized {
				base, ok := r.contracts[name]
				if !ok {
					return fmt.Errorf("%w: %s inherits unknown contract %s", ErrBadUnit, cf.Name, name)
				}
				chain = append(chain, base)
			}
			if err := decls.SetLinearized(id, chain); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrBadUnit, cf.Name, err)
			}
		}
		for _, sf := range cf.State {
			if sf.Name == "" || sf.Type == "" {
				return fmt.Errorf("%w: %s: state variable needs name and type", ErrBadUnit, cf.Name)
			}
			v := decls.NewVariable(ast.Variable{
				Name:     sf.Name,
				Type:     sf.Type,
				Kind:     ast.VariableState,
				Contract: id,
			})
			if sf.Public {
				r.unit.Public[v] = true
			}
		}
		for _, ff := range cf.Function {
			fn, err := r.declareFunction(id, ff)
			if err != nil {
				return fmt.Errorf("%s: %w", cf.Name, err)
			}
			pending = append(pending, pendingBody{fn: fn, file: ff})
		}
	}

	if err := checkLinearizations(decls); err != nil {
		return err
	}

	// Bodies reference functions and state of any contract, so they resolve last.
	for _, p := range pending {
		body, err := r.resolveBody(p.fn, p.file)
		if err != nil {
			fn := decls.Function(p.fn)
			return fmt.Errorf("%s.%s: %w", decls.Contract(fn.Contract).Name, fn.Name, err)
		}
		r.unit.Bodies[p.fn] = body
	}
	return nil
}

func (r *resolver) declareFunction(contract ast.ContractID, ff functionFile) (ast.FunctionID, error) {
	decls := r.unit.Decls
	name := ff.Name
	if ff.Constructor && name == "" {
		name = "constructor"
	}
	if name == "" {
		return ast.NoFunctionID, fmt.Errorf("%w: function without name", ErrBadUnit)
	}
	vis, err := parseVisibility(ff.Visibility)
	if err != nil {
		return ast.NoFunctionID, err
	}
	fn := decls.NewFunction(ast.Function{
		Name:        name,
		Contract:    contract,
		Visibility:  vis,
		Constructor: ff.Constructor,
		Virtual:     ff.Virtual,
	})
	for i, typ := range ff.Params {
		decls.NewVariable(ast.Variable{Name: fmt.Sprintf("arg%d", i), Type: typ, Kind: ast.VariableParam, Owner: fn})
	}
	for i, typ := range ff.Returns {
		decls.NewVariable(ast.Variable{Name: fmt.Sprintf("ret%d", i), Type: typ, Kind: ast.VariableReturn, Owner: fn})
	}
	return fn, nil
}

func (r *resolver) resolveBody(fn ast.FunctionID, ff functionFile) (*Body, error) {
	decls := r.unit.Decls
	owner := decls.Function(fn).Contract
	body := &Body{}
	for _, name := range ff.Reads {
		v, err := r.lookupState(owner, name)
		if err != nil {
			return nil, err
		}
		body.Reads = append(body.Reads, v)
	}
	for _, name := range ff.Writes {
		v, err := r.lookupState(owner, name)
		if err != nil {
			return nil, err
		}
		body.Writes = append(body.Writes, v)
	}
	for _, cf := range ff.Call {
		target, err := r.lookupFunction(cf.Target)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(decls.Contract(owner).Linearized, decls.Function(target).Contract) {
			return nil, fmt.Errorf("%w: call target %q is not inherited", ErrBadUnit, cf.Target)
		}
		kind := ast.ExprCall
		if cf.Try {
			kind = ast.ExprTryCall
		}
		body.Calls = append(body.Calls, Call{
			Target:   target,
			Expr:     decls.NewExpr(ast.Expr{Kind: kind, Owner: fn}),
			Virtual:  cf.Virtual,
			Indirect: cf.Indirect,
			Try:      cf.Try,
		})
	}
	if ff.Revert != nil {
		body.Reverts = true
		body.Revert = *ff.Revert
	}
	return body, nil
}

// lookupState finds a state variable visible from contract, most derived first.
func (r *resolver) lookupState(contract ast.ContractID, name string) (ast.VariableID, error) {
	decls := r.unit.Decls
	for _, base := range decls.Contract(contract).Linearized {
		for _, v := range decls.Contract(base).StateVars {
			if decls.Variable(v).Name == name {
				return v, nil
			}
		}
	}
	return ast.NoVariableID, fmt.Errorf("%w: unknown state variable %q", ErrBadUnit, name)
}

// lookupFunction resolves "Contract.name" or "Contract.name(type,...)".
func (r *resolver) lookupFunction(target string) (ast.FunctionID, error) {
	decls := r.unit.Decls
	contractName, rest, ok := strings.Cut(target, ".")
	if !ok {
		return ast.NoFunctionID, fmt.Errorf("%w: call target %q is not Contract.function", ErrBadUnit, target)
	}
	contract, ok := r.contracts[contractName]
	if !ok {
		return ast.NoFunctionID, fmt.Errorf("%w: call target %q: unknown contract", ErrBadUnit, target)
	}
	name, sig, hasSig := strings.Cut(rest, "(")
	var params []string
	if hasSig {
		sig = strings.TrimSuffix(sig, ")")
		if sig != "" {
			for _, p := range strings.Split(sig, ",") {
				params = append(params, strings.TrimSpace(p))
			}
		}
	}

	found := ast.NoFunctionID
	for _, fn := range decls.Contract(contract).Functions {
		decl := decls.Function(fn)
		if decl.Name != name || decl.Constructor {
			continue
		}
		if hasSig && !slices.Equal(decls.ParamTypes(fn), params) {
			continue
		}
		if found.IsValid() {
			return ast.NoFunctionID, fmt.Errorf("%w: call target %q is ambiguous, add parameter types", ErrBadUnit, target)
		}
		found = fn
	}
	if !found.IsValid() {
		return ast.NoFunctionID, fmt.Errorf("%w: call target %q: no such function", ErrBadUnit, target)
	}
	return found, nil
}

func parseVisibility(s string) (ast.Visibility, error) {
	switch s {
	case "", "internal":
		return ast.VisibilityInternal, nil
	case "private":
		return ast.VisibilityPrivate, nil
	case "public":
		return ast.VisibilityPublic, nil
	case "external":
		return ast.VisibilityExternal, nil
	default:
		return ast.VisibilityInternal, fmt.Errorf("%w: unknown visibility %q", ErrBadUnit, s)
	}
}
