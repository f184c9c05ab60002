package driver

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"yulgen/internal/ast"
	"yulgen/internal/settings"
)

func loadTestUnit(t *testing.T) *Unit {
	t.Helper()
	u, err := LoadUnit("testdata/inherit.toml")
	if err != nil {
		t.Fatalf("LoadUnit: %v", err)
	}
	return u
}

func TestLoadUnitResolvesDeclarations(t *testing.T) {
	u := loadTestUnit(t)
	decls := u.Decls

	if len(u.Order) != 3 {
		t.Fatalf("order = %v", u.Order)
	}
	names := make([]string, 0, len(u.Order))
	for _, id := range u.Order {
		names = append(names, decls.Contract(id).Name)
	}
	if strings.Join(names, ",") != "Base,Shape,Derived" {
		t.Fatalf("inheritance order = %v", names)
	}

	derived := decls.Contract(2)
	if derived.Name != "Derived" || len(derived.Linearized) != 2 || derived.Linearized[1] != 1 {
		t.Fatalf("Derived = %+v", derived)
	}
	if !decls.Contract(3).Abstract {
		t.Fatalf("Shape should be abstract")
	}

	run := ast.FunctionID(5)
	body := u.Bodies[run]
	if body == nil || len(body.Calls) != 3 || !body.Reverts || body.Revert != "stop" {
		t.Fatalf("run body = %+v", body)
	}
	if c := body.Calls[1]; !c.Indirect || !c.Virtual || c.Target != 2 {
		t.Fatalf("indirect call = %+v", c)
	}
	if c := body.Calls[2]; !c.Try || decls.Expr(c.Expr).Kind != ast.ExprTryCall {
		t.Fatalf("try call = %+v", c)
	}
	if !u.Public[1] || u.Public[2] {
		t.Fatalf("public flags = %v", u.Public)
	}
	if u.Digest == (Digest{}) {
		t.Fatalf("digest not computed")
	}
}

func TestParseUnitErrors(t *testing.T) {
	cases := map[string]string{
		"unknown key": `
[[contract]]
name = "A"
colour = "red"
`,
		"unknown base": `
[[contract]]
name = "A"
linearized = ["A", "B"]
`,
		"duplicate contract": `
[[contract]]
name = "A"
[[contract]]
name = "A"
`,
		"unknown target": `
[[contract]]
name = "A"
  [[contract.function]]
  name = "f"
    [[contract.function.call]]
    target = "A.g"
`,
		"target without contract": `
[[contract]]
name = "A"
  [[contract.function]]
  name = "f"
    [[contract.function.call]]
    target = "g"
`,
		"not inherited": `
[[contract]]
name = "A"
  [[contract.function]]
  name = "f"
    [[contract.function.call]]
    target = "B.g"
[[contract]]
name = "B"
  [[contract.function]]
  name = "g"
`,
		"ambiguous overload": `
[[contract]]
name = "A"
  [[contract.function]]
  name = "g"
  params = ["uint256"]
  [[contract.function]]
  name = "g"
  params = ["bool"]
  [[contract.function]]
  name = "f"
    [[contract.function.call]]
    target = "A.g"
`,
		"unknown state": `
[[contract]]
name = "A"
  [[contract.function]]
  name = "f"
  reads = ["x"]
`,
		"bad visibility": `
[[contract]]
name = "A"
  [[contract.function]]
  name = "f"
  visibility = "friends"
`,
		"cycle": `
[[contract]]
name = "A"
linearized = ["A", "B"]
[[contract]]
name = "B"
linearized = ["B", "A"]
`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseUnit(src); !errors.Is(err, ErrBadUnit) {
				t.Fatalf("expected ErrBadUnit, got %v", err)
			}
		})
	}
}

func TestParseUnitOverloadWithSignature(t *testing.T) {
	u, err := ParseUnit(`
[[contract]]
name = "A"
  [[contract.function]]
  name = "g"
  params = ["uint256"]
  [[contract.function]]
  name = "g"
  params = ["bool"]
  [[contract.function]]
  name = "f"
    [[contract.function.call]]
    target = "A.g(bool)"
`)
	if err != nil {
		t.Fatalf("ParseUnit: %v", err)
	}
	if got := u.Bodies[3].Calls[0].Target; got != 2 {
		t.Fatalf("target = %d, want the bool overload", got)
	}
}

func TestLinearizationMustIncludeBaseChains(t *testing.T) {
	_, err := LoadUnit("testdata/incomplete_linearization.toml")
	if !errors.Is(err, ErrBadUnit) || errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrBadUnit, got %v", err)
	}
	if !strings.Contains(err.Error(), "Derived inherits Base but its linearization misses Mid") {
		t.Fatalf("unexpected message: %v", err)
	}

	data, err := os.ReadFile("testdata/incomplete_linearization.toml")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	fixed := strings.Replace(string(data), `linearized = ["Derived", "Base"]`, `linearized = ["Derived", "Base", "Mid"]`, 1)
	u, err := ParseUnit(fixed)
	if err != nil {
		t.Fatalf("ParseUnit with full chain: %v", err)
	}
	if _, err := Build(context.Background(), u, BuildOptions{Settings: settings.Default(), Jobs: 1}); err != nil {
		t.Fatalf("Build: %v", err)
	}
}
