package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yulgen/internal/irgen"
	"yulgen/internal/observ"
	"yulgen/internal/settings"
	"yulgen/internal/testkit"
	"yulgen/internal/trace"
)

func buildTestUnit(t *testing.T, revert settings.RevertStrings) *BuildResult {
	t.Helper()
	s := settings.Default()
	s.RevertStrings = revert
	res, err := Build(context.Background(), loadTestUnit(t), BuildOptions{Settings: s, Jobs: 2})
	require.NoError(t, err)
	return res
}

func contractNamed(t *testing.T, res *BuildResult, name string) *ContractResult {
	t.Helper()
	for _, c := range res.Contracts {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("contract %s missing", name)
	return nil
}

func functionNames(fns []GeneratedFunction) []string {
	out := make([]string, 0, len(fns))
	for _, f := range fns {
		out = append(out, f.Name)
	}
	return out
}

func TestBuildDerivedResolvesOverrides(t *testing.T) {
	res := buildTestUnit(t, settings.RevertDefault)
	derived := contractNamed(t, res, "Derived")

	runtime := functionNames(derived.Runtime.Functions)
	assert.ElementsMatch(t, []string{"fun_f_4", "fun_run_5", "fun_g_3"}, runtime,
		"overridden Base.f is neither called nor dispatched")
	assert.ElementsMatch(t, []string{"getter_fun_owner_1", "getter_fun_flag_6"}, derived.Runtime.Getters)

	sigs := make(map[string]string)
	for _, ep := range derived.Runtime.Entrypoints {
		sigs[ep.Signature] = ep.Function
		assert.Len(t, ep.Selector, 10)
	}
	assert.Equal(t, map[string]string{
		"f(uint256)": "fun_f_4",
		"run()":      "fun_run_5",
		"owner()":    "getter_fun_owner_1",
		"flag()":     "getter_fun_flag_6",
	}, sigs)

	yul := derived.Yul
	for _, want := range []string{
		`object "Derived_2" {`,
		`object "Derived_2_deployed" {`,
		"fun_constructor_1()",
		"function fun_g_3() -> vloc_ret0_5 {",
		"dispatch_internal_in_1_out_1(4, ",
		"let trySuccessCondition_4 := ",
		"if trySuccessCondition_4 {",
		"function dispatch_internal_in_1_out_1(fun, in_1) -> out_1 {",
		"update_storage_value_offset_0_size_1(0x2, vloc_arg0_7)",
		"read_from_storage_offset_0_size_32(0x1)",
	} {
		assert.Contains(t, yul, want)
	}
	// The virtual call in Base.g lands on the override.
	assert.Contains(t, yul, " := fun_f_4(0)")
	assert.NotContains(t, yul, " := fun_f_2(0)")
	assert.NotContains(t, yul, "function fun_f_2(")

	assert.NotContains(t, yul, "8c379a0", "default revert strings carry no debug reasons")
	assert.Equal(t, 1, strings.Count(yul, "function fun_g_3("), "each body is emitted once")

	storage := derived.Storage
	require.Len(t, storage.Entries, 3)
	assert.Equal(t, uint64(3), storage.SlotsUsed.Uint64())
}

func TestGeneratedObjectsAreWellFormed(t *testing.T) {
	for _, revert := range []settings.RevertStrings{settings.RevertDefault, settings.RevertDebug} {
		res := buildTestUnit(t, revert)
		for _, c := range res.Contracts {
			if c.Abstract {
				continue
			}
			require.NoError(t, testkit.CheckObjectInvariants(c.Yul), "%s (%s)", c.Name, revert)
		}
	}
}

func TestBuildBaseKeepsOwnImplementation(t *testing.T) {
	res := buildTestUnit(t, settings.RevertDefault)
	base := contractNamed(t, res, "Base")
	assert.Equal(t, []string{"fun_f_2"}, functionNames(base.Runtime.Functions))
	assert.Equal(t, []string{"fun_constructor_1"}, functionNames(base.Creation.Functions))
	assert.Contains(t, base.Creation.Helpers, "update_storage_value_offset_0_size_32")
	assert.NotContains(t, base.Yul, "Derived")
}

func TestBuildSkipsAbstractContracts(t *testing.T) {
	res := buildTestUnit(t, settings.RevertDefault)
	shape := contractNamed(t, res, "Shape")
	assert.True(t, shape.Abstract)
	assert.Empty(t, shape.Yul)
	assert.NotContains(t, res.Yul(), "Shape")
	assert.Equal(t, 2, strings.Count(res.Yul(), "_deployed\" {"))
}

func TestBuildDebugRevertStrings(t *testing.T) {
	res := buildTestUnit(t, settings.RevertDebug)
	yul := contractNamed(t, res, "Derived").Yul
	assert.Contains(t, yul, "8c379a0")
	assert.Contains(t, yul, `"stop"`)
}

func TestBuildIsDeterministic(t *testing.T) {
	first := buildTestUnit(t, settings.RevertDefault).Yul()
	for i := 0; i < 5; i++ {
		require.Equal(t, first, buildTestUnit(t, settings.RevertDefault).Yul(), fmt.Sprintf("run %d", i))
	}
}

func TestBuildReportsUserErrors(t *testing.T) {
	u, err := ParseUnit(`
[[contract]]
name = "A"
  [[contract.state]]
  name = "m"
  type = "mapping(address => uint256)"
  [[contract.function]]
  name = "f"
  visibility = "public"
  reads = ["m"]
`)
	require.NoError(t, err)
	_, err = Build(context.Background(), u, BuildOptions{Settings: settings.Default()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadUnit)
	assert.NotErrorIs(t, err, ErrInternal)

	u, err = ParseUnit(`
[[contract]]
name = "A"
  [[contract.state]]
  name = "x"
  type = "uint7"
`)
	require.NoError(t, err)
	_, err = Build(context.Background(), u, BuildOptions{Settings: settings.Default()})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInternal)
}

func TestWrapContractError(t *testing.T) {
	err := wrapContractError("C", fmt.Errorf("%w: x", irgen.ErrEmptyQueue))
	require.ErrorIs(t, err, ErrInternal)
	require.ErrorIs(t, err, irgen.ErrEmptyQueue)
	assert.True(t, strings.HasPrefix(err.Error(), "internal compiler error: C: "), err.Error())

	plain := wrapContractError("C", errors.New("bad input"))
	assert.NotErrorIs(t, plain, ErrInternal)
	assert.Equal(t, "C: bad input", plain.Error())
	assert.NoError(t, wrapContractError("C", nil))
}

func TestBuildTracesAndTimes(t *testing.T) {
	ring, err := trace.New(trace.Config{Level: trace.LevelDebug, Mode: trace.ModeRing, RingSize: 4096})
	require.NoError(t, err)
	defer func() { _ = ring.Close() }()

	timer := observ.NewTimer()
	ctx := trace.WithTracer(context.Background(), ring)
	_, err = Build(ctx, loadTestUnit(t), BuildOptions{Settings: settings.Default(), Timer: timer})
	require.NoError(t, err)

	dumper, ok := ring.(trace.Dumper)
	require.True(t, ok)
	var sb strings.Builder
	require.NoError(t, dumper.Dump(&sb, trace.FormatText))
	out := sb.String()
	for _, want := range []string{"generate", "contract", "function", "enqueue", "dispatch"} {
		assert.Contains(t, out, want)
	}
	report := timer.Report()
	require.Len(t, report.Phases, 1)
	assert.Equal(t, "generate", report.Phases[0].Name)
}

func TestReportRoundTrip(t *testing.T) {
	res := buildTestUnit(t, settings.RevertDefault)
	timer := observ.NewTimer()
	timer.End(timer.Begin("load"), "")

	rep := NewReport(res)
	rep.AttachTimings(timer)
	path := filepath.Join(t.TempDir(), "out", "report.mp")
	require.NoError(t, WriteReport(path, rep))

	got, err := ReadReport(path)
	require.NoError(t, err)
	assert.Len(t, got.Key, 32)
	assert.Equal(t, "cancun", got.EVMVersion)
	require.Len(t, got.Contracts, 3)
	var derived ContractReport
	for _, c := range got.Contracts {
		if c.Name == "Derived" {
			derived = c
		}
	}
	assert.Len(t, derived.RuntimeOrder, 4)
	assert.Len(t, derived.Storage, 3)
	assert.Equal(t, "2", derived.Storage[2].Slot)
	require.NotNil(t, got.Timings)
	assert.Equal(t, "load", got.Timings.Phases[0].Name)

	rep.Schema = 99
	require.NoError(t, WriteReport(path, rep))
	_, err = ReadReport(path)
	assert.ErrorIs(t, err, ErrReportSchema)
}

func TestBuildKeyDependsOnSettings(t *testing.T) {
	u := loadTestUnit(t)
	a := buildKey(u.Digest, settings.Default())
	s := settings.Default()
	s.RevertStrings = settings.RevertDebug
	assert.NotEqual(t, a, buildKey(u.Digest, s))
	assert.Equal(t, a, buildKey(u.Digest, settings.Default()))
}
