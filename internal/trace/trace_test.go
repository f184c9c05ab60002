package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestStreamTracerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)

	span := Begin(tr, ScopeContract, "contract:C", 0)
	Point(tr, ScopeNode, "enqueue", "fun_f_1", span.ID())
	span.WithExtra("functions", "1").End("done")

	out := buf.String()
	if !strings.Contains(out, "contract:C") {
		t.Fatalf("contract span missing:\n%s", out)
	}
	if strings.Contains(out, "enqueue") {
		t.Fatalf("node events must be filtered at detail level:\n%s", out)
	}
	if !strings.Contains(out, "{functions=1}") {
		t.Fatalf("extra missing:\n%s", out)
	}
}

func TestNDJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDebug, FormatNDJSON)
	Point(tr, ScopeNode, "dispatch", "dispatch_internal_in_1_out_1", 0)

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if got["name"] != "dispatch" || got["scope"] != "node" || got["kind"] != "point" {
		t.Fatalf("unexpected event %v", got)
	}
}

func TestRingTracerKeepsLastEvents(t *testing.T) {
	ring := NewRingTracer(2, LevelError)
	for _, name := range []string{"a", "b", "c"} {
		Point(ring, ScopeNode, name, "", 0)
	}
	snap := ring.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("snapshot = %+v", snap)
	}
	var buf bytes.Buffer
	if err := ring.Dump(&buf, FormatText); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 2 {
		t.Fatalf("dump:\n%s", buf.String())
	}
}

func TestNewAndContext(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off level must produce the nop tracer")
	}
	var buf bytes.Buffer
	tr, err = New(Config{Level: LevelDebug, Mode: ModeBoth, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := tr.(Dumper); !ok {
		t.Fatalf("both mode should be dumpable")
	}

	ctx := WithTracer(context.Background(), tr)
	if FromContext(ctx) != tr {
		t.Fatalf("tracer not propagated")
	}
	if FromContext(context.Background()) != Nop {
		t.Fatalf("missing tracer must fall back to Nop")
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected level parse error")
	}
}
