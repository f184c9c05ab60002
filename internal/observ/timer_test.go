package observ

import (
	"errors"
	"strings"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	if r := tm.Report(); len(r.Phases) != 0 || r.TotalMS != 0 {
		t.Fatalf("empty timer report = %+v", r)
	}
	idx := tm.Begin("load")
	tm.End(idx, "ok")
	tm.End(42, "ignored")
	if err := tm.Measure("generate", func() error { return errors.New("boom") }); err == nil {
		t.Fatalf("Measure must return the phase error")
	}

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %+v", r.Phases)
	}
	if r.Phases[0].Name != "load" || r.Phases[0].Note != "ok" {
		t.Fatalf("first phase = %+v", r.Phases[0])
	}
	if r.Phases[1].Note != "failed" {
		t.Fatalf("failed phase not noted: %+v", r.Phases[1])
	}

	var sb strings.Builder
	if err := tm.WriteSummary(&sb); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	out := sb.String()
	for _, want := range []string{"timings:", "load", "generate", "// failed", "total"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary misses %q:\n%s", want, out)
		}
	}
}
