package driver

import (
	"yulgen/internal/observ"
)

// TimingReport is the serialisable form of the phase timer.
type TimingReport struct {
	TotalMS float64
	Phases  []observ.PhaseReport
}

// AttachTimings copies the phases recorded so far into the report.
func (r *Report) AttachTimings(t *observ.Timer) {
	if r == nil || t == nil {
		return
	}
	rep := t.Report()
	if len(rep.Phases) == 0 {
		return
	}
	r.Timings = &TimingReport{TotalMS: rep.TotalMS, Phases: rep.Phases}
}
