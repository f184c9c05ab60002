// Package trace records what the IR generator does while it runs.
//
// Tracers are attached to a context and picked up by the driver and the
// generation context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopeContract, "contract:Token", 0)
//	defer span.End("")
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: only the ring buffer dumped on internal compiler errors
//   - LevelPhase: driver phases (load, layout, generate, assemble)
//   - LevelDetail: per contract and per drained function
//   - LevelDebug: every enqueue, name allocation and dispatcher creation
//
// # Storage
//
// StreamTracer writes every event as it happens, RingTracer keeps the last N
// events in memory, MultiTracer fans out to both.
package trace
