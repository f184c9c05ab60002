package driver

import (
	"context"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"yulgen/internal/observ"
	"yulgen/internal/settings"
	"yulgen/internal/trace"
)

// BuildOptions configures Build.
type BuildOptions struct {
	Settings settings.Settings
	Jobs     int           // <= 0 uses GOMAXPROCS
	Timer    *observ.Timer // optional phase timings
}

// BuildResult holds every contract of a unit in inheritance order.
type BuildResult struct {
	Unit      *Unit
	Settings  settings.Settings
	Contracts []*ContractResult
}

// Yul concatenates the objects of all concrete contracts.
func (r *BuildResult) Yul() string {
	var sb strings.Builder
	for _, c := range r.Contracts {
		if c.Abstract {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(c.Yul)
	}
	return sb.String()
}

// Build generates all contracts of the unit in parallel. Contracts share only
// the read-only declarations; every one gets its own contexts and collectors.
func Build(ctx context.Context, unit *Unit, opts BuildOptions) (*BuildResult, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "generate", 0)
	defer span.End("")

	var phase int
	if opts.Timer != nil {
		phase = opts.Timer.Begin("generate")
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Индексы уникальны для каждой горутины, мьютекс не нужен.
	results := make([]*ContractResult, len(unit.Order))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(unit.Order))))
	for i, id := range unit.Order {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := GenerateContract(gctx, unit, id, GenerateOptions{
				Settings:    opts.Settings,
				TraceParent: span.ID(),
			})
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	err := g.Wait()

	if opts.Timer != nil {
		note := ""
		if err != nil {
			note = "failed"
		}
		opts.Timer.End(phase, note)
	}
	if err != nil {
		span.WithExtra("error", err.Error())
		return nil, err
	}
	span.WithExtra("contracts", strconv.Itoa(len(results)))
	return &BuildResult{Unit: unit, Settings: opts.Settings, Contracts: results}, nil
}
