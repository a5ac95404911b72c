package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapmap/internal/lineage"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// DefaultWorkers bounds concurrent traces when BatchOptions.Workers is unset.
const DefaultWorkers = 4

// BatchOptions configures TraceTargets.
type BatchOptions struct {
	Workers int
	// MaxFieldsPerTarget caps the fields traced per target instance; 0 means all.
	MaxFieldsPerTarget int
	Tracer             lineage.Options
}

// TargetTrace is the trace of one target field.
type TargetTrace struct {
	Instance string               `json:"instance" yaml:"instance"`
	Field    string               `json:"field" yaml:"field"`
	Result   *lineage.TraceResult `json:"result" yaml:"result"`
}

// TraceTargets traces every field of every TARGET instance of m.
// Traces run concurrently on a bounded pool; results come back in
// target declaration order, then field name order.
func TraceTargets(ctx context.Context, m *core.Mapping, opts BatchOptions) ([]TargetTrace, error) {
	logger := opts.Tracer.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	tracer := lineage.NewTracer(m, opts.Tracer)

	var traces []TargetTrace
	for _, inst := range m.InstancesOfType(core.InstanceTypeTarget) {
		fields := tracer.TargetFields(inst.Name)
		if opts.MaxFieldsPerTarget > 0 && len(fields) > opts.MaxFieldsPerTarget {
			fields = fields[:opts.MaxFieldsPerTarget]
		}
		for _, f := range fields {
			traces = append(traces, TargetTrace{Instance: inst.Name, Field: f})
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range traces {
		g.Go(func() error {
			res, err := tracer.Trace(gctx, traces[i].Instance, traces[i].Field)
			if err != nil {
				return fmt.Errorf("trace %s.%s: %w", traces[i].Instance, traces[i].Field, err)
			}
			traces[i].Result = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("targets traced", slog.String("mapping", m.Name), slog.Int("fields", len(traces)))
	return traces, nil
}

// Records flattens batch traces into one record list.
func Records(traces []TargetTrace) []core.LineageRecord {
	var out []core.LineageRecord
	for _, t := range traces {
		if t.Result != nil {
			out = append(out, t.Result.Records...)
		}
	}
	return out
}
