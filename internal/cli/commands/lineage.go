package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapmap/internal/analysis"
	"github.com/leapstack-labs/leapmap/internal/export"
	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/spf13/cobra"
)

// LineageOutput is the structured form of the lineage command.
type LineageOutput struct {
	Mapping string               `json:"mapping" yaml:"mapping"`
	Fields  int                  `json:"fields_traced" yaml:"fields_traced"`
	Records []core.LineageRecord `json:"records" yaml:"records"`
}

// NewLineageCommand creates the lineage command.
func NewLineageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineage",
		Short: "Trace every target field to its sources",
		Long: `Trace all connected fields of every target instance back to their
sources and list one row per (target field, source) pair.

Traces run concurrently on a bounded worker pool (--workers). Use
--max-fields-per-target to sample large targets.`,
		Example: `  # Complete lineage as CSV
  leapmap lineage --mapping m_load_orders -o csv > lineage.csv

  # Sample the first 5 fields of each target
  leapmap lineage --max-fields-per-target 5`,
		Args: cobra.NoArgs,
		RunE: runLineage,
	}

	addTraceFlags(cmd)
	cmd.Flags().Int("workers", 0, "Concurrent traces (default 4)")
	cmd.Flags().Int("max-fields-per-target", 0, "Fields traced per target instance, 0 for all")
	return cmd
}

func runLineage(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	mappings, err := cmdCtx.Mappings()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	outputs := make([]LineageOutput, 0, len(mappings))
	for _, m := range mappings {
		started := time.Now()
		traces, err := analysis.TraceTargets(ctx, m, cmdCtx.BatchOptions(m))
		if err != nil {
			return fmt.Errorf("failed to trace %s: %w", m.Name, err)
		}
		records := analysis.Records(traces)
		cmdCtx.Record(ctx, started, cmdCtx.Analyze(m), records)
		outputs = append(outputs, LineageOutput{Mapping: m.Name, Fields: len(traces), Records: records})
	}

	r := cmdCtx.Renderer
	if structured(r) {
		var all []core.LineageRecord
		for _, o := range outputs {
			all = append(all, o.Records...)
		}
		return emit(r, export.LineageTable(all), outputs)
	}

	for _, o := range outputs {
		r.Header(2, o.Mapping)
		if err := emit(r, export.LineageTable(o.Records), nil); err != nil {
			return err
		}
		r.Println("")
		r.StatusLine("Fields traced", strconv.Itoa(o.Fields))
		r.StatusLine("Lineage records", strconv.Itoa(len(o.Records)))
		r.Println("")
	}
	return nil
}
