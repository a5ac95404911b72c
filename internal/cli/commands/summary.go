package commands

import (
	"time"

	"github.com/leapstack-labs/leapmap/internal/analysis"
	"github.com/leapstack-labs/leapmap/internal/export"
	"github.com/spf13/cobra"
)

// NewSummaryCommand creates the summary command.
func NewSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Summarize ordering and structure per mapping",
		Long: `Show headline numbers for each mapping: transformation and connector
counts, the deepest order, connectors per order, transformation types,
sources, targets with their load order and the parallel efficiency.`,
		Example: `  leapmap summary
  leapmap summary --mapping m_load_orders -o yaml`,
		Args: cobra.NoArgs,
		RunE: runSummary,
	}
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	mappings, err := cmdCtx.Mappings()
	if err != nil {
		return err
	}

	summaries := make([]analysis.Summary, 0, len(mappings))
	for _, m := range mappings {
		started := time.Now()
		res := cmdCtx.Analyze(m)
		cmdCtx.Record(cmd.Context(), started, res, nil)
		summaries = append(summaries, res.Summary())
	}

	r := cmdCtx.Renderer
	if structured(r) {
		t := &export.Table{Columns: []string{"Mapping", "Metric", "Value"}}
		for _, s := range summaries {
			for _, row := range export.SummaryTable(s).Rows {
				t.Append(s.MappingName, row[0], row[1])
			}
		}
		return emit(r, t, summaries)
	}

	for _, s := range summaries {
		r.Header(2, s.MappingName)
		if err := emit(r, export.SummaryTable(s), nil); err != nil {
			return err
		}
		r.Println("")
	}
	return nil
}
