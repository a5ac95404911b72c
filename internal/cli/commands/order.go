package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/leapmap/internal/analysis"
	"github.com/leapstack-labs/leapmap/internal/cli/output"
	"github.com/leapstack-labs/leapmap/internal/dag"
	"github.com/leapstack-labs/leapmap/internal/export"
	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/spf13/cobra"
)

// OrderOutput is the structured form of the order command.
type OrderOutput struct {
	Mapping      string                   `json:"mapping" yaml:"mapping"`
	MaxLevel     int                      `json:"max_level" yaml:"max_level"`
	GroupCount   int                      `json:"group_count" yaml:"group_count"`
	Degraded     bool                     `json:"degraded" yaml:"degraded"`
	RemovedEdges []string                 `json:"removed_edges,omitempty" yaml:"removed_edges,omitempty"`
	Levels       []export.LevelRow        `json:"levels" yaml:"levels"`
	Connectors   []core.EnrichedConnector `json:"connectors,omitempty" yaml:"connectors,omitempty"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Show execution levels and parallel groups",
		Long: `Compute the execution order of each mapping.

Every instance gets a level (1 for entry points, one more than its deepest
upstream instance otherwise; 0 for instances with no connectors) and a
parallel group of instances on the same level with no path between them.
Cycles are broken before ordering and reported as degraded.

Output adapts to environment:
  - Terminal: Styled tables
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Order every mapping in the export
  leapmap order

  # One mapping, with the enriched connectors
  leapmap order --mapping m_load_orders --connectors

  # Output as JSON
  leapmap order -o json`,
		Args: cobra.NoArgs,
		RunE: runOrder,
	}

	cmd.Flags().Bool("connectors", false, "Also list enriched connectors")
	return cmd
}

func runOrder(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	withConnectors, _ := cmd.Flags().GetBool("connectors")

	mappings, err := cmdCtx.Mappings()
	if err != nil {
		return err
	}

	outputs := make([]OrderOutput, 0, len(mappings))
	for _, m := range mappings {
		started := time.Now()
		res := cmdCtx.Analyze(m)
		cmdCtx.Record(cmd.Context(), started, res, nil)
		outputs = append(outputs, orderOutput(res, withConnectors))
	}

	r := cmdCtx.Renderer
	if structured(r) {
		t := &export.Table{Columns: append([]string{"Mapping"}, export.LevelTable(nil).Columns...)}
		for _, o := range outputs {
			for _, row := range export.LevelTable(o.Levels).Rows {
				t.Append(append([]string{o.Mapping}, row...)...)
			}
		}
		return emit(r, t, outputs)
	}

	for _, o := range outputs {
		if err := orderText(r, o); err != nil {
			return err
		}
	}
	return nil
}

func orderOutput(res *analysis.Result, withConnectors bool) OrderOutput {
	o := OrderOutput{
		Mapping:      res.Mapping.Name,
		MaxLevel:     res.Levels.Max(),
		GroupCount:   len(res.Groups.Members),
		Degraded:     res.Degraded,
		RemovedEdges: edgeStrings(res.RemovedEdges),
		Levels:       export.LevelRows(res),
	}
	if withConnectors {
		o.Connectors = res.Connectors
	}
	return o
}

func orderText(r *output.Renderer, o OrderOutput) error {
	r.Header(2, o.Mapping)
	if err := emit(r, export.LevelTable(o.Levels), nil); err != nil {
		return err
	}
	r.Println("")
	r.StatusLine("Levels", strconv.Itoa(o.MaxLevel))
	r.StatusLine("Parallel groups", strconv.Itoa(o.GroupCount))
	if o.Degraded {
		r.StatusLine("Degraded", fmt.Sprintf("yes, removed %v", o.RemovedEdges))
	}
	if o.Connectors != nil {
		r.Println("")
		r.Header(3, "Connectors")
		if err := emit(r, export.ConnectorTable(o.Connectors), nil); err != nil {
			return err
		}
	}
	r.Println("")
	return nil
}

func edgeStrings(edges []dag.Edge) []string {
	if len(edges) == 0 {
		return nil
	}
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.String()
	}
	return out
}
