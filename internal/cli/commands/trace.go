package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/leapmap/internal/cli/output"
	"github.com/leapstack-labs/leapmap/internal/export"
	"github.com/leapstack-labs/leapmap/internal/lineage"
	"github.com/spf13/cobra"
)

// NewTraceCommand creates the trace command.
func NewTraceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trace <instance> <field>",
		Short: "Trace one field back to its sources",
		Long: `Walk upstream from a field of an instance to every source it is
derived from, following connectors and expression references.

Each result lists the path from the source to the traced field, the logic
applied along the way and the number of intermediate steps. Branches that
run out of connectors, or exceed --max-depth, are reported separately.

The instance may be declared in the mapping or only named by its connectors.`,
		Example: `  # Where does DW_ORDERS.ORDER_TOTAL come from?
  leapmap trace DW_ORDERS ORDER_TOTAL --mapping m_load_orders

  # Match expression references on word boundaries only
  leapmap trace DW_ORDERS ORDER_TOTAL --match-mode word`,
		Args: cobra.ExactArgs(2),
		RunE: runTrace,
	}

	addTraceFlags(cmd)
	return cmd
}

// addTraceFlags registers the flags that override the trace configuration.
func addTraceFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-depth", 0, "Maximum upstream steps per branch (default 20)")
	cmd.Flags().String("match-mode", "", "Expression reference matching: substring|word")
	_ = cmd.RegisterFlagCompletionFunc("match-mode", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"substring", "word"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func runTrace(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	m, err := cmdCtx.Mapping()
	if err != nil {
		return err
	}

	instance, field := args[0], args[1]
	tracer := lineage.NewTracer(m, cmdCtx.TracerOptions(m))
	if !tracer.HasInstance(instance) {
		return fmt.Errorf("instance %q not found in mapping %s", instance, m.Name)
	}

	res, err := tracer.Trace(cmd.Context(), instance, field)
	if err != nil {
		return fmt.Errorf("failed to trace %s.%s: %w", instance, field, err)
	}

	r := cmdCtx.Renderer
	if structured(r) {
		return emit(r, export.LineageTable(res.Records), res)
	}
	return traceText(r, res)
}

func traceText(r *output.Renderer, res *lineage.TraceResult) error {
	r.Header(2, fmt.Sprintf("Lineage of %s.%s", res.TargetInstance, res.TargetField))

	if len(res.Records) == 0 {
		r.Println(r.Muted("No sources found."))
	} else if err := emit(r, export.LineageTable(res.Records), nil); err != nil {
		return err
	}

	r.Println("")
	r.StatusLine("Sources", strconv.Itoa(len(res.Records)))
	r.StatusLine("Expansions", strconv.Itoa(res.Expansions))
	if len(res.DeadEnds) > 0 {
		r.StatusLine("Dead ends", fieldRefs(res.DeadEnds))
	}
	if len(res.DepthExceeded) > 0 {
		r.StatusLine("Depth exceeded", fieldRefs(res.DepthExceeded))
	}
	return nil
}

func fieldRefs(refs []lineage.FieldRef) string {
	var s string
	for i, ref := range refs {
		if i > 0 {
			s += ", "
		}
		s += ref.Instance + "." + ref.Field
	}
	return s
}
