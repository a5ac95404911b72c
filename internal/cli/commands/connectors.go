package commands

import (
	"github.com/leapstack-labs/leapmap/internal/analysis"
	"github.com/leapstack-labs/leapmap/internal/export"
	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/spf13/cobra"
)

// NewConnectorsCommand creates the connectors command.
func NewConnectorsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connectors",
		Short: "List enriched connectors",
		Long: `List connectors annotated with transformation order, execution level,
parallel group and transformation logic, across all selected mappings.

Filters combine: --name matches mapping names by substring, --type matches
the from or to instance type by substring (both case-insensitive) and
--order keeps a single transformation order.`,
		Example: `  # Connectors into aggregators at order 3
  leapmap connectors --type aggregator --order 3

  # Export for a spreadsheet
  leapmap connectors -o csv > connectors.csv`,
		Args: cobra.NoArgs,
		RunE: runConnectors,
	}

	cmd.Flags().String("name", "", "Mapping name substring")
	cmd.Flags().String("type", "", "Instance type substring (from or to)")
	cmd.Flags().Int("order", 0, "Exact transformation order")
	return cmd
}

func runConnectors(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	mappings, err := cmdCtx.Mappings()
	if err != nil {
		return err
	}

	filter := analysis.Filter{}
	filter.Mapping, _ = cmd.Flags().GetString("name")
	filter.InstanceType, _ = cmd.Flags().GetString("type")
	if cmd.Flags().Changed("order") {
		order, _ := cmd.Flags().GetInt("order")
		filter.Order = &order
	}

	var connectors []core.EnrichedConnector
	for _, m := range mappings {
		connectors = append(connectors, filter.Apply(cmdCtx.Analyze(m).Connectors)...)
	}
	if connectors == nil {
		connectors = []core.EnrichedConnector{}
	}

	return cmdCtx.Emit(export.ConnectorTable(connectors), connectors)
}
