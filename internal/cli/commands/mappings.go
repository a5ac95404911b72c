package commands

import (
	"strconv"

	"github.com/leapstack-labs/leapmap/internal/export"
	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/spf13/cobra"
)

// MappingInfo is one row of the mappings listing.
type MappingInfo struct {
	Number      int    `json:"number" yaml:"number"`
	Name        string `json:"name" yaml:"name"`
	Folder      string `json:"folder" yaml:"folder"`
	Valid       bool   `json:"valid" yaml:"valid"`
	Instances   int    `json:"instances" yaml:"instances"`
	Connectors  int    `json:"connectors" yaml:"connectors"`
	Sources     int    `json:"sources" yaml:"sources"`
	Targets     int    `json:"targets" yaml:"targets"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// NewMappingsCommand creates the mappings command.
func NewMappingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "mappings",
		Aliases: []string{"ls"},
		Short:   "List the mappings of a metadata export",
		Long: `List every mapping in the input export with its folder and
instance, connector, source and target counts.`,
		Example: `  # List mappings
  leapmap mappings --input exports/sales.xml

  # As JSON
  leapmap mappings -o json`,
		Args: cobra.NoArgs,
		RunE: runMappings,
	}
}

func runMappings(cmd *cobra.Command, _ []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	mappings, err := cmdCtx.Mappings()
	if err != nil {
		return err
	}

	infos := make([]MappingInfo, 0, len(mappings))
	for _, m := range mappings {
		infos = append(infos, MappingInfo{
			Number:      cmdCtx.MappingNumber(m),
			Name:        m.Name,
			Folder:      m.Folder,
			Valid:       m.IsValid,
			Instances:   len(m.Instances),
			Connectors:  len(m.Connectors),
			Sources:     len(m.InstancesOfType(core.InstanceTypeSource)),
			Targets:     len(m.InstancesOfType(core.InstanceTypeTarget)),
			Description: m.Description,
		})
	}

	t := &export.Table{Columns: []string{"#", "Mapping", "Folder", "Valid", "Instances", "Connectors", "Sources", "Targets"}}
	for _, info := range infos {
		t.Append(strconv.Itoa(info.Number), info.Name, info.Folder, strconv.FormatBool(info.Valid),
			strconv.Itoa(info.Instances), strconv.Itoa(info.Connectors),
			strconv.Itoa(info.Sources), strconv.Itoa(info.Targets))
	}
	return cmdCtx.Emit(t, infos)
}
