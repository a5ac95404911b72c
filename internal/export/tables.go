package export

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/leapstack-labs/leapmap/internal/analysis"
	"github.com/leapstack-labs/leapmap/internal/ordering"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// ConnectorColumns are the enriched connector CSV headers.
var ConnectorColumns = []string{
	"mapping_number", "mapping_name",
	"FROMFIELD", "FROMINSTANCE", "FROMINSTANCETYPE",
	"TOFIELD", "TOINSTANCE", "TOINSTANCETYPE",
	"transformation_order", "execution_level", "parallel_group", "transformation_logic",
}

// LineageColumns are the lineage record CSV headers.
var LineageColumns = []string{
	"Target_Table", "Target_Column", "Target_DataType",
	"Source_Table", "Source_Column", "Source_DataType",
	"Transformation_Path", "Transformation_Logic", "Transformation_Count", "Direct_Source",
}

// ConnectorTable lays out enriched connectors.
func ConnectorTable(conns []core.EnrichedConnector) *Table {
	t := &Table{Columns: ConnectorColumns}
	for _, c := range conns {
		t.Append(
			strconv.Itoa(c.MappingNumber), c.MappingName,
			c.FromField, c.FromInstance, c.FromInstanceType,
			c.ToField, c.ToInstance, c.ToInstanceType,
			strconv.Itoa(c.Order), strconv.Itoa(c.ExecutionLevel), strconv.Itoa(c.ParallelGroup), c.Logic,
		)
	}
	return t
}

// LineageTable lays out lineage records.
func LineageTable(records []core.LineageRecord) *Table {
	t := &Table{Columns: LineageColumns}
	for _, r := range records {
		t.Append(
			r.TargetTable, r.TargetField, r.TargetDataType,
			r.SourceTable, r.SourceField, r.SourceDataType,
			r.PathString(), r.LogicString(), strconv.Itoa(r.HopCount), strconv.FormatBool(r.Direct),
		)
	}
	return t
}

// LevelRow is one node of an ordering report.
type LevelRow struct {
	Node       string `json:"node" yaml:"node"`
	Instance   string `json:"instance" yaml:"instance"`
	Type       string `json:"type" yaml:"type"`
	Level      int    `json:"level" yaml:"level"`
	Group      int    `json:"parallel_group" yaml:"parallel_group"`
	GroupLabel string `json:"parallel_group_label" yaml:"parallel_group_label"`
	Logic      string `json:"logic,omitempty" yaml:"logic,omitempty"`
}

// LevelRows lists graph nodes ordered by level, then graph insertion order.
func LevelRows(res *analysis.Result) []LevelRow {
	var rows []LevelRow
	for _, id := range res.Graph.NodeIDs() {
		row := LevelRow{
			Node:       id,
			Level:      res.Levels.ByNode[id],
			Group:      res.Groups.ByNode[id],
			GroupLabel: res.Groups.Labels[id],
		}
		if inst, ok := ordering.InstanceOf(res.Graph, id); ok {
			row.Instance = inst.Name
			row.Type = inst.TransformationType
			row.Logic = res.Logic[inst.Name]
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Level < rows[j].Level })
	return rows
}

// LevelTable lays out level rows.
func LevelTable(rows []LevelRow) *Table {
	t := &Table{Columns: []string{"Level", "Instance", "Type", "Parallel Group", "Logic"}}
	for _, r := range rows {
		t.Append(strconv.Itoa(r.Level), r.Instance, r.Type, r.GroupLabel, r.Logic)
	}
	return t
}

// SummaryTable lays out a summary as metric/value pairs.
func SummaryTable(s analysis.Summary) *Table {
	t := &Table{Columns: []string{"Metric", "Value"}}
	t.Append("Mapping", s.MappingName)
	t.Append("Total transformations", strconv.Itoa(s.TotalTransformations))
	t.Append("Max order", strconv.Itoa(s.MaxOrder))
	t.Append("Unconnected connectors", strconv.Itoa(s.UnconnectedCount))
	t.Append("Connectors", strconv.Itoa(s.ConnectorCount))
	t.Append("Nodes", strconv.Itoa(s.NodeCount))
	t.Append("Parallel groups", strconv.Itoa(s.GroupCount))
	t.Append("Parallel efficiency", fmt.Sprintf("%.1f%%", s.ParallelEfficiency))
	t.Append("Degraded ordering", strconv.FormatBool(s.Degraded))

	for _, order := range sortedKeys(s.OrderDistribution) {
		t.Append(fmt.Sprintf("Connectors at order %d", order), strconv.Itoa(s.OrderDistribution[order]))
	}

	types := make([]string, 0, len(s.TransformationTypes))
	for typ := range s.TransformationTypes {
		types = append(types, typ)
	}
	sort.Strings(types)
	for _, typ := range types {
		t.Append("Type: "+typ, strconv.Itoa(s.TransformationTypes[typ]))
	}

	for _, src := range s.Sources {
		t.Append("Source", src)
	}
	for _, tgt := range s.Targets {
		v := tgt.Name
		if tgt.HasLoadOrder {
			v = fmt.Sprintf("%s (load order %d)", tgt.Name, tgt.LoadOrder)
		}
		t.Append("Target", v)
	}
	return t
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
