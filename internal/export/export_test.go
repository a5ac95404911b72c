package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapmap/internal/analysis"
	"github.com/leapstack-labs/leapmap/internal/testutil"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

func ordersResult(t *testing.T) *analysis.Result {
	t.Helper()
	return analysis.Analyze(testutil.OrdersMapping(), analysis.Options{MappingNumber: 1})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"text", FormatText, false},
		{"table", FormatText, false},
		{"md", FormatMarkdown, false},
		{"markdown", FormatMarkdown, false},
		{"csv", FormatCSV, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unknown export format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConnectorTable(t *testing.T) {
	res := ordersResult(t)
	tbl := ConnectorTable(res.Connectors)

	require.Len(t, tbl.Rows, len(res.Connectors))
	assert.Equal(t, ConnectorColumns, tbl.Columns)
	first := tbl.Rows[0]
	assert.Equal(t, "1", first[0])
	assert.Equal(t, "m_load_orders", first[1])
	assert.Equal(t, "ORDERS", first[3])
	assert.Equal(t, "SQ_ORDERS", first[6])
	assert.Equal(t, "2", first[8])
	assert.Equal(t, "1", first[9])
}

func TestRenderCSV(t *testing.T) {
	res := ordersResult(t)
	var buf bytes.Buffer
	require.NoError(t, RenderCSV(&buf, ConnectorTable(res.Connectors)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, len(res.Connectors)+1)
	assert.Contains(t, lines[0], "FROMFIELD")
	assert.Contains(t, lines[0], "transformation_logic")
	assert.Contains(t, lines[1], "m_load_orders")
}

func TestRenderText(t *testing.T) {
	tbl := &Table{Columns: []string{"Metric", "Value"}}
	tbl.Append("Nodes", "5")

	var buf bytes.Buffer
	require.NoError(t, RenderText(&buf, tbl))
	out := buf.String()
	assert.Contains(t, out, "Nodes")
	assert.Contains(t, out, "(1 rows)")

	buf.Reset()
	require.NoError(t, RenderText(&buf, &Table{Columns: []string{"A"}}))
	assert.Equal(t, "(0 rows)\n", buf.String())
}

func TestRenderMarkdown(t *testing.T) {
	tbl := &Table{Columns: []string{"Level", "Instance"}}
	tbl.Append("1", "ORDERS")

	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, tbl))
	out := buf.String()
	assert.Contains(t, out, "| Level")
	assert.Contains(t, out, "ORDERS")
	assert.Contains(t, out, "---")
}

func TestRenderRejectsStructuredFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, FormatJSON, &Table{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not tabular")
}

func TestLineageTable(t *testing.T) {
	records := []core.LineageRecord{{
		TargetTable:    "DW_ORDERS",
		TargetField:    "ORDER_TOTAL",
		TargetDataType: "decimal(12,2)",
		SourceTable:    "ORDERS",
		SourceField:    "PRICE",
		SourceDataType: "decimal(10,2)",
		Path:           []string{"SQ_ORDERS", "EXP_TOTAL", "FIL_POSITIVE", "DW_ORDERS"},
		Logic:          []string{"Expression: PRICE * QTY", "Filter transformation"},
		HopCount:       2,
	}}

	tbl := LineageTable(records)
	require.Len(t, tbl.Rows, 1)
	row := tbl.Rows[0]
	assert.Equal(t, "SQ_ORDERS -> EXP_TOTAL -> FIL_POSITIVE -> DW_ORDERS", row[6])
	assert.Equal(t, "Expression: PRICE * QTY | Filter transformation", row[7])
	assert.Equal(t, "2", row[8])
	assert.Equal(t, "false", row[9])
}

func TestLevelRows(t *testing.T) {
	rows := LevelRows(ordersResult(t))
	require.Len(t, rows, 5)

	for i := 1; i < len(rows); i++ {
		assert.LessOrEqual(t, rows[i-1].Level, rows[i].Level)
	}
	assert.Equal(t, "ORDERS", rows[0].Instance)
	assert.Equal(t, "DW_ORDERS", rows[4].Instance)
	assert.Equal(t, "comp_0_level_4_group_4", rows[4].GroupLabel)

	tbl := LevelTable(rows)
	assert.Equal(t, "Target Definition", tbl.Rows[4][2])
}

func TestSummaryTable(t *testing.T) {
	tbl := SummaryTable(ordersResult(t).Summary())

	values := make(map[string][]string)
	for _, r := range tbl.Rows {
		values[r[0]] = append(values[r[0]], r[1])
	}
	assert.Equal(t, []string{"m_load_orders"}, values["Mapping"])
	assert.Equal(t, []string{"DW_ORDERS (load order 1)"}, values["Target"])
	assert.Equal(t, []string{"false"}, values["Degraded ordering"])
	assert.NotEmpty(t, values["Connectors at order 2"])
}

func TestWriteStructured(t *testing.T) {
	m := testutil.OrdersMapping()
	traces, err := analysis.TraceTargets(context.Background(), m, analysis.BatchOptions{})
	require.NoError(t, err)
	records := analysis.Records(traces)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, LineageTable(records), records))
	var decoded []core.LineageRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Len(t, decoded, len(records))
	assert.Contains(t, buf.String(), "\n  {")

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, LineageTable(records), records))
	var generic []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &generic))
	require.Len(t, generic, len(records))
	assert.Equal(t, "DW_ORDERS", generic[0]["target_table"])
}
