package logic

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		tr   *core.Transformation
		want string
	}{
		{
			name: "expression lists assignments",
			tr: &core.Transformation{
				Type: "Expression",
				Fields: []core.TransformField{
					{Name: "ID"},
					{Name: "FULL_NAME", Expression: "FIRST || ' ' || LAST"},
					{Name: "BLANK", Expression: "   "},
					{Name: "FLAG", Expression: "IIF(ACTIVE, 1, 0)"},
				},
			},
			want: "FULL_NAME = FIRST || ' ' || LAST; FLAG = IIF(ACTIVE, 1, 0)",
		},
		{
			name: "type match ignores case and suffix",
			tr: &core.Transformation{
				Type:   "EXPRESSION Transformation",
				Fields: []core.TransformField{{Name: "X", Expression: "1"}},
			},
			want: "X = 1",
		},
		{
			name: "filter from property",
			tr: &core.Transformation{
				Type:       "Filter",
				Properties: map[string]string{"FILTERCONDITION": "STATUS = 'A'"},
				Attributes: []core.TableAttribute{{Name: "Filter Condition", Value: "ignored"}},
			},
			want: "Filter: STATUS = 'A'",
		},
		{
			name: "filter from table attribute",
			tr: &core.Transformation{
				Type:       "Filter",
				Attributes: []core.TableAttribute{{Name: "Tracing Level", Value: "Normal"}, {Name: "Filter Condition", Value: "AMOUNT > 0"}},
			},
			want: "Filter: AMOUNT > 0",
		},
		{
			name: "lookup procedure",
			tr: &core.Transformation{
				Type: "Lookup Procedure",
				Attributes: []core.TableAttribute{
					{Name: "Lookup table name", Value: "DIM_CUSTOMER"},
					{Name: "Lookup condition", Value: "CUST_ID = IN_CUST_ID"},
				},
			},
			want: "Lookup: CUST_ID = IN_CUST_ID; Table: DIM_CUSTOMER",
		},
		{
			name: "aggregator",
			tr: &core.Transformation{
				Type: "Aggregator",
				Fields: []core.TransformField{
					{Name: "REGION", GroupBy: true},
					{Name: "TOTAL", Expression: "SUM(AMOUNT)"},
					{Name: "PASS"},
				},
			},
			want: "GROUP BY: REGION; TOTAL = SUM(AMOUNT)",
		},
		{
			name: "sorter",
			tr: &core.Transformation{
				Type:   "Sorter",
				Fields: []core.TransformField{{Name: "A", SortKey: true}, {Name: "B"}, {Name: "C", SortKey: true}},
			},
			want: "SORT BY: A; SORT BY: C",
		},
		{
			name: "source qualifier lists fields and non-metadata attributes",
			tr: &core.Transformation{
				Type:   "Source Qualifier",
				Fields: []core.TransformField{{Name: "ID"}},
				Attributes: []core.TableAttribute{
					{Name: "Sql Query", Value: "SELECT ID FROM ORDERS"},
					{Name: "Version Number", Value: "3"},
					{Name: "Empty", Value: "  "},
				},
			},
			want: "Field: ID; Sql Query: SELECT ID FROM ORDERS",
		},
		{
			name: "default case",
			tr: &core.Transformation{
				Type:       "Router",
				Fields:     []core.TransformField{{Name: "A"}, {Name: "B"}},
				Attributes: []core.TableAttribute{{Name: "UUID", Value: "abc"}},
			},
			want: "Field: A; Field: B",
		},
		{
			name: "fallback when nothing found",
			tr:   &core.Transformation{Type: "Filter"},
			want: "Filter transformation",
		},
		{
			name: "fallback for empty sorter",
			tr:   &core.Transformation{Type: "Sorter", Fields: []core.TransformField{{Name: "A"}}},
			want: "Sorter transformation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.tr))
		})
	}
}

func TestExtract_NilTransformation(t *testing.T) {
	assert.Equal(t, "Unknown transformation", Extract(nil))
}

func TestForField(t *testing.T) {
	expr := &core.Transformation{
		Name: "EXP",
		Type: "Expression",
		Fields: []core.TransformField{
			{Name: "A", Expression: "B + C"},
			{Name: "LONG", Expression: strings.Repeat("X", 150)},
		},
	}
	lookup := &core.Transformation{
		Name: "LKP",
		Type: "Lookup Procedure",
		Attributes: []core.TableAttribute{
			{Name: "Lookup table name", Value: "DIM"},
			{Name: "Lookup condition", Value: "K = IN_K"},
		},
	}
	filter := &core.Transformation{
		Name:       "FIL",
		Type:       "Filter",
		Attributes: []core.TableAttribute{{Name: "Filter Condition", Value: "X > 1"}},
	}

	tests := []struct {
		name  string
		tr    *core.Transformation
		field string
		want  string
	}{
		{"expression field", expr, "A", "Type: Expression | Expression: B + C"},
		{"expression without field", expr, "", "Type: Expression"},
		{"expression unknown field", expr, "Z", "Type: Expression"},
		{"truncated expression", expr, "LONG", "Type: Expression | Expression: " + strings.Repeat("X", 97) + "..."},
		{"lookup", lookup, "K", "Type: Lookup Procedure | Table: DIM | Condition: K = IN_K"},
		{"filter", filter, "X", "Type: Filter | Condition: X > 1"},
		{"other type", &core.Transformation{Type: "Router"}, "A", "Type: Router"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ForField(tt.tr, tt.tr.Name, tt.field))
		})
	}

	assert.Equal(t, "Type: Unknown (ORDERS_TGT)", ForField(nil, "ORDERS_TGT", "ID"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short"))
	assert.Len(t, Truncate(strings.Repeat("a", 101)), 100)
	assert.Equal(t, strings.Repeat("a", 100), Truncate(strings.Repeat("a", 100)))
}
