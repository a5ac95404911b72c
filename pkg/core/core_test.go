package core_test

import (
	"fmt"
	"testing"

	"github.com/leapstack-labs/leapmap/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeAcronym(t *testing.T) {
	tests := []struct {
		typ  string
		want string
	}{
		{"Filter", "FILT_"},
		{"Target Definition", "TGT_"},
		{"Source Definition", "SRC_"},
		{"Source Qualifier", "SRCQ_"},
		{"App Multi-Group Source Qualifier", "SRCQ_"},
		{"XML Source Qualifier", "XSRCQ_"},
		{"Expression", "EXPR_"},
		{"Lookup Procedure", "LOOK_"},
		{"Sorter", "Sorter"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			assert.Equal(t, tt.want, core.TypeAcronym(tt.typ))
		})
	}
}

func TestQualifiedNames(t *testing.T) {
	inst := &core.Instance{Name: "EXP_CLEAN", TransformationType: "Expression"}
	assert.Equal(t, "EXPR_EXP_CLEAN", inst.QualifiedName())

	conn := &core.Connector{
		FromInstance: "SQ_ORDERS", FromInstanceType: "Source Qualifier",
		ToInstance: "EXP_CLEAN", ToInstanceType: "Expression",
	}
	assert.Equal(t, "SRCQ_SQ_ORDERS", conn.FromNode())
	assert.Equal(t, inst.QualifiedName(), conn.ToNode())
}

func TestInstanceRole(t *testing.T) {
	assert.Equal(t, core.RoleSource, (&core.Instance{Type: core.InstanceTypeSource}).Role())
	assert.Equal(t, core.RoleTarget, (&core.Instance{Type: core.InstanceTypeTarget}).Role())
	assert.Equal(t, core.RoleIntermediate, (&core.Instance{Type: core.InstanceTypeTransformation}).Role())
}

func TestFormattedDataType(t *testing.T) {
	tests := []struct {
		name  string
		field core.TransformField
		want  string
	}{
		{"no precision", core.TransformField{DataType: "date/time"}, "date/time"},
		{"precision only", core.TransformField{DataType: "string", Precision: "50"}, "string(50)"},
		{"zero scale", core.TransformField{DataType: "decimal", Precision: "10", Scale: "0"}, "decimal(10)"},
		{"scale", core.TransformField{DataType: "decimal", Precision: "10", Scale: "2"}, "decimal(10,2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.field.FormattedDataType())
		})
	}
}

func TestTransformationLookups(t *testing.T) {
	tr := &core.Transformation{
		Name:       "FIL_ACTIVE",
		Type:       "Filter",
		Fields:     []core.TransformField{{Name: "ID"}},
		Attributes: []core.TableAttribute{{Name: "Filter Condition", Value: "ACTIVE = 1"}},
		Properties: map[string]string{"FILTERCONDITION": "ACTIVE = 1"},
	}

	f, ok := tr.Field("ID")
	require.True(t, ok)
	assert.Equal(t, "ID", f.Name)

	_, ok = tr.Field("MISSING")
	assert.False(t, ok)

	v, ok := tr.Attribute("Filter Condition")
	require.True(t, ok)
	assert.Equal(t, "ACTIVE = 1", v)

	assert.Equal(t, "ACTIVE = 1", tr.Property("filtercondition"))
	assert.Empty(t, tr.Property("CONDITION"))
}

func TestLineageRecordStrings(t *testing.T) {
	rec := core.LineageRecord{
		Path:  []string{"SQ_ORDERS", "EXP_CLEAN", "TGT_ORDERS"},
		Logic: []string{"Type: Expression | Expression: TRIM(ID)", "Type: Target"},
	}
	assert.Equal(t, "SQ_ORDERS -> EXP_CLEAN -> TGT_ORDERS", rec.PathString())
	assert.Equal(t, "Type: Expression | Expression: TRIM(ID) | Type: Target", rec.LogicString())

	assert.Equal(t, "ORDERS", core.SourceTableName("Shortcut_to_SQ_ORDERS"))
	assert.Equal(t, "SQ_ORDERS_TGT", core.TargetTableName("Shortcut_to_SQ_ORDERS_TGT"))
}

func TestMappingLookups(t *testing.T) {
	m := &core.Mapping{
		Name: "m_orders",
		Instances: []*core.Instance{
			{Name: "ORDERS", Type: core.InstanceTypeSource},
			{Name: "EXP", Type: core.InstanceTypeTransformation},
			{Name: "ORDERS_TGT", Type: core.InstanceTypeTarget},
		},
		TargetLoadOrders: []core.TargetLoadOrder{{Order: 2, TargetInstance: "ORDERS_TGT"}},
	}

	inst, ok := m.Instance("EXP")
	require.True(t, ok)
	assert.Equal(t, "EXP", inst.Name)

	targets := m.InstancesOfType(core.InstanceTypeTarget)
	require.Len(t, targets, 1)
	assert.Equal(t, "ORDERS_TGT", targets[0].Name)

	order, ok := m.LoadOrder("ORDERS_TGT")
	assert.True(t, ok)
	assert.Equal(t, 2, order)

	_, ok = m.LoadOrder("ORDERS")
	assert.False(t, ok)
}

func TestStructuralError(t *testing.T) {
	err := core.ErrMappingNotFound("mapping %q not found", "m_missing")
	assert.Equal(t, `mapping "m_missing" not found`, err.Error())

	wrapped := fmt.Errorf("analyze: %w", err)
	assert.True(t, core.IsStructural(wrapped))
	assert.False(t, core.IsStructural(fmt.Errorf("other")))
}
