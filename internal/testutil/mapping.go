package testutil

import "github.com/leapstack-labs/leapmap/pkg/core"

// MappingBuilder assembles small mappings for tests.
type MappingBuilder struct {
	m *core.Mapping
}

// NewMapping starts a mapping with the given name.
func NewMapping(name string) *MappingBuilder {
	return &MappingBuilder{m: &core.Mapping{Name: name, IsValid: true}}
}

// Source declares a SOURCE instance backed by a source definition.
func (b *MappingBuilder) Source(name string) *MappingBuilder {
	b.m.Instances = append(b.m.Instances, &core.Instance{
		Name:               name,
		Type:               core.InstanceTypeSource,
		TransformationType: "Source Definition",
		TransformationName: name,
	})
	return b
}

// Target declares a TARGET instance backed by a target definition.
func (b *MappingBuilder) Target(name string) *MappingBuilder {
	b.m.Instances = append(b.m.Instances, &core.Instance{
		Name:               name,
		Type:               core.InstanceTypeTarget,
		TransformationType: "Target Definition",
		TransformationName: name,
	})
	return b
}

// Transformation declares a transformation and its instance.
func (b *MappingBuilder) Transformation(name, typ string, fields ...core.TransformField) *MappingBuilder {
	b.m.Transformations = append(b.m.Transformations, &core.Transformation{
		Name:       name,
		Type:       typ,
		Fields:     fields,
		Properties: map[string]string{},
	})
	b.m.Instances = append(b.m.Instances, &core.Instance{
		Name:               name,
		Type:               core.InstanceTypeTransformation,
		TransformationType: typ,
		TransformationName: name,
	})
	return b
}

// Connect adds a connector; instance types come from the declared instances.
func (b *MappingBuilder) Connect(from, fromField, to, toField string) *MappingBuilder {
	b.m.Connectors = append(b.m.Connectors, &core.Connector{
		FromInstance:     from,
		FromField:        fromField,
		FromInstanceType: b.typeOf(from),
		ToInstance:       to,
		ToField:          toField,
		ToInstanceType:   b.typeOf(to),
	})
	return b
}

// LoadOrder declares a target load order.
func (b *MappingBuilder) LoadOrder(target string, order int) *MappingBuilder {
	b.m.TargetLoadOrders = append(b.m.TargetLoadOrders, core.TargetLoadOrder{Order: order, TargetInstance: target})
	return b
}

// Build returns the assembled mapping.
func (b *MappingBuilder) Build() *core.Mapping {
	return b.m
}

func (b *MappingBuilder) typeOf(name string) string {
	if inst, ok := b.m.Instance(name); ok {
		return inst.TransformationType
	}
	return ""
}

// OrdersMapping returns the linear ORDERS -> SQ_ORDERS -> EXP_TOTAL -> FIL_POSITIVE -> DW_ORDERS
// mapping, where EXP_TOTAL.TOTAL = PRICE * QTY.
func OrdersMapping() *core.Mapping {
	return NewMapping("m_load_orders").
		Source("ORDERS").
		Transformation("SQ_ORDERS", "Source Qualifier",
			core.TransformField{Name: "ORDER_ID", DataType: "decimal", Precision: "10", Scale: "0"},
			core.TransformField{Name: "PRICE", DataType: "decimal", Precision: "12", Scale: "2"},
			core.TransformField{Name: "QTY", DataType: "integer", Precision: "10", Scale: "0"},
		).
		Transformation("EXP_TOTAL", "Expression",
			core.TransformField{Name: "ORDER_ID", DataType: "decimal", Precision: "10", Scale: "0"},
			core.TransformField{Name: "PRICE", DataType: "decimal", Precision: "12", Scale: "2"},
			core.TransformField{Name: "QTY", DataType: "integer", Precision: "10", Scale: "0"},
			core.TransformField{Name: "TOTAL", DataType: "decimal", Precision: "14", Scale: "2", Expression: "PRICE * QTY"},
		).
		Transformation("FIL_POSITIVE", "Filter",
			core.TransformField{Name: "ORDER_ID", DataType: "decimal", Precision: "10", Scale: "0"},
			core.TransformField{Name: "TOTAL", DataType: "decimal", Precision: "14", Scale: "2"},
		).
		Target("DW_ORDERS").
		Connect("ORDERS", "ORDER_ID", "SQ_ORDERS", "ORDER_ID").
		Connect("ORDERS", "PRICE", "SQ_ORDERS", "PRICE").
		Connect("ORDERS", "QTY", "SQ_ORDERS", "QTY").
		Connect("SQ_ORDERS", "ORDER_ID", "EXP_TOTAL", "ORDER_ID").
		Connect("SQ_ORDERS", "PRICE", "EXP_TOTAL", "PRICE").
		Connect("SQ_ORDERS", "QTY", "EXP_TOTAL", "QTY").
		Connect("EXP_TOTAL", "ORDER_ID", "FIL_POSITIVE", "ORDER_ID").
		Connect("EXP_TOTAL", "TOTAL", "FIL_POSITIVE", "TOTAL").
		Connect("FIL_POSITIVE", "ORDER_ID", "DW_ORDERS", "ORDER_ID").
		Connect("FIL_POSITIVE", "TOTAL", "DW_ORDERS", "ORDER_TOTAL").
		LoadOrder("DW_ORDERS", 1).
		Build()
}
