package core

// Instance types as declared on INSTANCE elements.
const (
	InstanceTypeSource         = "SOURCE"
	InstanceTypeTarget         = "TARGET"
	InstanceTypeTransformation = "TRANSFORMATION"
)

// Role is the derived position of an instance in a mapping's data flow.
type Role string

// Role values.
const (
	RoleSource       Role = "source"
	RoleTarget       Role = "target"
	RoleIntermediate Role = "intermediate"
)

// Repository is the root of an exported metadata document.
type Repository struct {
	Name    string
	Folders []*Folder
}

// Folder groups reusable definitions and the mappings that use them.
type Folder struct {
	Name            string
	Sources         []*SourceDefinition
	Targets         []*TargetDefinition
	Transformations []*Transformation // reusable, folder-level
	Mappings        []*Mapping
}

// Mapping is a single ETL data flow: instances wired together by connectors.
type Mapping struct {
	Name             string
	Description      string
	IsValid          bool
	Folder           string
	Transformations  []*Transformation
	Instances        []*Instance
	Connectors       []*Connector
	TargetLoadOrders []TargetLoadOrder
}

// Instance is a named, typed node of a mapping.
type Instance struct {
	Name               string
	Type               string // SOURCE, TARGET or TRANSFORMATION
	TransformationType string // e.g. "Expression", "Source Definition"
	TransformationName string
	Description        string
	Reusable           bool
}

// QualifiedName returns the type-acronym prefixed node name used in the lineage graph.
func (i *Instance) QualifiedName() string {
	return QualifiedName(i.TransformationType, i.Name)
}

// Role derives whether the instance is a source, target or intermediate step.
func (i *Instance) Role() Role {
	switch i.Type {
	case InstanceTypeSource:
		return RoleSource
	case InstanceTypeTarget:
		return RoleTarget
	default:
		return RoleIntermediate
	}
}

// Connector is a directed data link between a field of one instance and a field of another.
type Connector struct {
	FromInstance     string `json:"from_instance" yaml:"from_instance"`
	FromField        string `json:"from_field" yaml:"from_field"`
	FromInstanceType string `json:"from_instance_type" yaml:"from_instance_type"`
	ToInstance       string `json:"to_instance" yaml:"to_instance"`
	ToField          string `json:"to_field" yaml:"to_field"`
	ToInstanceType   string `json:"to_instance_type" yaml:"to_instance_type"`
}

// FromNode returns the qualified graph node of the upstream end.
func (c *Connector) FromNode() string {
	return QualifiedName(c.FromInstanceType, c.FromInstance)
}

// ToNode returns the qualified graph node of the downstream end.
func (c *Connector) ToNode() string {
	return QualifiedName(c.ToInstanceType, c.ToInstance)
}

// TargetLoadOrder records the load order declared for a target instance.
type TargetLoadOrder struct {
	Order          int
	TargetInstance string
}

// DefinitionField is a column of a source or target definition.
type DefinitionField struct {
	Name      string
	DataType  string
	Precision string
	Scale     string
	Nullable  string
	KeyType   string
}

// FormattedDataType renders the field type the same way as TransformField.
func (f DefinitionField) FormattedDataType() string {
	return formatDataType(f.DataType, f.Precision, f.Scale)
}

// SourceDefinition is a folder-level source table definition.
type SourceDefinition struct {
	Name         string
	DatabaseType string
	OwnerName    string
	Fields       []DefinitionField
}

// TargetDefinition is a folder-level target table definition.
type TargetDefinition struct {
	Name         string
	DatabaseType string
	Fields       []DefinitionField
}

// Instance returns the instance with the given name.
func (m *Mapping) Instance(name string) (*Instance, bool) {
	for _, inst := range m.Instances {
		if inst.Name == name {
			return inst, true
		}
	}
	return nil, false
}

// Transformation returns the mapping-level transformation with the given name.
func (m *Mapping) Transformation(name string) (*Transformation, bool) {
	for _, t := range m.Transformations {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// InstancesOfType returns the instances whose declared type matches typ, in declaration order.
func (m *Mapping) InstancesOfType(typ string) []*Instance {
	var out []*Instance
	for _, inst := range m.Instances {
		if inst.Type == typ {
			out = append(out, inst)
		}
	}
	return out
}

// LoadOrder returns the declared target load order for an instance.
func (m *Mapping) LoadOrder(target string) (int, bool) {
	for _, tlo := range m.TargetLoadOrders {
		if tlo.TargetInstance == target {
			return tlo.Order, true
		}
	}
	return 0, false
}
