package core

import "strings"

// Transformation is a typed processing step with ports and attributes.
type Transformation struct {
	Name        string
	Type        string
	Description string
	Reusable    bool
	Fields      []TransformField
	Attributes  []TableAttribute
	// Properties holds element attributes not modeled above (FILTERCONDITION, CONDITION, ...).
	Properties map[string]string
}

// TransformField is a port of a transformation.
type TransformField struct {
	Name         string
	DataType     string
	Precision    string
	Scale        string
	Expression   string
	Description  string
	PortType     string
	DefaultValue string
	GroupBy      bool
	SortKey      bool
}

// TableAttribute is a free-form key/value setting of a transformation.
type TableAttribute struct {
	Name  string
	Value string
}

// Field returns the port with the given name.
func (t *Transformation) Field(name string) (TransformField, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return TransformField{}, false
}

// Attribute returns the value of the first table attribute with the given name.
func (t *Transformation) Attribute(name string) (string, bool) {
	for _, a := range t.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Property returns an element attribute, matching the key case-insensitively.
func (t *Transformation) Property(key string) string {
	if v, ok := t.Properties[key]; ok {
		return v
	}
	for k, v := range t.Properties {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// FormattedDataType renders "type(precision[,scale])".
// The scale is only shown when it is set and not zero.
func (f TransformField) FormattedDataType() string {
	return formatDataType(f.DataType, f.Precision, f.Scale)
}

func formatDataType(dt, precision, scale string) string {
	if precision == "" {
		return dt
	}
	var b strings.Builder
	b.WriteString(dt)
	b.WriteString("(")
	b.WriteString(precision)
	if scale != "" && scale != "0" {
		b.WriteString(",")
		b.WriteString(scale)
	}
	b.WriteString(")")
	return b.String()
}
