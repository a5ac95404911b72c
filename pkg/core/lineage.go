package core

import "strings"

// LineageRecord is one discovered source for a traced target field.
type LineageRecord struct {
	TargetInstance string   `json:"target_instance" yaml:"target_instance"`
	TargetField    string   `json:"target_field" yaml:"target_field"`
	TargetTable    string   `json:"target_table" yaml:"target_table"`
	TargetDataType string   `json:"target_datatype" yaml:"target_datatype"`
	SourceInstance string   `json:"source_instance" yaml:"source_instance"`
	SourceField    string   `json:"source_field" yaml:"source_field"`
	SourceTable    string   `json:"source_table" yaml:"source_table"`
	SourceDataType string   `json:"source_datatype" yaml:"source_datatype"`
	Path           []string `json:"path" yaml:"path"`   // source first, target last
	Logic          []string `json:"logic" yaml:"logic"` // in path order
	HopCount       int      `json:"hop_count" yaml:"hop_count"`
	Direct         bool     `json:"direct_source" yaml:"direct_source"`
}

// PathString renders the path as "A -> B -> C".
func (r LineageRecord) PathString() string {
	return strings.Join(r.Path, " -> ")
}

// LogicString renders the accumulated logic joined by " | ".
func (r LineageRecord) LogicString() string {
	return strings.Join(r.Logic, " | ")
}

// SourceTableName strips the shortcut and source qualifier prefixes from an instance name.
func SourceTableName(instance string) string {
	return strings.ReplaceAll(strings.ReplaceAll(instance, "Shortcut_to_", ""), "SQ_", "")
}

// TargetTableName strips the shortcut prefix from an instance name.
func TargetTableName(instance string) string {
	return strings.ReplaceAll(instance, "Shortcut_to_", "")
}

// EnrichedConnector is a connector annotated with ordering and logic for export.
type EnrichedConnector struct {
	MappingNumber  int    `json:"mapping_number" yaml:"mapping_number"`
	MappingName    string `json:"mapping_name" yaml:"mapping_name"`
	Connector      `yaml:",inline"`
	Order          int    `json:"transformation_order" yaml:"transformation_order"`
	ExecutionLevel int    `json:"execution_level" yaml:"execution_level"`
	ParallelGroup  int    `json:"parallel_group" yaml:"parallel_group"`
	GroupLabel     string `json:"parallel_group_label" yaml:"parallel_group_label"`
	Logic          string `json:"transformation_logic" yaml:"transformation_logic"`
}
