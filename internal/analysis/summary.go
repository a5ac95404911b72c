package analysis

import (
	"sort"

	"github.com/leapstack-labs/leapmap/internal/ordering"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// TargetSummary describes one target instance and its declared load order.
type TargetSummary struct {
	Name         string `json:"name" yaml:"name"`
	LoadOrder    int    `json:"load_order" yaml:"load_order"`
	HasLoadOrder bool   `json:"has_load_order" yaml:"has_load_order"`
}

// Summary condenses an analysis into headline numbers.
type Summary struct {
	MappingName string `json:"mapping_name" yaml:"mapping_name"`
	// TotalTransformations counts distinct instances that receive connectors.
	TotalTransformations int `json:"total_transformations" yaml:"total_transformations"`
	MaxOrder             int `json:"max_order" yaml:"max_order"`
	// UnconnectedCount counts connectors whose order is 0.
	UnconnectedCount int `json:"unconnected_count" yaml:"unconnected_count"`
	// OrderDistribution counts connectors per order.
	OrderDistribution   map[int]int     `json:"order_distribution" yaml:"order_distribution"`
	TransformationTypes map[string]int  `json:"transformation_types" yaml:"transformation_types"`
	Sources             []string        `json:"sources" yaml:"sources"`
	Targets             []TargetSummary `json:"targets" yaml:"targets"`
	ConnectorCount      int             `json:"connector_count" yaml:"connector_count"`
	NodeCount           int             `json:"node_count" yaml:"node_count"`
	GroupCount          int             `json:"group_count" yaml:"group_count"`
	// ParallelEfficiency is ordered nodes per level, as a percentage.
	ParallelEfficiency float64 `json:"parallel_efficiency" yaml:"parallel_efficiency"`
	Degraded           bool    `json:"degraded" yaml:"degraded"`
}

// Summary computes the headline numbers for the result.
func (r *Result) Summary() Summary {
	s := Summary{
		MappingName:         r.Mapping.Name,
		OrderDistribution:   make(map[int]int),
		TransformationTypes: make(map[string]int),
		ConnectorCount:      len(r.Connectors),
		NodeCount:           r.Graph.NodeCount(),
		GroupCount:          len(r.Groups.Members),
		Degraded:            r.Degraded,
	}

	receivers := make(map[string]bool)
	for _, c := range r.Connectors {
		receivers[c.ToInstance] = true
		if c.Order > s.MaxOrder {
			s.MaxOrder = c.Order
		}
		if c.Order == 0 {
			s.UnconnectedCount++
		}
		s.OrderDistribution[c.Order]++
	}
	s.TotalTransformations = len(receivers)

	for _, id := range r.Graph.NodeIDs() {
		inst, ok := ordering.InstanceOf(r.Graph, id)
		if !ok {
			continue
		}
		switch inst.Role() {
		case core.RoleSource:
			s.Sources = append(s.Sources, inst.Name)
		case core.RoleTarget:
			ts := TargetSummary{Name: inst.Name}
			ts.LoadOrder, ts.HasLoadOrder = r.Mapping.LoadOrder(inst.Name)
			s.Targets = append(s.Targets, ts)
		default:
			s.TransformationTypes[inst.TransformationType]++
		}
	}
	sort.SliceStable(s.Targets, func(i, j int) bool {
		a, b := s.Targets[i], s.Targets[j]
		if a.HasLoadOrder != b.HasLoadOrder {
			return a.HasLoadOrder
		}
		return a.LoadOrder < b.LoadOrder
	})

	ordered := 0
	for _, lvl := range r.Levels.ByNode {
		if lvl > 0 {
			ordered++
		}
	}
	if maxLevel := r.Levels.Max(); maxLevel > 0 {
		s.ParallelEfficiency = float64(ordered) / float64(maxLevel) * 100
	}

	return s
}
