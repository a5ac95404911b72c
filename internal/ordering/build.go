// Package ordering derives execution order and parallelism from a mapping's connectors.
//
// Build collapses field-level connectors into an instance graph, AssignLevels
// computes longest-path levels per weakly-connected component, and Partition
// splits each level into groups of mutually independent instances.
package ordering

import (
	"github.com/leapstack-labs/leapmap/internal/dag"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// Build constructs the lineage graph for a mapping.
//
// Nodes are keyed by the instance's qualified name and carry a *core.Instance.
// Instances referenced only by a connector are created on the fly. All
// connectors between the same pair of instances collapse into one edge;
// field detail stays in the connector list.
func Build(instances []*core.Instance, connectors []*core.Connector) *dag.Graph {
	g := dag.NewGraph()

	for _, inst := range instances {
		if inst == nil {
			continue
		}
		g.AddNode(inst.QualifiedName(), inst)
	}

	for _, c := range connectors {
		if c == nil {
			continue
		}
		from, to := c.FromNode(), c.ToNode()
		if _, ok := g.GetNode(from); !ok {
			g.AddNode(from, implicitInstance(c.FromInstance, c.FromInstanceType))
		}
		if _, ok := g.GetNode(to); !ok {
			g.AddNode(to, implicitInstance(c.ToInstance, c.ToInstanceType))
		}
		// Both endpoints exist at this point
		_ = g.AddEdge(from, to)
	}

	return g
}

// implicitInstance synthesizes an instance for a connector endpoint that was never declared.
func implicitInstance(name, transformationType string) *core.Instance {
	typ := core.InstanceTypeTransformation
	switch transformationType {
	case "Source Definition":
		typ = core.InstanceTypeSource
	case "Target Definition":
		typ = core.InstanceTypeTarget
	}
	return &core.Instance{
		Name:               name,
		Type:               typ,
		TransformationType: transformationType,
		TransformationName: name,
	}
}

// InstanceOf returns the instance attached to a graph node.
func InstanceOf(g *dag.Graph, id string) (*core.Instance, bool) {
	node, ok := g.GetNode(id)
	if !ok {
		return nil, false
	}
	inst, ok := node.Data.(*core.Instance)
	return inst, ok
}
