// Package analysis runs the ordering pipeline over a mapping and enriches its connectors.
//
// Analyze builds the instance graph, assigns levels, partitions each level
// into parallel groups and attaches transformation logic to every connector.
// Every call builds its own Result; nothing is cached between calls.
package analysis

import (
	"log/slog"

	"github.com/leapstack-labs/leapmap/internal/dag"
	"github.com/leapstack-labs/leapmap/internal/logic"
	"github.com/leapstack-labs/leapmap/internal/ordering"
	"github.com/leapstack-labs/leapmap/pkg/core"
)

// Options configures Analyze.
type Options struct {
	// MappingNumber is the 1-based position of the mapping in its export.
	MappingNumber int
	Logger        *slog.Logger
}

// Result is everything Analyze derives from one mapping.
type Result struct {
	Mapping       *core.Mapping
	MappingNumber int
	Graph         *dag.Graph
	Levels        *ordering.Levels
	Groups        *ordering.Groups
	Degraded      bool
	RemovedEdges  []dag.Edge
	// Logic holds the extracted logic text keyed by instance name.
	Logic      map[string]string
	Connectors []core.EnrichedConnector
}

// Analyze orders a mapping and enriches its connectors.
func Analyze(m *core.Mapping, opts Options) *Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With(slog.String("mapping", m.Name))

	g := ordering.Build(m.Instances, m.Connectors)
	levels := ordering.AssignLevels(g)
	groups := ordering.Partition(g, levels)

	result := &Result{
		Mapping:       m,
		MappingNumber: opts.MappingNumber,
		Graph:         g,
		Levels:        levels,
		Groups:        groups,
		Degraded:      levels.Degraded,
		RemovedEdges:  levels.RemovedEdges,
		Logic:         extractLogic(m),
	}

	if levels.Degraded {
		logger.Warn("ordering degraded to insertion order",
			slog.Int("components", len(levels.DegradedComponents)),
			slog.Int("removed_edges", len(levels.RemovedEdges)))
	}

	result.Connectors = make([]core.EnrichedConnector, 0, len(m.Connectors))
	for _, c := range m.Connectors {
		result.Connectors = append(result.Connectors, result.enrich(c))
	}

	logger.Debug("mapping analyzed",
		slog.Int("nodes", g.NodeCount()),
		slog.Int("edges", g.EdgeCount()),
		slog.Int("max_level", levels.Max()),
		slog.Int("groups", len(groups.Members)))

	return result
}

func (r *Result) enrich(c *core.Connector) core.EnrichedConnector {
	to := c.ToNode()
	order := r.Levels.ByNode[to]

	text, ok := r.Logic[c.ToInstance]
	if !ok {
		text = r.Logic[c.FromInstance]
	}

	return core.EnrichedConnector{
		MappingNumber:  r.MappingNumber,
		MappingName:    r.Mapping.Name,
		Connector:      *c,
		Order:          order,
		ExecutionLevel: max(0, order-1),
		ParallelGroup:  r.Groups.ByNode[to],
		GroupLabel:     r.Groups.Labels[to],
		Logic:          text,
	}
}

// Level returns the level of an instance by name, or false if it is not in the graph.
func (r *Result) Level(instance string) (int, bool) {
	for _, id := range r.Graph.NodeIDs() {
		if inst, ok := ordering.InstanceOf(r.Graph, id); ok && inst.Name == instance {
			return r.Levels.ByNode[id], true
		}
	}
	return 0, false
}

// extractLogic resolves each instance to its transformation and extracts its logic.
func extractLogic(m *core.Mapping) map[string]string {
	out := make(map[string]string, len(m.Instances))
	for _, inst := range m.Instances {
		if t := transformationOf(m, inst); t != nil {
			out[inst.Name] = logic.Extract(t)
		}
	}
	// Connector endpoints without an instance declaration
	for _, c := range m.Connectors {
		for _, name := range []string{c.FromInstance, c.ToInstance} {
			if _, ok := out[name]; ok {
				continue
			}
			if t, ok := m.Transformation(name); ok {
				out[name] = logic.Extract(t)
			}
		}
	}
	return out
}

func transformationOf(m *core.Mapping, inst *core.Instance) *core.Transformation {
	if inst.TransformationName != "" {
		if t, ok := m.Transformation(inst.TransformationName); ok {
			return t
		}
	}
	t, _ := m.Transformation(inst.Name)
	return t
}
