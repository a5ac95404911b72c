package ordering

import (
	"github.com/leapstack-labs/leapmap/internal/dag"
)

// IsolatedLevel is the level given to single-node components.
const IsolatedLevel = 0

// Levels is the result of AssignLevels.
type Levels struct {
	// ByNode maps every node to its 1-based level, or IsolatedLevel.
	ByNode map[string]int
	// Degraded is set when a component could not be ordered topologically
	// and fell back to insertion order, or when numbering fell back to sequential.
	Degraded bool
	// RemovedEdges lists the edges dropped while breaking cycles.
	RemovedEdges []dag.Edge
	// Components holds the weakly-connected components in discovery order.
	Components [][]string
	// DegradedComponents holds the indexes of components ordered in fallback mode.
	DegradedComponents []int
}

// Max returns the highest assigned level.
func (l *Levels) Max() int {
	highest := 0
	for _, lvl := range l.ByNode {
		if lvl > highest {
			highest = lvl
		}
	}
	return highest
}

// ComponentOf returns the index of the component containing id, or -1.
func (l *Levels) ComponentOf(id string) int {
	for i, comp := range l.Components {
		for _, member := range comp {
			if member == id {
				return i
			}
		}
	}
	return -1
}

// AssignLevels computes longest-path levels for every node of g.
//
// Each weakly-connected component is handled on its own. Single-node
// components get IsolatedLevel. In larger components the entry nodes
// (in-degree 0, or the minimum in-degree when every node has incoming edges)
// start at level 1 and every other node sits one level below its deepest
// already-placed predecessor. Cycles are broken by removing, per strongly
// connected component, the edge from the first highest out-degree node to
// the first lowest in-degree node. If that does not yield an order the
// component is walked in insertion order and Degraded is set.
//
// AssignLevels never panics; an unexpected failure numbers all nodes
// sequentially and sets Degraded.
func AssignLevels(g *dag.Graph) (result *Levels) {
	defer func() {
		if r := recover(); r != nil {
			result = sequentialLevels(g)
		}
	}()

	result = &Levels{ByNode: make(map[string]int, g.NodeCount())}

	for ci, comp := range g.WeakComponents() {
		result.Components = append(result.Components, comp)

		if len(comp) == 1 {
			result.ByNode[comp[0]] = IsolatedLevel
			continue
		}

		sub := g.Subgraph(comp)
		internal, removed, degraded := componentLevels(sub)
		result.RemovedEdges = append(result.RemovedEdges, removed...)
		if degraded {
			result.Degraded = true
			result.DegradedComponents = append(result.DegradedComponents, ci)
		}
		for id, lvl := range internal {
			result.ByNode[id] = lvl + 1
		}
	}

	return result
}

// componentLevels assigns 0-based longest-path levels within one component.
func componentLevels(sub *dag.Graph) (map[string]int, []dag.Edge, bool) {
	sources := entryNodes(sub)

	var removed []dag.Edge
	degraded := false

	order, err := sub.TopologicalSort()
	if err != nil {
		order, removed, err = breakCycles(sub)
		if err != nil {
			order = sub.NodeIDs()
			degraded = true
		}
	}

	levels := make(map[string]int, len(order))
	for _, id := range order {
		if sources[id] {
			levels[id] = 0
			continue
		}
		// Predecessors come from the original component, not the repaired copy
		parents := sub.GetParents(id)
		if len(parents) == 0 {
			levels[id] = 0
			continue
		}
		highest := 0
		for _, p := range parents {
			if lvl, ok := levels[p]; ok && lvl > highest {
				highest = lvl
			}
		}
		levels[id] = highest + 1
	}

	return levels, removed, degraded
}

// entryNodes returns the nodes with in-degree 0, or with the minimum in-degree if none exist.
func entryNodes(sub *dag.Graph) map[string]bool {
	sources := make(map[string]bool)
	minIn := -1
	for _, id := range sub.NodeIDs() {
		in := sub.InDegree(id)
		if in == 0 {
			sources[id] = true
		}
		if minIn < 0 || in < minIn {
			minIn = in
		}
	}
	if len(sources) > 0 {
		return sources
	}
	for _, id := range sub.NodeIDs() {
		if sub.InDegree(id) == minIn {
			sources[id] = true
		}
	}
	return sources
}

// breakCycles repeatedly removes one edge per non-trivial SCC from a working copy
// until it sorts topologically. It gives up when a round removes nothing or the
// round budget (the SCC count of the component) is spent.
func breakCycles(sub *dag.Graph) ([]string, []dag.Edge, error) {
	work := sub.Clone()
	var removed []dag.Edge

	rounds := len(work.StronglyConnectedComponents())
	for round := 0; round < rounds; round++ {
		progress := false
		for _, scc := range work.StronglyConnectedComponents() {
			if len(scc) < 2 {
				continue
			}
			from, to := cycleBreakEdge(work, scc)
			if from != to && work.RemoveEdge(from, to) {
				removed = append(removed, dag.Edge{From: from, To: to})
				progress = true
			}
		}

		order, err := work.TopologicalSort()
		if err == nil {
			return order, removed, nil
		}
		if !progress {
			return nil, removed, err
		}
	}

	order, err := work.TopologicalSort()
	return order, removed, err
}

// cycleBreakEdge picks the first node with the highest out-degree and the first
// node with the lowest in-degree, both counted inside the SCC.
func cycleBreakEdge(g *dag.Graph, scc []string) (string, string) {
	members := make(map[string]bool, len(scc))
	for _, id := range scc {
		members[id] = true
	}

	var maxOut, minIn string
	maxOutDeg, minInDeg := -1, -1
	for _, id := range scc {
		out := 0
		for _, c := range g.GetChildren(id) {
			if members[c] {
				out++
			}
		}
		in := 0
		for _, p := range g.GetParents(id) {
			if members[p] {
				in++
			}
		}
		if out > maxOutDeg {
			maxOut, maxOutDeg = id, out
		}
		if minInDeg < 0 || in < minInDeg {
			minIn, minInDeg = id, in
		}
	}
	return maxOut, minIn
}

// sequentialLevels numbers nodes 1..n in insertion order.
func sequentialLevels(g *dag.Graph) *Levels {
	result := &Levels{
		ByNode:   make(map[string]int, g.NodeCount()),
		Degraded: true,
	}
	ids := g.NodeIDs()
	for i, id := range ids {
		result.ByNode[id] = i + 1
	}
	result.Components = [][]string{ids}
	result.DegradedComponents = []int{0}
	return result
}
