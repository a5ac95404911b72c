package dag

import (
	"reflect"
	"testing"
)

func newChain(ids ...string) *Graph {
	g := NewGraph()
	for _, id := range ids {
		g.AddNode(id, nil)
	}
	for i := 1; i < len(ids); i++ {
		_ = g.AddEdge(ids[i-1], ids[i])
	}
	return g
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := NewGraph()

	g.AddNode("SRC_ORDERS", "source")
	g.AddNode("EXPR_CLEAN", "expression")
	g.AddNode("TGT_ORDERS", "target")

	if g.NodeCount() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.NodeCount())
	}

	if err := g.AddEdge("SRC_ORDERS", "EXPR_CLEAN"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	if err := g.AddEdge("EXPR_CLEAN", "TGT_ORDERS"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}

	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 edges, got %d", g.EdgeCount())
	}
}

func TestGraph_AddNode_KeepsDataOnNilUpdate(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", "payload")
	g.AddNode("a", nil)

	node, ok := g.GetNode("a")
	if !ok {
		t.Fatal("expected node a")
	}
	if node.Data != "payload" {
		t.Errorf("expected data to be preserved, got %v", node.Data)
	}
	if g.NodeCount() != 1 {
		t.Errorf("expected 1 node, got %d", g.NodeCount())
	}
}

func TestGraph_AddEdge_InvalidNodes(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)

	err := g.AddEdge("a", "nonexistent")
	if err == nil {
		t.Error("expected error for nonexistent child node")
	}

	err = g.AddEdge("nonexistent", "a")
	if err == nil {
		t.Error("expected error for nonexistent parent node")
	}
}

func TestGraph_AddEdge_SelfLoop(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)

	if err := g.AddEdge("a", "a"); err != nil {
		t.Fatalf("self-loop should be retained, got error: %v", err)
	}
	if !g.HasSelfLoop("a") || !g.HasEdge("a", "a") {
		t.Error("expected self-loop to be recorded")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 edge, got %d", g.EdgeCount())
	}
	if g.InDegree("a") != 0 || g.OutDegree("a") != 0 {
		t.Error("self-loop should not count towards degrees")
	}
	if hasCycle, _ := g.HasCycle(); hasCycle {
		t.Error("self-loop alone should not be reported as a cycle")
	}
	if _, err := g.TopologicalSort(); err != nil {
		t.Errorf("self-loop should not block topological sort: %v", err)
	}
}

func TestGraph_GetParentsAndChildren(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddNode("c", nil)

	// b depends on a, c depends on both a and b
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "c")

	parents := g.GetParents("c")
	if len(parents) != 2 {
		t.Errorf("expected c to have 2 parents, got %d", len(parents))
	}

	children := g.GetChildren("a")
	if len(children) != 2 {
		t.Errorf("expected a to have 2 children, got %d", len(children))
	}
}

func TestGraph_RemoveEdge(t *testing.T) {
	g := newChain("a", "b", "c")
	_ = g.AddEdge("b", "b")

	if !g.RemoveEdge("a", "b") {
		t.Error("expected a -> b to be removed")
	}
	if g.RemoveEdge("a", "b") {
		t.Error("removing a missing edge should report false")
	}
	if g.HasEdge("a", "b") || len(g.GetParents("b")) != 0 {
		t.Error("edge a -> b should be gone from both adjacency lists")
	}
	if !g.RemoveEdge("b", "b") {
		t.Error("expected self-loop to be removed")
	}
	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 edge left, got %d", g.EdgeCount())
	}
}

func TestGraph_HasCycle_NoCycle(t *testing.T) {
	g := newChain("a", "b", "c")

	hasCycle, path := g.HasCycle()
	if hasCycle {
		t.Errorf("expected no cycle, but found: %v", path)
	}
}

func TestGraph_HasCycle_WithCycle(t *testing.T) {
	g := newChain("a", "b", "c")
	_ = g.AddEdge("c", "a") // Creates cycle

	hasCycle, path := g.HasCycle()
	if !hasCycle {
		t.Error("expected cycle to be detected")
	}
	if len(path) == 0 {
		t.Error("expected cycle path to be non-empty")
	}
}

func TestGraph_TopologicalSort_InsertionOrderTieBreak(t *testing.T) {
	g := NewGraph()
	g.AddNode("z", nil)
	g.AddNode("a", nil)
	g.AddNode("m", nil)
	_ = g.AddEdge("z", "m")

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}

	want := []string{"z", "a", "m"}
	if !reflect.DeepEqual(sorted, want) {
		t.Errorf("expected %v, got %v", want, sorted)
	}
}

func TestGraph_TopologicalSort_Diamond(t *testing.T) {
	// Diamond dependency: a -> b, a -> c, b -> d, c -> d
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddNode("c", nil)
	g.AddNode("d", nil)

	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "d")
	_ = g.AddEdge("c", "d")

	sorted, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("failed to sort: %v", err)
	}

	want := []string{"a", "b", "c", "d"}
	if !reflect.DeepEqual(sorted, want) {
		t.Errorf("expected %v, got %v", want, sorted)
	}
}

func TestGraph_TopologicalSort_WithCycle(t *testing.T) {
	g := newChain("a", "b")
	_ = g.AddEdge("b", "a") // Cycle

	_, err := g.TopologicalSort()
	if err == nil {
		t.Error("expected error for cyclic graph")
	}
}

func TestGraph_WeakComponents(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "x", "b", "y", "lonely"} {
		g.AddNode(id, nil)
	}
	_ = g.AddEdge("b", "a")
	_ = g.AddEdge("x", "y")

	components := g.WeakComponents()
	want := [][]string{{"a", "b"}, {"x", "y"}, {"lonely"}}
	if !reflect.DeepEqual(components, want) {
		t.Errorf("expected %v, got %v", want, components)
	}
}

func TestGraph_StronglyConnectedComponents(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		g.AddNode(id, nil)
	}
	// a -> b -> c -> a is one SCC, d <-> e another, c -> d joins them
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("c", "a")
	_ = g.AddEdge("c", "d")
	_ = g.AddEdge("d", "e")
	_ = g.AddEdge("e", "d")

	sccs := g.StronglyConnectedComponents()
	want := [][]string{{"a", "b", "c"}, {"d", "e"}}
	if !reflect.DeepEqual(sccs, want) {
		t.Errorf("expected %v, got %v", want, sccs)
	}
}

func TestGraph_StronglyConnectedComponents_Acyclic(t *testing.T) {
	g := newChain("a", "b", "c")

	sccs := g.StronglyConnectedComponents()
	if len(sccs) != 3 {
		t.Fatalf("expected 3 singleton components, got %v", sccs)
	}
	for _, scc := range sccs {
		if len(scc) != 1 {
			t.Errorf("expected singleton, got %v", scc)
		}
	}
}

func TestGraph_HasPath(t *testing.T) {
	g := newChain("a", "b", "c")
	g.AddNode("d", nil)
	_ = g.AddEdge("c", "c")

	tests := []struct {
		from, to string
		want     bool
	}{
		{"a", "c", true},
		{"c", "a", false},
		{"a", "d", false},
		{"c", "c", false}, // self-loops don't count
		{"a", "a", false},
	}

	for _, tt := range tests {
		if got := g.HasPath(tt.from, tt.to); got != tt.want {
			t.Errorf("HasPath(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestGraph_GetDownstreamNodes(t *testing.T) {
	g := newChain("a", "b", "c")
	g.AddNode("d", nil)

	downstream := g.GetDownstreamNodes("a")
	want := []string{"b", "c"}
	if !reflect.DeepEqual(downstream, want) {
		t.Errorf("expected %v, got %v", want, downstream)
	}
}

func TestGraph_GetUpstreamNodes(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddNode("c", nil)
	g.AddNode("d", nil)

	// c depends on a and b, d depends on c
	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "c")
	_ = g.AddEdge("c", "d")

	upstream := g.GetUpstreamNodes("d")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(upstream, want) {
		t.Errorf("expected %v, got %v", want, upstream)
	}
}

func TestGraph_GetRootsAndLeaves(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)
	g.AddNode("c", nil)

	_ = g.AddEdge("a", "c")
	_ = g.AddEdge("b", "c")

	if roots := g.GetRoots(); len(roots) != 2 {
		t.Errorf("expected 2 roots, got %d", len(roots))
	}
	if leaves := g.GetLeaves(); len(leaves) != 1 || leaves[0] != "c" {
		t.Errorf("expected [c] as leaves, got %v", leaves)
	}
}

func TestGraph_Subgraph(t *testing.T) {
	g := newChain("a", "b", "c", "d")

	// Create subgraph with only b and c, listed out of order
	sub := g.Subgraph([]string{"c", "b"})

	if sub.NodeCount() != 2 {
		t.Errorf("expected 2 nodes, got %d", sub.NodeCount())
	}
	if sub.EdgeCount() != 1 {
		t.Errorf("expected 1 edge, got %d", sub.EdgeCount())
	}
	if ids := sub.NodeIDs(); !reflect.DeepEqual(ids, []string{"b", "c"}) {
		t.Errorf("subgraph should keep original insertion order, got %v", ids)
	}

	children := sub.GetChildren("b")
	if len(children) != 1 || children[0] != "c" {
		t.Error("expected edge from b to c")
	}
}

func TestGraph_CloneIsIndependent(t *testing.T) {
	g := newChain("a", "b")
	clone := g.Clone()

	clone.RemoveEdge("a", "b")

	if !g.HasEdge("a", "b") {
		t.Error("removing an edge from the clone must not affect the original")
	}
}

func TestGraph_Edges(t *testing.T) {
	g := newChain("a", "b")
	_ = g.AddEdge("b", "b")

	want := []Edge{{From: "a", To: "b"}, {From: "b", To: "b"}}
	if got := g.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if s := want[0].String(); s != "a -> b" {
		t.Errorf("unexpected edge string %q", s)
	}
}

func TestGraph_DuplicateEdges(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)
	g.AddNode("b", nil)

	// Add same edge twice
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("a", "b")

	if g.EdgeCount() != 1 {
		t.Errorf("expected 1 edge (no duplicates), got %d", g.EdgeCount())
	}
}
