// Package dag provides directed graph operations for mapping lineage.
// It supports cycle detection, topological sorting, connected components and reachability.
// All traversals follow node insertion order so results are reproducible.
package dag

import (
	"fmt"
	"strings"
)

// Node represents a node in the graph.
type Node struct {
	// ID is the unique identifier (qualified instance name)
	ID string
	// Data holds arbitrary node data
	Data interface{}
}

// Edge is a directed edge between two nodes.
type Edge struct {
	From string
	To   string
}

func (e Edge) String() string {
	return e.From + " -> " + e.To
}

// Graph represents a directed graph with at most one edge per ordered node pair.
// Self-loops are recorded but kept apart from the adjacency lists, so degree,
// ordering and reachability computations never see them.
type Graph struct {
	nodes     map[string]*Node
	order     []string            // insertion order
	index     map[string]int      // id -> position in order
	edges     map[string][]string // parent -> children (dependents)
	parents   map[string][]string // child -> parents (dependencies)
	selfLoops map[string]bool
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		index:     make(map[string]int),
		edges:     make(map[string][]string),
		parents:   make(map[string][]string),
		selfLoops: make(map[string]bool),
	}
}

// Clear removes all nodes and edges from the graph.
func (g *Graph) Clear() {
	g.nodes = make(map[string]*Node)
	g.order = nil
	g.index = make(map[string]int)
	g.edges = make(map[string][]string)
	g.parents = make(map[string][]string)
	g.selfLoops = make(map[string]bool)
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(id string, data interface{}) {
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Data: data}
		g.index[id] = len(g.order)
		g.order = append(g.order, id)
		g.edges[id] = []string{}
		g.parents[id] = []string{}
	} else if data != nil {
		// Update data if node already exists
		g.nodes[id].Data = data
	}
}

// AddEdge adds a directed edge from parent to child (child depends on parent).
// Adding an edge that already exists is a no-op.
func (g *Graph) AddEdge(parentID, childID string) error {
	// Ensure both nodes exist
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}

	if parentID == childID {
		g.selfLoops[parentID] = true
		return nil
	}

	// Add edge (avoid duplicates)
	if !contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}

	return nil
}

// RemoveEdge removes the edge from parent to child. It reports whether an edge was removed.
func (g *Graph) RemoveEdge(parentID, childID string) bool {
	if parentID == childID {
		if g.selfLoops[parentID] {
			delete(g.selfLoops, parentID)
			return true
		}
		return false
	}
	if !contains(g.edges[parentID], childID) {
		return false
	}
	g.edges[parentID] = remove(g.edges[parentID], childID)
	g.parents[childID] = remove(g.parents[childID], parentID)
	return true
}

// HasEdge reports whether a directed edge exists from parent to child.
func (g *Graph) HasEdge(parentID, childID string) bool {
	if parentID == childID {
		return g.selfLoops[parentID]
	}
	return contains(g.edges[parentID], childID)
}

// HasSelfLoop reports whether the node has an edge to itself.
func (g *Graph) HasSelfLoop(id string) bool {
	return g.selfLoops[id]
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// GetParents returns the parents (dependencies) of a node, excluding itself.
func (g *Graph) GetParents(id string) []string {
	return g.parents[id]
}

// GetChildren returns the children (dependents) of a node, excluding itself.
func (g *Graph) GetChildren(id string) []string {
	return g.edges[id]
}

// InDegree returns the number of distinct parents of a node, ignoring self-loops.
func (g *Graph) InDegree(id string) int {
	return len(g.parents[id])
}

// OutDegree returns the number of distinct children of a node, ignoring self-loops.
func (g *Graph) OutDegree(id string) int {
	return len(g.edges[id])
}

// NodeIDs returns all node IDs in insertion order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// GetAllNodes returns all nodes in insertion order.
func (g *Graph) GetAllNodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Position returns the insertion index of a node, or -1 if absent.
func (g *Graph) Position(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	return -1
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph, self-loops included.
func (g *Graph) EdgeCount() int {
	count := len(g.selfLoops)
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// Edges returns every edge in insertion order of the parent node.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, id := range g.order {
		if g.selfLoops[id] {
			out = append(out, Edge{From: id, To: id})
		}
		for _, child := range g.edges[id] {
			out = append(out, Edge{From: id, To: child})
		}
	}
	return out
}

// HasCycle returns true if the graph contains a cycle of two or more nodes, along with the cycle path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string) // Track the path for error reporting

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.edges[id] {
			if !visited[childID] {
				path[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				// Found cycle, reconstruct path
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for _, id := range g.order {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// TopologicalSort returns node IDs in topological order (dependencies before dependents).
// Ties are broken by insertion order. Returns an error if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for _, id := range g.order {
		inDegree[id] = len(g.parents[id])
	}

	// ready is kept sorted by insertion position
	var ready []string
	for _, id := range g.order {
		if inDegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	result := make([]string, 0, len(g.order))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		result = append(result, id)

		for _, childID := range g.edges[id] {
			inDegree[childID]--
			if inDegree[childID] == 0 {
				ready = g.insertByPosition(ready, childID)
			}
		}
	}

	if len(result) != len(g.order) {
		_, cyclePath := g.HasCycle()
		return nil, fmt.Errorf("cycle detected: %s", strings.Join(cyclePath, " -> "))
	}
	return result, nil
}

// WeakComponents returns the weakly-connected components.
// Components are ordered by their first node, members by insertion order.
func (g *Graph) WeakComponents() [][]string {
	seen := make(map[string]bool, len(g.nodes))
	var components [][]string

	for _, start := range g.order {
		if seen[start] {
			continue
		}
		seen[start] = true
		members := []string{start}
		stack := []string{start}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, next := range g.edges[id] {
				if !seen[next] {
					seen[next] = true
					members = append(members, next)
					stack = append(stack, next)
				}
			}
			for _, next := range g.parents[id] {
				if !seen[next] {
					seen[next] = true
					members = append(members, next)
					stack = append(stack, next)
				}
			}
		}
		components = append(components, g.sortByPosition(members))
	}
	return components
}

// StronglyConnectedComponents returns all SCCs using Tarjan's algorithm.
// Components are ordered by their first node, members by insertion order.
func (g *Graph) StronglyConnectedComponents() [][]string {
	index := 0
	indices := make(map[string]int, len(g.nodes))
	lowlink := make(map[string]int, len(g.nodes))
	onStack := make(map[string]bool, len(g.nodes))
	var stack []string
	var sccs [][]string

	var strongConnect func(id string)
	strongConnect = func(id string) {
		indices[id] = index
		lowlink[id] = index
		index++
		stack = append(stack, id)
		onStack[id] = true

		for _, childID := range g.edges[id] {
			if _, visited := indices[childID]; !visited {
				strongConnect(childID)
				lowlink[id] = min(lowlink[id], lowlink[childID])
			} else if onStack[childID] {
				lowlink[id] = min(lowlink[id], indices[childID])
			}
		}

		if lowlink[id] == indices[id] {
			var scc []string
			for {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[top] = false
				scc = append(scc, top)
				if top == id {
					break
				}
			}
			sccs = append(sccs, g.sortByPosition(scc))
		}
	}

	for _, id := range g.order {
		if _, visited := indices[id]; !visited {
			strongConnect(id)
		}
	}

	// Order components by their earliest member
	for i := 1; i < len(sccs); i++ {
		for j := i; j > 0 && g.index[sccs[j][0]] < g.index[sccs[j-1][0]]; j-- {
			sccs[j], sccs[j-1] = sccs[j-1], sccs[j]
		}
	}
	return sccs
}

// GetDownstreamNodes returns all nodes reachable from the given node, in insertion order.
func (g *Graph) GetDownstreamNodes(id string) []string {
	return g.sortByPosition(keys(g.walk(id, g.edges)))
}

// GetUpstreamNodes returns all nodes upstream of the given node (its dependencies and their dependencies).
func (g *Graph) GetUpstreamNodes(id string) []string {
	return g.sortByPosition(keys(g.walk(id, g.parents)))
}

// HasPath reports whether a directed path of at least one edge leads from one node to another.
// Self-loops are ignored, so HasPath(a, a) is true only when a lies on a longer cycle.
func (g *Graph) HasPath(fromID, toID string) bool {
	return g.walk(fromID, g.edges)[toID]
}

// Reachability returns, for every node, the set of nodes reachable from it.
func (g *Graph) Reachability() map[string]map[string]bool {
	out := make(map[string]map[string]bool, len(g.nodes))
	for _, id := range g.order {
		out[id] = g.walk(id, g.edges)
	}
	return out
}

// GetRoots returns nodes with no parents (no dependencies).
func (g *Graph) GetRoots() []string {
	var roots []string
	for _, id := range g.order {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}

// GetLeaves returns nodes with no children (no dependents).
func (g *Graph) GetLeaves() []string {
	var leaves []string
	for _, id := range g.order {
		if len(g.edges[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	return leaves
}

// Subgraph returns a new graph containing only the specified nodes and their edges.
// Nodes keep their relative insertion order from g.
func (g *Graph) Subgraph(nodeIDs []string) *Graph {
	subgraph := NewGraph()
	nodeSet := make(map[string]bool)
	for _, id := range nodeIDs {
		nodeSet[id] = true
	}

	for _, id := range g.order {
		if nodeSet[id] {
			subgraph.AddNode(id, g.nodes[id].Data)
		}
	}

	// Add edges between included nodes
	for _, id := range g.order {
		if !nodeSet[id] {
			continue
		}
		if g.selfLoops[id] {
			subgraph.selfLoops[id] = true
		}
		for _, childID := range g.edges[id] {
			if nodeSet[childID] {
				_ = subgraph.AddEdge(id, childID)
			}
		}
	}

	return subgraph
}

// Clone returns a deep copy of the graph structure. Node data is shared.
func (g *Graph) Clone() *Graph {
	return g.Subgraph(g.order)
}

// walk collects every node reachable from start through adj, excluding start
// unless it lies on a cycle.
func (g *Graph) walk(start string, adj map[string][]string) map[string]bool {
	seen := make(map[string]bool)
	stack := append([]string(nil), adj[start]...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, adj[id]...)
	}
	return seen
}

func (g *Graph) sortByPosition(ids []string) []string {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && g.index[ids[j]] < g.index[ids[j-1]]; j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
	return ids
}

func (g *Graph) insertByPosition(ids []string, id string) []string {
	pos := g.index[id]
	i := len(ids)
	for i > 0 && g.index[ids[i-1]] > pos {
		i--
	}
	ids = append(ids, "")
	copy(ids[i+1:], ids[i:])
	ids[i] = id
	return ids
}

// contains checks if a slice contains a string.
func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}

// remove returns slice without the first occurrence of str.
func remove(slice []string, str string) []string {
	for i, s := range slice {
		if s == str {
			return append(slice[:i:i], slice[i+1:]...)
		}
	}
	return slice
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
