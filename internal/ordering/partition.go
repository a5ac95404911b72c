package ordering

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/leapmap/internal/dag"
)

// Groups is the result of Partition.
type Groups struct {
	// ByNode maps every node to its group id.
	ByNode map[string]int
	// Members lists the nodes of each group, indexed by group id.
	Members [][]string
	// Labels gives a readable name per node, e.g. "comp_0_level_1_group_3" for a level 2 node or "isolated_4".
	Labels map[string]string
}

// GroupLevel returns the level shared by the members of a group.
func (gr *Groups) GroupLevel(levels *Levels, id int) int {
	if id < 0 || id >= len(gr.Members) || len(gr.Members[id]) == 0 {
		return -1
	}
	return levels.ByNode[gr.Members[id][0]]
}

// Partition splits every level into groups of nodes that can run in parallel.
//
// Levels are visited in ascending order and nodes in graph insertion order.
// A node joins the open group only when no directed path, in either
// direction and over the full graph, links it to a node already in the group.
// When nothing else fits, the next group is opened. Group ids count up from 0
// across all levels, so a fixed input always yields the same numbering.
func Partition(g *dag.Graph, levels *Levels) *Groups {
	groups := &Groups{
		ByNode: make(map[string]int, len(levels.ByNode)),
		Labels: make(map[string]string, len(levels.ByNode)),
	}

	reach := g.Reachability()
	connected := func(a, b string) bool {
		return reach[a][b] || reach[b][a]
	}

	byLevel := make(map[int][]string)
	for _, id := range g.NodeIDs() {
		lvl, ok := levels.ByNode[id]
		if !ok {
			continue
		}
		byLevel[lvl] = append(byLevel[lvl], id)
	}
	levelKeys := make([]int, 0, len(byLevel))
	for lvl := range byLevel {
		levelKeys = append(levelKeys, lvl)
	}
	sort.Ints(levelKeys)

	for _, lvl := range levelKeys {
		remaining := byLevel[lvl]
		for len(remaining) > 0 {
			var current, rest []string
			for _, id := range remaining {
				independent := true
				for _, member := range current {
					if connected(id, member) {
						independent = false
						break
					}
				}
				if independent {
					current = append(current, id)
				} else {
					rest = append(rest, id)
				}
			}

			gid := len(groups.Members)
			groups.Members = append(groups.Members, current)
			for _, id := range current {
				groups.ByNode[id] = gid
				groups.Labels[id] = groupLabel(levels, id, lvl, gid)
			}
			remaining = rest
		}
	}

	return groups
}

func groupLabel(levels *Levels, id string, lvl, gid int) string {
	ci := levels.ComponentOf(id)
	if ci >= 0 && len(levels.Components[ci]) == 1 {
		return fmt.Sprintf("isolated_%d", ci)
	}
	// Labels carry the 0-based level within the component
	return fmt.Sprintf("comp_%d_level_%d_group_%d", ci, lvl-1, gid)
}
