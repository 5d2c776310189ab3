package pipeline

import "github.com/MeKo-Tech/texsynth/internal/graph"

// TopoOrder returns the evaluation order of g's nodes and the ids that can
// never be scheduled because they sit on or behind a cycle. Dangling edges
// are ignored and duplicate ids resolve to their first declaration.
func TopoOrder(g graph.Graph) (order, cyclic []string) {
	nodes, ids := indexNodes(g.Nodes)
	edges := make([]graph.Edge, 0, len(g.Edges))
	for _, ed := range g.Edges {
		_, srcOK := nodes[ed.Source]
		_, dstOK := nodes[ed.Target]
		if srcOK && dstOK {
			edges = append(edges, ed)
		}
	}
	return sortIDs(ids, edges)
}

// sortIDs runs Kahn's algorithm with a FIFO queue seeded in declaration
// order. Parallel edges count once per edge on both sides so the in-degree
// still reaches zero.
func sortIDs(ids []string, edges []graph.Edge) (order, cyclic []string) {
	inDegree := make(map[string]int, len(ids))
	adj := make(map[string][]string, len(ids))
	for _, id := range ids {
		inDegree[id] = 0
	}
	for _, ed := range edges {
		adj[ed.Source] = append(adj[ed.Source], ed.Target)
		inDegree[ed.Target]++
	}

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order = make([]string, 0, len(ids))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, next := range adj[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) == len(ids) {
		return order, nil
	}
	for _, id := range ids {
		if inDegree[id] > 0 {
			cyclic = append(cyclic, id)
		}
	}
	return order, cyclic
}
