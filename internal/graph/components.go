package graph

import "sort"

// Components is a connected-component partition of one graph snapshot.
// Ids are only meaningful until the next structural mutation.
type Components struct {
	NidToCid     map[string]int
	CidToNodeIDs map[int][]string
}

// Count is the number of components.
func (c Components) Count() int {
	return len(c.CidToNodeIDs)
}

// Members returns the sorted node ids of component cid.
func (c Components) Members(cid int) []string {
	return c.CidToNodeIDs[cid]
}

// Of returns the component id of a node.
func (c Components) Of(id string) (int, bool) {
	cid, ok := c.NidToCid[id]
	return cid, ok
}

// ComputeComponents partitions the current nodes into connected components.
//
// The search always seeds from the lexicographically smallest unvisited id and
// visits neighbors in lexicographic order, so the id assignment depends only
// on the node and edge sets, never on insertion or iteration order.
// An unusable graph yields empty mappings.
func ComputeComponents(g *Graph) Components {
	out := Components{
		NidToCid:     make(map[string]int),
		CidToNodeIDs: make(map[int][]string),
	}
	if g == nil {
		return out
	}

	g.mu.RLock()
	if g.destroyed {
		g.mu.RUnlock()
		return out
	}
	ids := g.sortedIDsLocked()
	adj := make(map[string][]string, len(ids))
	for _, eid := range g.edgeOrder {
		e := g.edges[eid]
		adj[e.Source] = append(adj[e.Source], e.Target)
		if e.Source != e.Target {
			adj[e.Target] = append(adj[e.Target], e.Source)
		}
	}
	g.mu.RUnlock()

	for _, nbrs := range adj {
		sort.Strings(nbrs)
	}

	cid := 0
	for _, seed := range ids {
		if _, seen := out.NidToCid[seed]; seen {
			continue
		}
		members := bfs(seed, adj, func(id string) bool {
			if _, seen := out.NidToCid[id]; seen {
				return false
			}
			out.NidToCid[id] = cid
			return true
		})
		sort.Strings(members)
		out.CidToNodeIDs[cid] = members
		cid++
	}
	return out
}

// bfs walks breadth-first from seed. visit marks a node and reports whether it was new.
func bfs(seed string, adj map[string][]string, visit func(string) bool) []string {
	if !visit(seed) {
		return nil
	}
	order := []string{seed}
	for head := 0; head < len(order); head++ {
		for _, nb := range adj[order[head]] {
			if visit(nb) {
				order = append(order, nb)
			}
		}
	}
	return order
}

// Reachable returns every node connected by some path to any of the seeds.
// Unknown seeds are ignored.
func Reachable(g *Graph, seeds []string) map[string]bool {
	seen := make(map[string]bool)
	if g == nil {
		return seen
	}
	g.mu.RLock()
	if g.destroyed {
		g.mu.RUnlock()
		return seen
	}
	adj := make(map[string][]string, len(g.nodes))
	for _, eid := range g.edgeOrder {
		e := g.edges[eid]
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	known := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := g.nodes[s]; ok {
			known = append(known, s)
		}
	}
	g.mu.RUnlock()

	queue := make([]string, 0, len(known))
	for _, s := range known {
		if !seen[s] {
			seen[s] = true
			queue = append(queue, s)
		}
	}
	for head := 0; head < len(queue); head++ {
		for _, nb := range adj[queue[head]] {
			if !seen[nb] {
				seen[nb] = true
				queue = append(queue, nb)
			}
		}
	}
	return seen
}
