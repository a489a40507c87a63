package graph

import (
	"sort"
	"strings"
)

// Stats holds summary counts.
type Stats struct {
	Nodes      int
	Edges      int
	Components int
	Tokens     int
	Types      int
	Positioned int
}

// SearchResult holds a scored search hit.
type SearchResult struct {
	Node  Node `json:"node"`
	Score int  `json:"score"`
}

// Search finds nodes matching a query. Scored: exact token(100) > id(60) > label substring(50) > type(20).
func (g *Graph) Search(query string) []SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var results []SearchResult

	for _, n := range g.Nodes() {
		score := 0
		for _, tok := range Tokens(n.Label) {
			if strings.ToLower(tok) == q {
				score += 100
				break
			}
		}
		if strings.ToLower(n.ID) == q {
			score += 60
		}
		if strings.Contains(strings.ToLower(n.Label), q) {
			score += 50
		}
		if strings.Contains(strings.ToLower(n.Type), q) {
			score += 20
		}
		if score > 0 {
			results = append(results, SearchResult{Node: n, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// GetStats returns summary statistics.
func (g *Graph) GetStats() Stats {
	tokens := make(map[string]bool)
	types := make(map[string]bool)
	positioned := 0
	for _, n := range g.Nodes() {
		for _, t := range Tokens(n.Label) {
			tokens[t] = true
		}
		if n.Type != "" {
			types[n.Type] = true
		}
		if _, ok := g.Position(n.ID); ok {
			positioned++
		}
	}
	return Stats{
		Nodes:      g.Order(),
		Edges:      g.Size(),
		Components: ComputeComponents(g).Count(),
		Tokens:     len(tokens),
		Types:      len(types),
		Positioned: positioned,
	}
}

// Degree returns the number of edge endpoints at each node.
func (g *Graph) Degree() map[string]int {
	deg := make(map[string]int)
	for _, n := range g.NodeIDs() {
		deg[n] = 0
	}
	for _, e := range g.Edges() {
		deg[e.Source]++
		if e.Target != e.Source {
			deg[e.Target]++
		}
	}
	return deg
}
