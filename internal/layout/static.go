package layout

import (
	"math"
	"math/rand"
	"sort"

	"github.com/msalah0e/protoviz/internal/graph"
)

// StaticOptions tunes the synchronous layouts.
type StaticOptions struct {
	Seed    int64
	Spacing float64
	Width   float64
	Height  float64
}

// DefaultStaticOptions returns the spacing used when none is configured.
func DefaultStaticOptions() StaticOptions {
	return StaticOptions{Seed: 1, Spacing: 80, Width: 1000, Height: 1000}
}

func (o StaticOptions) normalized() StaticOptions {
	d := DefaultStaticOptions()
	if o.Spacing <= 0 || !isFinite(o.Spacing) {
		o.Spacing = d.Spacing
	}
	if o.Width <= 0 || !isFinite(o.Width) {
		o.Width = d.Width
	}
	if o.Height <= 0 || !isFinite(o.Height) {
		o.Height = d.Height
	}
	return o
}

// StaticFunc computes positions for every node synchronously.
type StaticFunc func(g *graph.Graph, opts StaticOptions) map[string]graph.Point

// Random scatters nodes uniformly in a Width x Height box centered on the origin.
// The same seed and node set always give the same placement.
func Random(g *graph.Graph, opts StaticOptions) map[string]graph.Point {
	opts = opts.normalized()
	rng := rand.New(rand.NewSource(opts.Seed))
	out := make(map[string]graph.Point)
	for _, id := range g.NodeIDs() {
		out[id] = graph.Point{
			X: (rng.Float64() - 0.5) * opts.Width,
			Y: (rng.Float64() - 0.5) * opts.Height,
		}
	}
	return out
}

// Circle places nodes on a ring in id order, sized so neighbors are Spacing apart.
func Circle(g *graph.Graph, opts StaticOptions) map[string]graph.Point {
	opts = opts.normalized()
	return ring(g.NodeIDs(), 0, opts.Spacing)
}

func ring(ids []string, minRadius, spacing float64) map[string]graph.Point {
	out := make(map[string]graph.Point, len(ids))
	n := len(ids)
	if n == 1 && minRadius == 0 {
		out[ids[0]] = graph.Point{}
		return out
	}
	radius := math.Max(minRadius, spacing*float64(n)/(2*math.Pi))
	for i, id := range ids {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[id] = graph.Point{X: radius * math.Cos(a), Y: radius * math.Sin(a)}
	}
	return out
}

// Grid places nodes row by row in a near-square grid in id order.
func Grid(g *graph.Graph, opts StaticOptions) map[string]graph.Point {
	opts = opts.normalized()
	ids := g.NodeIDs()
	out := make(map[string]graph.Point, len(ids))
	if len(ids) == 0 {
		return out
	}
	cols := int(math.Ceil(math.Sqrt(float64(len(ids)))))
	for i, id := range ids {
		out[id] = graph.Point{
			X: float64(i%cols) * opts.Spacing,
			Y: float64(i/cols) * opts.Spacing,
		}
	}
	return out
}

// Concentric puts the highest-degree nodes in the center ring and lower degrees further out.
func Concentric(g *graph.Graph, opts StaticOptions) map[string]graph.Point {
	opts = opts.normalized()
	deg := g.Degree()
	levels := make(map[int][]string)
	for id, d := range deg {
		levels[d] = append(levels[d], id)
	}
	degrees := make([]int, 0, len(levels))
	for d := range levels {
		degrees = append(degrees, d)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(degrees)))

	out := make(map[string]graph.Point, len(deg))
	radius := 0.0
	for _, d := range degrees {
		ids := levels[d]
		sort.Strings(ids)
		for id, p := range ring(ids, radius, opts.Spacing) {
			out[id] = p
		}
		radius = math.Max(radius, opts.Spacing*float64(len(ids))/(2*math.Pi)) + opts.Spacing
	}
	return out
}

// BreadthFirst is the hierarchical layout: each component is layered by BFS
// depth from its root (highest degree, ties by id), and components sit side by side.
func BreadthFirst(g *graph.Graph, opts StaticOptions) map[string]graph.Point {
	opts = opts.normalized()
	comps := graph.ComputeComponents(g)
	deg := g.Degree()
	adj := make(map[string][]string)
	for _, e := range g.Edges() {
		adj[e.Source] = append(adj[e.Source], e.Target)
		adj[e.Target] = append(adj[e.Target], e.Source)
	}
	for _, nbrs := range adj {
		sort.Strings(nbrs)
	}

	out := make(map[string]graph.Point, g.Order())
	offsetX := 0.0
	for cid := 0; cid < comps.Count(); cid++ {
		members := comps.Members(cid)
		root := members[0]
		for _, m := range members[1:] {
			if deg[m] > deg[root] {
				root = m
			}
		}

		var layers [][]string
		depth := map[string]int{root: 0}
		queue := []string{root}
		for head := 0; head < len(queue); head++ {
			id := queue[head]
			d := depth[id]
			if d == len(layers) {
				layers = append(layers, nil)
			}
			layers[d] = append(layers[d], id)
			for _, nb := range adj[id] {
				if _, seen := depth[nb]; !seen {
					depth[nb] = d + 1
					queue = append(queue, nb)
				}
			}
		}

		widest := 0
		for _, layer := range layers {
			widest = max(widest, len(layer))
		}
		width := float64(widest-1) * opts.Spacing
		for d, layer := range layers {
			shift := (width - float64(len(layer)-1)*opts.Spacing) / 2
			for i, id := range layer {
				out[id] = graph.Point{
					X: offsetX + shift + float64(i)*opts.Spacing,
					Y: float64(d) * opts.Spacing,
				}
			}
		}
		offsetX += width + 2*opts.Spacing
	}
	return out
}
