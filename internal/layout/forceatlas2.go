package layout

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Settings tunes a ForceAtlas2 run.
type Settings struct {
	Gravity                        float64 `json:"gravity"`
	ScalingRatio                   float64 `json:"scalingRatio"`
	StrongGravityMode              bool    `json:"strongGravityMode"`
	LinLogMode                     bool    `json:"linLogMode"`
	OutboundAttractionDistribution bool    `json:"outboundAttractionDistribution"`
	EdgeWeightInfluence            float64 `json:"edgeWeightInfluence"`
	BarnesHutOptimize              bool    `json:"barnesHutOptimize"`
	BarnesHutTheta                 float64 `json:"barnesHutTheta"`
	SlowDown                       float64 `json:"slowDown"`
}

// DefaultSettings are the plain ForceAtlas2 parameters.
func DefaultSettings() Settings {
	return Settings{
		Gravity:             1,
		ScalingRatio:        1,
		EdgeWeightInfluence: 1,
		BarnesHutTheta:      0.5,
		SlowDown:            1,
	}
}

// barnesHutThreshold is the order above which Barnes-Hut is switched on by InferSettings.
const barnesHutThreshold = 2000

// InferSettings picks parameters suited to a graph of the given order.
func InferSettings(order int) Settings {
	s := DefaultSettings()
	s.StrongGravityMode = true
	s.Gravity = 0.05
	s.ScalingRatio = 10
	s.SlowDown = 1 + math.Log(float64(max(order, 1)))
	s.BarnesHutOptimize = order > barnesHutThreshold
	return s
}

// Validate rejects settings that would poison the computation.
func (s Settings) Validate() error {
	for name, v := range map[string]float64{
		"gravity":             s.Gravity,
		"scalingRatio":        s.ScalingRatio,
		"edgeWeightInfluence": s.EdgeWeightInfluence,
		"barnesHutTheta":      s.BarnesHutTheta,
		"slowDown":            s.SlowDown,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("setting %s is not finite", name)
		}
	}
	if s.ScalingRatio <= 0 {
		return fmt.Errorf("scalingRatio must be positive")
	}
	if s.SlowDown <= 0 {
		return fmt.Errorf("slowDown must be positive")
	}
	if s.BarnesHutOptimize && s.BarnesHutTheta <= 0 {
		return fmt.Errorf("barnesHutTheta must be positive")
	}
	return nil
}

// DefaultWeight replaces absent or non-finite edge weights.
const DefaultWeight = 1.0

// parallelThreshold is the order above which the repulsion pass is split across CPUs.
const parallelThreshold = 512

type body struct {
	x, y         float64
	dx, dy       float64
	oldDx, oldDy float64
	mass         float64
	convergence  float64
}

type link struct {
	s, t   int
	weight float64
}

// simulation is a worker-private copy of the graph.
type simulation struct {
	settings             Settings
	ids                  []string
	bodies               []body
	links                []link
	outboundCompensation float64
}

func newSimulation(run RunCommand) (*simulation, error) {
	if err := run.Settings.Validate(); err != nil {
		return nil, err
	}
	sim := &simulation{
		settings: run.Settings,
		ids:      make([]string, len(run.Nodes)),
		bodies:   make([]body, len(run.Nodes)),
	}
	index := make(map[string]int, len(run.Nodes))
	occupied := make(map[[2]float64]bool, len(run.Nodes))
	for i, n := range run.Nodes {
		if _, dup := index[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node %q", n.ID)
		}
		index[n.ID] = i
		sim.ids[i] = n.ID
		x, y := seedPosition(i)
		if n.X != nil && n.Y != nil && isFinite(*n.X) && isFinite(*n.Y) {
			x, y = *n.X, *n.Y
		}
		// Coincident nodes feel no repulsion, so spread them apart.
		for k := 1; occupied[[2]float64{x, y}]; k++ {
			jx, jy := seedPosition(i + k)
			x, y = x+jx/10, y+jy/10
		}
		occupied[[2]float64{x, y}] = true
		sim.bodies[i] = body{x: x, y: y, mass: 1, convergence: 1}
	}
	for _, e := range run.Edges {
		s, okS := index[e.Source]
		t, okT := index[e.Target]
		if !okS || !okT {
			continue
		}
		w := DefaultWeight
		if e.Weight != nil && isFinite(*e.Weight) && *e.Weight > 0 {
			w = *e.Weight
		}
		sim.links = append(sim.links, link{s: s, t: t, weight: w})
		sim.bodies[s].mass++
		sim.bodies[t].mass++
	}
	if run.Settings.OutboundAttractionDistribution {
		total := 0.0
		for _, b := range sim.bodies {
			total += b.mass
		}
		if len(sim.bodies) > 0 {
			sim.outboundCompensation = total / float64(len(sim.bodies))
		}
	}
	return sim, nil
}

// seedPosition places nodes without coordinates on a deterministic spiral.
func seedPosition(i int) (float64, float64) {
	const golden = 2.399963229728653 // pi * (3 - sqrt(5))
	r := 10 * math.Sqrt(float64(i)+0.5)
	a := float64(i) * golden
	return r * math.Cos(a), r * math.Sin(a)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// iterate runs n ForceAtlas2 iterations.
func (sim *simulation) iterate(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sim.step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (sim *simulation) step(ctx context.Context) error {
	bodies := sim.bodies
	for i := range bodies {
		b := &bodies[i]
		b.oldDx, b.oldDy = b.dx, b.dy
		b.dx, b.dy = 0, 0
	}

	if err := sim.repulsion(ctx); err != nil {
		return err
	}
	sim.gravity()
	sim.attraction()
	return sim.apply()
}

func (sim *simulation) repulsion(ctx context.Context) error {
	var tree *quadTree
	if sim.settings.BarnesHutOptimize {
		tree = buildQuadTree(sim.bodies)
	}
	force := func(i int) {
		if tree != nil {
			tree.apply(sim.bodies, i, sim.settings.BarnesHutTheta, sim.settings.ScalingRatio)
			return
		}
		b := &sim.bodies[i]
		for j := range sim.bodies {
			if j == i {
				continue
			}
			o := &sim.bodies[j]
			repulse(b, o.x, o.y, o.mass, sim.settings.ScalingRatio)
		}
	}

	if len(sim.bodies) < parallelThreshold {
		for i := range sim.bodies {
			force(i)
		}
		return nil
	}

	// Each body only writes its own dx/dy, so slices can run concurrently.
	workers := runtime.GOMAXPROCS(0)
	chunk := (len(sim.bodies) + workers - 1) / workers
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(sim.bodies); start += chunk {
		lo, hi := start, min(start+chunk, len(sim.bodies))
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("repulsion panicked: %v", r)
				}
			}()
			for i := lo; i < hi; i++ {
				force(i)
			}
			return nil
		})
	}
	return g.Wait()
}

func repulse(b *body, x, y, mass, coefficient float64) {
	xDist := b.x - x
	yDist := b.y - y
	d2 := xDist*xDist + yDist*yDist
	if d2 <= 0 {
		return
	}
	factor := coefficient * b.mass * mass / d2
	b.dx += xDist * factor
	b.dy += yDist * factor
}

func (sim *simulation) gravity() {
	g := sim.settings.Gravity
	coefficient := sim.settings.ScalingRatio
	for i := range sim.bodies {
		b := &sim.bodies[i]
		distance := math.Sqrt(b.x*b.x + b.y*b.y)
		var factor float64
		if sim.settings.StrongGravityMode {
			factor = coefficient * b.mass * g
		} else if distance > 0 {
			factor = coefficient * b.mass * g / distance
		}
		b.dx -= b.x * factor
		b.dy -= b.y * factor
	}
}

func (sim *simulation) attraction() {
	coefficient := 1.0
	if sim.settings.OutboundAttractionDistribution && sim.outboundCompensation > 0 {
		coefficient = sim.outboundCompensation
	}
	influence := sim.settings.EdgeWeightInfluence
	for _, l := range sim.links {
		if l.s == l.t {
			continue
		}
		s, t := &sim.bodies[l.s], &sim.bodies[l.t]
		w := 1.0
		switch influence {
		case 0:
		case 1:
			w = l.weight
		default:
			w = math.Pow(l.weight, influence)
		}
		xDist := s.x - t.x
		yDist := s.y - t.y
		factor := -coefficient * w
		if sim.settings.LinLogMode {
			distance := math.Sqrt(xDist*xDist + yDist*yDist)
			if distance <= 0 {
				continue
			}
			factor = factor * math.Log(1+distance) / distance
		}
		if sim.settings.OutboundAttractionDistribution {
			factor /= s.mass
		}
		s.dx += xDist * factor
		s.dy += yDist * factor
		t.dx -= xDist * factor
		t.dy -= yDist * factor
	}
}

// apply moves bodies with per-node adaptive speed (swinging vs traction).
func (sim *simulation) apply() error {
	for i := range sim.bodies {
		b := &sim.bodies[i]
		swinging := b.mass * math.Sqrt((b.oldDx-b.dx)*(b.oldDx-b.dx)+(b.oldDy-b.dy)*(b.oldDy-b.dy))
		traction := math.Sqrt((b.oldDx+b.dx)*(b.oldDx+b.dx)+(b.oldDy+b.dy)*(b.oldDy+b.dy)) / 2
		speed := b.convergence * math.Log(1+traction) / (1 + math.Sqrt(swinging))
		b.convergence = math.Min(1, math.Sqrt(speed*(b.dx*b.dx+b.dy*b.dy)/(1+math.Sqrt(swinging))))

		b.x += b.dx * (speed / sim.settings.SlowDown)
		b.y += b.dy * (speed / sim.settings.SlowDown)
		if !isFinite(b.x) || !isFinite(b.y) {
			return fmt.Errorf("node %q diverged", sim.ids[i])
		}
	}
	return nil
}

func (sim *simulation) positions() []Position {
	out := make([]Position, len(sim.bodies))
	for i, b := range sim.bodies {
		out[i] = Position{ID: sim.ids[i], X: b.x, Y: b.y}
	}
	return out
}

// ─── Barnes-Hut ───

type quadTree struct {
	minX, minY, size float64
	mass             float64
	cx, cy           float64 // center of mass
	body             int     // leaf body index, -1 when empty or internal
	children         *[4]quadTree
}

func buildQuadTree(bodies []body) *quadTree {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, b := range bodies {
		minX, minY = math.Min(minX, b.x), math.Min(minY, b.y)
		maxX, maxY = math.Max(maxX, b.x), math.Max(maxY, b.y)
	}
	size := math.Max(maxX-minX, maxY-minY)
	if size <= 0 || !isFinite(size) {
		size = 1
	}
	root := &quadTree{minX: minX, minY: minY, size: size * 1.0001, body: -1}
	for i := range bodies {
		root.insert(bodies, i, 0)
	}
	return root
}

// maxDepth bounds subdivision when bodies share coordinates.
const maxDepth = 32

func (q *quadTree) insert(bodies []body, i, depth int) {
	b := bodies[i]
	total := q.mass + b.mass
	q.cx = (q.cx*q.mass + b.x*b.mass) / total
	q.cy = (q.cy*q.mass + b.y*b.mass) / total
	wasEmpty := q.mass == 0
	q.mass = total

	if q.children == nil {
		if wasEmpty {
			q.body = i
			return
		}
		if depth >= maxDepth {
			// Coincident bodies stay aggregated in this leaf.
			q.body = -1
			return
		}
		prev := q.body
		q.body = -1
		q.split()
		if prev >= 0 {
			q.child(bodies[prev]).insert(bodies, prev, depth+1)
		}
	}
	q.child(b).insert(bodies, i, depth+1)
}

func (q *quadTree) split() {
	half := q.size / 2
	q.children = &[4]quadTree{
		{minX: q.minX, minY: q.minY, size: half, body: -1},
		{minX: q.minX + half, minY: q.minY, size: half, body: -1},
		{minX: q.minX, minY: q.minY + half, size: half, body: -1},
		{minX: q.minX + half, minY: q.minY + half, size: half, body: -1},
	}
}

func (q *quadTree) child(b body) *quadTree {
	half := q.size / 2
	idx := 0
	if b.x >= q.minX+half {
		idx++
	}
	if b.y >= q.minY+half {
		idx += 2
	}
	return &q.children[idx]
}

func (q *quadTree) apply(bodies []body, i int, theta, coefficient float64) {
	if q.mass == 0 {
		return
	}
	b := &bodies[i]
	if q.children == nil {
		if q.body == i {
			return
		}
		mass := q.mass
		if q.body < 0 && b.x == q.cx && b.y == q.cy {
			return
		}
		repulse(b, q.cx, q.cy, mass, coefficient)
		return
	}
	dx, dy := b.x-q.cx, b.y-q.cy
	distance := math.Sqrt(dx*dx + dy*dy)
	if distance > 0 && q.size/distance < theta {
		repulse(b, q.cx, q.cy, q.mass, coefficient)
		return
	}
	for c := range q.children {
		q.children[c].apply(bodies, i, theta, coefficient)
	}
}
