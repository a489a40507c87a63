package graph

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

var (
	ErrNodeExists   = errors.New("node already exists")
	ErrNodeNotFound = errors.New("node not found")
	ErrEdgeExists   = errors.New("edge already exists")
	ErrEdgeNotFound = errors.New("edge not found")
	ErrDestroyed    = errors.New("graph destroyed")
)

// Node is a protein/gene vertex. Label is opaque display text; see Tokens.
type Node struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	Type  string `json:"type,omitempty"`
}

// Edge is an undirected relationship between two existing nodes.
// A Weight that is zero, negative or not finite means "no weight".
type Edge struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight,omitempty"`
}

// Point is a 2-D layout position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width of the box.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height of the box.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Marks is the persistent highlight namespace. Only the highlight engine writes it.
type Marks struct {
	Highlighted bool `json:"highlighted,omitempty"`
	Dimmed      bool `json:"dimmed,omitempty"`
	Hidden      bool `json:"hidden,omitempty"`
}

// Graph is the shared mutable arena. Each attribute table has one writer:
//
//	positions    layout orchestrator (and user drag)
//	marks, edge  highlight engine
//	hover        hover-preview controller
//
// A nil or destroyed Graph behaves as an empty graph.
type Graph struct {
	mu        sync.RWMutex
	destroyed bool

	nodes     map[string]*Node
	edges     map[string]*Edge
	edgeOrder []string
	nextEdge  int

	positions   map[string]Point
	marks       map[string]Marks
	hiddenEdges map[string]bool
	hover       map[string]bool
	dragging    map[string]bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:       make(map[string]*Node),
		edges:       make(map[string]*Edge),
		positions:   make(map[string]Point),
		marks:       make(map[string]Marks),
		hiddenEdges: make(map[string]bool),
		hover:       make(map[string]bool),
		dragging:    make(map[string]bool),
	}
}

// Usable reports whether the graph can be read or written.
func (g *Graph) Usable() bool {
	if g == nil {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !g.destroyed
}

// Destroy releases the graph. Every later call is a no-op or returns empty results.
func (g *Graph) Destroy() {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.destroyed = true
	g.nodes = make(map[string]*Node)
	g.edges = make(map[string]*Edge)
	g.edgeOrder = nil
	g.positions = make(map[string]Point)
	g.marks = make(map[string]Marks)
	g.hiddenEdges = make(map[string]bool)
	g.hover = make(map[string]bool)
	g.dragging = make(map[string]bool)
}

// ─── Structure ───

// AddNode inserts a node. The id must be non-empty and unique.
func (g *Graph) AddNode(n Node) error {
	if g == nil {
		return ErrDestroyed
	}
	if n.ID == "" {
		return fmt.Errorf("node id cannot be empty")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.destroyed {
		return ErrDestroyed
	}
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrNodeExists, n.ID)
	}
	node := n
	g.nodes[n.ID] = &node
	return nil
}

// SetLabel replaces a node's display label.
func (g *Graph) SetLabel(id, label string) error {
	if g == nil {
		return ErrDestroyed
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	n.Label = label
	return nil
}

// AddEdge inserts an edge between two existing nodes and returns its id.
// An empty id is replaced with a generated one.
func (g *Graph) AddEdge(e Edge) (string, error) {
	if g == nil {
		return "", ErrDestroyed
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.destroyed {
		return "", ErrDestroyed
	}
	if _, ok := g.nodes[e.Source]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNodeNotFound, e.Source)
	}
	if _, ok := g.nodes[e.Target]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNodeNotFound, e.Target)
	}
	if e.ID == "" {
		for {
			e.ID = fmt.Sprintf("e%d", g.nextEdge)
			g.nextEdge++
			if _, taken := g.edges[e.ID]; !taken {
				break
			}
		}
	}
	if _, ok := g.edges[e.ID]; ok {
		return "", fmt.Errorf("%w: %s", ErrEdgeExists, e.ID)
	}
	edge := e
	g.edges[e.ID] = &edge
	g.edgeOrder = append(g.edgeOrder, e.ID)
	return e.ID, nil
}

// RemoveNode deletes a node, its incident edges and all of its derived attributes.
func (g *Graph) RemoveNode(id string) error {
	if g == nil {
		return ErrDestroyed
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	delete(g.nodes, id)
	delete(g.positions, id)
	delete(g.marks, id)
	delete(g.hover, id)
	delete(g.dragging, id)

	// Cascade: remove all edges touching this node
	kept := g.edgeOrder[:0]
	for _, eid := range g.edgeOrder {
		e := g.edges[eid]
		if e.Source == id || e.Target == id {
			delete(g.edges, eid)
			delete(g.hiddenEdges, eid)
			continue
		}
		kept = append(kept, eid)
	}
	g.edgeOrder = kept
	return nil
}

// RemoveEdge deletes an edge by id.
func (g *Graph) RemoveEdge(id string) error {
	if g == nil {
		return ErrDestroyed
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.edges[id]; !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, id)
	}
	delete(g.edges, id)
	delete(g.hiddenEdges, id)
	for i, eid := range g.edgeOrder {
		if eid == id {
			g.edgeOrder = append(g.edgeOrder[:i], g.edgeOrder[i+1:]...)
			break
		}
	}
	return nil
}

// HasNode reports whether id is a node of the graph.
func (g *Graph) HasNode(id string) bool {
	if g == nil {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	if g == nil {
		return Node{}, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// NodeIDs returns all node ids in lexicographic order.
func (g *Graph) NodeIDs() []string {
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sortedIDsLocked()
}

func (g *Graph) sortedIDsLocked() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Nodes returns copies of all nodes ordered by id.
func (g *Graph) Nodes() []Node {
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Node, 0, len(g.nodes))
	for _, id := range g.sortedIDsLocked() {
		out = append(out, *g.nodes[id])
	}
	return out
}

// Edges returns copies of all edges in insertion order.
func (g *Graph) Edges() []Edge {
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, *g.edges[id])
	}
	return out
}

// Order is the number of nodes.
func (g *Graph) Order() int {
	if g == nil {
		return 0
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Size is the number of edges.
func (g *Graph) Size() int {
	if g == nil {
		return 0
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// ─── Positions (layout writer) ───

// Position returns the node's current position.
func (g *Graph) Position(id string) (Point, bool) {
	if g == nil {
		return Point{}, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.positions[id]
	return p, ok
}

// SetPosition overwrites the position of a single node. Unknown ids and
// non-finite coordinates are ignored.
func (g *Graph) SetPosition(id string, p Point) bool {
	if g == nil || !finite(p) {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	g.positions[id] = p
	return true
}

// ApplyPositions copies layout results onto the graph and returns how many were written.
// Ids no longer in the graph are skipped, as are nodes currently being dragged:
// the user's drag always wins over layout output.
func (g *Graph) ApplyPositions(positions map[string]Point) int {
	if g == nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	applied := 0
	for id, p := range positions {
		if _, ok := g.nodes[id]; !ok || g.dragging[id] || !finite(p) {
			continue
		}
		g.positions[id] = p
		applied++
	}
	return applied
}

// BeginDrag marks a node as held by the user.
func (g *Graph) BeginDrag(id string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.nodes[id]; ok {
		g.dragging[id] = true
	}
}

// DragTo moves a dragged node.
func (g *Graph) DragTo(id string, p Point) {
	g.SetPosition(id, p)
}

// EndDrag releases a node.
func (g *Graph) EndDrag(id string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.dragging, id)
}

// BoundingBox returns the box enclosing the positioned nodes among ids.
// With no ids, every positioned node is considered.
func (g *Graph) BoundingBox(ids ...string) (Rect, bool) {
	if g == nil {
		return Rect{}, false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if len(ids) == 0 {
		ids = g.sortedIDsLocked()
	}
	r := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	found := false
	for _, id := range ids {
		p, ok := g.positions[id]
		if !ok {
			continue
		}
		found = true
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	if !found {
		return Rect{}, false
	}
	return r, true
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// ─── Snapshot (worker input) ───

// SnapshotNode is a node as handed to a layout computation.
type SnapshotNode struct {
	ID     string
	X, Y   float64
	HasPos bool
}

// Snapshot is a private copy of the structure and positions, safe to hand to another goroutine.
type Snapshot struct {
	Nodes []SnapshotNode
	Edges []Edge
}

// Snapshot copies node ids, positions and edges.
func (g *Graph) Snapshot() Snapshot {
	if g == nil {
		return Snapshot{}
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := Snapshot{
		Nodes: make([]SnapshotNode, 0, len(g.nodes)),
		Edges: make([]Edge, 0, len(g.edgeOrder)),
	}
	for _, id := range g.sortedIDsLocked() {
		p, ok := g.positions[id]
		s.Nodes = append(s.Nodes, SnapshotNode{ID: id, X: p.X, Y: p.Y, HasPos: ok})
	}
	for _, id := range g.edgeOrder {
		s.Edges = append(s.Edges, *g.edges[id])
	}
	return s
}

// ─── Highlight attributes (highlight engine writer) ───

// ReplaceMarks overwrites the whole persistent highlight namespace in one step.
// Entries for unknown ids are dropped.
func (g *Graph) ReplaceMarks(nodes map[string]Marks, hiddenEdges map[string]bool) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.marks = make(map[string]Marks, len(nodes))
	for id, m := range nodes {
		if _, ok := g.nodes[id]; ok && m != (Marks{}) {
			g.marks[id] = m
		}
	}
	g.hiddenEdges = make(map[string]bool, len(hiddenEdges))
	for id, hidden := range hiddenEdges {
		if _, ok := g.edges[id]; ok && hidden {
			g.hiddenEdges[id] = true
		}
	}
}

// Marks returns the persistent highlight state of a node.
func (g *Graph) Marks(id string) Marks {
	if g == nil {
		return Marks{}
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.marks[id]
}

// EdgeHidden reports whether the highlight engine hid an edge.
func (g *Graph) EdgeHidden(id string) bool {
	if g == nil {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hiddenEdges[id]
}

// ─── Hover attributes (hover controller writer) ───

// SetHover replaces the set of hover-highlighted nodes.
func (g *Graph) SetHover(ids []string) {
	if g == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hover = make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := g.nodes[id]; ok {
			g.hover[id] = true
		}
	}
}

// ClearHover removes every hover highlight.
func (g *Graph) ClearHover() {
	g.SetHover(nil)
}

// Hovered reports whether a node carries the hover highlight.
func (g *Graph) Hovered(id string) bool {
	if g == nil {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hover[id]
}

// HoveredIDs returns the hover-highlighted nodes in id order.
func (g *Graph) HoveredIDs() []string {
	if g == nil {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.hover))
	for id := range g.hover {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Style is the effective view state a renderer should draw for a node.
type Style struct {
	Highlighted bool
	Dimmed      bool
	Hidden      bool
	Hover       bool
}

// Style resolves both attribute namespaces. Persistent marks take precedence:
// a node hidden or highlighted by the engine is never reported as hovered.
func (g *Graph) Style(id string) Style {
	if g == nil {
		return Style{}
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	m := g.marks[id]
	s := Style{Highlighted: m.Highlighted, Dimmed: m.Dimmed, Hidden: m.Hidden}
	if g.hover[id] && !m.Hidden && !m.Highlighted {
		s.Hover = true
		s.Dimmed = false
	}
	return s
}
