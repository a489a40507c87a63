// Package render writes a laid out graph for an external drawing backend.
// Every backend carries positions and the effective view state of each node,
// so the consumer only has to map classes to colors.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/msalah0e/protoviz/internal/graph"
)

// Renderer is one output backend.
type Renderer interface {
	Name() string
	Render(w io.Writer, g *graph.Graph) error
}

var backends = map[string]Renderer{
	"dot":       dotRenderer{},
	"json":      jsonRenderer{},
	"cytoscape": cytoscapeRenderer{},
	"html":      htmlRenderer{},
}

// Lookup returns the named backend.
func Lookup(name string) (Renderer, error) {
	r, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (available: %v)", name, Names())
	}
	return r, nil
}

// Names lists the backends, sorted.
func Names() []string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ─── View model shared by the JSON backends ───

// ViewNode is a node as the renderer sees it.
type ViewNode struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Type      string   `json:"type,omitempty"`
	Component int      `json:"component"`
	X         *float64 `json:"x,omitempty"`
	Y         *float64 `json:"y,omitempty"`
	Classes   []string `json:"classes,omitempty"`
}

// ViewEdge is an edge as the renderer sees it.
type ViewEdge struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight,omitempty"`
	Hidden bool    `json:"hidden,omitempty"`
}

// View is the full render input.
type View struct {
	Nodes      []ViewNode `json:"nodes"`
	Edges      []ViewEdge `json:"edges"`
	Components int        `json:"components"`
}

// Classes maps a node style to renderer class names, strongest first.
func Classes(s graph.Style) []string {
	var out []string
	if s.Highlighted {
		out = append(out, "highlighted")
	}
	if s.Hover {
		out = append(out, "hover")
	}
	if s.Dimmed {
		out = append(out, "dimmed")
	}
	if s.Hidden {
		out = append(out, "hidden")
	}
	return out
}

// BuildView snapshots g for rendering.
func BuildView(g *graph.Graph) View {
	comps := graph.ComputeComponents(g)
	v := View{Nodes: []ViewNode{}, Edges: []ViewEdge{}, Components: comps.Count()}
	for _, n := range g.Nodes() {
		label := n.Label
		if label == "" {
			label = n.ID
		}
		cid, _ := comps.Of(n.ID)
		vn := ViewNode{ID: n.ID, Label: label, Type: n.Type, Component: cid, Classes: Classes(g.Style(n.ID))}
		if p, ok := g.Position(n.ID); ok {
			x, y := p.X, p.Y
			vn.X, vn.Y = &x, &y
		}
		v.Nodes = append(v.Nodes, vn)
	}
	for _, e := range g.Edges() {
		v.Edges = append(v.Edges, ViewEdge{ID: e.ID, Source: e.Source, Target: e.Target, Weight: e.Weight, Hidden: g.EdgeHidden(e.ID)})
	}
	return v
}

type dotRenderer struct{}

func (dotRenderer) Name() string { return "dot" }

func (dotRenderer) Render(w io.Writer, g *graph.Graph) error {
	_, err := io.WriteString(w, g.ExportDOT())
	return err
}

type jsonRenderer struct{}

func (jsonRenderer) Name() string { return "json" }

func (jsonRenderer) Render(w io.Writer, g *graph.Graph) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(BuildView(g)); err != nil {
		return fmt.Errorf("encoding view: %w", err)
	}
	return nil
}
