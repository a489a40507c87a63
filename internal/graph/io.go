package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Document is the on-disk and wire form of a graph.
type Document struct {
	Nodes []DocNode `json:"nodes"`
	Edges []DocEdge `json:"edges"`
}

// DocNode is a node as ingested from a backend or file.
type DocNode struct {
	ID    string   `json:"id"`
	Label string   `json:"label,omitempty"`
	Type  string   `json:"type,omitempty"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
}

// DocEdge is an edge as ingested from a backend or file.
type DocEdge struct {
	ID     string  `json:"id,omitempty"`
	Source string  `json:"source"`
	Target string  `json:"target"`
	Weight float64 `json:"weight,omitempty"`
}

// LoadReport summarizes what ingestion kept and dropped.
type LoadReport struct {
	Nodes          int
	Edges          int
	DroppedEdges   int
	DuplicateNodes int
}

// FromDocument builds a graph from a document. Nodes with empty or repeated
// ids are skipped; edges whose endpoints are missing are dropped, never passed on.
func FromDocument(doc Document) (*Graph, LoadReport) {
	g := New()
	var rep LoadReport
	for _, dn := range doc.Nodes {
		if err := g.AddNode(Node{ID: dn.ID, Label: dn.Label, Type: dn.Type}); err != nil {
			rep.DuplicateNodes++
			continue
		}
		rep.Nodes++
		if dn.X != nil && dn.Y != nil {
			g.SetPosition(dn.ID, Point{X: *dn.X, Y: *dn.Y})
		}
	}
	for _, de := range doc.Edges {
		if _, err := g.AddEdge(Edge{ID: de.ID, Source: de.Source, Target: de.Target, Weight: de.Weight}); err != nil {
			rep.DroppedEdges++
			continue
		}
		rep.Edges++
	}
	return g, rep
}

// Decode reads a JSON document and builds a graph from it.
func Decode(r io.Reader) (*Graph, LoadReport, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, LoadReport{}, fmt.Errorf("graph parse: %w", err)
	}
	g, rep := FromDocument(doc)
	return g, rep, nil
}

// Load reads a graph file from disk.
func Load(path string) (*Graph, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Save writes the graph, including positions, to disk.
func Save(g *Graph, path string) error {
	data, err := g.ExportJSON()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Document converts the graph back to its document form.
func (g *Graph) Document() Document {
	doc := Document{Nodes: []DocNode{}, Edges: []DocEdge{}}
	for _, n := range g.Nodes() {
		dn := DocNode{ID: n.ID, Label: n.Label, Type: n.Type}
		if p, ok := g.Position(n.ID); ok {
			x, y := p.X, p.Y
			dn.X, dn.Y = &x, &y
		}
		doc.Nodes = append(doc.Nodes, dn)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, DocEdge{ID: e.ID, Source: e.Source, Target: e.Target, Weight: e.Weight})
	}
	return doc
}

// ExportJSON returns the graph as pretty-printed JSON.
func (g *Graph) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(g.Document(), "", "  ")
}

// ExportDOT returns the graph in Graphviz DOT format. Hidden nodes and edges are omitted.
func (g *Graph) ExportDOT() string {
	var b strings.Builder
	b.WriteString("graph protoviz {\n")
	b.WriteString("  node [shape=ellipse, style=filled, fillcolor=white];\n\n")

	for _, n := range g.Nodes() {
		s := g.Style(n.ID)
		if s.Hidden {
			continue
		}
		label := n.Label
		if label == "" {
			label = n.ID
		}
		attrs := []string{fmt.Sprintf("label=%q", label)}
		switch {
		case s.Highlighted:
			attrs = append(attrs, `fillcolor="#2DB682"`)
		case s.Hover:
			attrs = append(attrs, `fillcolor="#F1C40F"`)
		case s.Dimmed:
			attrs = append(attrs, `fontcolor="#999999"`, `color="#cccccc"`)
		}
		if p, ok := g.Position(n.ID); ok {
			attrs = append(attrs, fmt.Sprintf(`pos="%g,%g!"`, p.X, p.Y))
		}
		b.WriteString(fmt.Sprintf("  %q [%s];\n", n.ID, strings.Join(attrs, ", ")))
	}

	b.WriteString("\n")
	for _, e := range g.Edges() {
		if g.EdgeHidden(e.ID) {
			continue
		}
		b.WriteString(fmt.Sprintf("  %q -- %q;\n", e.Source, e.Target))
	}

	b.WriteString("}\n")
	return b.String()
}

// Types returns the distinct node types, sorted.
func (g *Graph) Types() []string {
	set := make(map[string]bool)
	for _, n := range g.Nodes() {
		if n.Type != "" {
			set[n.Type] = true
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
