package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/msalah0e/protoviz/internal/graph"
	"github.com/msalah0e/protoviz/internal/highlight"
)

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	nodes := []graph.Node{
		{ID: "n1", Label: "P1 P2", Type: "protein"},
		{ID: "n2", Label: "P2", Type: "protein"},
		{ID: "n3", Label: "P3", Type: "gene"},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	g.AddEdge(graph.Edge{ID: "n1-n2", Source: "n1", Target: "n2"})
	g.SetPosition("n1", graph.Point{X: 1, Y: 2})
	return g
}

func TestBuildView(t *testing.T) {
	g := testGraph(t)
	highlight.Recompute(g, highlight.Selection{Tokens: []string{"P1"}, Filter: true})

	v := BuildView(g)
	if v.Components != 2 {
		t.Errorf("expected 2 components, got %d", v.Components)
	}
	classes := map[string][]string{}
	for _, n := range v.Nodes {
		classes[n.ID] = n.Classes
	}
	want := map[string][]string{
		"n1": {"highlighted"},
		"n2": {"dimmed"},
		"n3": {"dimmed", "hidden"},
	}
	if diff := cmp.Diff(want, classes); diff != "" {
		t.Errorf("classes mismatch (-want +got):\n%s", diff)
	}
	if v.Nodes[0].X == nil || *v.Nodes[0].X != 1 {
		t.Error("n1 should carry its position")
	}
	if v.Nodes[1].X != nil {
		t.Error("n2 has no position")
	}
}

func TestCytoscape(t *testing.T) {
	g := testGraph(t)
	r, err := Lookup("cytoscape")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := r.Render(&buf, g); err != nil {
		t.Fatal(err)
	}
	var el CytoscapeElements
	if err := json.Unmarshal(buf.Bytes(), &el); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(el.Nodes) != 3 || len(el.Edges) != 1 {
		t.Fatalf("expected 3 nodes and 1 edge, got %d and %d", len(el.Nodes), len(el.Edges))
	}
	if p := el.Nodes[0].Position; p == nil || *p != (graph.Point{X: 1, Y: 2}) {
		t.Errorf("expected preset position for n1, got %v", p)
	}
	if el.Edges[0].Data.ID != "n1-n2" {
		t.Errorf("edge id should be kept, got %q", el.Edges[0].Data.ID)
	}
}

func TestDOTAndHTML(t *testing.T) {
	g := testGraph(t)
	for _, name := range Names() {
		r, err := Lookup(name)
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if err := r.Render(&buf, g); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !strings.Contains(buf.String(), "n1") {
			t.Errorf("%s output should mention n1", name)
		}
	}

	page, err := HTML(g, "</script>")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(page, "</script>") != 1 {
		t.Error("embedded strings must not close the script tag")
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("svg"); err == nil {
		t.Error("expected error for unknown format")
	}
}
