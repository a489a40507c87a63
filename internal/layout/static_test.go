package layout

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/msalah0e/protoviz/internal/graph"
)

func staticGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for i := 1; i <= 7; i++ {
		if err := g.AddNode(graph.Node{ID: fmt.Sprintf("n%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range [][2]string{{"n1", "n2"}, {"n1", "n3"}, {"n2", "n4"}, {"n5", "n6"}} {
		if _, err := g.AddEdge(graph.Edge{Source: e[0], Target: e[1]}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestStaticLayoutsCoverEveryNode(t *testing.T) {
	g := staticGraph(t)
	for _, a := range All() {
		if a.Family != FamilyStatic {
			continue
		}
		pos := a.Static(g, DefaultStaticOptions())
		if len(pos) != g.Order() {
			t.Errorf("%s: expected %d positions, got %d", a.Name, g.Order(), len(pos))
		}
		for id, p := range pos {
			if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
				t.Errorf("%s: node %s has non-finite position %+v", a.Name, id, p)
			}
		}
	}
}

func TestStaticLayoutsEmptyGraph(t *testing.T) {
	for _, a := range All() {
		if a.Family == FamilyStatic && len(a.Static(graph.New(), StaticOptions{})) != 0 {
			t.Errorf("%s: empty graph should give no positions", a.Name)
		}
	}
}

func TestGridCells(t *testing.T) {
	g := staticGraph(t)
	pos := Grid(g, StaticOptions{Spacing: 10})
	if pos["n1"] != (graph.Point{X: 0, Y: 0}) {
		t.Errorf("n1 should be at origin, got %+v", pos["n1"])
	}
	// 7 nodes -> 3 columns
	if pos["n4"] != (graph.Point{X: 0, Y: 10}) {
		t.Errorf("n4 should start the second row, got %+v", pos["n4"])
	}
	seen := make(map[graph.Point]string)
	for id, p := range pos {
		if other, dup := seen[p]; dup {
			t.Errorf("%s and %s share a cell", id, other)
		}
		seen[p] = id
	}
}

func TestRandomIsSeeded(t *testing.T) {
	g := staticGraph(t)
	a := Random(g, StaticOptions{Seed: 42})
	b := Random(g, StaticOptions{Seed: 42})
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("same seed should give same layout (-a +b):\n%s", diff)
	}
}

func TestBreadthFirstLayers(t *testing.T) {
	g := staticGraph(t)
	pos := BreadthFirst(g, StaticOptions{Spacing: 10})
	if pos["n1"].Y != 0 {
		t.Errorf("root n1 should be on layer 0, got y=%v", pos["n1"].Y)
	}
	if pos["n2"].Y != 10 || pos["n3"].Y != 10 {
		t.Errorf("n2 and n3 should be on layer 1, got %v %v", pos["n2"].Y, pos["n3"].Y)
	}
	if pos["n4"].Y != 20 {
		t.Errorf("n4 should be on layer 2, got %v", pos["n4"].Y)
	}
	if pos["n5"].X <= pos["n3"].X {
		t.Errorf("second component should sit to the right of the first")
	}
}

func TestLookup(t *testing.T) {
	a, err := Lookup("forceatlas2")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if a.Family != FamilyForce || a.Settings == nil {
		t.Errorf("forceatlas2 should be a force layout with settings, got %+v", a)
	}
	if _, err := Lookup("dagre"); !errors.Is(err, ErrUnknownLayout) {
		t.Errorf("expected ErrUnknownLayout, got %v", err)
	}
	names := Names()
	if names[0] != "forceatlas2" || names[len(names)-1] != "random" {
		t.Errorf("names should keep registration order, got %v", names)
	}
}
