package highlight

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/msalah0e/protoviz/internal/graph"
)

// scenarioGraph is n1..n5 with n1-n2, n2-n3, n4-n5.
func scenarioGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	labels := map[string]string{"n1": "P1 P2", "n2": "P2", "n3": "P3", "n4": "P4", "n5": "P4 P5"}
	for _, id := range []string{"n1", "n2", "n3", "n4", "n5"} {
		if err := g.AddNode(graph.Node{ID: id, Label: labels[id]}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []graph.Edge{
		{ID: "n1-n2", Source: "n1", Target: "n2"},
		{ID: "n2-n3", Source: "n2", Target: "n3"},
		{ID: "n4-n5", Source: "n4", Target: "n5"},
	} {
		if _, err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

type snapshot struct {
	Nodes map[string]graph.Marks
	Edges map[string]bool
}

func capture(g *graph.Graph) snapshot {
	s := snapshot{Nodes: map[string]graph.Marks{}, Edges: map[string]bool{}}
	for _, id := range g.NodeIDs() {
		s.Nodes[id] = g.Marks(id)
	}
	for _, e := range g.Edges() {
		s.Edges[e.ID] = g.EdgeHidden(e.ID)
	}
	return s
}

func TestScenarioOrWithoutFilter(t *testing.T) {
	g := scenarioGraph(t)
	res := Recompute(g, Selection{Tokens: []string{"P2"}, Mode: ModeOr})

	if diff := cmp.Diff([]string{"n1", "n2"}, res.Hits); diff != "" {
		t.Errorf("hits mismatch (-want +got):\n%s", diff)
	}
	want := snapshot{
		Nodes: map[string]graph.Marks{
			"n1": {Highlighted: true},
			"n2": {Highlighted: true},
			"n3": {Dimmed: true},
			"n4": {Dimmed: true},
			"n5": {Dimmed: true},
		},
		Edges: map[string]bool{"n1-n2": false, "n2-n3": false, "n4-n5": false},
	}
	if diff := cmp.Diff(want, capture(g)); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
}

func TestScenarioAndWithFilter(t *testing.T) {
	g := scenarioGraph(t)
	res := Recompute(g, Selection{Tokens: []string{"P4", "P5"}, Mode: ModeAnd, Filter: true})

	if diff := cmp.Diff([]string{"n5"}, res.Hits); diff != "" {
		t.Errorf("hits mismatch (-want +got):\n%s", diff)
	}
	want := snapshot{
		Nodes: map[string]graph.Marks{
			"n1": {Dimmed: true, Hidden: true},
			"n2": {Dimmed: true, Hidden: true},
			"n3": {Dimmed: true, Hidden: true},
			"n4": {Dimmed: true},
			"n5": {Highlighted: true},
		},
		Edges: map[string]bool{"n1-n2": true, "n2-n3": true, "n4-n5": false},
	}
	if diff := cmp.Diff(want, capture(g)); diff != "" {
		t.Errorf("state mismatch (-want +got):\n%s", diff)
	}
	if res.HiddenNodes != 3 || res.HiddenEdges != 2 {
		t.Errorf("unexpected counts %+v", res)
	}
}

func TestAndVersusOr(t *testing.T) {
	g := graph.New()
	g.AddNode(graph.Node{ID: "ab", Label: "A B"})
	g.AddNode(graph.Node{ID: "a", Label: "A"})
	g.AddNode(graph.Node{ID: "b", Label: "B"})

	and := Recompute(g, Selection{Tokens: []string{"A", "B"}, Mode: ModeAnd})
	if diff := cmp.Diff([]string{"ab"}, and.Hits); diff != "" {
		t.Errorf("AND hits mismatch (-want +got):\n%s", diff)
	}
	or := Recompute(g, Selection{Tokens: []string{"A", "B"}, Mode: ModeOr})
	if diff := cmp.Diff([]string{"a", "ab", "b"}, or.Hits); diff != "" {
		t.Errorf("OR hits mismatch (-want +got):\n%s", diff)
	}
}

func TestFilterKeepsWholeComponent(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"A", "B", "C", "D"} {
		g.AddNode(graph.Node{ID: id, Label: "tok" + id})
	}
	g.AddEdge(graph.Edge{Source: "A", Target: "B"})
	g.AddEdge(graph.Edge{Source: "B", Target: "C"})

	Recompute(g, Selection{Tokens: []string{"tokA"}, Filter: true})
	for _, id := range []string{"A", "B", "C"} {
		if g.Marks(id).Hidden {
			t.Errorf("%s is reachable from the hit and must stay visible", id)
		}
	}
	if !g.Marks("D").Hidden {
		t.Error("disconnected D must be hidden")
	}
}

func TestIdempotent(t *testing.T) {
	g := scenarioGraph(t)
	sel := Selection{Tokens: []string{"P4"}, Mode: ModeOr, Filter: true}
	Recompute(g, sel)
	once := capture(g)
	Recompute(g, sel)
	if diff := cmp.Diff(once, capture(g)); diff != "" {
		t.Errorf("second pass changed state (-once +twice):\n%s", diff)
	}
}

func TestEmptySelectionResets(t *testing.T) {
	g := scenarioGraph(t)
	Recompute(g, Selection{Tokens: []string{"P4", "P5"}, Mode: ModeAnd, Filter: true})
	Recompute(g, Selection{})

	for id, m := range capture(g).Nodes {
		if m != (graph.Marks{}) {
			t.Errorf("%s should be reset, got %+v", id, m)
		}
	}
	for id, hidden := range capture(g).Edges {
		if hidden {
			t.Errorf("edge %s should be visible", id)
		}
	}
}

func TestFilterOffNeverHides(t *testing.T) {
	g := scenarioGraph(t)
	Recompute(g, Selection{Tokens: []string{"P4"}, Mode: ModeOr, Filter: true})
	Recompute(g, Selection{Tokens: []string{"P4"}, Mode: ModeOr})
	for id, m := range capture(g).Nodes {
		if m.Hidden {
			t.Errorf("%s hidden with filter off", id)
		}
	}
}

func TestNoHitsWithFilterHidesEverything(t *testing.T) {
	g := scenarioGraph(t)
	res := Recompute(g, Selection{Tokens: []string{"NOPE"}, Filter: true})
	if res.HiddenNodes != 5 || res.HiddenEdges != 3 {
		t.Errorf("expected everything hidden, got %+v", res)
	}
}

func TestLabelFuncPanicIsContained(t *testing.T) {
	g := scenarioGraph(t)
	e := New(WithLabelFunc(func(n graph.Node) string {
		if n.ID == "n1" {
			panic("bad label")
		}
		return n.Label
	}))
	res := e.Recompute(g, Selection{Tokens: []string{"P2"}})
	if diff := cmp.Diff([]string{"n2"}, res.Hits); diff != "" {
		t.Errorf("hits mismatch (-want +got):\n%s", diff)
	}
	if !g.Marks("n1").Dimmed {
		t.Error("node whose label failed should be dimmed, not skipped")
	}
}

func TestDisplayModeChange(t *testing.T) {
	g := scenarioGraph(t)
	sel := Selection{Tokens: []string{"n3"}}
	if res := Recompute(g, sel); len(res.Hits) != 0 {
		t.Errorf("labels do not contain ids, got %v", res.Hits)
	}
	res := New(WithLabelFunc(ByID)).Recompute(g, sel)
	if diff := cmp.Diff([]string{"n3"}, res.Hits); diff != "" {
		t.Errorf("hits mismatch (-want +got):\n%s", diff)
	}
}

func TestUnusableGraph(t *testing.T) {
	if res := Recompute(nil, Selection{Tokens: []string{"P1"}}); len(res.Hits) != 0 {
		t.Error("nil graph should be a no-op")
	}
}

func TestParseModeAndToggle(t *testing.T) {
	if m, err := ParseMode("AND"); err != nil || m != ModeAnd {
		t.Errorf("expected AND, got %v %v", m, err)
	}
	if _, err := ParseMode("xor"); err == nil {
		t.Error("expected error for xor")
	}
	s := Selection{}.Toggle("P1").Toggle("P2").Toggle("P1")
	if diff := cmp.Diff([]string{"P2"}, s.Tokens); diff != "" {
		t.Errorf("toggle mismatch (-want +got):\n%s", diff)
	}
}
